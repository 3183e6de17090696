package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lagoon-project/lagoon/internal/bancho"
	"github.com/lagoon-project/lagoon/internal/config"
	"github.com/lagoon-project/lagoon/internal/events"
	"github.com/lagoon-project/lagoon/internal/protocol"
	"github.com/lagoon-project/lagoon/internal/state"
)

func newTestCLI(t *testing.T) (*CLI, *state.World) {
	t.Helper()
	cfg := config.DefaultConfig()
	bus := events.NewEventBus()
	b := bancho.New(state.NewWorld(), nil, bus, cfg)
	return NewCLI(cfg, bus, b), b.World
}

func TestAbortCommand(t *testing.T) {
	c, world := newTestCLI(t)

	host := state.NewPlayer(2, "host", "t-host", state.PrivUnrestricted, 0)
	require.NoError(t, world.Players.Add(host))

	m, err := world.Matches.Create("room", "", host.ID)
	require.NoError(t, err)
	require.True(t, m.Join(host.ID, ""))
	require.True(t, m.ToggleReady(host.ID, true))
	require.NotEmpty(t, m.Start())
	require.True(t, m.InProgress())
	host.Dequeue()

	assert.Error(t, c.cmdAbort([]string{"99"}), "unknown match id")
	assert.Error(t, c.cmdAbort([]string{"room"}), "non-numeric id")

	require.NoError(t, c.cmdAbort([]string{"1"}))
	assert.False(t, m.InProgress())
	assert.Equal(t, protocol.MatchAbort(), host.Dequeue())

	// A second abort fails: the game is no longer running.
	assert.Error(t, c.cmdAbort([]string{"1"}))
}

func TestSilenceCommand(t *testing.T) {
	c, world := newTestCLI(t)

	p := state.NewPlayer(2, "chatter", "t-chatter", state.PrivUnrestricted, 0)
	require.NoError(t, world.Players.Add(p))

	assert.Error(t, c.cmdSilence([]string{"chatter"}), "missing duration")
	assert.Error(t, c.cmdSilence([]string{"chatter", "zero"}), "bad duration")
	assert.Error(t, c.cmdSilence([]string{"ghost", "5"}), "offline player")

	require.NoError(t, c.cmdSilence([]string{"chatter", "5"}))
	assert.True(t, p.Silenced())
	assert.Greater(t, p.SilenceSecondsLeft(), int32(0))
	assert.NotZero(t, p.QueueLen())
}
