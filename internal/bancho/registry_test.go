package bancho

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lagoon-project/lagoon/internal/config"
	"github.com/lagoon-project/lagoon/internal/events"
	"github.com/lagoon-project/lagoon/internal/protocol"
	"github.com/lagoon-project/lagoon/internal/state"
)

func newTestBancho(t *testing.T) *Bancho {
	t.Helper()
	return New(state.NewWorld(), nil, events.NewEventBus(), config.DefaultConfig())
}

func addTestPlayer(t *testing.T, b *Bancho, id int32, name string, privs state.Privileges) *state.Player {
	t.Helper()
	p := state.NewPlayer(id, name, name+"-token", privs, 0)
	require.NoError(t, b.World.Players.Add(p))
	return p
}

// changeActionPacket frames a client status update.
func changeActionPacket(action uint8, infoText string, mode uint8) []byte {
	w := protocol.NewWriter()
	w.WriteUint8(action)
	w.WriteString(infoText)
	w.WriteString("") // map md5
	w.WriteInt32(0)   // mods
	w.WriteUint8(mode)
	w.WriteInt32(0) // map id
	return w.Packet(protocol.ClientChangeAction)
}

func TestProcessAppliesPacketsInOrder(t *testing.T) {
	b := newTestBancho(t)
	p := addTestPlayer(t, b, 1, "player", state.PrivUnrestricted)

	body := append(
		changeActionPacket(state.ActionPlaying, "first", 0),
		changeActionPacket(state.ActionEditing, "second", 3)...,
	)
	b.Process(context.Background(), p, body)

	// Both packets ran; the later one wins.
	st := p.Status()
	assert.Equal(t, state.ActionEditing, st.Action)
	assert.Equal(t, "second", st.InfoText)
	assert.Equal(t, uint8(3), st.Mode)
}

func TestProcessTruncatedPayloadKeepsEarlierEffects(t *testing.T) {
	b := newTestBancho(t)
	p := addTestPlayer(t, b, 1, "player", state.PrivUnrestricted)

	body := changeActionPacket(state.ActionPlaying, "applied", 1)
	// A header declaring more payload than remains ends iteration without
	// undoing anything already applied.
	w := protocol.NewWriter()
	w.WriteInt32(0)
	broken := w.Packet(protocol.ClientPing)
	broken[3] = 200 // declared length far past the buffer
	body = append(body, broken...)

	b.Process(context.Background(), p, body)

	assert.Equal(t, "applied", p.Status().InfoText)
}

func TestProcessTruncatedHeader(t *testing.T) {
	b := newTestBancho(t)
	p := addTestPlayer(t, b, 1, "player", state.PrivUnrestricted)

	body := changeActionPacket(state.ActionIdle, "ok", 0)
	body = append(body, 0x04, 0x00, 0x00) // three stray bytes

	b.Process(context.Background(), p, body)
	assert.Equal(t, "ok", p.Status().InfoText)
}

func TestProcessSkipsUnknownOpcode(t *testing.T) {
	b := newTestBancho(t)
	p := addTestPlayer(t, b, 1, "player", state.PrivUnrestricted)

	w := protocol.NewWriter()
	w.WriteInt32(12345)
	unknown := w.Packet(protocol.PacketID(250))

	body := append(unknown, changeActionPacket(state.ActionIdle, "after", 0)...)
	b.Process(context.Background(), p, body)

	// The unknown packet was skipped by its declared length and the next
	// one still ran.
	assert.Equal(t, "after", p.Status().InfoText)
}

func TestProcessContinuesAfterHandlerError(t *testing.T) {
	b := newTestBancho(t)
	p := addTestPlayer(t, b, 1, "player", state.PrivUnrestricted)

	// A change_action payload cut short fails to decode.
	w := protocol.NewWriter()
	w.WriteUint8(state.ActionPlaying)
	malformed := w.Packet(protocol.ClientChangeAction)

	body := append(malformed, changeActionPacket(state.ActionIdle, "recovered", 0)...)
	b.Process(context.Background(), p, body)

	assert.Equal(t, "recovered", p.Status().InfoText)
}

func TestProcessRestrictedFilter(t *testing.T) {
	b := newTestBancho(t)
	p := addTestPlayer(t, b, 1, "player", 0) // restricted

	// join_lobby is not available to restricted sessions.
	w := protocol.NewWriter()
	joinLobby := w.Packet(protocol.ClientJoinLobby)
	b.Process(context.Background(), p, joinLobby)
	assert.False(t, p.InLobby())

	// change_action still works while restricted.
	b.Process(context.Background(), p, changeActionPacket(state.ActionIdle, "quiet", 0))
	assert.Equal(t, "quiet", p.Status().InfoText)
}

func TestProcessRestrictedInvisibleInBroadcast(t *testing.T) {
	b := newTestBancho(t)
	restricted := addTestPlayer(t, b, 1, "hidden", 0)
	observer := addTestPlayer(t, b, 2, "observer", state.PrivUnrestricted)

	b.Process(context.Background(), restricted, changeActionPacket(state.ActionPlaying, "x", 0))

	// A restricted player's status change is not broadcast to anyone.
	assert.Equal(t, 0, observer.QueueLen())
}

func TestHandlerTableRestrictedSubset(t *testing.T) {
	// The restricted-allowed subset is deliberate; match state and chat
	// stay off-limits.
	restricted := []protocol.PacketID{
		protocol.ClientChangeAction,
		protocol.ClientLogout,
		protocol.ClientPing,
		protocol.ClientChannelJoin,
		protocol.ClientChannelPart,
		protocol.ClientFriendAdd,
		protocol.ClientIdentify,
	}
	blocked := []protocol.PacketID{
		protocol.ClientSendPublicMessage,
		protocol.ClientCreateMatch,
		protocol.ClientJoinMatch,
		protocol.ClientCreateGroup,
	}

	for _, id := range restricted {
		entry, ok := handlers[id]
		require.True(t, ok, "opcode %d missing", id)
		assert.True(t, entry.restricted, "opcode %d should be usable while restricted", id)
	}
	for _, id := range blocked {
		entry, ok := handlers[id]
		require.True(t, ok, "opcode %d missing", id)
		assert.False(t, entry.restricted, "opcode %d should be blocked while restricted", id)
	}
}
