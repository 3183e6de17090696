package bancho

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lagoon-project/lagoon/internal/protocol"
	"github.com/lagoon-project/lagoon/internal/state"
)

func TestPingAnswersPongWhenIdle(t *testing.T) {
	b := newTestBancho(t)
	p := addTestPlayer(t, b, 1, "player", state.PrivUnrestricted)

	w := protocol.NewWriter()
	ping := w.Packet(protocol.ClientPing)

	b.Process(context.Background(), p, ping)
	assert.Equal(t, protocol.Pong(), p.Dequeue())

	// With traffic already queued the pong is skipped.
	p.Enqueue(protocol.Notification("pending"))
	b.Process(context.Background(), p, ping)
	assert.Equal(t, protocol.Notification("pending"), p.Dequeue())
}
