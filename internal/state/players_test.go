package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lagoon-project/lagoon/internal/state"
)

func newTestPlayer(id int32, name, token string) *state.Player {
	return state.NewPlayer(id, name, token, state.PrivUnrestricted, 0)
}

func TestPlayerStoreIndexes(t *testing.T) {
	s := state.NewPlayerStore()
	p := newTestPlayer(1001, "Cool Guy", "tok-1")

	require.NoError(t, s.Add(p))

	// All three indexes resolve to the same session.
	assert.Same(t, p, s.GetID(1001))
	assert.Same(t, p, s.GetToken("tok-1"))
	assert.Same(t, p, s.GetName("cool_guy"))

	// Name lookups are case- and space-insensitive.
	assert.Same(t, p, s.GetName("Cool Guy"))
	assert.Same(t, p, s.GetName("COOL GUY"))

	assert.Equal(t, 1, s.Len())
}

func TestPlayerStoreDuplicateRejected(t *testing.T) {
	s := state.NewPlayerStore()
	require.NoError(t, s.Add(newTestPlayer(1, "one", "t1")))

	tests := []struct {
		name   string
		player *state.Player
	}{
		{"same id", newTestPlayer(1, "other", "t2")},
		{"same name", newTestPlayer(2, "one", "t3")},
		{"same token", newTestPlayer(3, "three", "t1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Add(tt.player)
			assert.ErrorIs(t, err, state.ErrSessionExists)
			// A failed insert must not leave partial index entries.
			assert.Nil(t, s.GetID(tt.player.ID))
		})
	}
	assert.Equal(t, 1, s.Len())
}

func TestPlayerStoreRemove(t *testing.T) {
	s := state.NewPlayerStore()
	p := newTestPlayer(1, "one", "t1")
	require.NoError(t, s.Add(p))

	assert.True(t, s.Remove(p))
	assert.Nil(t, s.GetID(1))
	assert.Nil(t, s.GetName("one"))
	assert.Nil(t, s.GetToken("t1"))
	assert.Equal(t, 0, s.Len())

	// Double remove is a no-op.
	assert.False(t, s.Remove(p))
}

func TestPlayerQueue(t *testing.T) {
	p := newTestPlayer(1, "one", "t1")

	p.Enqueue([]byte{1, 2})
	p.Enqueue([]byte{3})
	assert.Equal(t, 3, p.QueueLen())

	// Dequeue drains atomically.
	assert.Equal(t, []byte{1, 2, 3}, p.Dequeue())
	assert.Equal(t, 0, p.QueueLen())
	assert.Empty(t, p.Dequeue())
}

func TestPlayerDisplayName(t *testing.T) {
	p := newTestPlayer(1, "one", "t1")
	assert.Equal(t, "one", p.DisplayName())

	p.ClanTag = "GG"
	assert.Equal(t, "[GG] one", p.DisplayName())
}
