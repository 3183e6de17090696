package state_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lagoon-project/lagoon/internal/state"
)

func TestMatchStoreIDsAreOneBased(t *testing.T) {
	s := state.NewMatchStore()

	m1, err := s.Create("first", "", 10)
	require.NoError(t, err)
	m2, err := s.Create("second", "", 11)
	require.NoError(t, err)

	assert.Equal(t, int32(1), m1.ID)
	assert.Equal(t, int32(2), m2.ID)
	assert.Nil(t, s.Get(0))
	assert.Same(t, m1, s.Get(1))
}

func TestMatchStoreCapacity(t *testing.T) {
	s := state.NewMatchStore()

	for i := 0; i < state.MaxMatches; i++ {
		_, err := s.Create(fmt.Sprintf("room %d", i), "", int32(i))
		require.NoError(t, err)
	}
	assert.Equal(t, state.MaxMatches, s.Len())

	// The 65th create fails and creates nothing.
	_, err := s.Create("overflow", "", 999)
	assert.ErrorIs(t, err, state.ErrMatchesFull)
	assert.Equal(t, state.MaxMatches, s.Len())
}

func TestMatchStoreReusesFreedID(t *testing.T) {
	s := state.NewMatchStore()

	for i := 0; i < 3; i++ {
		_, err := s.Create("room", "", 1)
		require.NoError(t, err)
	}

	require.True(t, s.Remove(2))
	assert.Nil(t, s.Get(2))

	m, err := s.Create("reborn", "", 5)
	require.NoError(t, err)
	assert.Equal(t, int32(2), m.ID)
}

func TestMatchStoreAllInIDOrder(t *testing.T) {
	s := state.NewMatchStore()
	for i := 0; i < 4; i++ {
		_, err := s.Create("room", "", 1)
		require.NoError(t, err)
	}
	s.Remove(1)
	s.Remove(3)

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, int32(2), all[0].ID)
	assert.Equal(t, int32(4), all[1].ID)
}
