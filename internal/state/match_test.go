package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lagoon-project/lagoon/internal/protocol"
	"github.com/lagoon-project/lagoon/internal/state"
)

func newTestMatch(t *testing.T, password string, hostID int32) *state.Match {
	t.Helper()
	s := state.NewMatchStore()
	m, err := s.Create("room", password, hostID)
	require.NoError(t, err)
	require.True(t, m.Join(hostID, password))
	return m
}

func TestMatchJoinPasswordByteExact(t *testing.T) {
	m := newTestMatch(t, "Secret", 1)

	assert.False(t, m.Join(2, "secret"))
	assert.False(t, m.Join(2, "Secret "))
	assert.False(t, m.Join(2, ""))
	assert.True(t, m.Join(2, "Secret"))
}

func TestMatchJoinFillsFirstOpenSlot(t *testing.T) {
	m := newTestMatch(t, "", 1)

	require.True(t, m.Join(2, ""))
	assert.Equal(t, 0, m.SlotOf(1))
	assert.Equal(t, 1, m.SlotOf(2))

	// A seated player cannot join twice.
	assert.False(t, m.Join(2, ""))
}

func TestMatchJoinFullRoom(t *testing.T) {
	m := newTestMatch(t, "", 1)
	for id := int32(2); id <= protocol.MaxSlots; id++ {
		require.True(t, m.Join(id, ""))
	}
	assert.False(t, m.Join(100, ""))
}

func TestMatchLeaveHostTransfer(t *testing.T) {
	m := newTestMatch(t, "", 1)
	require.True(t, m.Join(2, ""))
	require.True(t, m.Join(3, ""))

	// Host leaves: the occupant of the lowest occupied slot takes over.
	newHost, empty := m.Leave(1)
	assert.False(t, empty)
	assert.Equal(t, int32(2), newHost)
	assert.Equal(t, int32(2), m.HostID())

	// A non-host leaving does not move the host.
	newHost, empty = m.Leave(3)
	assert.False(t, empty)
	assert.Equal(t, int32(2), newHost)

	newHost, empty = m.Leave(2)
	assert.True(t, empty)
	assert.Equal(t, int32(0), newHost)
}

func TestMatchChangeSlot(t *testing.T) {
	m := newTestMatch(t, "", 1)

	require.True(t, m.ChangeSlot(1, 5))
	assert.Equal(t, 5, m.SlotOf(1))

	// Out-of-range and occupied targets are rejected.
	assert.False(t, m.ChangeSlot(1, -1))
	assert.False(t, m.ChangeSlot(1, protocol.MaxSlots))
	require.True(t, m.Join(2, ""))
	assert.False(t, m.ChangeSlot(2, 5))
}

func TestMatchToggleLock(t *testing.T) {
	m := newTestMatch(t, "", 1)

	require.True(t, m.ToggleLock(3))
	snap := m.Snapshot()
	assert.Equal(t, protocol.SlotLocked, snap.Slots[3].Status)

	// Locked slots block occupancy until unlocked.
	for id := int32(2); id <= protocol.MaxSlots; id++ {
		m.Join(id, "")
	}
	assert.Equal(t, -1, m.SlotOf(16))

	require.True(t, m.ToggleLock(3))
	assert.True(t, m.Join(16, ""))

	// Occupied slots are left alone.
	assert.False(t, m.ToggleLock(0))
}

func TestMatchReadyToggles(t *testing.T) {
	m := newTestMatch(t, "", 1)

	require.True(t, m.ToggleReady(1, true))
	assert.Equal(t, protocol.SlotReady, m.Snapshot().Slots[0].Status)

	// Already ready: no transition.
	assert.False(t, m.ToggleReady(1, true))

	require.True(t, m.ToggleReady(1, false))
	assert.Equal(t, protocol.SlotNotReady, m.Snapshot().Slots[0].Status)

	assert.False(t, m.ToggleReady(99, true))
}

func TestMatchApplySettingsResetsReady(t *testing.T) {
	m := newTestMatch(t, "", 1)
	require.True(t, m.Join(2, ""))
	require.True(t, m.ToggleReady(2, true))

	wire := m.Snapshot()
	wire.MapMD5 = "different-map"
	m.ApplySettings(wire)

	// A map change invalidates ready states.
	assert.Equal(t, protocol.SlotNotReady, m.Snapshot().Slots[1].Status)
}

func TestMatchApplySettingsFreeModsMigration(t *testing.T) {
	m := newTestMatch(t, "", 1)
	require.True(t, m.Join(2, ""))
	require.True(t, m.SetMods(1, 64, true))

	// Enabling freemods moves the global mods onto every occupied slot.
	wire := m.Snapshot()
	wire.FreeMods = true
	m.ApplySettings(wire)

	snap := m.Snapshot()
	assert.True(t, snap.FreeMods)
	assert.Equal(t, int32(0), snap.Mods)
	assert.Equal(t, int32(64), snap.Slots[0].Mods)
	assert.Equal(t, int32(64), snap.Slots[1].Mods)

	// With freemods on, non-hosts control their own slot mods.
	require.True(t, m.SetMods(2, 8, false))
	assert.Equal(t, int32(8), m.Snapshot().Slots[1].Mods)

	// Disabling freemods promotes the host's slot mods to global.
	wire = m.Snapshot()
	wire.FreeMods = false
	m.ApplySettings(wire)

	snap = m.Snapshot()
	assert.False(t, snap.FreeMods)
	assert.Equal(t, int32(64), snap.Mods)
	assert.Equal(t, int32(0), snap.Slots[1].Mods)
}

func TestMatchSetModsRequiresHostWithoutFreeMods(t *testing.T) {
	m := newTestMatch(t, "", 1)
	require.True(t, m.Join(2, ""))

	assert.False(t, m.SetMods(2, 16, false))
	assert.True(t, m.SetMods(1, 16, true))
	assert.Equal(t, int32(16), m.Snapshot().Mods)
}

func TestMatchGameLifecycle(t *testing.T) {
	m := newTestMatch(t, "", 1)
	require.True(t, m.Join(2, ""))
	require.True(t, m.Join(3, ""))

	// Player 3 is missing the map and stays seated when the game starts.
	require.True(t, m.SetHasMap(3, false))

	playing := m.Start()
	assert.ElementsMatch(t, []int32{1, 2}, playing)
	assert.True(t, m.InProgress())
	assert.Equal(t, protocol.SlotNoMap, m.Snapshot().Slots[2].Status)

	// All playing slots must load before the game begins.
	allLoaded, ok := m.SetLoaded(1)
	require.True(t, ok)
	assert.False(t, allLoaded)
	allLoaded, ok = m.SetLoaded(2)
	require.True(t, ok)
	assert.True(t, allLoaded)

	// A non-playing slot cannot report loading.
	_, ok = m.SetLoaded(3)
	assert.False(t, ok)

	// Skip needs every playing slot.
	idx, allSkipped, ok := m.SetSkipped(1)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.False(t, allSkipped)
	_, allSkipped, ok = m.SetSkipped(2)
	require.True(t, ok)
	assert.True(t, allSkipped)

	// Completion ends the game once the last playing slot finishes.
	allDone, ok := m.Complete(1)
	require.True(t, ok)
	assert.False(t, allDone)
	assert.True(t, m.InProgress())

	allDone, ok = m.Complete(2)
	require.True(t, ok)
	assert.True(t, allDone)
	assert.False(t, m.InProgress())
	assert.Equal(t, protocol.SlotNotReady, m.Snapshot().Slots[0].Status)
}

func TestMatchAbort(t *testing.T) {
	m := newTestMatch(t, "", 1)
	require.True(t, m.Join(2, ""))
	m.Start()
	require.True(t, m.InProgress())

	m.Abort()
	assert.False(t, m.InProgress())
	snap := m.Snapshot()
	assert.Equal(t, protocol.SlotNotReady, snap.Slots[0].Status)
	assert.Equal(t, protocol.SlotNotReady, snap.Slots[1].Status)
}

func TestMatchSetHost(t *testing.T) {
	m := newTestMatch(t, "", 1)
	require.True(t, m.Join(2, ""))

	assert.False(t, m.SetHost(99))
	assert.True(t, m.SetHost(2))
	assert.Equal(t, int32(2), m.HostID())
}

func TestMatchChangeTeam(t *testing.T) {
	m := newTestMatch(t, "", 1)

	require.True(t, m.ChangeTeam(1))
	assert.Equal(t, protocol.TeamBlue, m.Snapshot().Slots[0].Team)
	require.True(t, m.ChangeTeam(1))
	assert.Equal(t, protocol.TeamRed, m.Snapshot().Slots[0].Team)
	assert.False(t, m.ChangeTeam(99))
}

func TestMatchSettingsFrozenInProgress(t *testing.T) {
	m := newTestMatch(t, "", 1)
	m.Start()

	wire := m.Snapshot()
	wire.Name = "renamed"
	m.ApplySettings(wire)
	assert.Equal(t, "room", m.Name())
}
