package state

import (
	"fmt"
	"sync"

	"github.com/lagoon-project/lagoon/internal/protocol"
)

// Slot is one of the sixteen seats in a match. The zero value is an open,
// unoccupied slot.
type Slot struct {
	Status   protocol.SlotStatus
	Team     protocol.MatchTeam
	PlayerID int32
	Mods     int32
	Loaded   bool
	Skipped  bool
}

func (s *Slot) occupied() bool {
	return s.Status&protocol.SlotHasPlayer != 0
}

func (s *Slot) reset() {
	*s = Slot{Status: protocol.SlotOpen}
}

// Match is a multiplayer room. All access goes through methods holding mu;
// slot occupants and the host are referenced by player id and resolved
// through the PlayerStore at use time.
type Match struct {
	ID int32

	mu           sync.Mutex
	name         string
	password     string
	mapName      string
	mapID        int32
	mapMD5       string
	hostID       int32
	mode         uint8
	winCondition uint8
	teamType     uint8
	mods         int32
	freeMods     bool
	inProgress   bool
	seed         int32
	slots        [protocol.MaxSlots]Slot

	// Chat is the instanced #multi_<id> channel for this match.
	Chat *Channel
}

func newMatch(id int32, name, password string, hostID int32) *Match {
	m := &Match{
		ID:       id,
		name:     name,
		password: password,
		hostID:   hostID,
		Chat:     NewChannel(fmt.Sprintf("#multi_%d", id), "Match chat", false, true),
	}
	for i := range m.slots {
		m.slots[i].reset()
	}
	return m
}

// Name returns the match name.
func (m *Match) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

// HostID returns the current host's player id, 0 if hostless.
func (m *Match) HostID() int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hostID
}

// InProgress reports whether a game is being played.
func (m *Match) InProgress() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inProgress
}

// Snapshot captures the match as a wire-format value. Encoding always
// works from a snapshot, never from live state.
func (m *Match) Snapshot() protocol.Match {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Match) snapshotLocked() protocol.Match {
	out := protocol.Match{
		ID:           int16(m.ID),
		InProgress:   m.inProgress,
		Mods:         m.mods,
		Name:         m.name,
		Password:     m.password,
		MapName:      m.mapName,
		MapID:        m.mapID,
		MapMD5:       m.mapMD5,
		HostID:       m.hostID,
		Mode:         m.mode,
		WinCondition: m.winCondition,
		TeamType:     m.teamType,
		FreeMods:     m.freeMods,
		Seed:         m.seed,
	}
	for i, s := range m.slots {
		out.Slots[i] = protocol.MatchSlot{
			Status:   s.Status,
			Team:     s.Team,
			PlayerID: s.PlayerID,
			Mods:     s.Mods,
		}
	}
	return out
}

// Join seats a player in the first open slot. The password check is
// byte-exact; a wrong password or a full room returns false.
func (m *Match) Join(playerID int32, password string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.password != "" && password != m.password {
		return false
	}
	if m.slotOfLocked(playerID) != -1 {
		return false
	}
	for i := range m.slots {
		if m.slots[i].Status == protocol.SlotOpen {
			m.slots[i] = Slot{
				Status:   protocol.SlotNotReady,
				PlayerID: playerID,
			}
			return true
		}
	}
	return false
}

// Leave removes a player. If the host left, the occupant of the lowest
// occupied slot becomes host (0 when the room emptied). Returns the new
// host id and whether the match is now empty.
func (m *Match) Leave(playerID int32) (newHostID int32, empty bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if idx := m.slotOfLocked(playerID); idx != -1 {
		m.slots[idx].reset()
	}

	occupied := -1
	for i := range m.slots {
		if m.slots[i].occupied() {
			occupied = i
			break
		}
	}
	if occupied == -1 {
		m.hostID = 0
		return 0, true
	}
	if m.hostID == playerID {
		m.hostID = m.slots[occupied].PlayerID
	}
	return m.hostID, false
}

// SlotOf returns the slot index occupied by the player, -1 if not seated.
func (m *Match) SlotOf(playerID int32) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slotOfLocked(playerID)
}

func (m *Match) slotOfLocked(playerID int32) int {
	for i := range m.slots {
		if m.slots[i].occupied() && m.slots[i].PlayerID == playerID {
			return i
		}
	}
	return -1
}

// ChangeSlot moves a player to an open slot, carrying their state.
func (m *Match) ChangeSlot(playerID int32, to int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if to < 0 || to >= protocol.MaxSlots {
		return false
	}
	from := m.slotOfLocked(playerID)
	if from == -1 || m.slots[to].Status != protocol.SlotOpen {
		return false
	}
	m.slots[to] = m.slots[from]
	m.slots[from].reset()
	return true
}

// ToggleReady flips a seated player between NotReady and Ready.
func (m *Match) ToggleReady(playerID int32, ready bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.slotOfLocked(playerID)
	if idx == -1 {
		return false
	}
	switch {
	case ready && m.slots[idx].Status == protocol.SlotNotReady:
		m.slots[idx].Status = protocol.SlotReady
	case !ready && m.slots[idx].Status == protocol.SlotReady:
		m.slots[idx].Status = protocol.SlotNotReady
	default:
		return false
	}
	return true
}

// SetHasMap records whether a seated player has the current beatmap.
func (m *Match) SetHasMap(playerID int32, hasMap bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.slotOfLocked(playerID)
	if idx == -1 {
		return false
	}
	if hasMap {
		m.slots[idx].Status = protocol.SlotNotReady
	} else {
		m.slots[idx].Status = protocol.SlotNoMap
	}
	return true
}

// ToggleLock locks an open slot or opens a locked one. A locked slot
// blocks occupancy until unlocked. Occupied slots are left alone.
func (m *Match) ToggleLock(slotIdx int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if slotIdx < 0 || slotIdx >= protocol.MaxSlots {
		return false
	}
	switch m.slots[slotIdx].Status {
	case protocol.SlotOpen:
		m.slots[slotIdx].Status = protocol.SlotLocked
	case protocol.SlotLocked:
		m.slots[slotIdx].Status = protocol.SlotOpen
	default:
		return false
	}
	return true
}

// ChangeTeam flips a seated player between blue and red. Neutral players
// (head-to-head modes) join blue first.
func (m *Match) ChangeTeam(playerID int32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.slotOfLocked(playerID)
	if idx == -1 {
		return false
	}
	if m.slots[idx].Team == protocol.TeamBlue {
		m.slots[idx].Team = protocol.TeamRed
	} else {
		m.slots[idx].Team = protocol.TeamBlue
	}
	return true
}

// SetHost reassigns the host. The new host must be seated.
func (m *Match) SetHost(playerID int32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slotOfLocked(playerID) == -1 {
		return false
	}
	m.hostID = playerID
	return true
}

// SetMods applies a mod change. With FreeMods on, non-host players only
// set their own slot mods; the host additionally controls the speed-
// changing global mods.
func (m *Match) SetMods(playerID int32, mods int32, isHost bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.slotOfLocked(playerID)
	if idx == -1 {
		return false
	}
	if m.freeMods {
		m.slots[idx].Mods = mods
		return true
	}
	if !isHost {
		return false
	}
	m.mods = mods
	return true
}

// ChangePassword replaces the room password.
func (m *Match) ChangePassword(password string) {
	m.mu.Lock()
	m.password = password
	m.mu.Unlock()
}

// ApplySettings overwrites host-editable settings from a client match
// snapshot. Slot occupancy is never taken from the wire.
func (m *Match) ApplySettings(wire protocol.Match) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inProgress {
		return
	}

	// A mode or map change invalidates ready states.
	resetReady := wire.MapMD5 != m.mapMD5 || wire.Mode != m.mode ||
		wire.WinCondition != m.winCondition || wire.TeamType != m.teamType

	m.name = wire.Name
	m.mapName = wire.MapName
	m.mapID = wire.MapID
	m.mapMD5 = wire.MapMD5
	m.mode = wire.Mode
	m.winCondition = wire.WinCondition
	m.teamType = wire.TeamType
	m.seed = wire.Seed

	if wire.FreeMods != m.freeMods {
		m.freeMods = wire.FreeMods
		if wire.FreeMods {
			// Global mods move onto each occupied slot.
			for i := range m.slots {
				if m.slots[i].occupied() {
					m.slots[i].Mods = m.mods
				}
			}
			m.mods = 0
		} else {
			// Host's slot mods become the global mods.
			if idx := m.slotOfLocked(m.hostID); idx != -1 {
				m.mods = m.slots[idx].Mods
			}
			for i := range m.slots {
				m.slots[i].Mods = 0
			}
		}
	}

	if resetReady {
		for i := range m.slots {
			if m.slots[i].Status == protocol.SlotReady {
				m.slots[i].Status = protocol.SlotNotReady
			}
		}
	}
}

// Start transitions every seated slot with the beatmap into Playing and
// returns the ids now playing. Slots missing the map stay seated.
func (m *Match) Start() []int32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var playing []int32
	for i := range m.slots {
		if m.slots[i].occupied() && m.slots[i].Status != protocol.SlotNoMap {
			m.slots[i].Status = protocol.SlotPlaying
			m.slots[i].Loaded = false
			m.slots[i].Skipped = false
			playing = append(playing, m.slots[i].PlayerID)
		}
	}
	if len(playing) > 0 {
		m.inProgress = true
	}
	return playing
}

// SetLoaded marks a playing slot as loaded and reports whether every
// playing slot has now loaded.
func (m *Match) SetLoaded(playerID int32) (allLoaded bool, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.slotOfLocked(playerID)
	if idx == -1 || m.slots[idx].Status != protocol.SlotPlaying {
		return false, false
	}
	m.slots[idx].Loaded = true

	for i := range m.slots {
		if m.slots[i].Status == protocol.SlotPlaying && !m.slots[i].Loaded {
			return false, true
		}
	}
	return true, true
}

// SetSkipped marks a playing slot's skip request and reports the slot
// index and whether every playing slot has requested a skip.
func (m *Match) SetSkipped(playerID int32) (slotIdx int, allSkipped bool, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.slotOfLocked(playerID)
	if idx == -1 || m.slots[idx].Status != protocol.SlotPlaying {
		return -1, false, false
	}
	m.slots[idx].Skipped = true

	for i := range m.slots {
		if m.slots[i].Status == protocol.SlotPlaying && !m.slots[i].Skipped {
			return idx, false, true
		}
	}
	return idx, true, true
}

// Complete moves a playing slot back to NotReady and reports whether the
// whole game is now over. The post-game transition matches the slot
// lifecycle: Playing -> NotReady.
func (m *Match) Complete(playerID int32) (allDone bool, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.slotOfLocked(playerID)
	if idx == -1 || m.slots[idx].Status != protocol.SlotPlaying {
		return false, false
	}
	m.slots[idx].Status = protocol.SlotNotReady
	m.slots[idx].Loaded = false
	m.slots[idx].Skipped = false

	for i := range m.slots {
		if m.slots[i].Status == protocol.SlotPlaying {
			return false, true
		}
	}
	m.inProgress = false
	return true, true
}

// Abort force-ends an in-progress game, reseating every playing slot.
func (m *Match) Abort() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.slots {
		if m.slots[i].Status == protocol.SlotPlaying {
			m.slots[i].Status = protocol.SlotNotReady
			m.slots[i].Loaded = false
			m.slots[i].Skipped = false
		}
	}
	m.inProgress = false
}

// SeatedIDs returns the ids of every seated player.
func (m *Match) SeatedIDs() []int32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []int32
	for i := range m.slots {
		if m.slots[i].occupied() {
			out = append(out, m.slots[i].PlayerID)
		}
	}
	return out
}
