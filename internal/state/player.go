package state

import (
	"strings"
	"sync"
	"time"

	"github.com/lagoon-project/lagoon/internal/protocol"
)

// The server's chat bot identity, used for channel announcements and
// fallback messages to clients without extended capabilities.
const (
	BotID   int32 = 1
	BotName       = "Lagoon"
)

// Status is a player's transient in-game state, pushed by the client with
// every action change.
type Status struct {
	Action   uint8
	InfoText string
	MapMD5   string
	Mods     int32
	Mode     uint8
	MapID    int32
}

// Action ids as reported by the client.
const (
	ActionIdle         uint8 = 0
	ActionAFK          uint8 = 1
	ActionPlaying      uint8 = 2
	ActionEditing      uint8 = 3
	ActionModding      uint8 = 4
	ActionMultiplayer  uint8 = 5
	ActionWatching     uint8 = 6
	ActionTesting      uint8 = 8
	ActionSubmitting   uint8 = 9
	ActionPaused       uint8 = 10
	ActionLobby        uint8 = 11
	ActionMultiplaying uint8 = 12
)

// ModeStats is the cached per-mode stat line used for stats packets.
type ModeStats struct {
	RankedScore int64
	TotalScore  int64
	Accuracy    float32 // 0..1
	Plays       int32
	GlobalRank  int32
	PP          int16
}

// Player is one live session. Identity fields are fixed at login; all
// mutable state is guarded by mu. Cross-player effects only ever touch a
// player through Enqueue.
type Player struct {
	ID        int32
	Name      string
	SafeName  string
	Token     string
	UTCOffset int8
	Country   uint8
	ClanTag   string

	mu         sync.Mutex
	privs      Privileges
	features   ClientFeatures
	status     Status
	stats      map[uint8]ModeStats
	friends    map[int32]struct{}
	queue      []byte
	lastRecv   time.Time
	matchID    int32
	groupToken string
	inLobby    bool
	awayMsg    string
	silenceEnd time.Time
}

// NewPlayer creates a session for a freshly logged-in account.
func NewPlayer(id int32, name, token string, privs Privileges, utcOffset int8) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		SafeName:  MakeSafeName(name),
		Token:     token,
		UTCOffset: utcOffset,
		privs:     privs,
		stats:     make(map[uint8]ModeStats),
		friends:   make(map[int32]struct{}),
		lastRecv:  time.Now(),
	}
}

// MakeSafeName normalises a name for case-insensitive lookups.
func MakeSafeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// Enqueue appends packet bytes to the player's outbound mailbox. It is
// the only way any goroutine may affect another player's connection.
func (p *Player) Enqueue(b []byte) {
	p.mu.Lock()
	p.queue = append(p.queue, b...)
	p.mu.Unlock()
}

// Dequeue atomically returns and clears the outbound mailbox. Called once
// per poll cycle by the HTTP layer.
func (p *Player) Dequeue() []byte {
	p.mu.Lock()
	out := p.queue
	p.queue = nil
	p.mu.Unlock()
	return out
}

// QueueLen returns the pending outbound byte count.
func (p *Player) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// TouchLastRecv records that a request from this session was processed.
func (p *Player) TouchLastRecv() {
	p.mu.Lock()
	p.lastRecv = time.Now()
	p.mu.Unlock()
}

// LastRecv returns the time of the last processed request.
func (p *Player) LastRecv() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRecv
}

// Privileges returns the current privilege bitmask.
func (p *Player) Privileges() Privileges {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.privs
}

// SetPrivileges replaces the privilege bitmask.
func (p *Player) SetPrivileges(v Privileges) {
	p.mu.Lock()
	p.privs = v
	p.mu.Unlock()
}

// Restricted reports whether this session is privilege-restricted.
func (p *Player) Restricted() bool {
	return p.Privileges().Restricted()
}

// SetFeatures stores the capability bits from the extended handshake.
func (p *Player) SetFeatures(f ClientFeatures) {
	p.mu.Lock()
	p.features = f
	p.mu.Unlock()
}

// HasGroupCapability reports whether the client understands group packets.
func (p *Player) HasGroupCapability() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.features&FeatureGroups != 0
}

// Status returns a copy of the transient status.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// SetStatus replaces the transient status.
func (p *Player) SetStatus(s Status) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
}

// Stats returns the cached stat line for a mode.
func (p *Player) Stats(mode uint8) ModeStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats[mode]
}

// SetStats replaces the cached stat line for a mode.
func (p *Player) SetStats(mode uint8, s ModeStats) {
	p.mu.Lock()
	p.stats[mode] = s
	p.mu.Unlock()
}

// AddFriend records a friendship edge.
func (p *Player) AddFriend(id int32) {
	p.mu.Lock()
	p.friends[id] = struct{}{}
	p.mu.Unlock()
}

// RemoveFriend removes a friendship edge.
func (p *Player) RemoveFriend(id int32) {
	p.mu.Lock()
	delete(p.friends, id)
	p.mu.Unlock()
}

// FriendIDs returns a snapshot of the friend id set.
func (p *Player) FriendIDs() []int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int32, 0, len(p.friends))
	for id := range p.friends {
		out = append(out, id)
	}
	return out
}

// MatchID returns the id of the match this player is seated in, 0 if none.
func (p *Player) MatchID() int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.matchID
}

// SetMatchID records which match the player is seated in.
func (p *Player) SetMatchID(id int32) {
	p.mu.Lock()
	p.matchID = id
	p.mu.Unlock()
}

// GroupToken returns the token of the player's group, "" if none.
func (p *Player) GroupToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.groupToken
}

// SetGroupToken records group membership.
func (p *Player) SetGroupToken(token string) {
	p.mu.Lock()
	p.groupToken = token
	p.mu.Unlock()
}

// InLobby reports whether the player is watching the multiplayer lobby.
func (p *Player) InLobby() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inLobby
}

// SetInLobby toggles lobby membership.
func (p *Player) SetInLobby(v bool) {
	p.mu.Lock()
	p.inLobby = v
	p.mu.Unlock()
}

// SetAwayMessage stores the away auto-reply, "" to clear.
func (p *Player) SetAwayMessage(msg string) {
	p.mu.Lock()
	p.awayMsg = msg
	p.mu.Unlock()
}

// AwayMessage returns the away auto-reply.
func (p *Player) AwayMessage() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.awayMsg
}

// Silenced reports whether the player is currently silenced.
func (p *Player) Silenced() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.silenceEnd.After(time.Now())
}

// Silence mutes the player for the given duration.
func (p *Player) Silence(d time.Duration) {
	p.mu.Lock()
	p.silenceEnd = time.Now().Add(d)
	p.mu.Unlock()
}

// SilenceSecondsLeft returns the remaining silence in whole seconds,
// 0 when the player is not silenced.
func (p *Player) SilenceSecondsLeft() int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	left := time.Until(p.silenceEnd)
	if left <= 0 {
		return 0
	}
	return int32(left / time.Second)
}

// DisplayName is the name shown to other players, with the clan tag
// prefixed when the player is in a clan.
func (p *Player) DisplayName() string {
	if p.ClanTag != "" {
		return "[" + p.ClanTag + "] " + p.Name
	}
	return p.Name
}

// PresencePacket builds this player's presence packet.
func (p *Player) PresencePacket() []byte {
	p.mu.Lock()
	mode := p.status.Mode
	privs := p.privs
	rank := p.stats[mode].GlobalRank
	p.mu.Unlock()

	return protocol.WriteUserPresence(protocol.UserPresence{
		UserID:      p.ID,
		Name:        p.DisplayName(),
		UTCOffset:   p.UTCOffset,
		CountryCode: p.Country,
		BanchoPrivs: uint8(privs.ClientSide()),
		Mode:        mode,
		GlobalRank:  rank,
	})
}

// StatsPacket builds this player's stats packet for its current mode.
func (p *Player) StatsPacket() []byte {
	p.mu.Lock()
	st := p.status
	ms := p.stats[st.Mode]
	p.mu.Unlock()

	return protocol.WriteUserStats(protocol.UserStats{
		UserID:      p.ID,
		Action:      st.Action,
		InfoText:    st.InfoText,
		MapMD5:      st.MapMD5,
		Mods:        st.Mods,
		Mode:        st.Mode,
		MapID:       st.MapID,
		RankedScore: ms.RankedScore,
		Accuracy:    ms.Accuracy,
		Plays:       ms.Plays,
		TotalScore:  ms.TotalScore,
		GlobalRank:  ms.GlobalRank,
		PP:          ms.PP,
	})
}
