// Package state holds the in-memory session registries for the bancho
// layer: live players, matches, channels, groups, clans, and mappools.
// Everything here is process-local and authoritative while a player is
// online; the repository is only consulted at login and for offline
// lookups.
package state

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lagoon-project/lagoon/internal/protocol"
	"github.com/lagoon-project/lagoon/internal/util"
)

// World is the dependency-injected registry bundle passed into every
// packet handler. Its lifetime is the process lifetime; there is no
// package-level mutable state.
type World struct {
	Players  *PlayerStore
	Matches  *MatchStore
	Channels *ChannelStore
	Groups   *GroupStore
	Clans    *ClanStore
	Pools    *PoolStore

	log zerolog.Logger
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{
		Players:  NewPlayerStore(),
		Matches:  NewMatchStore(),
		Channels: NewChannelStore(),
		Groups:   NewGroupStore(),
		Clans:    NewClanStore(),
		Pools:    NewPoolStore(),
		log:      util.ComponentLogger("world"),
	}
}

// BroadcastAll appends packet bytes to every online player's mailbox.
func (w *World) BroadcastAll(b []byte) {
	for _, p := range w.Players.All() {
		p.Enqueue(b)
	}
}

// BroadcastUnrestricted fans packet bytes out to every unrestricted
// player except the listed ids. Restricted sessions are invisible to
// (and blind to) general presence traffic.
func (w *World) BroadcastUnrestricted(b []byte, exclude ...int32) {
	for _, p := range w.Players.All() {
		if p.Restricted() {
			continue
		}
		skip := false
		for _, ex := range exclude {
			if p.ID == ex {
				skip = true
				break
			}
		}
		if !skip {
			p.Enqueue(b)
		}
	}
}

// BroadcastLobby fans packet bytes out to every player watching the
// multiplayer lobby.
func (w *World) BroadcastLobby(b []byte) {
	for _, p := range w.Players.All() {
		if p.InLobby() {
			p.Enqueue(b)
		}
	}
}

// BroadcastMatch pushes the current match state to everyone seated in it
// (with password) and to the lobby (without).
func (w *World) BroadcastMatch(m *Match) {
	snap := m.Snapshot()
	m.Chat.Enqueue(protocol.UpdateMatch(snap, true))
	w.BroadcastLobby(protocol.UpdateMatch(snap, false))
}

// JoinChannel seats a player in a channel and refreshes the channel's
// member count for everyone else in it.
func (w *World) JoinChannel(p *Player, c *Channel) bool {
	if !c.AddMember(p) {
		return false
	}
	p.Enqueue(protocol.ChannelJoinSuccess(c.Name))
	c.Enqueue(c.InfoPacket())
	return true
}

// LeaveChannel removes a player from a channel, kicking their client out
// of the tab and refreshing counts. Empty instanced channels are torn
// down.
func (w *World) LeaveChannel(p *Player, c *Channel) {
	if !c.RemoveMember(p.ID) {
		return
	}
	p.Enqueue(protocol.ChannelKick(c.Name))
	c.Enqueue(c.InfoPacket())

	if c.Instanced && c.NumMembers() == 0 {
		w.Channels.Remove(c.Name)
	}
}

// --- Matches ---

// CreateMatch claims a registry slot, registers the match chat channel,
// and seats the host. Fails with ErrMatchesFull at capacity.
func (w *World) CreateMatch(host *Player, wire protocol.Match) (*Match, error) {
	m, err := w.Matches.Create(wire.Name, wire.Password, host.ID)
	if err != nil {
		return nil, err
	}
	m.ApplySettings(wire)
	w.Channels.Add(m.Chat)

	if !m.Join(host.ID, wire.Password) {
		// A freshly created match always has room for its host.
		w.DisposeMatch(m)
		return nil, fmt.Errorf("state: host could not be seated in match %d", m.ID)
	}
	host.SetMatchID(m.ID)
	w.JoinChannel(host, m.Chat)

	host.Enqueue(protocol.MatchJoinSuccess(m.Snapshot()))
	w.BroadcastLobby(protocol.NewMatch(m.Snapshot()))
	w.log.Info().Int32("match_id", m.ID).Str("name", m.Name()).
		Int32("host_id", host.ID).Msg("match created")
	return m, nil
}

// JoinMatch seats a player if the password matches and a slot is open.
func (w *World) JoinMatch(p *Player, m *Match, password string) bool {
	if !m.Join(p.ID, password) {
		p.Enqueue(protocol.MatchJoinFail())
		return false
	}
	p.SetMatchID(m.ID)
	w.JoinChannel(p, m.Chat)
	p.Enqueue(protocol.MatchJoinSuccess(m.Snapshot()))
	w.BroadcastMatch(m)
	return true
}

// LeaveMatch unseats a player; the match is disposed once empty, and
// host transfer is announced when the host left.
func (w *World) LeaveMatch(p *Player, m *Match) {
	prevHost := m.HostID()
	newHost, empty := m.Leave(p.ID)

	p.SetMatchID(0)
	w.LeaveChannel(p, m.Chat)

	if empty {
		w.DisposeMatch(m)
		return
	}
	if newHost != prevHost {
		if h := w.Players.GetID(newHost); h != nil {
			h.Enqueue(protocol.MatchTransferHost())
		}
	}
	w.BroadcastMatch(m)
}

// DisposeMatch frees the match id, tears down its chat channel, and
// removes it from lobby listings.
func (w *World) DisposeMatch(m *Match) {
	if !w.Matches.Remove(m.ID) {
		return
	}
	w.Channels.Remove(m.Chat.Name)
	w.BroadcastLobby(protocol.DisposeMatch(m.ID))
	w.log.Info().Int32("match_id", m.ID).Msg("match disposed")
}

// --- Groups ---

// CreateGroup builds a new group led by lead, generating a token that is
// collision-checked against the registry, and announces it. A player may
// lead or belong to at most one group; callers remove prior membership
// first.
func (w *World) CreateGroup(lead *Player) *Group {
	var token string
	for {
		token = uuid.NewString()
		if !w.Groups.CheckToken(token) {
			break
		}
	}

	g := newGroup(token, lead.ID)
	w.Channels.Add(g.Chat)
	w.Groups.Add(g)
	lead.SetGroupToken(token)
	w.JoinChannel(lead, g.Chat)

	g.Chat.SendBot("Your group has been created")
	lead.Enqueue(protocol.Notification("group has been created"))
	if lead.HasGroupCapability() {
		lead.Enqueue(protocol.GroupJoin())
		lead.Enqueue(protocol.GroupUsers(g.LeadID(), g.MemberIDs()))
	}
	w.log.Info().Str("token", token).Int32("lead_id", lead.ID).Msg("group created")
	return g
}

// GroupOf resolves the group a player belongs to, nil if none.
func (w *World) GroupOf(p *Player) *Group {
	token := p.GroupToken()
	if token == "" {
		return nil
	}
	return w.Groups.GetByToken(token)
}

// groupRosterRefresh pushes the current roster to every capable member.
func (w *World) groupRosterRefresh(g *Group) {
	roster := protocol.GroupUsers(g.LeadID(), g.MemberIDs())
	for _, id := range g.MemberIDs() {
		if m := w.Players.GetID(id); m != nil && m.HasGroupCapability() {
			m.Enqueue(roster)
		}
	}
}

// GroupAdd converts an accepted invite into membership and notifies the
// whole group.
func (w *World) GroupAdd(g *Group, p *Player) bool {
	if !g.Accept(p.ID) {
		return false
	}
	p.SetGroupToken(g.Token)
	w.JoinChannel(p, g.Chat)

	if p.HasGroupCapability() {
		p.Enqueue(protocol.GroupJoin())
	}
	w.groupRosterRefresh(g)
	for _, id := range g.MemberIDs() {
		if m := w.Players.GetID(id); m != nil {
			if m.ID == p.ID {
				m.Enqueue(protocol.Notification("you joined the group"))
			} else {
				m.Enqueue(protocol.Notification(p.Name + " joined the group"))
			}
		}
	}
	g.Chat.SendBot(p.Name + " joined the group")
	return true
}

// GroupRemove drops a non-lead member, updating the remaining roster
// first and notifying the departing player last.
func (w *World) GroupRemove(g *Group, p *Player, kicked bool) bool {
	if !g.Remove(p.ID) {
		return false
	}
	p.SetGroupToken("")
	w.LeaveChannel(p, g.Chat)

	// Remaining members see the new roster before the departing player
	// hears about their own removal.
	w.groupRosterRefresh(g)
	if kicked {
		g.Chat.SendBot(p.Name + " has been kicked out of the group")
		p.Enqueue(protocol.Notification("You have been kicked out of the group"))
	} else {
		g.Chat.SendBot(p.Name + " left the group")
		p.Enqueue(protocol.Notification("You have left the group"))
	}
	if p.HasGroupCapability() {
		p.Enqueue(protocol.GroupLeave())
	}
	return true
}

// DisbandGroup tears a group down, removing every member from its
// channel and the group registry.
func (w *World) DisbandGroup(g *Group) {
	w.Groups.Remove(g.Token)

	for _, id := range g.MemberIDs() {
		m := w.Players.GetID(id)
		if m == nil {
			continue
		}
		m.SetGroupToken("")
		w.LeaveChannel(m, g.Chat)
		m.Enqueue(protocol.Notification("group has been disbanded"))
		if m.HasGroupCapability() {
			m.Enqueue(protocol.GroupLeave())
		}
	}
	w.Channels.Remove(g.Chat.Name)
	w.log.Info().Str("token", g.Token).Msg("group disbanded")
}
