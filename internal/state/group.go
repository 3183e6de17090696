package state

import "sync"

// Group is an ephemeral party of players built on top of a private
// channel. The lead is always a member; lead departure disbands the
// group. Membership is by player id.
type Group struct {
	Token string

	// Chat is the private #group_<token> channel, created and destroyed
	// with the group.
	Chat *Channel

	mu      sync.Mutex
	leadID  int32
	members []int32
	invites map[int32]struct{}
}

func newGroup(token string, leadID int32) *Group {
	return &Group{
		Token:   token,
		Chat:    NewChannel("#group_"+token, "Private group", false, true),
		leadID:  leadID,
		members: []int32{leadID},
		invites: make(map[int32]struct{}),
	}
}

// LeadID returns the current lead's player id.
func (g *Group) LeadID() int32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.leadID
}

// IsLead reports whether the player leads the group.
func (g *Group) IsLead(playerID int32) bool {
	return g.LeadID() == playerID
}

// MemberIDs returns a snapshot of the member list in join order.
func (g *Group) MemberIDs() []int32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]int32, len(g.members))
	copy(out, g.members)
	return out
}

// HasMember reports whether the player is a member.
func (g *Group) HasMember(playerID int32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hasMemberLocked(playerID)
}

func (g *Group) hasMemberLocked(playerID int32) bool {
	for _, id := range g.members {
		if id == playerID {
			return true
		}
	}
	return false
}

// Invite records a pending invite. Returns false if the player is
// already invited or already a member.
func (g *Group) Invite(playerID int32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.hasMemberLocked(playerID) {
		return false
	}
	if _, ok := g.invites[playerID]; ok {
		return false
	}
	g.invites[playerID] = struct{}{}
	return true
}

// IsInvited reports whether the player holds a pending invite.
func (g *Group) IsInvited(playerID int32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.invites[playerID]
	return ok
}

// Accept converts a pending invite into membership. Returns false when
// no invite exists; an invite is required to join.
func (g *Group) Accept(playerID int32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.invites[playerID]; !ok {
		return false
	}
	delete(g.invites, playerID)
	g.members = append(g.members, playerID)
	return true
}

// Remove drops a member. The lead cannot be removed this way; lead
// departure must go through disband. Returns false if not a member.
func (g *Group) Remove(playerID int32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if playerID == g.leadID {
		return false
	}
	for i, id := range g.members {
		if id == playerID {
			g.members = append(g.members[:i], g.members[i+1:]...)
			return true
		}
	}
	return false
}
