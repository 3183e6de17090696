package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lagoon-project/lagoon/internal/state"
)

func newTestGroup(t *testing.T) (*state.World, *state.Player, *state.Group) {
	t.Helper()
	w := state.NewWorld()
	lead := newTestPlayer(1, "lead", "t-lead")
	require.NoError(t, w.Players.Add(lead))
	g := w.CreateGroup(lead)
	require.NotNil(t, g)
	return w, lead, g
}

func TestGroupCreate(t *testing.T) {
	w, lead, g := newTestGroup(t)

	assert.Equal(t, lead.ID, g.LeadID())
	assert.Equal(t, []int32{lead.ID}, g.MemberIDs())
	assert.Equal(t, g.Token, lead.GroupToken())

	// The group channel exists and seats the lead.
	ch := w.Channels.GetByName("#group_" + g.Token)
	require.NotNil(t, ch)
	assert.True(t, ch.HasMember(lead.ID))
	assert.Equal(t, 1, w.Groups.Len())
}

func TestGroupAcceptRequiresInvite(t *testing.T) {
	_, _, g := newTestGroup(t)

	// No invite, no entry.
	assert.False(t, g.Accept(2))

	require.True(t, g.Invite(2))
	assert.True(t, g.IsInvited(2))

	// Double invites are rejected.
	assert.False(t, g.Invite(2))

	assert.True(t, g.Accept(2))
	assert.True(t, g.HasMember(2))
	assert.False(t, g.IsInvited(2))

	// The invite was consumed.
	assert.False(t, g.Accept(2))

	// Members cannot be invited.
	assert.False(t, g.Invite(2))
}

func TestGroupLeadNotRemovable(t *testing.T) {
	_, lead, g := newTestGroup(t)

	assert.False(t, g.Remove(lead.ID))
	assert.True(t, g.HasMember(lead.ID))
}

func TestGroupRemoveMember(t *testing.T) {
	_, lead, g := newTestGroup(t)
	require.True(t, g.Invite(2))
	require.True(t, g.Accept(2))

	assert.True(t, g.Remove(2))
	assert.False(t, g.HasMember(2))
	assert.Equal(t, []int32{lead.ID}, g.MemberIDs())

	assert.False(t, g.Remove(2))
}
