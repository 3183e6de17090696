package bancho

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lagoon-project/lagoon/internal/protocol"
	"github.com/lagoon-project/lagoon/internal/state"
)

func TestCreateGroupReplacesLedGroup(t *testing.T) {
	b := newTestBancho(t)
	lead := addTestPlayer(t, b, 1, "lead", state.PrivUnrestricted)
	ctx := context.Background()

	require.NoError(t, handleCreateGroup(ctx, b, lead, protocol.NewReader(nil)))
	first := lead.GroupToken()
	require.NotEmpty(t, first)

	// Creating again disbands the group the player led and starts fresh.
	require.NoError(t, handleCreateGroup(ctx, b, lead, protocol.NewReader(nil)))
	second := lead.GroupToken()
	require.NotEmpty(t, second)
	assert.NotEqual(t, first, second)

	assert.Nil(t, b.World.Groups.GetByToken(first))
	assert.Nil(t, b.World.Channels.GetByName("#group_"+first))
	assert.Equal(t, 1, b.World.Groups.Len())
}

func TestCreateGroupLeavesJoinedGroup(t *testing.T) {
	b := newTestBancho(t)
	lead := addTestPlayer(t, b, 1, "lead", state.PrivUnrestricted)
	member := addTestPlayer(t, b, 2, "member", state.PrivUnrestricted)
	ctx := context.Background()

	require.NoError(t, handleCreateGroup(ctx, b, lead, protocol.NewReader(nil)))
	old := b.World.GroupOf(lead)
	require.NotNil(t, old)
	require.True(t, old.Invite(member.ID))
	require.True(t, b.World.GroupAdd(old, member))

	// A plain member creating their own group just walks out of the old
	// one; the old group survives with its lead.
	require.NoError(t, handleCreateGroup(ctx, b, member, protocol.NewReader(nil)))

	assert.NotEqual(t, old.Token, member.GroupToken())
	assert.False(t, old.HasMember(member.ID))
	assert.Equal(t, []int32{lead.ID}, old.MemberIDs())
	assert.NotNil(t, b.World.Groups.GetByToken(old.Token))
	assert.Equal(t, 2, b.World.Groups.Len())
}

func TestIdentifyGatesFeaturesOnRestriction(t *testing.T) {
	b := newTestBancho(t)
	restricted := addTestPlayer(t, b, 1, "quiet", 0)
	normal := addTestPlayer(t, b, 2, "loud", state.PrivUnrestricted)

	identify := func(p *state.Player) []byte {
		w := protocol.NewWriter()
		w.WriteInt32(int32(state.FeatureGroups))
		b.Process(context.Background(), p, w.Packet(protocol.ClientIdentify))
		return p.Dequeue()
	}

	// Restricted sessions are offered no server features.
	assert.Equal(t, protocol.Identify(0), identify(restricted))
	assert.Equal(t, protocol.Identify(serverFeatures), identify(normal))
}
