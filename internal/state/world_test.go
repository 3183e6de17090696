package state_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lagoon-project/lagoon/internal/protocol"
	"github.com/lagoon-project/lagoon/internal/state"
)

// packetIDs decodes the packet ids concatenated in an outbound mailbox.
func packetIDs(t *testing.T, buf []byte) []protocol.PacketID {
	t.Helper()
	var out []protocol.PacketID
	for len(buf) > 0 {
		require.GreaterOrEqual(t, len(buf), protocol.HeaderSize)
		id := protocol.PacketID(binary.LittleEndian.Uint16(buf[0:2]))
		length := binary.LittleEndian.Uint32(buf[3:protocol.HeaderSize])
		buf = buf[protocol.HeaderSize:]
		require.GreaterOrEqual(t, uint64(len(buf)), uint64(length))
		buf = buf[length:]
		out = append(out, id)
	}
	return out
}

func indexOf(ids []protocol.PacketID, want protocol.PacketID) int {
	for i, id := range ids {
		if id == want {
			return i
		}
	}
	return -1
}

func TestWorldBroadcastUnrestricted(t *testing.T) {
	w := state.NewWorld()
	a := newTestPlayer(1, "a", "t1")
	b := newTestPlayer(2, "b", "t2")
	restricted := state.NewPlayer(3, "c", "t3", 0, 0)
	require.NoError(t, w.Players.Add(a))
	require.NoError(t, w.Players.Add(b))
	require.NoError(t, w.Players.Add(restricted))

	w.BroadcastUnrestricted(protocol.Pong(), a.ID)

	assert.Equal(t, 0, a.QueueLen(), "excluded player must not receive")
	assert.NotZero(t, b.QueueLen())
	assert.Equal(t, 0, restricted.QueueLen(), "restricted sessions are blind to broadcasts")
}

func TestWorldCreateMatch(t *testing.T) {
	w := state.NewWorld()
	host := newTestPlayer(1, "host", "t1")
	watcher := newTestPlayer(2, "watcher", "t2")
	require.NoError(t, w.Players.Add(host))
	require.NoError(t, w.Players.Add(watcher))
	watcher.SetInLobby(true)

	m, err := w.CreateMatch(host, protocol.Match{Name: "my room", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, 0, m.SlotOf(host.ID))
	assert.Equal(t, m.ID, host.MatchID())
	require.NotNil(t, w.Channels.GetByName("#multi_1"))
	assert.True(t, m.Chat.HasMember(host.ID))

	hostIDs := packetIDs(t, host.Dequeue())
	assert.Contains(t, hostIDs, protocol.ServerMatchJoinSuccess)

	// The lobby hears about the new match, without the password.
	watcherIDs := packetIDs(t, watcher.Dequeue())
	assert.Contains(t, watcherIDs, protocol.ServerNewMatch)
}

func TestWorldLeaveMatchTransfersHost(t *testing.T) {
	w := state.NewWorld()
	host := newTestPlayer(1, "host", "t1")
	other := newTestPlayer(2, "other", "t2")
	require.NoError(t, w.Players.Add(host))
	require.NoError(t, w.Players.Add(other))

	m, err := w.CreateMatch(host, protocol.Match{Name: "room"})
	require.NoError(t, err)
	require.True(t, w.JoinMatch(other, m, ""))
	host.Dequeue()
	other.Dequeue()

	w.LeaveMatch(host, m)

	assert.Equal(t, int32(0), host.MatchID())
	assert.Equal(t, other.ID, m.HostID())
	otherIDs := packetIDs(t, other.Dequeue())
	assert.Contains(t, otherIDs, protocol.ServerMatchTransferHost)
}

func TestWorldLeaveMatchDisposesEmpty(t *testing.T) {
	w := state.NewWorld()
	host := newTestPlayer(1, "host", "t1")
	watcher := newTestPlayer(2, "watcher", "t2")
	require.NoError(t, w.Players.Add(host))
	require.NoError(t, w.Players.Add(watcher))
	watcher.SetInLobby(true)

	m, err := w.CreateMatch(host, protocol.Match{Name: "room"})
	require.NoError(t, err)
	watcher.Dequeue()

	w.LeaveMatch(host, m)

	assert.Nil(t, w.Matches.Get(m.ID))
	assert.Nil(t, w.Channels.GetByName("#multi_1"))
	watcherIDs := packetIDs(t, watcher.Dequeue())
	assert.Contains(t, watcherIDs, protocol.ServerDisposeMatch)
}

func TestWorldGroupAdd(t *testing.T) {
	w := state.NewWorld()
	lead := newTestPlayer(1, "lead", "t1")
	joiner := newTestPlayer(2, "joiner", "t2")
	lead.SetFeatures(state.FeatureGroups)
	joiner.SetFeatures(state.FeatureGroups)
	require.NoError(t, w.Players.Add(lead))
	require.NoError(t, w.Players.Add(joiner))

	g := w.CreateGroup(lead)
	lead.Dequeue()

	// No invite, no entry.
	assert.False(t, w.GroupAdd(g, joiner))

	require.True(t, g.Invite(joiner.ID))
	require.True(t, w.GroupAdd(g, joiner))

	assert.Equal(t, g.Token, joiner.GroupToken())
	assert.True(t, g.Chat.HasMember(joiner.ID))
	joinerIDs := packetIDs(t, joiner.Dequeue())
	assert.Contains(t, joinerIDs, protocol.ServerGroupJoin)
	assert.Contains(t, joinerIDs, protocol.ServerGroupUsers)
	leadIDs := packetIDs(t, lead.Dequeue())
	assert.Contains(t, leadIDs, protocol.ServerGroupUsers)
}

func TestWorldGroupRemoveOrdering(t *testing.T) {
	w := state.NewWorld()
	lead := newTestPlayer(1, "lead", "t1")
	member := newTestPlayer(2, "member", "t2")
	lead.SetFeatures(state.FeatureGroups)
	member.SetFeatures(state.FeatureGroups)
	require.NoError(t, w.Players.Add(lead))
	require.NoError(t, w.Players.Add(member))

	g := w.CreateGroup(lead)
	require.True(t, g.Invite(member.ID))
	require.True(t, w.GroupAdd(g, member))
	lead.Dequeue()
	member.Dequeue()

	require.True(t, w.GroupRemove(g, member, false))

	// The group survives a non-lead departure.
	assert.NotNil(t, w.Groups.GetByToken(g.Token))
	assert.Equal(t, "", member.GroupToken())
	assert.False(t, g.Chat.HasMember(member.ID))

	// Remaining members see the refreshed roster before the departure
	// announcement.
	leadIDs := packetIDs(t, lead.Dequeue())
	roster := indexOf(leadIDs, protocol.ServerGroupUsers)
	notice := indexOf(leadIDs, protocol.ServerSendMessage)
	require.NotEqual(t, -1, roster)
	require.NotEqual(t, -1, notice)
	assert.Less(t, roster, notice)

	memberIDs := packetIDs(t, member.Dequeue())
	assert.Contains(t, memberIDs, protocol.ServerGroupLeave)
}

func TestWorldGroupKickNotification(t *testing.T) {
	w := state.NewWorld()
	lead := newTestPlayer(1, "lead", "t1")
	member := newTestPlayer(2, "member", "t2")
	require.NoError(t, w.Players.Add(lead))
	require.NoError(t, w.Players.Add(member))

	g := w.CreateGroup(lead)
	require.True(t, g.Invite(member.ID))
	require.True(t, w.GroupAdd(g, member))
	member.Dequeue()

	require.True(t, w.GroupRemove(g, member, true))
	memberIDs := packetIDs(t, member.Dequeue())
	assert.Contains(t, memberIDs, protocol.ServerNotification)
}

func TestWorldDisbandGroup(t *testing.T) {
	w := state.NewWorld()
	lead := newTestPlayer(1, "lead", "t1")
	member := newTestPlayer(2, "member", "t2")
	lead.SetFeatures(state.FeatureGroups)
	member.SetFeatures(state.FeatureGroups)
	require.NoError(t, w.Players.Add(lead))
	require.NoError(t, w.Players.Add(member))

	g := w.CreateGroup(lead)
	require.True(t, g.Invite(member.ID))
	require.True(t, w.GroupAdd(g, member))
	lead.Dequeue()
	member.Dequeue()

	w.DisbandGroup(g)

	assert.Nil(t, w.Groups.GetByToken(g.Token))
	assert.Nil(t, w.Channels.GetByName("#group_"+g.Token))
	assert.Equal(t, "", lead.GroupToken())
	assert.Equal(t, "", member.GroupToken())

	for _, p := range []*state.Player{lead, member} {
		ids := packetIDs(t, p.Dequeue())
		assert.Contains(t, ids, protocol.ServerGroupLeave)
		assert.Contains(t, ids, protocol.ServerNotification)
	}
}

func TestWorldGroupTokensUnique(t *testing.T) {
	w := state.NewWorld()
	tokens := make(map[string]struct{})
	for i := int32(1); i <= 8; i++ {
		p := newTestPlayer(i, string(rune('a'+i)), string(rune('a'+i))+"-tok")
		require.NoError(t, w.Players.Add(p))
		g := w.CreateGroup(p)
		_, dup := tokens[g.Token]
		assert.False(t, dup)
		tokens[g.Token] = struct{}{}
	}
	assert.Equal(t, 8, w.Groups.Len())
}
