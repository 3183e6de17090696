package bancho

import (
	"context"
	"errors"
	"fmt"

	"github.com/lagoon-project/lagoon/internal/events"
	"github.com/lagoon-project/lagoon/internal/protocol"
	"github.com/lagoon-project/lagoon/internal/state"
)

// currentMatch resolves the match the player is seated in, nil if none.
func currentMatch(b *Bancho, p *state.Player) *state.Match {
	return b.World.Matches.Get(p.MatchID())
}

// enqueueSeated fans packet bytes out to every player seated in a match.
func enqueueSeated(b *Bancho, m *state.Match, pkt []byte) {
	for _, id := range m.SeatedIDs() {
		if seated := b.World.Players.GetID(id); seated != nil {
			seated.Enqueue(pkt)
		}
	}
}

func handleJoinLobby(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	p.SetInLobby(true)
	for _, m := range b.World.Matches.All() {
		p.Enqueue(protocol.NewMatch(m.Snapshot()))
	}
	return nil
}

func handlePartLobby(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	p.SetInLobby(false)
	return nil
}

func handleCreateMatch(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	wire, err := r.ReadMatch()
	if err != nil {
		return err
	}
	if currentMatch(b, p) != nil {
		p.Enqueue(protocol.MatchJoinFail())
		return nil
	}

	m, err := b.World.CreateMatch(p, wire)
	if errors.Is(err, state.ErrMatchesFull) {
		p.Enqueue(protocol.Notification("No multiplayer slots are available right now."))
		p.Enqueue(protocol.MatchJoinFail())
		return nil
	}
	if err != nil {
		p.Enqueue(protocol.MatchJoinFail())
		return err
	}

	b.Bus.Emit(ctx, events.Event{
		Type:   events.EventMatchCreated,
		Source: "bancho",
		Payload: events.MatchPayload{
			MatchID: m.ID,
			Name:    m.Name(),
			HostID:  p.ID,
			Players: 1,
		},
	})
	return nil
}

func handleJoinMatch(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	matchID, err := r.ReadInt32()
	if err != nil {
		return err
	}
	password, err := r.ReadString()
	if err != nil {
		return err
	}

	m := b.World.Matches.Get(matchID)
	if m == nil || currentMatch(b, p) != nil {
		p.Enqueue(protocol.MatchJoinFail())
		return nil
	}
	b.World.JoinMatch(p, m, password)
	return nil
}

func handlePartMatch(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	if m := currentMatch(b, p); m != nil {
		b.World.LeaveMatch(p, m)
	}
	return nil
}

func handleMatchChangeSlot(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	slot, err := r.ReadInt32()
	if err != nil {
		return err
	}
	m := currentMatch(b, p)
	if m == nil {
		return nil
	}
	if m.ChangeSlot(p.ID, int(slot)) {
		b.World.BroadcastMatch(m)
	}
	return nil
}

func handleMatchReady(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	m := currentMatch(b, p)
	if m == nil {
		return nil
	}
	if m.ToggleReady(p.ID, true) {
		b.World.BroadcastMatch(m)
	}
	return nil
}

func handleMatchNotReady(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	m := currentMatch(b, p)
	if m == nil {
		return nil
	}
	if m.ToggleReady(p.ID, false) {
		b.World.BroadcastMatch(m)
	}
	return nil
}

func handleMatchLock(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	slot, err := r.ReadInt32()
	if err != nil {
		return err
	}
	m := currentMatch(b, p)
	if m == nil || m.HostID() != p.ID {
		return nil
	}
	if m.ToggleLock(int(slot)) {
		b.World.BroadcastMatch(m)
	}
	return nil
}

func handleMatchChangeSettings(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	wire, err := r.ReadMatch()
	if err != nil {
		return err
	}
	m := currentMatch(b, p)
	if m == nil || m.HostID() != p.ID {
		return nil
	}
	m.ApplySettings(wire)
	b.World.BroadcastMatch(m)
	return nil
}

func handleMatchStart(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	m := currentMatch(b, p)
	if m == nil || m.HostID() != p.ID {
		return nil
	}
	playing := m.Start()
	if len(playing) == 0 {
		return nil
	}

	start := protocol.MatchStart(m.Snapshot())
	for _, id := range playing {
		if seated := b.World.Players.GetID(id); seated != nil {
			seated.Enqueue(start)
		}
	}
	b.World.BroadcastMatch(m)

	b.Bus.Emit(ctx, events.Event{
		Type:   events.EventMatchStarted,
		Source: "bancho",
		Payload: events.MatchPayload{
			MatchID: m.ID,
			Name:    m.Name(),
			HostID:  m.HostID(),
			Players: len(playing),
		},
	})
	return nil
}

func handleMatchScoreUpdate(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	frame, err := r.ReadScoreFrame()
	if err != nil {
		return err
	}
	m := currentMatch(b, p)
	if m == nil {
		return nil
	}
	idx := m.SlotOf(p.ID)
	if idx == -1 {
		return nil
	}

	// The client reports its own slot id; the server's seat assignment is
	// authoritative.
	frame.SlotID = uint8(idx)
	enqueueSeated(b, m, protocol.MatchScoreUpdate(frame))
	return nil
}

func handleMatchComplete(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	m := currentMatch(b, p)
	if m == nil {
		return nil
	}
	allDone, ok := m.Complete(p.ID)
	if !ok {
		return nil
	}
	if allDone {
		enqueueSeated(b, m, protocol.MatchComplete())
		b.World.BroadcastMatch(m)
		b.Bus.Emit(ctx, events.Event{
			Type:   events.EventMatchFinished,
			Source: "bancho",
			Payload: events.MatchPayload{
				MatchID: m.ID,
				Name:    m.Name(),
				HostID:  m.HostID(),
				Players: len(m.SeatedIDs()),
			},
		})
	}
	return nil
}

func handleMatchChangeMods(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	mods, err := r.ReadInt32()
	if err != nil {
		return err
	}
	m := currentMatch(b, p)
	if m == nil {
		return nil
	}
	if m.SetMods(p.ID, mods, m.HostID() == p.ID) {
		b.World.BroadcastMatch(m)
	}
	return nil
}

func handleMatchLoadComplete(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	m := currentMatch(b, p)
	if m == nil {
		return nil
	}
	allLoaded, ok := m.SetLoaded(p.ID)
	if ok && allLoaded {
		enqueueSeated(b, m, protocol.MatchAllPlayersLoaded())
	}
	return nil
}

func handleMatchNoBeatmap(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	m := currentMatch(b, p)
	if m == nil {
		return nil
	}
	if m.SetHasMap(p.ID, false) {
		b.World.BroadcastMatch(m)
	}
	return nil
}

func handleMatchHasBeatmap(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	m := currentMatch(b, p)
	if m == nil {
		return nil
	}
	if m.SetHasMap(p.ID, true) {
		b.World.BroadcastMatch(m)
	}
	return nil
}

func handleMatchFailed(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	m := currentMatch(b, p)
	if m == nil {
		return nil
	}
	idx := m.SlotOf(p.ID)
	if idx == -1 {
		return nil
	}
	enqueueSeated(b, m, protocol.MatchPlayerFailed(int32(idx)))
	return nil
}

func handleMatchSkipRequest(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	m := currentMatch(b, p)
	if m == nil {
		return nil
	}
	idx, allSkipped, ok := m.SetSkipped(p.ID)
	if !ok {
		return nil
	}
	enqueueSeated(b, m, protocol.MatchPlayerSkipped(int32(idx)))
	if allSkipped {
		enqueueSeated(b, m, protocol.MatchSkip())
	}
	return nil
}

func handleMatchTransferHost(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	slot, err := r.ReadInt32()
	if err != nil {
		return err
	}
	m := currentMatch(b, p)
	if m == nil || m.HostID() != p.ID {
		return nil
	}
	if slot < 0 || slot >= protocol.MaxSlots {
		return nil
	}

	snap := m.Snapshot()
	target := snap.Slots[slot]
	if target.Status&protocol.SlotHasPlayer == 0 {
		return nil
	}
	if !m.SetHost(target.PlayerID) {
		return nil
	}
	if newHost := b.World.Players.GetID(target.PlayerID); newHost != nil {
		newHost.Enqueue(protocol.MatchTransferHost())
	}
	b.World.BroadcastMatch(m)
	return nil
}

func handleMatchChangeTeam(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	m := currentMatch(b, p)
	if m == nil {
		return nil
	}
	if m.ChangeTeam(p.ID) {
		b.World.BroadcastMatch(m)
	}
	return nil
}

func handleMatchInvite(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	targetID, err := r.ReadInt32()
	if err != nil {
		return err
	}
	m := currentMatch(b, p)
	if m == nil {
		return nil
	}
	target := b.World.Players.GetID(targetID)
	if target == nil {
		p.Enqueue(protocol.Notification("That player is not online."))
		return nil
	}

	snap := m.Snapshot()
	link := fmt.Sprintf("[osump://%d/%s %s]", m.ID, snap.Password, snap.Name)
	target.Enqueue(protocol.MatchInvite(protocol.Message{
		Sender:    p.DisplayName(),
		Text:      "Come join my game: " + link,
		Recipient: target.Name,
		SenderID:  p.ID,
	}))
	return nil
}

func handleMatchChangePassword(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	wire, err := r.ReadMatch()
	if err != nil {
		return err
	}
	m := currentMatch(b, p)
	if m == nil || m.HostID() != p.ID {
		return nil
	}
	m.ChangePassword(wire.Password)
	enqueueSeated(b, m, protocol.MatchChangePassword(wire.Password))
	b.World.BroadcastMatch(m)
	return nil
}
