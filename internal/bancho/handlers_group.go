package bancho

import (
	"context"

	"github.com/lagoon-project/lagoon/internal/events"
	"github.com/lagoon-project/lagoon/internal/protocol"
	"github.com/lagoon-project/lagoon/internal/state"
)

// serverFeatures is the capability bitmask advertised to extended clients.
const serverFeatures = int32(state.FeatureGroups)

func handleIdentify(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	features, err := r.ReadInt32()
	if err != nil {
		return err
	}
	p.SetFeatures(state.ClientFeatures(features))

	// Restricted sessions are told the server offers nothing, so their
	// client never enables the extended surfaces.
	advertised := serverFeatures
	if p.Restricted() {
		advertised = 0
	}
	p.Enqueue(protocol.Identify(advertised))
	return nil
}

func handleCreateGroup(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	// Creating a group replaces the player's current one: a member walks
	// out of it, a lead takes it down with them.
	if old := b.World.GroupOf(p); old != nil {
		if old.IsLead(p.ID) {
			b.World.DisbandGroup(old)
			b.emitGroupDisbanded(ctx, old)
		} else {
			b.World.GroupRemove(old, p, false)
		}
	}
	g := b.World.CreateGroup(p)

	b.Bus.Emit(ctx, events.Event{
		Type:   events.EventGroupCreated,
		Source: "bancho",
		Payload: events.GroupPayload{
			Token:   g.Token,
			LeadID:  p.ID,
			Members: 1,
		},
	})
	return nil
}

func handleInviteGroup(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	targetID, err := r.ReadInt32()
	if err != nil {
		return err
	}
	g := b.World.GroupOf(p)
	if g == nil || !g.IsLead(p.ID) {
		p.Enqueue(protocol.Notification("Only the group lead can invite players."))
		return nil
	}

	target := b.World.Players.GetID(targetID)
	if target == nil {
		p.Enqueue(protocol.Notification("That player is not online."))
		return nil
	}
	if target.GroupToken() != "" {
		p.Enqueue(protocol.Notification(target.Name + " is already in a group."))
		return nil
	}
	if !g.Invite(target.ID) {
		p.Enqueue(protocol.Notification(target.Name + " already has a pending invite."))
		return nil
	}

	target.Enqueue(protocol.Notification(p.Name + " has invited you to their group."))
	if target.HasGroupCapability() {
		target.Enqueue(protocol.GroupInvite(p.ID, p.DisplayName()))
	}
	p.Enqueue(protocol.Notification("Invite sent to " + target.Name + "."))
	return nil
}

func handleAcceptGroup(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	leadID, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if p.GroupToken() != "" {
		p.Enqueue(protocol.Notification("You are already in a group."))
		return nil
	}

	lead := b.World.Players.GetID(leadID)
	if lead == nil {
		p.Enqueue(protocol.Notification("That group no longer exists."))
		return nil
	}
	g := b.World.GroupOf(lead)
	if g == nil || !g.IsLead(lead.ID) {
		p.Enqueue(protocol.Notification("That group no longer exists."))
		return nil
	}

	if !b.World.GroupAdd(g, p) {
		p.Enqueue(protocol.Notification("You have no pending invite to that group."))
	}
	return nil
}

func handleGroupUsers(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	g := b.World.GroupOf(p)
	if g == nil {
		return nil
	}
	p.Enqueue(protocol.GroupUsers(g.LeadID(), g.MemberIDs()))
	return nil
}

func handleGroupKick(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	targetID, err := r.ReadInt32()
	if err != nil {
		return err
	}
	g := b.World.GroupOf(p)
	if g == nil || !g.IsLead(p.ID) {
		p.Enqueue(protocol.Notification("Only the group lead can kick players."))
		return nil
	}
	if targetID == p.ID {
		return nil
	}

	target := b.World.Players.GetID(targetID)
	if target == nil || !g.HasMember(targetID) {
		p.Enqueue(protocol.Notification("That player is not in your group."))
		return nil
	}
	b.World.GroupRemove(g, target, true)
	return nil
}

func handleGroupLeave(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	g := b.World.GroupOf(p)
	if g == nil {
		return nil
	}

	// The lead walking out ends the group for everyone.
	if g.IsLead(p.ID) {
		b.World.DisbandGroup(g)
		b.emitGroupDisbanded(ctx, g)
		return nil
	}
	b.World.GroupRemove(g, p, false)
	return nil
}

func handleDisbandGroup(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	g := b.World.GroupOf(p)
	if g == nil {
		return nil
	}
	if !g.IsLead(p.ID) {
		p.Enqueue(protocol.Notification("Only the group lead can disband the group."))
		return nil
	}
	b.World.DisbandGroup(g)
	b.emitGroupDisbanded(ctx, g)
	return nil
}

func handleCreateGroupMatch(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	if b.World.GroupOf(p) == nil {
		return nil
	}
	p.Enqueue(protocol.Notification("Group matches are not available yet."))
	return nil
}

func handleDismountGroupMatch(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	if b.World.GroupOf(p) == nil {
		return nil
	}
	p.Enqueue(protocol.Notification("Group matches are not available yet."))
	return nil
}

func (b *Bancho) emitGroupDisbanded(ctx context.Context, g *state.Group) {
	b.Bus.Emit(ctx, events.Event{
		Type:   events.EventGroupDisbanded,
		Source: "bancho",
		Payload: events.GroupPayload{
			Token:  g.Token,
			LeadID: g.LeadID(),
		},
	})
}
