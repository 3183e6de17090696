// Package bancho implements the session layer of the server: login, the
// packet dispatch loop, and the handlers for every client packet. It sits
// between the HTTP transport and the in-memory world state.
package bancho

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lagoon-project/lagoon/internal/config"
	"github.com/lagoon-project/lagoon/internal/events"
	"github.com/lagoon-project/lagoon/internal/protocol"
	"github.com/lagoon-project/lagoon/internal/repo"
	"github.com/lagoon-project/lagoon/internal/state"
	"github.com/lagoon-project/lagoon/internal/util"
)

// Bancho bundles everything a packet handler can touch. One instance is
// created at startup and shared by the HTTP layer and the scheduler.
type Bancho struct {
	World *state.World
	Store *repo.Store
	Bus   *events.EventBus
	Cfg   *config.Config

	log zerolog.Logger
}

// New creates the session layer around an existing world and store.
func New(world *state.World, store *repo.Store, bus *events.EventBus, cfg *config.Config) *Bancho {
	return &Bancho{
		World: world,
		Store: store,
		Bus:   bus,
		Cfg:   cfg,
		log:   util.ComponentLogger("bancho"),
	}
}

// LoadWorld populates the world registries from the repository. Called
// once at startup, before the listener accepts traffic.
func (b *Bancho) LoadWorld(ctx context.Context) error {
	channels, err := b.Store.FetchChannels(ctx)
	if err != nil {
		return err
	}
	for _, ch := range channels {
		b.World.Channels.Add(state.NewChannel(ch.Name, ch.Topic, ch.AutoJoin, false))
	}

	clans, err := b.Store.FetchClans(ctx)
	if err != nil {
		return err
	}
	for _, c := range clans {
		b.World.Clans.Add(&state.Clan{ID: c.ID, Name: c.Name, Tag: c.Tag, OwnerID: c.OwnerID})
	}

	pools, err := b.Store.FetchPools(ctx)
	if err != nil {
		return err
	}
	for _, p := range pools {
		b.World.Pools.Add(&state.Mappool{ID: p.ID, Name: p.Name, CreatedBy: p.CreatedBy})
	}

	b.log.Info().
		Int("channels", len(channels)).
		Int("clans", len(clans)).
		Int("pools", len(pools)).
		Msg("world loaded")
	return nil
}

// LogoutPlayer tears a session down: it unseats the player from any match,
// removes them from their group, parts all channels, and announces the
// departure. Used by the logout handler and the session reaper.
func (b *Bancho) LogoutPlayer(ctx context.Context, p *state.Player, reason string) {
	if m := b.World.Matches.Get(p.MatchID()); m != nil {
		b.World.LeaveMatch(p, m)
	}

	if g := b.World.GroupOf(p); g != nil {
		if g.IsLead(p.ID) {
			b.World.DisbandGroup(g)
		} else {
			b.World.GroupRemove(g, p, false)
		}
	}

	for _, c := range b.World.Channels.All() {
		if c.HasMember(p.ID) {
			b.World.LeaveChannel(p, c)
		}
	}

	if !b.World.Players.Remove(p) {
		return
	}

	if !p.Restricted() {
		b.World.BroadcastUnrestricted(protocol.Logout(p.ID), p.ID)
	}

	if err := b.Store.UpdateLatestActivity(ctx, p.ID); err != nil {
		b.log.Warn().Err(err).Int32("player_id", p.ID).Msg("failed to stamp activity")
	}

	b.Bus.Emit(ctx, events.Event{
		Type:   events.EventPlayerLogout,
		Source: "bancho",
		Payload: events.PlayerSessionPayload{
			PlayerID: p.ID,
			Name:     p.Name,
			Reason:   reason,
		},
	})
	b.log.Info().Int32("player_id", p.ID).Str("name", p.Name).
		Str("reason", reason).Msg("player logged out")
}
