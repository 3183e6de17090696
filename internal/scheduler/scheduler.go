// Package scheduler implements background maintenance for the server:
// reaping dead sessions and logging periodic world snapshots.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lagoon-project/lagoon/internal/bancho"
	"github.com/lagoon-project/lagoon/internal/config"
	"github.com/lagoon-project/lagoon/internal/events"
	"github.com/lagoon-project/lagoon/internal/protocol"
)

// Scheduler manages periodic background tasks.
type Scheduler struct {
	cfg      *config.Config
	eventBus *events.EventBus
	bancho   *bancho.Bancho
}

// NewScheduler creates a new task scheduler.
func NewScheduler(cfg *config.Config, eventBus *events.EventBus, b *bancho.Bancho) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		eventBus: eventBus,
		bancho:   b,
	}
}

// Start begins running all scheduled tasks and blocks until ctx is
// cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	log.Info().Msg("scheduler started")

	go s.runSessionReaperLoop(ctx)
	go s.runSnapshotLoop(ctx)

	<-ctx.Done()
	log.Info().Msg("scheduler stopped")
}

// runSessionReaperLoop periodically expires sessions that have stopped
// polling.
func (s *Scheduler) runSessionReaperLoop(ctx context.Context) {
	timers := s.cfg.GetApplicationData().Timers

	interval := time.Duration(timers.SessionReapInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reapSessions(ctx)
		}
	}
}

// reapSessions logs out every player whose last request is older than the
// ping timeout. The dying queue gets a restart notice in case the client
// polls one final time.
func (s *Scheduler) reapSessions(ctx context.Context) {
	timeout := time.Duration(s.cfg.GetApplicationData().Timers.PingTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	deadline := time.Now().Add(-timeout)

	for _, p := range s.bancho.World.Players.All() {
		if p.LastRecv().After(deadline) {
			continue
		}

		log.Info().
			Int32("player_id", p.ID).
			Str("name", p.Name).
			Time("last_recv", p.LastRecv()).
			Msg("session timed out")

		p.Enqueue(protocol.Notification("You have been signed out due to inactivity."))
		p.Enqueue(protocol.Restart(0))
		s.bancho.LogoutPlayer(ctx, p, "timeout")

		s.eventBus.Emit(ctx, events.Event{
			Type:   events.EventSessionExpired,
			Source: "scheduler",
			Payload: events.PlayerSessionPayload{
				PlayerID: p.ID,
				Name:     p.Name,
				Reason:   "timeout",
			},
		})
	}
}

// runSnapshotLoop logs a periodic summary of the live world.
func (s *Scheduler) runSnapshotLoop(ctx context.Context) {
	timers := s.cfg.GetApplicationData().Timers

	interval := time.Duration(timers.HeartbeatInterval) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w := s.bancho.World
			log.Info().
				Int("online", w.Players.Len()).
				Int("matches", w.Matches.Len()).
				Int("groups", w.Groups.Len()).
				Msg("world snapshot")
		}
	}
}
