// Lagoon - osu! private server (bancho)
//
// Lagoon speaks the bancho packet protocol over HTTP long-polling,
// tracks player sessions, chat channels, multiplayer matches, and
// groups in memory, persists accounts in SQLite, exposes a small REST
// surface for status pages, and publishes lifecycle telemetry via MQTT.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lagoon-project/lagoon/internal/api"
	"github.com/lagoon-project/lagoon/internal/bancho"
	"github.com/lagoon-project/lagoon/internal/cli"
	"github.com/lagoon-project/lagoon/internal/config"
	"github.com/lagoon-project/lagoon/internal/events"
	"github.com/lagoon-project/lagoon/internal/repo"
	"github.com/lagoon-project/lagoon/internal/scheduler"
	"github.com/lagoon-project/lagoon/internal/state"
	"github.com/lagoon-project/lagoon/internal/telemetry"
	"github.com/lagoon-project/lagoon/internal/util"
)

const (
	AppName    = "Lagoon"
	AppVersion = "1.0.0"
	Banner     = `
  _
 | |
 | |     __ _  __ _  ___   ___  _ __
 | |    / _' |/ _' |/ _ \ / _ \| '_ \
 | |___| (_| | (_| | (_) | (_) | | | |
 |______\__,_|\__, |\___/ \___/|_| |_|
               __/ |        v%s
              |___/  osu! private server
`
)

func main() {
	// Print banner
	fmt.Printf(Banner, AppVersion)
	fmt.Println()

	// Initialize logger with defaults first (will be reconfigured after config load)
	if err := util.InitLogger(util.DefaultLogConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info().
		Str("version", AppVersion).
		Str("platform", runtime.GOOS).
		Str("arch", runtime.GOARCH).
		Int("cpus", runtime.NumCPU()).
		Msg("starting Lagoon")

	// Load configuration
	cfg, err := config.Load(config.DefaultConfigDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Re-initialize logger with config-based settings
	logCfg := util.LogConfig{
		Level:      cfg.GetApplicationData().Logging.Level,
		Directory:  cfg.GetApplicationData().Logging.Directory,
		MaxBackups: cfg.GetApplicationData().Logging.MaxBackups,
		Console:    cfg.GetApplicationData().Logging.Console,
	}
	if err := util.InitLogger(logCfg); err != nil {
		log.Warn().Err(err).Msg("failed to reconfigure logger, using defaults")
	}

	// Log system info
	sysInfo := util.GetSystemInfo()
	log.Info().
		Str("hostname", sysInfo.Hostname).
		Str("os", sysInfo.OS).
		Str("cpu", sysInfo.CPUModel).
		Int("cores", sysInfo.CPUCores).
		Uint64("memory_mb", sysInfo.TotalMemory).
		Msg("system information")

	// Create root context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize core components
	eventBus := events.NewEventBus()

	store, err := repo.NewStore(cfg.DatabasePath())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer store.Close()

	world := state.NewWorld()

	b := bancho.New(world, store, eventBus, cfg)
	if err := b.LoadWorld(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load world state")
	}

	// Initialize HTTP server (bancho endpoint + status routes)
	apiServer := api.NewServer(cfg, b)

	// Initialize MQTT telemetry
	var mqttHandler *telemetry.MQTTHandler
	if cfg.GetApplicationData().MQTT.Enabled {
		mqttHandler, err = telemetry.NewMQTTHandler(cfg, eventBus)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize MQTT, telemetry disabled")
		}
	}

	// Initialize scheduler
	sched := scheduler.NewScheduler(cfg, eventBus, b)

	// Initialize CLI
	cliHandler := cli.NewCLI(cfg, eventBus, b)

	// ---------------------------------------------------------------
	// Launch all concurrent tasks
	// ---------------------------------------------------------------
	var wg sync.WaitGroup
	errCh := make(chan error, 4)

	// Task 1: HTTP server. This is the bancho endpoint itself, so a bind
	// failure is fatal.
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Int("port", cfg.GetServerData().BanchoPort).Msg("starting bancho server")
		if err := apiServer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("bancho server failed")
			errCh <- fmt.Errorf("bancho server: %w", err)
		}
	}()

	// Task 2: MQTT telemetry
	if mqttHandler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info().Msg("starting MQTT telemetry")
			if err := mqttHandler.Start(ctx); err != nil {
				log.Warn().Err(err).Msg("MQTT telemetry failed")
			}
		}()
	}

	// Task 3: Scheduler (session reaper, world snapshots)
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Msg("starting task scheduler")
		sched.Start(ctx)
	}()

	// Task 4: Interactive CLI
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Msg("starting interactive CLI")
		cliHandler.Start(ctx)
	}()

	// ---------------------------------------------------------------
	// Graceful shutdown handling
	// ---------------------------------------------------------------
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// The CLI "quit" command requests shutdown through the event bus.
	shutdownCh := make(chan struct{}, 1)
	eventBus.Subscribe(events.EventShutdown, "main.shutdown", func(ctx context.Context, event events.Event) error {
		select {
		case shutdownCh <- struct{}{}:
		default:
		}
		return nil
	})

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case <-shutdownCh:
		log.Info().Msg("shutdown requested")
	case err := <-errCh:
		log.Error().Err(err).Msg("critical error, initiating shutdown")
	}

	log.Info().Msg("initiating graceful shutdown...")

	// Tell every connected client to reconnect later, then drop the sessions.
	for _, p := range world.Players.All() {
		b.LogoutPlayer(ctx, p, "shutdown")
	}

	// Cancel the root context to signal all goroutines
	cancel()

	// Wait for all goroutines with timeout
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all tasks stopped gracefully")
	case <-time.After(15 * time.Second):
		log.Warn().Msg("shutdown timed out after 15 seconds, forcing exit")
	}

	// Stop the event bus last
	eventBus.Stop()

	log.Info().Msg("Lagoon stopped")
}
