package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lait-kelomins/laits-entity-inspector/internal/cache"
	"github.com/lait-kelomins/laits-entity-inspector/internal/collector"
	"github.com/lait-kelomins/laits-entity-inspector/internal/config"
	"github.com/lait-kelomins/laits-entity-inspector/internal/demoworld"
	"github.com/lait-kelomins/laits-entity-inspector/internal/inspector"
	"github.com/lait-kelomins/laits-entity-inspector/internal/instructions"
	"github.com/lait-kelomins/laits-entity-inspector/internal/serializer"
	"github.com/lait-kelomins/laits-entity-inspector/internal/telemetry"
	"github.com/lait-kelomins/laits-entity-inspector/internal/transport"
	"github.com/lait-kelomins/laits-entity-inspector/internal/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the inspection service against a demo world",
	Long: `serve starts the full inspector pipeline — cache, collector,
watcher, transport hub, and asset wrapper — wired to a small in-process
demo world that stands in for a real host game server's ECS (§1
out of scope: the host process itself is never part of this binary).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("data-dir", "./inspectord-data", "Directory for config.json and persisted state")
	serveCmd.Flags().String("bus-addr", "127.0.0.1:8765", "TCP address the demo message bus listens on")
	serveCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address for the /metrics and /healthz endpoints")
	serveCmd.Flags().Int("demo-entities", 200, "Number of entities the demo world seeds")
}

func runServe(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	busAddr, _ := cmd.Flags().GetString("bus-addr")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	demoEntities, _ := cmd.Flags().GetInt("demo-entities")

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	cfgStore, err := config.Load(dataDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cur := cfgStore.Current()

	s := serializer.New()
	entities := cache.NewEntityCache(cur.MaxCachedEntities, s)
	packets := cache.NewPacketCache(cur.MaxCachedEntities, s)
	coll := collector.New(s)
	trees := instructions.New(s)

	world := demoworld.New(demoEntities)
	store := demoworld.NewAssets()

	hub := transport.New(transport.Config{MaxClients: cur.WebsocketMaxClients}, nil)
	core := inspector.New(world, cfgStore, entities, packets, coll, trees, store, store, hub)
	hub.SetDispatcher(core)
	if err := hub.Start(); err != nil {
		return fmt.Errorf("starting hub: %w", err)
	}

	log := telemetry.WithComponent("inspectord")

	go func() {
		http.Handle("/metrics", telemetry.MetricsHandler())
		http.Handle("/healthz", telemetry.HealthHandler())
		if err := http.ListenAndServe(metricsAddr, nil); err != nil {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	log.Info().Str("addr", metricsAddr).Msg("metrics/health endpoints listening")

	bus := newMessageBus(core, hub)
	errCh := make(chan error, 1)
	go func() {
		if err := bus.listenAndServe(busAddr); err != nil {
			errCh <- fmt.Errorf("message bus: %w", err)
		}
	}()
	log.Info().Str("addr", busAddr).Msg("message bus listening")

	// The watcher counts ticks up to updateIntervalTicks itself, so RunTick
	// is driven once per host tick (one tick's worth of milliseconds).
	tickInterval := time.Duration(config.Config{UpdateIntervalTicks: 1}.UpdateIntervalMs()) * time.Millisecond
	tickTicker := time.NewTicker(tickInterval)
	defer tickTicker.Stop()
	flushTicker := time.NewTicker(watch.FlushInterval)
	defer flushTicker.Stop()

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-tickTicker.C:
				core.RunTick()
			case <-flushTicker.C:
				core.FlushPositions()
			case <-done:
				return
			}
		}
	}()

	log.Info().Msg("inspectord running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info().Msg("shutting down")
	case err := <-errCh:
		log.Error().Err(err).Msg("fatal error")
		return err
	}

	if err := hub.Stop(); err != nil {
		return fmt.Errorf("stopping hub: %w", err)
	}
	log.Info().Msg("shutdown complete")
	return nil
}
