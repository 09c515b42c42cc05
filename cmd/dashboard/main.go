package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/perpdash/perpdash/internal/config"
	"github.com/perpdash/perpdash/internal/model"
	"github.com/perpdash/perpdash/internal/render"
	"github.com/perpdash/perpdash/internal/router"
	"github.com/perpdash/perpdash/internal/server"
	"github.com/perpdash/perpdash/internal/store"
	"github.com/perpdash/perpdash/internal/tier"
	"github.com/perpdash/perpdash/internal/transport"
	"github.com/perpdash/perpdash/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/dashboard.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting dashboard",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"stream_url", cfg.Stream.URL,
		"channels", cfg.Stream.Channels,
		"tier", model.Tier(cfg.Render.Tier).String(),
		"addr", cfg.Server.Addr,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Resolve the subscription tier once at startup. A failed lookup falls
	// back to the configured values rather than refusing to start.
	renderTier := model.Tier(cfg.Render.Tier)
	refreshInterval := cfg.Render.RefreshInterval
	if cfg.Session.URL != "" {
		client := tier.NewClient(cfg.Session.URL, cfg.Session.Token,
			tier.WithLogger(logger),
			tier.WithTimeout(cfg.Session.Timeout),
		)
		session, err := client.GetSession(ctx)
		if err != nil {
			logger.Warn("session lookup failed, using configured tier",
				"error", err, "tier", renderTier.String())
		} else {
			renderTier = session.Tier
			refreshInterval = session.RefreshInterval
			logger.Info("session resolved",
				"tier", renderTier.String(), "refresh_interval", refreshInterval)
		}
	}

	// Aggregation store
	st := store.New(store.Config{
		VolumeWindow: cfg.Store.VolumeWindow,
		SpikeParams: store.SpikeParams{
			BlockSize:  cfg.Store.SpikeBlockSize,
			MinBlocks:  cfg.Store.SpikeMinBlocks,
			Multiplier: cfg.Store.SpikeMultiplier,
		},
		DefaultSuffix: cfg.Store.DefaultSuffix,
		DefaultLimit:  cfg.Store.DefaultLimit,
	}, logger)

	// Stream transport and frame router
	tr := transport.New(transport.Config{
		URL:              cfg.Stream.URL,
		Channels:         cfg.Stream.Channels,
		ReconnectBase:    cfg.Stream.ReconnectBase,
		ReconnectMax:     cfg.Stream.ReconnectMax,
		ReconnectJitter:  cfg.Stream.ReconnectJitter,
		MaxAttempts:      cfg.Stream.MaxAttempts,
		HandshakeTimeout: cfg.Stream.HandshakeTimeout,
	}, logger)

	rt := router.New(router.Config{
		TickerChannel:    cfg.Stream.Channels[0],
		MarkPriceChannel: cfg.Stream.Channels[1],
	}, st, logger)
	tr.Subscribe(rt.HandleMessage)

	// Render coordinator and dashboard hub. The server is the paint sink
	// and owns the sort state; the coordinator owns the cadence.
	coord := render.New(render.Config{
		Tier:             renderTier,
		RefreshInterval:  refreshInterval,
		CoalesceInterval: cfg.Render.CoalesceInterval,
		FallbackDeadline: cfg.Render.FallbackDeadline,
		MinReadyFraction: cfg.Render.MinReadyFraction,
		HydrationGainPct: cfg.Render.HydrationGainPct,
		QuoteSuffix:      cfg.Store.DefaultSuffix,
	}, st, nil, logger)

	srv := server.New(server.Config{
		Addr:             cfg.Server.Addr,
		ClientSendBuffer: cfg.Server.ClientSendBuffer,
	}, st, coord, func() string { return tr.State().String() }, logger)
	coord.SetSink(srv)

	if err := tr.Start(ctx); err != nil {
		logger.Error("failed to start transport", "error", err)
		os.Exit(1)
	}
	if err := coord.Start(); err != nil {
		logger.Error("failed to start render coordinator", "error", err)
		os.Exit(1)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		coord.Stop()
		if err := tr.Stop(); err != nil {
			logger.Warn("transport stop", "error", err)
		}
		return srv.Stop(shutdownCtx)
	})

	logger.Info("dashboard running", "addr", cfg.Server.Addr)

	if err := g.Wait(); err != nil {
		logger.Error("dashboard exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("dashboard stopped")
}
