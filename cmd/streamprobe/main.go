// streamprobe connects to the combined stream and prints decoded records to
// the console. Useful for verifying channel names and upstream connectivity
// without starting the full dashboard.
//
// Usage: go run ./cmd/streamprobe --config configs/dashboard.yaml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/perpdash/perpdash/internal/config"
	"github.com/perpdash/perpdash/internal/router"
	"github.com/perpdash/perpdash/internal/store"
	"github.com/perpdash/perpdash/internal/transport"
)

func main() {
	configPath := flag.String("config", "configs/dashboard.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "print full record JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

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
	}, &printSink{verbose: *verbose}, logger)
	tr.Subscribe(rt.HandleMessage)

	if err := tr.Start(ctx); err != nil {
		logger.Error("failed to start transport", "error", err)
		os.Exit(1)
	}

	// Stats printer
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := rt.Stats()
				logger.Info("stats",
					"state", tr.State().String(),
					"frames_received", stats.FramesReceived,
					"frames_routed", stats.FramesRouted,
					"parse_errors", stats.ParseErrors,
					"records_skipped", stats.RecordsSkipped,
					"unknown_channels", stats.UnknownChannels,
				)
			}
		}
	}()

	logger.Info("streaming started - press Ctrl+C to stop")

	<-ctx.Done()

	logger.Info("shutting down...")
	if err := tr.Stop(); err != nil {
		logger.Warn("transport stop", "error", err)
	}
	logger.Info("shutdown complete")
}

// printSink prints decoded batches instead of aggregating them.
type printSink struct {
	verbose bool
}

func (p *printSink) IngestTickerBatch(records []store.TickerRecord) {
	if p.verbose {
		data, _ := json.MarshalIndent(records, "", "  ")
		fmt.Printf("[TICKER] %s\n", data)
		return
	}
	fmt.Printf("[TICKER] records=%d", len(records))
	if len(records) > 0 {
		r := records[0]
		fmt.Printf(" first: symbol=%s price=%g change=%g%% quote_vol=%g",
			r.Symbol, r.LastPrice, r.ChangePct, r.QuoteVolume)
	}
	fmt.Println()
}

func (p *printSink) IngestMarkPriceBatch(records []store.MarkPriceRecord) {
	if p.verbose {
		data, _ := json.MarshalIndent(records, "", "  ")
		fmt.Printf("[MARK] %s\n", data)
		return
	}
	fmt.Printf("[MARK] records=%d", len(records))
	if len(records) > 0 {
		r := records[0]
		fmt.Printf(" first: symbol=%s mark=%g", r.Symbol, r.MarkPrice)
		if r.FundingRate != nil {
			fmt.Printf(" funding=%g", *r.FundingRate)
		}
	}
	fmt.Println()
}
