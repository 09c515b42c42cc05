package router

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/perpdash/perpdash/internal/store"
	"github.com/perpdash/perpdash/internal/transport"
)

// Sink is the slice of the store the router writes into.
type Sink interface {
	IngestTickerBatch(records []store.TickerRecord)
	IngestMarkPriceBatch(records []store.MarkPriceRecord)
}

// Router decodes transport frames and feeds record batches to the sink.
type Router struct {
	cfg    Config
	sink   Sink
	logger *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// New creates a router writing into sink.
func New(cfg Config, sink Sink, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}

	return &Router{
		cfg:    cfg,
		sink:   sink,
		logger: logger,
	}
}

// HandleMessage decodes and routes a single frame. It is the transport
// listener: wire it with transport.Subscribe(r.HandleMessage).
func (r *Router) HandleMessage(msg transport.Message) {
	r.count(func(s *Stats) { s.FramesReceived++ })

	switch msg.Channel {
	case r.cfg.TickerChannel:
		r.routeTicker(msg.Payload)
	case r.cfg.MarkPriceChannel:
		r.routeMarkPrice(msg.Payload)
	default:
		r.count(func(s *Stats) { s.UnknownChannels++ })
		r.logger.Debug("skipping unknown channel", "channel", msg.Channel)
	}
}

// Stats returns a snapshot of the runtime counters.
func (r *Router) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Router) count(apply func(*Stats)) {
	r.mu.Lock()
	apply(&r.stats)
	r.mu.Unlock()
}

func (r *Router) routeTicker(payload json.RawMessage) {
	var wire []tickerWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		r.count(func(s *Stats) { s.ParseErrors++ })
		r.logger.Warn("failed to parse ticker batch", "error", err)
		return
	}

	records := make([]store.TickerRecord, 0, len(wire))
	skipped := 0
	for _, w := range wire {
		rec, err := w.record()
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if skipped > 0 {
		r.count(func(s *Stats) { s.RecordsSkipped += int64(skipped) })
		r.logger.Warn("skipped malformed ticker records", "skipped", skipped, "kept", len(records))
	}

	// One ingest per frame even when every record was dropped: the store
	// still marks the stream as seen and notifies once.
	r.sink.IngestTickerBatch(records)
	r.count(func(s *Stats) { s.FramesRouted++ })
}

func (r *Router) routeMarkPrice(payload json.RawMessage) {
	var wire []markPriceWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		r.count(func(s *Stats) { s.ParseErrors++ })
		r.logger.Warn("failed to parse mark-price batch", "error", err)
		return
	}

	records := make([]store.MarkPriceRecord, 0, len(wire))
	skipped := 0
	for _, w := range wire {
		rec, err := w.record()
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if skipped > 0 {
		r.count(func(s *Stats) { s.RecordsSkipped += int64(skipped) })
		r.logger.Warn("skipped malformed mark-price records", "skipped", skipped, "kept", len(records))
	}

	r.sink.IngestMarkPriceBatch(records)
	r.count(func(s *Stats) { s.FramesRouted++ })
}
