package render

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/perpdash/perpdash/internal/model"
	"github.com/perpdash/perpdash/internal/store"
	"github.com/perpdash/perpdash/internal/table"
)

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("render: coordinator already started")

// Coordinator drives the paint schedule between the store and the sink.
type Coordinator struct {
	cfg    Config
	source Source
	sink   Sink
	logger *slog.Logger

	mu          sync.Mutex
	started     bool
	stopped     bool
	unsubscribe func()

	// Paint coalescing: a scheduled frame only paints if the generation it
	// captured is still current when it fires.
	generation uint64

	firstPainted  bool
	hydrationUsed bool
	lastReadyPct  float64

	deadline  *time.Timer
	timerStop chan struct{}
	wg        sync.WaitGroup
}

// New creates a coordinator. A nil logger falls back to slog.Default().
func New(cfg Config, source Source, sink Sink, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		cfg:    cfg,
		source: source,
		sink:   sink,
		logger: logger,
	}
}

// SetSink installs the paint sink. Must be called before Start; the sink and
// the coordinator reference each other, so one side has to be wired late.
func (c *Coordinator) SetSink(sink Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
}

// Start subscribes to the store and arms the first-paint fallback deadline.
func (c *Coordinator) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true
	c.stopped = false

	c.unsubscribe = c.source.Subscribe(c.onNotify)
	c.deadline = time.AfterFunc(c.cfg.FallbackDeadline, c.onDeadline)

	c.logger.Info("render coordinator started",
		"tier", c.cfg.Tier.String(),
		"refresh_interval", c.cfg.RefreshInterval,
		"fallback_deadline", c.cfg.FallbackDeadline)
	return nil
}

// Stop unsubscribes, clears all timers and invalidates the current generation
// so any already-scheduled frame becomes a no-op, then waits out frames that
// were already past their cancellation check. No paint happens after Stop
// returns. Idempotent.
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	if c.stopped || !c.started {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true

	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	if c.deadline != nil {
		c.deadline.Stop()
		c.deadline = nil
	}
	c.stopTimerLocked()
	c.generation++
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.wg.Wait()

	c.logger.Info("render coordinator stopped")
	return nil
}

// Pause cancels the Free/Pro interval timer, e.g. on visibility loss. Elite
// has no timer and is unaffected.
func (c *Coordinator) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
}

// Resume restarts the interval timer if one is not already running and the
// first paint has happened.
func (c *Coordinator) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped || !c.firstPainted || c.cfg.Tier >= model.TierElite {
		return
	}
	c.startTimerLocked()
}

// RequestPaint schedules an out-of-band paint, e.g. after a sort change.
// Before the first paint it is a no-op: the completeness gate still applies.
func (c *Coordinator) RequestPaint() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped || !c.firstPainted {
		return
	}
	c.schedulePaintLocked()
}

// onNotify is the store subscription callback.
func (c *Coordinator) onNotify() {
	c.mu.Lock()

	if c.stopped {
		c.mu.Unlock()
		return
	}

	if !c.firstPainted {
		snap := c.source.GetState()
		if !snap.TickerSeen || !snap.MarkSeen {
			c.mu.Unlock()
			return
		}
		c.firstPaintLocked(snap)
		c.mu.Unlock()
		return
	}

	if c.cfg.Tier >= model.TierElite {
		c.schedulePaintLocked()
		c.mu.Unlock()
		return
	}

	// Free/Pro steady state: the interval timer owns the cadence. One
	// hydration paint is allowed while ticker completeness is still
	// climbing sharply between the first paint and the timer's first tick.
	if !c.hydrationUsed {
		ready := readyPct(c.source.GetState())
		if ready-c.lastReadyPct >= c.cfg.HydrationGainPct {
			c.hydrationUsed = true
			c.lastReadyPct = ready
			c.logger.Debug("hydration paint", "ready_pct", ready)
			c.schedulePaintLocked()
		}
	}
	c.mu.Unlock()
}

// onDeadline forces a best-effort first paint. A partial view beats a blank
// one, so the paint happens even below the readiness threshold.
func (c *Coordinator) onDeadline() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || c.firstPainted {
		return
	}

	snap := c.source.GetState()
	ready := readyPct(snap)
	if ready >= c.cfg.MinReadyFraction*100 {
		c.logger.Info("fallback deadline reached, painting partial view",
			"ready_pct", ready, "ticker_seen", snap.TickerSeen, "mark_seen", snap.MarkSeen)
	} else {
		c.logger.Warn("fallback deadline reached below readiness threshold, painting anyway",
			"ready_pct", ready, "symbols", len(snap.Symbols))
	}
	c.firstPaintLocked(snap)
}

func (c *Coordinator) firstPaintLocked(snap store.Snapshot) {
	c.firstPainted = true
	c.lastReadyPct = readyPct(snap)
	if c.deadline != nil {
		c.deadline.Stop()
		c.deadline = nil
	}
	c.schedulePaintLocked()
	if c.cfg.Tier < model.TierElite {
		c.startTimerLocked()
	}
}

// schedulePaintLocked defers the paint to the next frame boundary. Re-entry
// before the frame fires bumps the generation so the superseded frame skips
// its stale work; at most one pending paint exists at any time. Every frame
// joins the WaitGroup so Stop can drain one caught mid-paint.
func (c *Coordinator) schedulePaintLocked() {
	c.generation++
	gen := c.generation
	c.wg.Add(1)
	time.AfterFunc(c.cfg.CoalesceInterval, func() {
		defer c.wg.Done()
		c.paintFrame(gen)
	})
}

func (c *Coordinator) paintFrame(gen uint64) {
	c.mu.Lock()
	if c.stopped || gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	// Project and paint outside the lock: the sink may call back into the
	// coordinator (e.g. Pause on zero clients).
	symbols := c.source.GetSymbols(store.Query{})
	rows := table.Project(table.FromSymbolStates(symbols, c.cfg.QuoteSuffix), c.sink.SortState())
	c.sink.Paint(rows)
}

func (c *Coordinator) startTimerLocked() {
	if c.timerStop != nil {
		return
	}
	stop := make(chan struct{})
	c.timerStop = stop

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.mu.Lock()
				if !c.stopped {
					// The first tick closes the hydration window.
					c.hydrationUsed = true
					c.schedulePaintLocked()
				}
				c.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

func (c *Coordinator) stopTimerLocked() {
	if c.timerStop != nil {
		close(c.timerStop)
		c.timerStop = nil
	}
}

// readyPct is the percentage of known symbols whose ticker half is complete.
func readyPct(snap store.Snapshot) float64 {
	if len(snap.Symbols) == 0 {
		return 0
	}
	ready := 0
	for _, s := range snap.Symbols {
		if s.TickerComplete() {
			ready++
		}
	}
	return 100 * float64(ready) / float64(len(snap.Symbols))
}
