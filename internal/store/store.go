package store

import (
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/perpdash/perpdash/internal/model"
)

// Store reconciles the two exchange streams into per-instrument state.
type Store interface {
	// IngestTickerBatch merges ticker records and updates per-symbol volume
	// buffers and spike flags. One subscriber notification per batch.
	IngestTickerBatch(records []TickerRecord)

	// IngestMarkPriceBatch merges mark-price/funding fields per symbol.
	// One subscriber notification per batch.
	IngestMarkPriceBatch(records []MarkPriceRecord)

	// GetSymbols returns instruments matching the query's suffix filter,
	// sorted descending by the requested numeric field, capped at Limit.
	GetSymbols(q Query) []model.SymbolState

	// GetSpikeAlerts returns a snapshot for every currently flagged symbol.
	GetSpikeAlerts() []model.SpikeAlert

	// Subscribe registers a change listener and returns its unsubscribe
	// function. After unsubscribe returns the listener never fires again.
	Subscribe(fn func()) (unsubscribe func())

	// GetState returns an immutable snapshot of all symbol state.
	GetState() Snapshot

	// Clear resets all state and notifies once.
	Clear()
}

// store implements the Store interface.
type store struct {
	cfg    Config
	logger *slog.Logger

	mu         sync.RWMutex
	symbols    map[string]*model.SymbolState
	order      []string // arrival order (first-seen first)
	buffers    map[string]*volumeBuffer
	tickerSeen bool
	markSeen   bool
	updatedAt  time.Time

	// Subscribers are guarded separately so notifications can run without
	// holding the state lock (listeners may read back into the store).
	subMu  sync.RWMutex
	subs   map[int]func()
	nextID int
}

// New creates an empty AggregationStore.
func New(cfg Config, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &store{
		cfg:     cfg,
		logger:  logger,
		symbols: make(map[string]*model.SymbolState),
		buffers: make(map[string]*volumeBuffer),
		subs:    make(map[int]func()),
	}
}

// IngestTickerBatch applies a full-ticker batch.
func (s *store) IngestTickerBatch(records []TickerRecord) {
	now := time.Now()
	skipped := 0

	s.mu.Lock()
	for _, rec := range records {
		if rec.Symbol == "" || math.IsNaN(rec.LastPrice) || math.IsNaN(rec.QuoteVolume) {
			skipped++
			continue
		}

		st := s.ensureLocked(rec.Symbol)

		// Delta against the previously stored 24h quote volume. Negative
		// deltas (day-boundary resets) are discarded, not buffered.
		if prev := st.QuoteVolume24h; !math.IsNaN(prev) {
			if delta := rec.QuoteVolume - prev; delta >= 0 {
				buf := s.buffers[rec.Symbol]
				if buf == nil {
					buf = newVolumeBuffer(s.cfg.VolumeWindow)
					s.buffers[rec.Symbol] = buf
				}
				buf.push(delta)
				st.Vol1hQuote = buf.sum()
				st.Spike = evalSpike(buf, s.cfg.SpikeParams)
			}
		}

		st.LastPrice = rec.LastPrice
		st.ChangePct = rec.ChangePct
		st.QuoteVolume24h = rec.QuoteVolume
		st.BaseVolume24h = rec.BaseVolume
		st.LastUpdate = now
	}
	s.tickerSeen = true
	s.updatedAt = now
	s.mu.Unlock()

	if skipped > 0 {
		s.logger.Warn("skipped malformed ticker records", "skipped", skipped)
	}

	s.notify()
}

// IngestMarkPriceBatch applies a mark-price batch.
func (s *store) IngestMarkPriceBatch(records []MarkPriceRecord) {
	now := time.Now()
	skipped := 0

	s.mu.Lock()
	for _, rec := range records {
		if rec.Symbol == "" || math.IsNaN(rec.MarkPrice) {
			skipped++
			continue
		}

		st := s.ensureLocked(rec.Symbol)

		mark := rec.MarkPrice
		st.MarkPrice = &mark
		st.FundingRate = rec.FundingRate // nil stays nil, never coerced to 0
		st.LastUpdate = now
	}
	s.markSeen = true
	s.updatedAt = now
	s.mu.Unlock()

	if skipped > 0 {
		s.logger.Warn("skipped malformed mark-price records", "skipped", skipped)
	}

	s.notify()
}

// ensureLocked returns the entry for symbol, creating it on first sight with
// NaN ticker fields. Caller holds s.mu.
func (s *store) ensureLocked(symbol string) *model.SymbolState {
	if st, ok := s.symbols[symbol]; ok {
		return st
	}
	st := &model.SymbolState{
		Symbol:         symbol,
		LastPrice:      math.NaN(),
		ChangePct:      math.NaN(),
		QuoteVolume24h: math.NaN(),
		BaseVolume24h:  math.NaN(),
	}
	s.symbols[symbol] = st
	s.order = append(s.order, symbol)
	return st
}

// GetSymbols returns filtered, sorted, capped instrument state.
func (s *store) GetSymbols(q Query) []model.SymbolState {
	suffix := q.Suffix
	if suffix == "" {
		suffix = s.cfg.DefaultSuffix
	}
	limit := q.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = SortByQuoteVolume
	}

	s.mu.RLock()
	out := make([]model.SymbolState, 0, len(s.order))
	for _, sym := range s.order {
		if !strings.HasSuffix(sym, suffix) {
			continue
		}
		out = append(out, *s.symbols[sym])
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := sortFieldValue(out[i], sortBy), sortFieldValue(out[j], sortBy)
		// NaN sorts after all present values.
		switch {
		case math.IsNaN(a):
			return false
		case math.IsNaN(b):
			return true
		default:
			return a > b
		}
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortFieldValue(st model.SymbolState, field SortField) float64 {
	switch field {
	case SortByVol1h:
		return st.Vol1hQuote
	case SortByPrice:
		return st.LastPrice
	case SortByChangePct:
		return st.ChangePct
	default:
		return st.QuoteVolume24h
	}
}

// GetSpikeAlerts returns every currently flagged symbol.
func (s *store) GetSpikeAlerts() []model.SpikeAlert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var alerts []model.SpikeAlert
	for _, sym := range s.order {
		st := s.symbols[sym]
		if !st.Spike {
			continue
		}
		alerts = append(alerts, model.SpikeAlert{
			Symbol:     st.Symbol,
			Vol1hQuote: st.Vol1hQuote,
			LastPrice:  st.LastPrice,
			ChangePct:  st.ChangePct,
		})
	}
	return alerts
}

// GetState returns an immutable snapshot in arrival order.
func (s *store) GetState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbols := make([]model.SymbolState, 0, len(s.order))
	for _, sym := range s.order {
		symbols = append(symbols, *s.symbols[sym])
	}

	return Snapshot{
		Symbols:    symbols,
		TickerSeen: s.tickerSeen,
		MarkSeen:   s.markSeen,
		UpdatedAt:  s.updatedAt,
	}
}

// Clear resets all state and notifies once.
func (s *store) Clear() {
	s.mu.Lock()
	s.symbols = make(map[string]*model.SymbolState)
	s.order = nil
	s.buffers = make(map[string]*volumeBuffer)
	s.tickerSeen = false
	s.markSeen = false
	s.updatedAt = time.Time{}
	s.mu.Unlock()

	s.logger.Info("store cleared")
	s.notify()
}

// Subscribe registers a change listener.
func (s *store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		// The write lock waits out any notification in flight, so the
		// listener cannot fire after this returns.
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// notify fires every subscriber once. Runs without the state lock held so
// listeners may query the store.
func (s *store) notify() {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for _, fn := range s.subs {
		fn()
	}
}
