package model

import (
	"encoding/json"
	"math"
	"time"
)

// -----------------------------------------------------------------------------
// Instrument State
// -----------------------------------------------------------------------------

// SymbolState is the reconciled per-instrument view built from the ticker and
// mark-price streams. Either half may be unpopulated until its stream has
// reported the symbol at least once: ticker-half floats start as NaN, the
// mark-price half starts as nil.
type SymbolState struct {
	Symbol string // Instrument identifier (e.g. "BTCUSDT")

	// Ticker half
	LastPrice      float64 // Last traded price (NaN until first ticker)
	ChangePct      float64 // 24h change percent (NaN until first ticker)
	QuoteVolume24h float64 // 24h quote-asset volume (NaN until first ticker)
	BaseVolume24h  float64 // 24h base-asset volume (NaN until first ticker)

	// Mark-price half
	MarkPrice   *float64 // Mark price (nil until first mark-price record)
	FundingRate *float64 // Funding rate (nil when absent upstream, never 0)

	// Derived
	Vol1hQuote float64 // Rolling sum of buffered quote-volume deltas
	Spike      bool    // Volume spike flag, recomputed on every buffer update

	LastUpdate time.Time // Local time of the most recent merge
}

// TickerComplete reports whether the ticker half carries a finite price and
// volume. The render completeness fallback counts symbols through this.
func (s SymbolState) TickerComplete() bool {
	return isFinite(s.LastPrice) && isFinite(s.QuoteVolume24h)
}

// MarshalJSON emits null for NaN floats so state snapshots survive JSON
// encoding on the dashboard surface.
func (s SymbolState) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Symbol         string    `json:"symbol"`
		LastPrice      *float64  `json:"last_price"`
		ChangePct      *float64  `json:"change_pct"`
		QuoteVolume24h *float64  `json:"quote_volume_24h"`
		BaseVolume24h  *float64  `json:"base_volume_24h"`
		MarkPrice      *float64  `json:"mark_price"`
		FundingRate    *float64  `json:"funding_rate"`
		Vol1hQuote     *float64  `json:"vol_1h_quote"`
		Spike          bool      `json:"spike"`
		LastUpdate     time.Time `json:"last_update"`
	}{
		Symbol:         s.Symbol,
		LastPrice:      finiteOrNil(s.LastPrice),
		ChangePct:      finiteOrNil(s.ChangePct),
		QuoteVolume24h: finiteOrNil(s.QuoteVolume24h),
		BaseVolume24h:  finiteOrNil(s.BaseVolume24h),
		MarkPrice:      s.MarkPrice,
		FundingRate:    s.FundingRate,
		Vol1hQuote:     finiteOrNil(s.Vol1hQuote),
		Spike:          s.Spike,
		LastUpdate:     s.LastUpdate,
	})
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteOrNil(v float64) *float64 {
	if !isFinite(v) {
		return nil
	}
	return &v
}

// SpikeAlert is the snapshot returned for a symbol whose spike flag is set.
type SpikeAlert struct {
	Symbol     string  `json:"symbol"`
	Vol1hQuote float64 `json:"vol_1h_quote"`
	LastPrice  float64 `json:"last_price"`
	ChangePct  float64 `json:"change_pct"`
}

// -----------------------------------------------------------------------------
// Display Types
// -----------------------------------------------------------------------------

// Cell pairs a resolved numeric value with its pre-formatted display string.
// Value is nil when no aliased source field could be resolved for the column.
type Cell struct {
	Value   *float64 `json:"value"`
	Display string   `json:"display"`
}

// DisplayRow is the table projection output: one row per instrument, keyed by
// a stable asset identifier, carrying both canonical numerics (for downstream
// comparison) and display strings (for the UI sink).
type DisplayRow struct {
	Asset          string `json:"asset"`
	Price          Cell   `json:"price"`
	Volume         Cell   `json:"volume"`
	FundingRate    Cell   `json:"funding_rate"`
	PriceChangePct Cell   `json:"price_change_pct"`
	OpenInterest   Cell   `json:"open_interest"`
}

// -----------------------------------------------------------------------------
// Sorting
// -----------------------------------------------------------------------------

// SortColumn identifies a logical table column.
type SortColumn string

const (
	ColAsset          SortColumn = "asset"
	ColVolume         SortColumn = "volume"
	ColPrice          SortColumn = "price"
	ColFundingRate    SortColumn = "funding_rate"
	ColPriceChangePct SortColumn = "price_change_pct"
	ColOpenInterest   SortColumn = "open_interest"
)

// SortDirection is the requested sort order. Empty means unsorted.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortState is owned by the host UI and passed into the projection as a pure
// parameter. The zero value means "no sort, preserve arrival order".
// Direction is never non-empty while Column is empty.
type SortState struct {
	Column    SortColumn    `json:"column"`
	Direction SortDirection `json:"direction"`
}

// IsSorted reports whether an explicit sort is active.
func (s SortState) IsSorted() bool {
	return s.Column != "" && s.Direction != ""
}

// -----------------------------------------------------------------------------
// Tiers
// -----------------------------------------------------------------------------

// Tier is the subscription level controlling repaint cadence. The value is
// obtained at startup from the session/tier lookup service and injected here.
type Tier int

const (
	TierFree  Tier = 0
	TierPro   Tier = 1
	TierElite Tier = 2
)

// String returns the display name of the tier.
func (t Tier) String() string {
	switch t {
	case TierFree:
		return "free"
	case TierPro:
		return "pro"
	case TierElite:
		return "elite"
	default:
		return "unknown"
	}
}
