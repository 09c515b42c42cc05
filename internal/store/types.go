package store

import (
	"time"

	"github.com/perpdash/perpdash/internal/model"
)

// TickerRecord is one decoded entry from the full-ticker array channel.
type TickerRecord struct {
	Symbol      string  // Instrument identifier
	LastPrice   float64 // Last traded price
	ChangePct   float64 // 24h change percent
	QuoteVolume float64 // 24h quote-asset volume
	BaseVolume  float64 // 24h base-asset volume
}

// MarkPriceRecord is one decoded entry from the mark-price array channel.
type MarkPriceRecord struct {
	Symbol      string
	MarkPrice   float64
	FundingRate *float64 // nil when absent upstream
}

// SortField selects the numeric field GetSymbols orders by (descending).
type SortField string

const (
	SortByQuoteVolume SortField = "quote_volume" // 24h quote volume (default)
	SortByVol1h       SortField = "vol_1h"       // Rolling short-window volume
	SortByPrice       SortField = "price"
	SortByChangePct   SortField = "change_pct"
)

// Query selects and orders instruments for GetSymbols. Zero-value fields fall
// back to the store's configured defaults.
type Query struct {
	Suffix string    // Case-sensitive exact symbol suffix filter
	Limit  int       // Row cap
	SortBy SortField // Numeric field sorted descending
}

// Config holds aggregation and spike-detection parameters.
type Config struct {
	VolumeWindow  int     // Per-symbol delta buffer capacity
	SpikeParams   SpikeParams
	DefaultSuffix string // Suffix used when Query.Suffix is empty
	DefaultLimit  int    // Limit used when Query.Limit is zero
}

// SpikeParams tunes volume spike detection. The threshold numbers are
// empirical, so they stay configurable.
type SpikeParams struct {
	BlockSize  int     // Samples per historical block
	MinBlocks  int     // Historical blocks required before evaluating
	Multiplier float64 // Flag when window sum >= Multiplier * median block sum
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		VolumeWindow: 60,
		SpikeParams: SpikeParams{
			BlockSize:  10,
			MinBlocks:  3,
			Multiplier: 3.0,
		},
		DefaultSuffix: "USDT",
		DefaultLimit:  200,
	}
}

// Snapshot is an immutable copy of the store state.
type Snapshot struct {
	Symbols    []model.SymbolState // Arrival order (first-seen first)
	TickerSeen bool                // At least one ticker batch ingested
	MarkSeen   bool                // At least one mark-price batch ingested
	UpdatedAt  time.Time           // Time of the last applied batch
}
