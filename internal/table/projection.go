package table

import (
	"strings"

	"github.com/perpdash/perpdash/internal/model"
)

// Row is one snapshot record entering the projection. Upstream snapshots may
// carry raw numerics or pre-rendered strings depending on origin, so values
// stay untyped until column resolution.
type Row map[string]any

// columnSpec drives resolution and formatting for one logical column.
type columnSpec struct {
	aliases []string // source fields in priority order, numeric first

	// percentAsDecimal rescales parsed percent strings to a decimal
	// fraction. Fixed per column, never inferred from input: funding rate
	// and price change stay raw percentage numbers.
	percentAsDecimal bool

	format func(float64) string
}

var columnSpecs = map[model.SortColumn]columnSpec{
	model.ColPrice: {
		aliases: []string{"price", "last_price", "lastPrice", "c", "price_display"},
		format:  FormatPrice,
	},
	model.ColVolume: {
		aliases: []string{"volume", "quote_volume_24h", "quoteVolume", "q", "volume_display"},
		format:  FormatMoney,
	},
	model.ColFundingRate: {
		aliases: []string{"funding_rate", "fundingRate", "r", "funding_display"},
		format:  FormatFundingPct,
	},
	model.ColPriceChangePct: {
		aliases: []string{"price_change_pct", "change_pct", "priceChangePercent", "P", "change_display"},
		format:  FormatChangePct,
	},
	model.ColOpenInterest: {
		aliases: []string{"open_interest", "openInterest", "oi", "open_interest_display"},
		format:  FormatMoney,
	},
}

var assetAliases = []string{"asset", "symbol", "s", "name"}

// Project builds the ordered display row list for a snapshot. Rows keep
// arrival order unless sortState requests an explicit sort. A row missing all
// aliased sources for a column gets an empty cell, which only affects that
// row's sort placement.
func Project(rows []Row, sortState model.SortState) []model.DisplayRow {
	out := make([]model.DisplayRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.DisplayRow{
			Asset:          resolveAsset(r),
			Price:          resolveCell(r, model.ColPrice),
			Volume:         resolveCell(r, model.ColVolume),
			FundingRate:    resolveCell(r, model.ColFundingRate),
			PriceChangePct: resolveCell(r, model.ColPriceChangePct),
			OpenInterest:   resolveCell(r, model.ColOpenInterest),
		})
	}

	if sortState.IsSorted() {
		sortRows(out, sortState)
	}
	return out
}

func resolveAsset(r Row) string {
	for _, alias := range assetAliases {
		if v, ok := r[alias]; ok {
			if s, ok := v.(string); ok && s != "" {
				return strings.TrimSpace(stripMarkup(s))
			}
		}
	}
	return ""
}

func resolveCell(r Row, col model.SortColumn) model.Cell {
	spec := columnSpecs[col]
	for _, alias := range spec.aliases {
		v, ok := r[alias]
		if !ok || v == nil {
			continue
		}
		if n, ok := parseValue(v, spec.percentAsDecimal); ok {
			return model.Cell{Value: &n, Display: spec.format(n)}
		}
	}
	return model.Cell{}
}

// FromSymbolStates bridges aggregation snapshots into projection rows. The
// quote suffix is trimmed off the symbol to form the asset label, and funding
// rate is scaled from a decimal fraction to a raw percentage number to match
// the column convention.
func FromSymbolStates(states []model.SymbolState, quoteSuffix string) []Row {
	rows := make([]Row, 0, len(states))
	for _, s := range states {
		row := Row{
			"asset":            strings.TrimSuffix(s.Symbol, quoteSuffix),
			"symbol":           s.Symbol,
			"price":            s.LastPrice,
			"quote_volume_24h": s.QuoteVolume24h,
			"price_change_pct": s.ChangePct,
		}
		if s.FundingRate != nil {
			row["funding_rate"] = *s.FundingRate * 100
		}
		rows = append(rows, row)
	}
	return rows
}
