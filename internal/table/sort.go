package table

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/perpdash/perpdash/internal/model"
)

// assetCollator compares asset labels case-insensitively with locale
// collation. collate.Collator is not safe for concurrent use, so sortRows
// builds a fresh one per sort.
func assetCollator() *collate.Collator {
	return collate.New(language.Und, collate.IgnoreCase)
}

// sortRows orders rows in place per the sort state. The sort is stable (ties
// keep arrival order, no secondary key) and rows missing the active column
// always land after all present values regardless of direction.
func sortRows(rows []model.DisplayRow, state model.SortState) {
	asc := state.Direction == model.SortAsc

	if state.Column == model.ColAsset {
		coll := assetCollator()
		sort.SliceStable(rows, func(i, j int) bool {
			a, b := rows[i].Asset, rows[j].Asset
			if (a == "") != (b == "") {
				return b == ""
			}
			cmp := coll.CompareString(a, b)
			if asc {
				return cmp < 0
			}
			return cmp > 0
		})
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a := columnValue(rows[i], state.Column)
		b := columnValue(rows[j], state.Column)
		if (a == nil) != (b == nil) {
			return b == nil
		}
		if a == nil {
			return false
		}
		if asc {
			return *a < *b
		}
		return *a > *b
	})
}

func columnValue(row model.DisplayRow, col model.SortColumn) *float64 {
	switch col {
	case model.ColPrice:
		return row.Price.Value
	case model.ColVolume:
		return row.Volume.Value
	case model.ColFundingRate:
		return row.FundingRate.Value
	case model.ColPriceChangePct:
		return row.PriceChangePct.Value
	case model.ColOpenInterest:
		return row.OpenInterest.Value
	default:
		return nil
	}
}

// NextSortState advances the sort cycle for a column activation. Repeating
// the active column cycles default direction, opposite direction, unsorted.
// Switching columns resets to that column's default-first direction: asset
// sorts ascending first, every other column descending first.
func NextSortState(current model.SortState, col model.SortColumn) model.SortState {
	first := model.SortDesc
	if col == model.ColAsset {
		first = model.SortAsc
	}

	if current.Column != col {
		return model.SortState{Column: col, Direction: first}
	}

	switch current.Direction {
	case first:
		return model.SortState{Column: col, Direction: opposite(first)}
	case opposite(first):
		return model.SortState{}
	default:
		return model.SortState{Column: col, Direction: first}
	}
}

func opposite(d model.SortDirection) model.SortDirection {
	if d == model.SortAsc {
		return model.SortDesc
	}
	return model.SortAsc
}
