package render

import (
	"time"

	"github.com/perpdash/perpdash/internal/model"
	"github.com/perpdash/perpdash/internal/store"
)

// Config holds coordinator settings. Tier and RefreshInterval come from the
// session/tier lookup at startup.
type Config struct {
	Tier             model.Tier    // Subscription tier controlling cadence
	RefreshInterval  time.Duration // Free/Pro repaint interval
	CoalesceInterval time.Duration // Frame boundary for paint coalescing
	FallbackDeadline time.Duration // Best-effort first paint deadline
	MinReadyFraction float64       // Completeness fraction considered healthy at the deadline
	HydrationGainPct float64       // Completeness gain (points) allowing one hydration paint
	QuoteSuffix      string        // Quote-asset suffix trimmed off asset labels
}

// Source is the slice of the aggregation store the coordinator reads.
type Source interface {
	Subscribe(fn func()) (unsubscribe func())
	GetState() store.Snapshot
	GetSymbols(q store.Query) []model.SymbolState
}

// Sink receives the ordered display rows and owns the sort state.
type Sink interface {
	SortState() model.SortState
	Paint(rows []model.DisplayRow)
}
