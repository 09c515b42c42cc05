package table

import (
	"fmt"
	"math"
)

// FormatMoney renders a monetary figure in compact notation with 2 decimal
// places at K/M/B/T scale.
func FormatMoney(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("$%.2fK", v/1e3)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

// FormatPrice renders a price with precision inversely proportional to
// magnitude: micro-cap prices need more decimals to stay meaningful.
func FormatPrice(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs < 0.01:
		return fmt.Sprintf("$%.6f", v)
	case abs < 1:
		return fmt.Sprintf("$%.4f", v)
	case abs < 100:
		return fmt.Sprintf("$%.3f", v)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

// FormatFundingPct renders a funding rate already scaled to a raw percentage
// number.
func FormatFundingPct(v float64) string {
	return fmt.Sprintf("%.4f%%", v)
}

// FormatChangePct renders a signed 24h change percentage.
func FormatChangePct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}
