package table

import (
	"math"
	"strconv"
	"strings"
)

// suffixMultipliers maps a trailing scale letter to its factor.
var suffixMultipliers = map[byte]float64{
	'K': 1e3,
	'M': 1e6,
	'B': 1e9,
	'T': 1e12,
}

// parseValue resolves an arbitrary snapshot field into a float64. Strings go
// through the display-string parser; anything unparseable reports ok=false.
func parseValue(v any, percentAsDecimal bool) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case *float64:
		if t == nil {
			return 0, false
		}
		return parseValue(*t, percentAsDecimal)
	case string:
		return parseDisplayString(t, percentAsDecimal)
	default:
		return 0, false
	}
}

// parseDisplayString extracts a numeric value from a pre-rendered display
// string. It strips markup, currency, percent and grouping symbols, applies a
// trailing K/M/B/T scale suffix, and treats parenthesized values as negative.
// Percent-bearing strings are rescaled to a decimal fraction only when
// percentAsDecimal is set; otherwise the percentage number is kept raw.
func parseDisplayString(s string, percentAsDecimal bool) (float64, bool) {
	s = strings.TrimSpace(stripMarkup(s))
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	hadPercent := strings.Contains(s, "%")

	var b strings.Builder
	for _, r := range s {
		switch r {
		case '$', '€', '£', '¥', '%', ',', '_', ' ', '\u00a0':
			// currency, percent and grouping symbols
		default:
			b.WriteRune(r)
		}
	}
	s = b.String()
	if s == "" {
		return 0, false
	}

	multiplier := 1.0
	if m, ok := suffixMultipliers[upperLast(s)]; ok && len(s) > 1 {
		multiplier = m
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}

	v *= multiplier
	if negative {
		v = -v
	}
	if hadPercent && percentAsDecimal {
		v /= 100
	}
	return v, true
}

// stripMarkup removes angle-bracket tag sequences from a rendered string.
func stripMarkup(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func upperLast(s string) byte {
	if s == "" {
		return 0
	}
	c := s[len(s)-1]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	return c
}
