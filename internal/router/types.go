package router

import (
	"errors"
	"strconv"

	"github.com/perpdash/perpdash/internal/store"
)

// Config maps stream channel names to decoders.
type Config struct {
	TickerChannel    string // Full-ticker array channel name
	MarkPriceChannel string // Mark-price array channel name
}

// DefaultConfig returns the standard channel names.
func DefaultConfig() Config {
	return Config{
		TickerChannel:    "!ticker@arr",
		MarkPriceChannel: "!markPrice@arr",
	}
}

// Stats contains runtime counters.
type Stats struct {
	FramesReceived  int64 // Frames handed to the router
	FramesRouted    int64 // Frames decoded and ingested
	ParseErrors     int64 // Whole-frame decode failures
	RecordsSkipped  int64 // Individual malformed records dropped
	UnknownChannels int64 // Frames on channels the router does not consume
}

var errMissingField = errors.New("missing required field")

// tickerWire is one entry on the full-ticker array channel.
type tickerWire struct {
	Symbol      string `json:"s"` // Instrument
	LastPrice   string `json:"c"` // Last price
	ChangePct   string `json:"P"` // 24h change percent
	QuoteVolume string `json:"q"` // 24h quote volume
	BaseVolume  string `json:"v"` // 24h base volume
}

func (w tickerWire) record() (store.TickerRecord, error) {
	if w.Symbol == "" {
		return store.TickerRecord{}, errMissingField
	}
	last, err := strconv.ParseFloat(w.LastPrice, 64)
	if err != nil {
		return store.TickerRecord{}, err
	}
	change, err := strconv.ParseFloat(w.ChangePct, 64)
	if err != nil {
		return store.TickerRecord{}, err
	}
	quote, err := strconv.ParseFloat(w.QuoteVolume, 64)
	if err != nil {
		return store.TickerRecord{}, err
	}
	base, err := strconv.ParseFloat(w.BaseVolume, 64)
	if err != nil {
		return store.TickerRecord{}, err
	}

	return store.TickerRecord{
		Symbol:      w.Symbol,
		LastPrice:   last,
		ChangePct:   change,
		QuoteVolume: quote,
		BaseVolume:  base,
	}, nil
}

// markPriceWire is one entry on the mark-price array channel.
type markPriceWire struct {
	Symbol      string `json:"s"` // Instrument
	MarkPrice   string `json:"p"` // Mark price
	FundingRate string `json:"r"` // Funding rate, may be empty
}

func (w markPriceWire) record() (store.MarkPriceRecord, error) {
	if w.Symbol == "" {
		return store.MarkPriceRecord{}, errMissingField
	}
	mark, err := strconv.ParseFloat(w.MarkPrice, 64)
	if err != nil {
		return store.MarkPriceRecord{}, err
	}

	// Funding rate is nullable: absent or unparseable stays nil, never 0.
	var rate *float64
	if w.FundingRate != "" {
		if r, err := strconv.ParseFloat(w.FundingRate, 64); err == nil {
			rate = &r
		}
	}

	return store.MarkPriceRecord{
		Symbol:      w.Symbol,
		MarkPrice:   mark,
		FundingRate: rate,
	}, nil
}
