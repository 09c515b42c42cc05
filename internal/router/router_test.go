package router

import (
	"encoding/json"
	"testing"

	"github.com/perpdash/perpdash/internal/store"
	"github.com/perpdash/perpdash/internal/transport"
)

// recordingSink captures ingest calls.
type recordingSink struct {
	tickerBatches [][]store.TickerRecord
	markBatches   [][]store.MarkPriceRecord
}

func (s *recordingSink) IngestTickerBatch(records []store.TickerRecord) {
	s.tickerBatches = append(s.tickerBatches, records)
}

func (s *recordingSink) IngestMarkPriceBatch(records []store.MarkPriceRecord) {
	s.markBatches = append(s.markBatches, records)
}

func msg(channel, payload string) transport.Message {
	return transport.Message{Channel: channel, Payload: json.RawMessage(payload)}
}

func TestRouter_DecodesTickerBatch(t *testing.T) {
	sink := &recordingSink{}
	r := New(DefaultConfig(), sink, nil)

	r.HandleMessage(msg("!ticker@arr",
		`[{"s":"BTCUSDT","c":"50000.5","P":"2.5","q":"1000000","v":"20"},
		  {"s":"ETHUSDT","c":"3000","P":"-1.25","q":"500000","v":"160"}]`))

	if len(sink.tickerBatches) != 1 {
		t.Fatalf("ticker ingests = %d, want 1 (one per frame)", len(sink.tickerBatches))
	}
	batch := sink.tickerBatches[0]
	if len(batch) != 2 {
		t.Fatalf("records = %d, want 2", len(batch))
	}

	btc := batch[0]
	if btc.Symbol != "BTCUSDT" || btc.LastPrice != 50000.5 || btc.ChangePct != 2.5 ||
		btc.QuoteVolume != 1000000 || btc.BaseVolume != 20 {
		t.Errorf("record = %+v, want decoded BTCUSDT fields", btc)
	}
	if batch[1].ChangePct != -1.25 {
		t.Errorf("ChangePct = %v, want -1.25", batch[1].ChangePct)
	}
}

func TestRouter_SkipsMalformedRecordsKeepsBatch(t *testing.T) {
	sink := &recordingSink{}
	r := New(DefaultConfig(), sink, nil)

	r.HandleMessage(msg("!ticker@arr",
		`[{"s":"","c":"1","P":"0","q":"1","v":"1"},
		  {"s":"NOPRICE","c":"abc","P":"0","q":"1","v":"1"},
		  {"s":"OKUSDT","c":"2","P":"0","q":"3","v":"4"}]`))

	if len(sink.tickerBatches) != 1 {
		t.Fatalf("ticker ingests = %d, want 1", len(sink.tickerBatches))
	}
	batch := sink.tickerBatches[0]
	if len(batch) != 1 || batch[0].Symbol != "OKUSDT" {
		t.Errorf("batch = %+v, want only OKUSDT", batch)
	}

	stats := r.Stats()
	if stats.RecordsSkipped != 2 {
		t.Errorf("RecordsSkipped = %d, want 2", stats.RecordsSkipped)
	}
	if stats.FramesRouted != 1 {
		t.Errorf("FramesRouted = %d, want 1", stats.FramesRouted)
	}
}

func TestRouter_MarkPriceFundingNullable(t *testing.T) {
	sink := &recordingSink{}
	r := New(DefaultConfig(), sink, nil)

	r.HandleMessage(msg("!markPrice@arr",
		`[{"s":"BTCUSDT","p":"50010.5","r":"0.0001"},
		  {"s":"ETHUSDT","p":"3001","r":""},
		  {"s":"SOLUSDT","p":"150"}]`))

	if len(sink.markBatches) != 1 {
		t.Fatalf("mark ingests = %d, want 1", len(sink.markBatches))
	}
	batch := sink.markBatches[0]
	if len(batch) != 3 {
		t.Fatalf("records = %d, want 3", len(batch))
	}

	if batch[0].FundingRate == nil || *batch[0].FundingRate != 0.0001 {
		t.Errorf("BTC funding = %v, want 0.0001", batch[0].FundingRate)
	}
	if batch[1].FundingRate != nil {
		t.Errorf("ETH funding = %v, want nil for empty rate", *batch[1].FundingRate)
	}
	if batch[2].FundingRate != nil {
		t.Errorf("SOL funding = %v, want nil for absent rate", *batch[2].FundingRate)
	}
	if batch[0].MarkPrice != 50010.5 {
		t.Errorf("MarkPrice = %v, want 50010.5", batch[0].MarkPrice)
	}
}

func TestRouter_WholeFrameParseError(t *testing.T) {
	sink := &recordingSink{}
	r := New(DefaultConfig(), sink, nil)

	r.HandleMessage(msg("!ticker@arr", `{"not":"an array"}`))

	if len(sink.tickerBatches) != 0 {
		t.Errorf("ticker ingests = %d, want 0 on frame parse error", len(sink.tickerBatches))
	}
	if stats := r.Stats(); stats.ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1", stats.ParseErrors)
	}
}

func TestRouter_UnknownChannelCounted(t *testing.T) {
	sink := &recordingSink{}
	r := New(DefaultConfig(), sink, nil)

	r.HandleMessage(msg("!bookTicker", `[]`))

	if len(sink.tickerBatches)+len(sink.markBatches) != 0 {
		t.Error("unknown channel reached a decoder")
	}
	stats := r.Stats()
	if stats.UnknownChannels != 1 || stats.FramesReceived != 1 {
		t.Errorf("stats = %+v, want one unknown, one received", stats)
	}
}

func TestRouter_EmptyBatchStillIngested(t *testing.T) {
	sink := &recordingSink{}
	r := New(DefaultConfig(), sink, nil)

	// Every record malformed: the frame still produces one ingest so the
	// store marks the stream seen.
	r.HandleMessage(msg("!markPrice@arr", `[{"s":"","p":"1"}]`))

	if len(sink.markBatches) != 1 {
		t.Fatalf("mark ingests = %d, want 1", len(sink.markBatches))
	}
	if len(sink.markBatches[0]) != 0 {
		t.Errorf("records = %d, want 0", len(sink.markBatches[0]))
	}
}
