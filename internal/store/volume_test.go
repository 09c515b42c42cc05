package store

import "testing"

func defaultSpikeParams() SpikeParams {
	return SpikeParams{BlockSize: 10, MinBlocks: 3, Multiplier: 3.0}
}

func TestVolumeBuffer_FIFOEviction(t *testing.T) {
	buf := newVolumeBuffer(60)

	for i := 0; i < 60; i++ {
		buf.push(float64(i))
	}
	if buf.len() != 60 {
		t.Fatalf("len = %d, want 60", buf.len())
	}

	// The 61st push evicts the oldest, preserving order of the rest.
	buf.push(60)
	if buf.len() != 60 {
		t.Errorf("len after 61st push = %d, want 60", buf.len())
	}

	blocks := buf.blockSums(60) // one block covering everything
	wantSum := 0.0
	for i := 1; i <= 60; i++ {
		wantSum += float64(i)
	}
	if len(blocks) != 1 || blocks[0] != wantSum {
		t.Errorf("remaining sum = %v, want [%v]", blocks, wantSum)
	}

	// Oldest-first ordering: the first block of 10 is now 1..10.
	tens := buf.blockSums(10)
	if tens[0] != 55 { // 1+2+...+10
		t.Errorf("first block sum = %v, want 55 (oldest evicted, order kept)", tens[0])
	}
}

func TestVolumeBuffer_SumIsRollingVolume(t *testing.T) {
	buf := newVolumeBuffer(5)
	for _, v := range []float64{1, 2, 3} {
		buf.push(v)
	}
	if got := buf.sum(); got != 6 {
		t.Errorf("sum = %v, want 6", got)
	}

	for _, v := range []float64{4, 5, 6} { // 1 is evicted
		buf.push(v)
	}
	if got := buf.sum(); got != 20 {
		t.Errorf("sum after wrap = %v, want 20", got)
	}
}

func TestVolumeBuffer_BlockSumsIgnoresPartial(t *testing.T) {
	buf := newVolumeBuffer(60)
	for i := 0; i < 25; i++ {
		buf.push(1)
	}

	blocks := buf.blockSums(10)
	if len(blocks) != 2 {
		t.Fatalf("completed blocks = %d, want 2 (trailing 5 samples are partial)", len(blocks))
	}
	for i, b := range blocks {
		if b != 10 {
			t.Errorf("blocks[%d] = %v, want 10", i, b)
		}
	}
}

// fillBlocks pushes one 10-sample block per given sum, spread evenly.
func fillBlocks(buf *volumeBuffer, blockSums ...float64) {
	for _, s := range blockSums {
		for i := 0; i < 10; i++ {
			buf.push(s / 10)
		}
	}
}

func TestEvalSpike_FlagsSpikeOverHistoricalMedian(t *testing.T) {
	buf := newVolumeBuffer(60)
	fillBlocks(buf, 100, 100, 100, 100, 100, 300)

	// Median of the five historical blocks is 100; 300 >= 3*100.
	if !evalSpike(buf, defaultSpikeParams()) {
		t.Error("evalSpike = false, want true for 300 vs median 100")
	}
}

func TestEvalSpike_NoSpikeOnSteadyVolume(t *testing.T) {
	buf := newVolumeBuffer(60)
	fillBlocks(buf, 100, 100, 100, 100, 100, 100)

	if evalSpike(buf, defaultSpikeParams()) {
		t.Error("evalSpike = true, want false when every block is equal")
	}
}

func TestEvalSpike_ThresholdIsInclusive(t *testing.T) {
	buf := newVolumeBuffer(60)
	// Latest block exactly 3x the historical median must flag.
	fillBlocks(buf, 100, 100, 100, 300)

	if !evalSpike(buf, defaultSpikeParams()) {
		t.Error("evalSpike = false, want true at the exact >= boundary")
	}

	buf2 := newVolumeBuffer(60)
	fillBlocks(buf2, 100, 100, 100, 299)
	if evalSpike(buf2, defaultSpikeParams()) {
		t.Error("evalSpike = true, want false just below the boundary")
	}
}

func TestEvalSpike_RequiresHistory(t *testing.T) {
	buf := newVolumeBuffer(60)
	fillBlocks(buf, 100, 100, 900)

	// Only two historical blocks: not enough, regardless of magnitude.
	if evalSpike(buf, defaultSpikeParams()) {
		t.Error("evalSpike = true, want false with fewer than 3 historical blocks")
	}
}

func TestEvalSpike_ZeroMedianNeverFlags(t *testing.T) {
	buf := newVolumeBuffer(60)
	fillBlocks(buf, 0, 0, 0, 500)

	if evalSpike(buf, defaultSpikeParams()) {
		t.Error("evalSpike = true, want false when the historical median is 0")
	}
}

func TestMedianUpper_EvenLengthTakesUpperMiddle(t *testing.T) {
	tests := []struct {
		vals []float64
		want float64
	}{
		{[]float64{1, 2, 3}, 2},
		{[]float64{1, 2, 3, 4}, 3}, // upper-middle, no averaging
		{[]float64{4, 1, 3, 2}, 3}, // order-independent
		{[]float64{7}, 7},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := medianUpper(tt.vals); got != tt.want {
			t.Errorf("medianUpper(%v) = %v, want %v", tt.vals, got, tt.want)
		}
	}
}
