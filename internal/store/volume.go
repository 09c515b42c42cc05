package store

import "sort"

// volumeBuffer is a bounded FIFO ring of non-negative quote-volume deltas.
// Pushing into a full buffer evicts the oldest sample.
type volumeBuffer struct {
	samples []float64
	head    int // index of the oldest sample
	count   int
}

func newVolumeBuffer(capacity int) *volumeBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &volumeBuffer{samples: make([]float64, capacity)}
}

func (b *volumeBuffer) len() int { return b.count }

// push appends a sample, evicting the oldest when full.
func (b *volumeBuffer) push(v float64) {
	if b.count < len(b.samples) {
		b.samples[(b.head+b.count)%len(b.samples)] = v
		b.count++
		return
	}
	b.samples[b.head] = v
	b.head = (b.head + 1) % len(b.samples)
}

// sum returns the rolling window volume (sum of all buffered samples).
func (b *volumeBuffer) sum() float64 {
	total := 0.0
	for i := 0; i < b.count; i++ {
		total += b.samples[(b.head+i)%len(b.samples)]
	}
	return total
}

// blockSums partitions the buffer oldest-first into contiguous blocks of
// blockSize samples and returns the sum of each completed block. A trailing
// partial block is not included.
func (b *volumeBuffer) blockSums(blockSize int) []float64 {
	if blockSize < 1 {
		return nil
	}
	complete := b.count / blockSize
	if complete == 0 {
		return nil
	}

	sums := make([]float64, complete)
	for i := 0; i < complete*blockSize; i++ {
		sums[i/blockSize] += b.samples[(b.head+i)%len(b.samples)]
	}
	return sums
}

// evalSpike reports whether the newest completed block stands out against the
// historical baseline: the median of all earlier completed block sums. At
// least MinBlocks historical blocks must exist, the median must be positive,
// and the comparison is inclusive (latest >= Multiplier * median flags).
func evalSpike(b *volumeBuffer, p SpikeParams) bool {
	blocks := b.blockSums(p.BlockSize)
	if len(blocks) < p.MinBlocks+1 {
		return false
	}

	latest := blocks[len(blocks)-1]
	median := medianUpper(blocks[:len(blocks)-1])

	return median > 0 && latest >= p.Multiplier*median
}

// medianUpper returns the median, taking the upper-middle element for
// even-length input (no averaging) for determinism.
func medianUpper(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2]
}
