// Package stats provides ladder-keyed histogram bins for the analytics.
package stats

import "math"

// eps absorbs float noise when a key sits exactly on a ladder value.
const eps = 1e-9

// Bin accumulates values into bins keyed against an ascending ladder.
// A key falls in the first bin whose ladder value is >= key; keys above the
// last ladder value saturate into the last bin.
//
// Each bin carries three independent accumulators:
//   - Freq: occurrence counts (Count)
//   - Sum:  summed values, or hit counts for ratio bins (Add, Hit)
//   - N:    denominators for Sum (Add, Trial)
type Bin struct {
	Ladder []float64
	Freq   []float64
	Sum    []float64
	N      []float64

	total float64 // number of Count calls
	sum   float64 // exact keys passed to Count
	sumSq float64
}

// NewBin creates an empty bin over ladder. The ladder is copied.
func NewBin(ladder []float64) *Bin {
	l := append([]float64(nil), ladder...)
	return &Bin{
		Ladder: l,
		Freq:   make([]float64, len(l)),
		Sum:    make([]float64, len(l)),
		N:      make([]float64, len(l)),
	}
}

// Index returns the bin index for key.
func (b *Bin) Index(key float64) int {
	for i, v := range b.Ladder {
		if key <= v+eps {
			return i
		}
	}
	return len(b.Ladder) - 1
}

// Count records one occurrence of key.
func (b *Bin) Count(key float64) {
	b.Freq[b.Index(key)]++
	b.total++
	b.sum += key
	b.sumSq += key * key
}

// Add accumulates value into key's bin. When cumulative is false the bin is
// overwritten with this single observation instead.
func (b *Bin) Add(key, value float64, cumulative bool) {
	i := b.Index(key)
	if !cumulative {
		b.Sum[i] = value
		b.N[i] = 1
		return
	}
	b.Sum[i] += value
	b.N[i]++
}

// Hit increments the numerator of key's bin.
func (b *Bin) Hit(key float64) {
	b.Sum[b.Index(key)]++
}

// Trial increments the denominator of key's bin.
func (b *Bin) Trial(key float64) {
	b.N[b.Index(key)]++
}

// Total returns the number of counted occurrences.
func (b *Bin) Total() float64 { return b.total }

// Mean is the mean of every counted key, 0 when empty.
func (b *Bin) Mean() float64 {
	if b.total == 0 {
		return 0
	}
	return b.sum / b.total
}

// StandardDeviation is the sample standard deviation of the counted keys,
// 0 with fewer than two observations.
func (b *Bin) StandardDeviation() float64 {
	if b.total < 2 {
		return 0
	}
	mean := b.sum / b.total
	v := (b.sumSq - b.total*mean*mean) / (b.total - 1)
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}

// FrequencyDistribution returns each bin's share of the counted occurrences.
func (b *Bin) FrequencyDistribution() []float64 {
	out := make([]float64, len(b.Freq))
	if b.total == 0 {
		return out
	}
	for i, f := range b.Freq {
		out[i] = f / b.total
	}
	return out
}

// MeanDistribution returns Sum/N per bin, 0 where N is zero.
func (b *Bin) MeanDistribution() []float64 {
	out := make([]float64, len(b.Sum))
	for i := range b.Sum {
		if b.N[i] > 0 {
			out[i] = b.Sum[i] / b.N[i]
		}
	}
	return out
}

// Reset clears every accumulator, keeping the ladder.
func (b *Bin) Reset() {
	for i := range b.Ladder {
		b.Freq[i], b.Sum[i], b.N[i] = 0, 0, 0
	}
	b.total, b.sum, b.sumSq = 0, 0, 0
}
