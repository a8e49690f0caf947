package utils

import "math"

// SplitMix64 is a fast 64-bit mixing generator with good statistical
// properties. Each worker owns a private instance seeded from its ID, so
// buffer contents are deterministic per worker but distinct across workers.
type SplitMix64 struct {
	state uint64
}

// NewSplitMix64 creates a generator seeded with the given value.
func NewSplitMix64(seed uint64) *SplitMix64 {
	return &SplitMix64{state: seed}
}

// Next returns the next 64-bit value in the sequence.
func (r *SplitMix64) Next() uint64 {
	r.state += 0x9E3779B97F4A7C15
	z := r.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Unit returns a float32 in [0,1] derived from the low 16 bits of the next
// value, matching the normalization used to seed the FPU kernel spans.
func (r *SplitMix64) Unit() float32 {
	return float32(r.Next()&0xFFFF) / 65535.0
}

// Shuffle32 shuffles a in place with the Fisher-Yates algorithm. The pick of
// j uses rejection sampling so the distribution has no modulo bias.
func Shuffle32(a []uint32, r *SplitMix64) {
	if len(a) <= 1 {
		return
	}
	for i := len(a) - 1; i > 0; i-- {
		bound := uint64(i + 1)
		limit := math.MaxUint64 - math.MaxUint64%bound
		v := r.Next()
		for v >= limit {
			v = r.Next()
		}
		j := int(v % bound)
		a[i], a[j] = a[j], a[i]
	}
}
