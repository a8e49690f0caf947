package kernel

import (
	"testing"

	"github.com/felipebehling/HardStress/utils"
)

func TestNewChaseIndexSingleCycle(t *testing.T) {
	rng := utils.NewSplitMix64(0x12340000)
	for _, n := range []int{2, 3, 7, 64, 1021, 4096} {
		idx := NewChaseIndex(n, rng)
		if len(idx) != n {
			t.Fatalf("n=%d: got %d entries", n, len(idx))
		}

		seen := make([]bool, n)
		i := uint32(0)
		for step := 0; step < n; step++ {
			if seen[i] {
				t.Fatalf("n=%d: revisited %d after %d steps, cycle too short", n, i, step)
			}
			seen[i] = true
			i = idx[i]
		}
		if i != 0 {
			t.Fatalf("n=%d: walk of %d steps ended at %d, not back at 0", n, n, i)
		}
		for j, ok := range seen {
			if !ok {
				t.Fatalf("n=%d: index %d never visited", n, j)
			}
		}
	}
}

func TestNewChaseIndexEmpty(t *testing.T) {
	rng := utils.NewSplitMix64(1)
	if idx := NewChaseIndex(0, rng); idx != nil {
		t.Errorf("n=0 should return nil, got %v", idx)
	}
}

func TestStreamHalvesMatch(t *testing.T) {
	buf := make([]byte, 4096)
	Stream(buf)
	half := len(buf) / 2
	for i := 0; i < half; i++ {
		if buf[i] != 0xA5 {
			t.Fatalf("first half byte %d = %#x", i, buf[i])
		}
		if buf[half+i] != buf[i] {
			t.Fatalf("second half byte %d = %#x, want %#x", i, buf[half+i], buf[i])
		}
	}
}

func TestStreamOddLength(t *testing.T) {
	buf := make([]byte, 7)
	buf[6] = 0x42
	Stream(buf)
	if buf[6] != 0x42 {
		t.Errorf("trailing byte touched: %#x", buf[6])
	}
}

func TestFPUMutatesC(t *testing.T) {
	rng := utils.NewSplitMix64(3)
	a := make([]float32, 256)
	b := make([]float32, 256)
	c := make([]float32, 256)
	for i := range a {
		a[i], b[i], c[i] = rng.Unit(), rng.Unit(), rng.Unit()
	}
	before := append([]float32(nil), c...)

	FPU(a, b, c, SweepIters)

	changed := false
	for i := range c {
		want := before[i]
		for k := 0; k < SweepIters; k++ {
			want = a[i]*b[i] + want
		}
		if c[i] != want {
			t.Fatalf("c[%d] = %v, want %v", i, c[i], want)
		}
		if c[i] != before[i] {
			changed = true
		}
	}
	if !changed {
		t.Error("FPU sweep left C untouched")
	}
}

func TestIntegerDeterministic(t *testing.T) {
	mk := func() []uint64 {
		rng := utils.NewSplitMix64(11)
		dst := make([]uint64, 512)
		for i := range dst {
			dst[i] = rng.Next()
		}
		return dst
	}
	x, y := mk(), mk()
	Integer(x, SweepIters)
	Integer(y, SweepIters)
	for i := range x {
		if x[i] != y[i] {
			t.Fatalf("integer kernel nondeterministic at %d", i)
		}
	}
}

func TestPointerChaseReturnsToStart(t *testing.T) {
	rng := utils.NewSplitMix64(99)
	idx := NewChaseIndex(128, rng)
	if got := PointerChase(idx, SweepIters); got != 0 {
		t.Errorf("chase over whole cycles ended at %d, want 0", got)
	}
}

const benchSpan = 64 * 1024

func BenchmarkFPU(b *testing.B) {
	rng := utils.NewSplitMix64(1)
	a := make([]float32, benchSpan)
	bb := make([]float32, benchSpan)
	c := make([]float32, benchSpan)
	for i := range a {
		a[i], bb[i], c[i] = rng.Unit(), rng.Unit(), rng.Unit()
	}
	b.SetBytes(benchSpan * 4 * 3)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		FPU(a, bb, c, SweepIters)
	}
}

func BenchmarkInteger(b *testing.B) {
	rng := utils.NewSplitMix64(1)
	dst := make([]uint64, IntWordCap)
	for i := range dst {
		dst[i] = rng.Next()
	}
	b.SetBytes(IntWordCap * 8)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Integer(dst, SweepIters)
	}
}

func BenchmarkStream(b *testing.B) {
	buf := make([]byte, benchSpan)
	b.SetBytes(benchSpan)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Stream(buf)
	}
}

func BenchmarkPointerChase(b *testing.B) {
	rng := utils.NewSplitMix64(1)
	idx := NewChaseIndex(benchSpan, rng)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		PointerChase(idx, SweepIters)
	}
}
