// Package kernel implements the stress kernels: pure, branch-free compute
// routines over caller-owned buffers. None of them yields or checks for
// cancellation mid-sweep; the session only observes the run flag between
// kernel invocations, so cancellation latency is bounded by one sweep.
package kernel

import "github.com/felipebehling/HardStress/utils"

// SweepIters is how many passes each kernel makes over its data per
// invocation.
const SweepIters = 4

// IntWordCap bounds how many 64-bit words the integer kernel touches per
// invocation, keeping per-sweep cancellation latency roughly uniform across
// kernels regardless of buffer size.
const IntWordCap = 1024

// FPU performs a fused multiply-add sweep, C[i] = A[i]*B[i] + C[i], over
// three equal spans. It exercises floating-point throughput.
func FPU(a, b, c []float32, iters int) {
	n := len(c)
	if len(a) < n {
		n = len(a)
	}
	if len(b) < n {
		n = len(b)
	}
	for k := 0; k < iters; k++ {
		for i := 0; i < n; i++ {
			c[i] = a[i]*b[i] + c[i]
		}
	}
}

// mix64 is a 3-round xor-shift/multiply avalanche function.
func mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

// Integer mixes a running accumulator through every word, rewriting each
// element from shifted copies of its old value and the accumulator. It
// exercises the ALUs.
func Integer(dst []uint64, iters int) {
	acc := uint64(0xC0FFEE)
	for k := 0; k < iters; k++ {
		for i, v := range dst {
			acc ^= mix64(v + uint64(i))
			dst[i] = acc + (v << 1) + (v >> 3)
		}
	}
}

// Stream fills the first half of buf with a constant pattern and bulk-copies
// it over the second half, exercising sequential write then copy bandwidth.
func Stream(buf []byte) {
	half := len(buf) / 2
	first := buf[:half]
	for i := range first {
		first[i] = 0xA5
	}
	copy(buf[half:half*2], first)
}

// PointerChase follows idx for rounds*len(idx) steps with no other work: a
// single data-dependent load chain that defeats prefetching and out-of-order
// execution, stressing cache and TLB latency.
func PointerChase(idx []uint32, rounds int) uint32 {
	var i uint32
	n := len(idx)
	for r := 0; r < rounds; r++ {
		for s := 0; s < n; s++ {
			i = idx[i]
		}
	}
	return i
}

// NewChaseIndex builds a pointer-chase permutation of length n: a visit order
// is shuffled with Fisher-Yates and then linked into one closed cycle, so the
// chase starting at index 0 traverses every slot before returning to 0 and
// can never fall into a short sub-cycle.
func NewChaseIndex(n int, rng *utils.SplitMix64) []uint32 {
	if n <= 0 {
		return nil
	}
	order := make([]uint32, n)
	for i := range order {
		order[i] = uint32(i)
	}
	utils.Shuffle32(order, rng)

	idx := make([]uint32, n)
	for i := 0; i < n-1; i++ {
		idx[order[i]] = order[i+1]
	}
	idx[order[n-1]] = order[0]
	return idx
}
