package session

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/felipebehling/HardStress/kernel"
	"github.com/felipebehling/HardStress/utils"
)

// Worker seeds are fixed per slot so a run's workloads are reproducible.
const workerSeedBase = 0x12340000

type worker struct {
	id       int
	bufBytes int64

	iters       atomic.Uint64
	stop        atomic.Bool
	allocFailed atomic.Bool
}

// run is the worker goroutine body: allocate and initialize the buffers the
// enabled kernels need, then loop over the kernels until stopped. The buffer
// is released when the goroutine returns.
func (w *worker) run(s *Session, done chan struct{}) {
	defer close(done)

	if s.cfg.PinWorkers && s.cores > 0 {
		if err := pinToCore(w.id % s.cores); err != nil {
			s.logf("[T%d] CPU pinning failed: %v", w.id, err)
		}
	}

	buf, err := safeAlloc(int(w.bufBytes))
	if err != nil {
		s.logf("[T%d] Buffer allocation failed (%s)", w.id, utils.FormatSize(w.bufBytes))
		s.errorCount.Add(1)
		w.allocFailed.Store(true)
		return
	}

	enabled := s.cfg.Kernels
	rng := utils.NewSplitMix64(workerSeedBase + uint64(w.id))

	// The FPU sweep views the buffer as three equal float32 spans.
	var a, b, c []float32
	if n := len(buf) / 4 / 3; n > 0 {
		all := unsafe.Slice((*float32)(unsafe.Pointer(&buf[0])), 3*n)
		a, b, c = all[:n], all[n:2*n], all[2*n:]
	}
	if enabled.FPU {
		for i := range a {
			a[i] = rng.Unit()
			b[i] = rng.Unit()
			c[i] = rng.Unit()
		}
	}

	// The integer kernel views the same buffer as 64-bit words, touching at
	// most IntWordCap of them per invocation.
	var words []uint64
	if n := len(buf) / 8; n > 0 {
		words = unsafe.Slice((*uint64)(unsafe.Pointer(&buf[0])), n)
	}
	if enabled.Integer {
		for i := range words {
			words[i] = rng.Next()
		}
	}
	intSpan := min(len(words), kernel.IntWordCap)

	// The chase index is a separate allocation of one uint32 per four
	// buffer bytes, so it can fail independently of the main buffer.
	var idx []uint32
	if enabled.PointerChase {
		idx, err = buildChaseIndex(len(buf)/4, rng)
		if err != nil {
			s.logf("[T%d] Index allocation failed: %v", w.id, err)
			s.errorCount.Add(1)
			w.allocFailed.Store(true)
			return
		}
	}

	hist := s.History()
	for !w.stop.Load() && s.running.Load() {
		if len(buf) > 0 {
			if enabled.FPU && len(a) > 0 {
				kernel.FPU(a, b, c, kernel.SweepIters)
			}
			if enabled.Integer && intSpan > 0 {
				kernel.Integer(words[:intSpan], kernel.SweepIters)
			}
			if enabled.Stream {
				kernel.Stream(buf)
			}
			if enabled.PointerChase && len(idx) > 0 {
				kernel.PointerChase(idx, kernel.SweepIters)
			}
		}

		total := w.iters.Add(1)
		s.totalIters.Add(1)
		if hist != nil {
			hist.Threads.Publish(w.id, total)
		}
	}
}

// safeAlloc turns the runtime panic of an impossible allocation into an
// error the worker can report.
func safeAlloc(n int) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, fmt.Errorf("allocating %d bytes: %v", n, r)
		}
	}()
	if n > 0 {
		buf = make([]byte, n)
	}
	return buf, nil
}

func buildChaseIndex(n int, rng *utils.SplitMix64) (idx []uint32, err error) {
	defer func() {
		if r := recover(); r != nil {
			idx, err = nil, fmt.Errorf("allocating %d index entries: %v", n, r)
		}
	}()
	return kernel.NewChaseIndex(n, rng), nil
}
