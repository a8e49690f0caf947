// Package history implements the session's circular-buffer store: per-thread
// iteration counts, per-core usage samples, and system-wide temperature and
// average-usage samples. Each family carries its own lock; readers copy under
// the lock and format outside it.
package history

import (
	"fmt"
	"sync"
)

// ThreadRing records each worker's iteration totals over time. The write
// position is advanced (and the new slot zeroed) by the sampler once per
// interval; workers publish their own running totals into the active slot.
// A worker may publish several times into one slot; last write wins.
type ThreadRing struct {
	mu     sync.Mutex
	rows   [][]uint64
	pos    int
	filled int
}

// NewThreadRing allocates a ring of span slots for each of workers rows.
func NewThreadRing(workers, span int) (*ThreadRing, error) {
	rows, err := allocRows[uint64](workers, span)
	if err != nil {
		return nil, err
	}
	return &ThreadRing{rows: rows}, nil
}

// Advance moves the write position forward one slot and zeroes it for every
// worker, so the next interval's publishes start from a clean slot.
func (r *ThreadRing) Advance() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rows) == 0 || len(r.rows[0]) == 0 {
		return
	}
	r.pos = (r.pos + 1) % len(r.rows[0])
	for t := range r.rows {
		r.rows[t][r.pos] = 0
	}
	if r.filled < len(r.rows[0]) {
		r.filled++
	}
}

// Publish stores a worker's current iteration total into the active slot.
func (r *ThreadRing) Publish(worker int, total uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if worker < 0 || worker >= len(r.rows) || len(r.rows[worker]) == 0 {
		return
	}
	r.rows[worker][r.pos] = total
}

// Snapshot copies every row along with the position/fill metadata needed to
// read the ring in chronological order.
func (r *ThreadRing) Snapshot() (rows [][]uint64, pos, filled int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows = make([][]uint64, len(r.rows))
	for t := range r.rows {
		rows[t] = append([]uint64(nil), r.rows[t]...)
	}
	return rows, r.pos, r.filled
}

// SampleRing is a fixed-capacity ring of float64 sample rows with one shared
// write position: each Append stores one value per row at the current
// position, then advances it. After capacity appends the oldest slot is
// overwritten.
type SampleRing struct {
	mu     sync.Mutex
	rows   [][]float64
	pos    int
	filled int
}

// NewSampleRing allocates rows rings of capacity slots each.
func NewSampleRing(rows, capacity int) (*SampleRing, error) {
	r, err := allocRows[float64](rows, capacity)
	if err != nil {
		return nil, err
	}
	return &SampleRing{rows: r}, nil
}

// Append writes one sample per row at the current position and advances it.
// Missing values (len(vals) < rows) leave zero; extra values are dropped.
func (r *SampleRing) Append(vals ...float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rows) == 0 || len(r.rows[0]) == 0 {
		return
	}
	for i := range r.rows {
		v := 0.0
		if i < len(vals) {
			v = vals[i]
		}
		r.rows[i][r.pos] = v
	}
	r.pos = (r.pos + 1) % len(r.rows[0])
	if r.filled < len(r.rows[0]) {
		r.filled++
	}
}

// Pos returns the current write position.
func (r *SampleRing) Pos() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}

// Filled returns how many slots hold valid samples.
func (r *SampleRing) Filled() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filled
}

// Ordered copies every row oldest-first: the returned slices hold exactly
// Filled() samples each, in chronological order.
func (r *SampleRing) Ordered() [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]float64, len(r.rows))
	if r.filled == 0 {
		for i := range out {
			out[i] = nil
		}
		return out
	}
	capacity := len(r.rows[0])
	start := (r.pos - r.filled + capacity) % capacity
	for i, row := range r.rows {
		out[i] = make([]float64, r.filled)
		for k := 0; k < r.filled; k++ {
			out[i][k] = row[(start+k)%capacity]
		}
	}
	return out
}

// Store bundles the session's three history families. Buffers are allocated
// when a run starts (capacities depend on the run's configuration) and
// released only after every writer thread has been joined.
type Store struct {
	Threads *ThreadRing // written by workers, position owned by the sampler
	Cores   *SampleRing // one row per logical core, written by the sampler
	System  *SampleRing // rows: [0] average usage, [1] temperature Celsius
}

// New allocates all three ring families. On any allocation failure it
// returns an error with nothing retained, so the caller can roll back.
func New(workers, cores, threadSpan, coreSpan, systemSpan int) (*Store, error) {
	threads, err := NewThreadRing(workers, threadSpan)
	if err != nil {
		return nil, err
	}
	coreRing, err := NewSampleRing(cores, coreSpan)
	if err != nil {
		return nil, err
	}
	system, err := NewSampleRing(2, systemSpan)
	if err != nil {
		return nil, err
	}
	return &Store{Threads: threads, Cores: coreRing, System: system}, nil
}

// allocRows builds the backing slices for a ring family. The recover guard
// turns a failed huge allocation into an error instead of tearing the
// process down, mirroring the engine's treatment of worker buffers.
func allocRows[T uint64 | float64](rows, capacity int) (out [][]T, err error) {
	if rows < 0 || capacity < 0 {
		return nil, fmt.Errorf("history: invalid dimensions %dx%d", rows, capacity)
	}
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("history: allocating %dx%d samples: %v", rows, capacity, rec)
		}
	}()
	out = make([][]T, rows)
	for i := range out {
		out[i] = make([]T, capacity)
	}
	return out, nil
}
