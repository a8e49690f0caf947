// config/types.go
package config

import "time"

// Engine defaults, carried over from the desktop build of HardStress.
const (
	DefaultMemMiB     = 256             // memory allocated per worker, in MiB
	DefaultDuration   = 5 * time.Minute // default stress run length
	SampleInterval    = time.Second     // usage/temperature sampling period
	PollInterval      = 200 * time.Millisecond
	HistorySamples    = 240 // history span when the run duration is unbounded
	CPUHistorySamples = 60  // per-core usage history span
	IterDisplayScale  = 1000.0
)

// Kernels selects which stress kernels each worker runs per sweep.
type Kernels struct {
	FPU          bool `json:"fpu"`
	Integer      bool `json:"integer"`
	Stream       bool `json:"stream"`
	PointerChase bool `json:"ptrchase"`
}

// Any reports whether at least one kernel is enabled.
func (k Kernels) Any() bool {
	return k.FPU || k.Integer || k.Stream || k.PointerChase
}

// Config describes one stress session. It is immutable once a run starts;
// the engine never mutates it. Callers resolve Workers=0 to the logical core
// count before starting a session; the engine rejects a zero worker count or
// an empty kernel selection.
type Config struct {
	Workers      int           // number of worker threads
	MemPerWorker int64         // bytes allocated by each worker (0 = no buffer)
	Duration     time.Duration // 0 = unbounded
	PinWorkers   bool          // pin each worker to a core (index mod core count)
	Kernels      Kernels
}

// HistorySpan returns the per-thread iteration history capacity for this
// configuration: one slot per second of a bounded run, HistorySamples
// otherwise.
func (c Config) HistorySpan() int {
	if c.Duration > 0 {
		if s := int(c.Duration / time.Second); s > 0 {
			return s
		}
	}
	return HistorySamples
}
