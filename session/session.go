// Package session runs stress sessions: a controller goroutine owns the
// lifecycle, worker goroutines hammer their private buffers with the enabled
// kernels, and a sampler goroutine records usage, temperature and iteration
// history once per second.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/felipebehling/HardStress/config"
	"github.com/felipebehling/HardStress/history"
	"github.com/felipebehling/HardStress/telemetry"
)

// State is the lifecycle phase of a session.
type State int32

const (
	StateIdle State = iota
	StateAllocating
	StateRunning
	StateStopping
	StateCleanup
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAllocating:
		return "allocating"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateCleanup:
		return "cleanup"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Logf is the engine's logging sink. The engine never formats output itself
// beyond printf semantics, so callers can route it anywhere.
type Logf func(format string, args ...any)

// Session owns one run of the stress engine. A Session may be reused: after
// it reaches StateStopped, Start may be called again.
type Session struct {
	cfg       config.Config
	source    telemetry.Source
	logf      Logf
	onStopped func()

	// active guards the whole lifecycle: set by Start, cleared only when
	// teardown has finished, so a restart can never overlap a teardown
	// still draining the previous run. running is the cooperative run
	// flag workers and the sampler poll; Stop clears it immediately.
	active     atomic.Bool
	running    atomic.Bool
	state      atomic.Int32
	errorCount atomic.Uint64
	totalIters atomic.Uint64

	mu        sync.Mutex
	startTime time.Time
	cores     int
	hist      *history.Store
	workers   []*worker
	done      chan struct{}
	notified  *sync.Once

	tempMu  sync.Mutex
	tempC   float64
	sensors []telemetry.TempReading
	usage   []float64 // latest per-core usage, sampler-owned
}

// New builds a Session. A nil logf discards diagnostics; onStopped may be
// nil and is invoked exactly once per run, after cleanup finishes, even when
// startup fails.
func New(cfg config.Config, source telemetry.Source, logf Logf, onStopped func()) *Session {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	s := &Session{
		cfg:       cfg,
		source:    source,
		logf:      logf,
		onStopped: onStopped,
	}
	s.state.Store(int32(StateIdle))
	s.tempC = telemetry.TempUnavailable
	return s
}

// State reports the current lifecycle phase.
func (s *Session) State() State { return State(s.state.Load()) }

// Running reports whether a run is in progress.
func (s *Session) Running() bool { return s.running.Load() }

// History exposes the run's history store. It stays readable after the run
// stops so callers can export it; the next Start replaces it.
func (s *Session) History() *history.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist
}

// WorkerStatus is one worker's contribution to a Snapshot.
type WorkerStatus struct {
	Iterations uint64
	AllocFail  bool
}

// Snapshot is a consistent read of the session's observable state.
type Snapshot struct {
	State      State
	Elapsed    time.Duration
	TotalIters uint64
	Errors     uint64
	AvgUsage   float64
	TempC      float64
	Workers    []WorkerStatus
}

// Snapshot copies the current counters. Safe to call from any goroutine at
// any phase.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		State:      s.State(),
		TotalIters: s.totalIters.Load(),
		Errors:     s.errorCount.Load(),
	}

	s.mu.Lock()
	if !s.startTime.IsZero() {
		snap.Elapsed = time.Since(s.startTime)
	}
	workers := s.workers
	s.mu.Unlock()

	snap.Workers = make([]WorkerStatus, len(workers))
	for i, w := range workers {
		snap.Workers[i] = WorkerStatus{
			Iterations: w.iters.Load(),
			AllocFail:  w.allocFailed.Load(),
		}
	}

	s.tempMu.Lock()
	snap.TempC = s.tempC
	var sum float64
	for _, u := range s.usage {
		sum += u
	}
	if len(s.usage) > 0 {
		snap.AvgUsage = sum / float64(len(s.usage))
	}
	s.tempMu.Unlock()
	return snap
}

// SensorReadings returns the labelled temperatures from the latest sample.
func (s *Session) SensorReadings() []telemetry.TempReading {
	s.tempMu.Lock()
	defer s.tempMu.Unlock()
	return append([]telemetry.TempReading(nil), s.sensors...)
}

// Wait blocks until the current run has fully stopped. It returns
// immediately when no run was started.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}
