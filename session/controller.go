package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felipebehling/HardStress/config"
	"github.com/felipebehling/HardStress/history"
	"github.com/felipebehling/HardStress/utils"
)

// ErrAlreadyRunning is returned by Start while a run is in progress or its
// teardown has not yet completed.
var ErrAlreadyRunning = errors.New("session already running")

// Start validates the configuration, allocates history buffers, launches the
// sampler and worker goroutines and hands control to the controller
// goroutine. It returns once the run is up (or immediately with an error
// when validation fails). When buffer allocation fails, the run is unwound
// through the normal cleanup path so onStopped still fires. After Stop, a
// new Start is refused with ErrAlreadyRunning until the previous run's
// teardown has fully completed.
func (s *Session) Start() error {
	if s.cfg.Workers < 1 {
		return fmt.Errorf("invalid worker count %d", s.cfg.Workers)
	}
	if !s.cfg.Kernels.Any() {
		return errors.New("no stress kernel enabled")
	}
	if !s.active.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	s.running.Store(true)

	s.errorCount.Store(0)
	s.totalIters.Store(0)
	s.state.Store(int32(StateAllocating))

	s.mu.Lock()
	s.startTime = time.Now()
	s.done = make(chan struct{})
	s.notified = new(sync.Once)
	s.mu.Unlock()

	cores, err := s.source.LogicalCoreCount()
	if err != nil || cores < 1 {
		s.logf("[Controller] CPU detection failed (%v), assuming 1 core", err)
		cores = 1
	}

	span := s.cfg.HistorySpan()
	hist, err := history.New(s.cfg.Workers, cores, span, config.CPUHistorySamples, span)
	if err != nil {
		s.logf("[Controller] History allocation failed: %v", err)
		s.errorCount.Add(1)
		s.mu.Lock()
		s.cores = cores
		s.hist = nil
		s.workers = nil
		s.mu.Unlock()
		go s.teardown(nil, nil)
		return nil
	}

	workers := make([]*worker, s.cfg.Workers)
	workerDone := make([]chan struct{}, s.cfg.Workers)
	for i := range workers {
		workers[i] = &worker{
			id:       i,
			bufBytes: s.cfg.MemPerWorker,
		}
		workerDone[i] = make(chan struct{})
	}

	s.mu.Lock()
	s.cores = cores
	s.hist = hist
	s.workers = workers
	s.mu.Unlock()

	samplerDone := make(chan struct{})
	go s.runSampler(samplerDone)
	for i, w := range workers {
		go w.run(s, workerDone[i])
	}

	s.state.Store(int32(StateRunning))
	s.logf("[Controller] Session started: %d workers, %s each, duration %s",
		s.cfg.Workers, utils.FormatSize(s.cfg.MemPerWorker), durLabel(s.cfg.Duration))

	go s.control(workerDone, samplerDone)
	return nil
}

// Stop requests the current run to end. It is idempotent and safe to call
// from any goroutine; the controller performs the actual teardown.
func (s *Session) Stop() {
	if s.running.CompareAndSwap(true, false) {
		s.state.Store(int32(StateStopping))
		s.logf("[Controller] Stop requested")
	}
}

// control polls the deadline until the run ends, then tears everything down.
func (s *Session) control(workerDone []chan struct{}, samplerDone chan struct{}) {
	var deadline time.Time
	s.mu.Lock()
	if s.cfg.Duration > 0 {
		deadline = s.startTime.Add(s.cfg.Duration)
	}
	s.mu.Unlock()

	for s.running.Load() {
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			s.logf("[Controller] Duration of %s reached, stopping", durLabel(s.cfg.Duration))
			s.Stop()
			break
		}
		time.Sleep(config.PollInterval)
	}
	s.teardown(workerDone, samplerDone)
}

// teardown joins every goroutine in a fixed order (workers by index, then
// the sampler), releases per-run state and fires the stopped notification
// exactly once.
func (s *Session) teardown(workerDone []chan struct{}, samplerDone chan struct{}) {
	s.running.Store(false)
	s.state.Store(int32(StateStopping))

	s.mu.Lock()
	workers := s.workers
	done := s.done
	once := s.notified
	s.mu.Unlock()

	for _, w := range workers {
		w.stop.Store(true)
	}
	for _, ch := range workerDone {
		<-ch
	}
	if samplerDone != nil {
		<-samplerDone
	}

	// Worker buffers are released when the goroutines return; the worker
	// records and history stay readable until the next Start replaces them.
	s.state.Store(int32(StateCleanup))
	s.state.Store(int32(StateStopped))
	s.logf("[Controller] Session stopped: %d total iterations, %d errors",
		s.totalIters.Load(), s.errorCount.Load())

	if once != nil {
		once.Do(func() {
			if s.onStopped != nil {
				s.onStopped()
			}
		})
	}
	if done != nil {
		close(done)
	}
	// Only now may Start accept a new run; everything above touched state
	// belonging to the run being torn down.
	s.active.Store(false)
}

func durLabel(d time.Duration) string {
	if d <= 0 {
		return "unlimited"
	}
	return d.String()
}
