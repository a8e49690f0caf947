package session

import (
	"time"

	"github.com/felipebehling/HardStress/config"
	"github.com/felipebehling/HardStress/telemetry"
)

// runSampler records one history frame per sample interval: per-core usage,
// system average usage plus temperature, then a fresh slot in the thread
// iteration ring for the workers to fill.
func (s *Session) runSampler(done chan struct{}) {
	defer close(done)

	hist := s.History()
	if hist == nil {
		return
	}

	prev, err := s.source.SampleCPU()
	if err != nil {
		s.logf("[Sampler] Initial CPU sample failed: %v", err)
	}

	for s.running.Load() {
		cur, err := s.source.SampleCPU()
		if err != nil {
			s.logf("[Sampler] CPU sample failed: %v", err)
			cur = prev
		}

		usage := make([]float64, s.cores)
		for c := 0; c < s.cores && c < len(cur); c++ {
			if c < len(prev) {
				usage[c] = telemetry.ComputeUsage(prev[c], cur[c])
			}
		}
		prev = cur

		temp, readings := s.source.SampleTemperature()

		s.tempMu.Lock()
		s.tempC = temp
		s.sensors = readings
		s.usage = usage
		s.tempMu.Unlock()

		hist.Cores.Append(usage...)

		var sum float64
		for _, u := range usage {
			sum += u
		}
		avg := 0.0
		if len(usage) > 0 {
			avg = sum / float64(len(usage))
		}
		hist.System.Append(avg, temp)

		hist.Threads.Advance()

		s.sleepInterruptible(config.SampleInterval)
	}
}

// sleepInterruptible waits for d but wakes early once the run flag clears.
func (s *Session) sleepInterruptible(d time.Duration) {
	deadline := time.Now().Add(d)
	for s.running.Load() && time.Now().Before(deadline) {
		remaining := time.Until(deadline)
		if remaining > config.PollInterval {
			remaining = config.PollInterval
		}
		time.Sleep(remaining)
	}
}
