// Package telemetry reads CPU time counters and hardware temperature sensors
// and derives the per-interval usage figures the sampler records.
package telemetry

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/sensors"
)

// TempUnavailable is stored whenever no usable temperature sensor exists.
// Below absolute zero so it can never collide with a real reading.
const TempUnavailable = -274.0

// CPUSample holds one core's cumulative time counters in seconds.
type CPUSample struct {
	User    float64
	Nice    float64
	System  float64
	Idle    float64
	Iowait  float64
	Irq     float64
	Softirq float64
	Steal   float64
}

// Total returns the sum of all counters.
func (s CPUSample) Total() float64 {
	return s.User + s.Nice + s.System + s.Idle + s.Iowait + s.Irq + s.Softirq + s.Steal
}

// idle counts iowait as idle time, matching how /proc/stat is usually read.
func (s CPUSample) idle() float64 {
	return s.Idle + s.Iowait
}

// ComputeUsage derives the busy fraction between two cumulative samples of
// the same core. It returns 0 when no time elapsed and clamps the result to
// [0, 1] so counter jitter can never produce an out-of-range figure.
func ComputeUsage(prev, cur CPUSample) float64 {
	dTotal := cur.Total() - prev.Total()
	if dTotal <= 0 {
		return 0
	}
	usage := (dTotal - (cur.idle() - prev.idle())) / dTotal
	if usage < 0 {
		return 0
	}
	if usage > 1 {
		return 1
	}
	return usage
}

// TempReading is one sensor's labelled temperature.
type TempReading struct {
	Label   string
	Celsius float64
}

// Source abstracts the host probes so the session engine can be tested
// without real hardware.
type Source interface {
	// LogicalCoreCount reports the number of logical CPUs.
	LogicalCoreCount() (int, error)
	// SampleCPU returns one cumulative CPUSample per logical core.
	SampleCPU() ([]CPUSample, error)
	// SampleTemperature returns the preferred package temperature, or
	// TempUnavailable when no plausible sensor reading exists.
	SampleTemperature() (float64, []TempReading)
}

// HostSource reads the live machine through gopsutil.
type HostSource struct{}

func (HostSource) LogicalCoreCount() (int, error) {
	n, err := cpu.Counts(true)
	if err != nil {
		return 0, fmt.Errorf("counting logical CPUs: %w", err)
	}
	return n, nil
}

func (HostSource) SampleCPU() ([]CPUSample, error) {
	times, err := cpu.Times(true)
	if err != nil {
		return nil, fmt.Errorf("reading CPU times: %w", err)
	}
	out := make([]CPUSample, len(times))
	for i, t := range times {
		out[i] = CPUSample{
			User:    t.User,
			Nice:    t.Nice,
			System:  t.System,
			Idle:    t.Idle,
			Iowait:  t.Iowait,
			Irq:     t.Irq,
			Softirq: t.Softirq,
			Steal:   t.Steal,
		}
	}
	return out, nil
}

// sensor keys tried in order of preference; package-level sensors beat
// per-core ones for the headline temperature.
var preferredSensors = []string{"coretemp_package", "k10temp_tctl", "coretemp", "k10temp", "cpu_thermal", "acpitz"}

func (HostSource) SampleTemperature() (float64, []TempReading) {
	stats, err := sensors.SensorsTemperatures()
	if err != nil && len(stats) == 0 {
		return TempUnavailable, nil
	}
	readings := make([]TempReading, 0, len(stats))
	for _, s := range stats {
		if !plausibleTemp(s.Temperature) {
			continue
		}
		readings = append(readings, TempReading{Label: s.SensorKey, Celsius: s.Temperature})
	}
	return PickTemperature(readings), readings
}

// PickTemperature chooses the headline temperature from a set of readings:
// the first preferred sensor key that matches, otherwise the hottest
// plausible reading.
func PickTemperature(readings []TempReading) float64 {
	for _, want := range preferredSensors {
		for _, r := range readings {
			if strings.Contains(strings.ToLower(r.Label), want) {
				return r.Celsius
			}
		}
	}
	best := TempUnavailable
	for _, r := range readings {
		if r.Celsius > best {
			best = r.Celsius
		}
	}
	return best
}

// plausibleTemp filters out the zero and sentinel values some drivers report.
func plausibleTemp(t float64) bool {
	return t > 0 && t < 150
}
