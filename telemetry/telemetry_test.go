package telemetry

import (
	"math"
	"testing"
)

func TestComputeUsageZeroDelta(t *testing.T) {
	s := CPUSample{User: 10, Idle: 90}
	if got := ComputeUsage(s, s); got != 0 {
		t.Fatalf("usage with no elapsed time = %v, want 0", got)
	}
}

func TestComputeUsageFullyBusy(t *testing.T) {
	prev := CPUSample{User: 10, Idle: 50}
	cur := CPUSample{User: 20, Idle: 50}
	if got := ComputeUsage(prev, cur); got != 1 {
		t.Fatalf("usage = %v, want 1", got)
	}
}

func TestComputeUsageFullyIdle(t *testing.T) {
	prev := CPUSample{User: 10, Idle: 50}
	cur := CPUSample{User: 10, Idle: 60}
	if got := ComputeUsage(prev, cur); got != 0 {
		t.Fatalf("usage = %v, want 0", got)
	}
}

func TestComputeUsageMixed(t *testing.T) {
	prev := CPUSample{User: 0, System: 0, Idle: 0, Iowait: 0}
	cur := CPUSample{User: 2, System: 1, Idle: 6, Iowait: 1}
	if got := ComputeUsage(prev, cur); math.Abs(got-0.3) > 1e-9 {
		t.Fatalf("usage = %v, want 0.3", got)
	}
}

func TestComputeUsageClamped(t *testing.T) {
	// Idle counter running backwards must not push usage above 1.
	prev := CPUSample{User: 0, Idle: 10}
	cur := CPUSample{User: 5, Idle: 9}
	if got := ComputeUsage(prev, cur); got != 1 {
		t.Fatalf("usage = %v, want clamped 1", got)
	}
	// Only-idle growth with a total rounding glitch must not go below 0.
	prev = CPUSample{User: 5, Idle: 0}
	cur = CPUSample{User: 4, Idle: 10}
	if got := ComputeUsage(prev, cur); got != 0 {
		t.Fatalf("usage = %v, want clamped 0", got)
	}
}

func TestPickTemperaturePrefersPackageSensor(t *testing.T) {
	readings := []TempReading{
		{Label: "acpitz", Celsius: 40},
		{Label: "coretemp_packageid0", Celsius: 62},
		{Label: "coretemp_core0", Celsius: 70},
	}
	if got := PickTemperature(readings); got != 62 {
		t.Fatalf("picked %v, want package sensor 62", got)
	}
}

func TestPickTemperatureFallsBackToHottest(t *testing.T) {
	readings := []TempReading{
		{Label: "nvme_composite", Celsius: 38},
		{Label: "wifi_0", Celsius: 55},
	}
	if got := PickTemperature(readings); got != 55 {
		t.Fatalf("picked %v, want hottest 55", got)
	}
}

func TestPickTemperatureUnavailable(t *testing.T) {
	if got := PickTemperature(nil); got != TempUnavailable {
		t.Fatalf("picked %v, want %v", got, TempUnavailable)
	}
}

func TestPlausibleTemp(t *testing.T) {
	for _, bad := range []float64{0, -1, 150, 300} {
		if plausibleTemp(bad) {
			t.Errorf("plausibleTemp(%v) = true", bad)
		}
	}
	if !plausibleTemp(45.5) {
		t.Error("plausibleTemp(45.5) = false")
	}
}
