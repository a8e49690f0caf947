// Package systeminfo collects a one-shot description of the host for the
// -print flag and for the banner logged at startup.
package systeminfo

import (
	"fmt"
	"io"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/sensors"

	"github.com/felipebehling/HardStress/utils"
)

// Info describes the host hardware relevant to a stress run.
type Info struct {
	CPUModel      string
	PhysicalCores int
	LogicalCores  int
	TotalMemory   uint64
	FreeMemory    uint64
	SensorCount   int
	OS            string
	Arch          string
}

// Collect probes the host. Partial failures leave the corresponding fields
// zero rather than failing the whole call; only a missing CPU count is fatal
// since the engine cannot size itself without it.
func Collect() (*Info, error) {
	info := &Info{OS: runtime.GOOS, Arch: runtime.GOARCH}

	logical, err := cpu.Counts(true)
	if err != nil {
		return nil, fmt.Errorf("counting logical CPUs: %w", err)
	}
	info.LogicalCores = logical
	if physical, err := cpu.Counts(false); err == nil {
		info.PhysicalCores = physical
	}
	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.TotalMemory = vm.Total
		info.FreeMemory = vm.Available
	}
	if stats, err := sensors.SensorsTemperatures(); err == nil {
		info.SensorCount = len(stats)
	}
	return info, nil
}

// Print writes a human-readable summary.
func (i *Info) Print(w io.Writer) {
	fmt.Fprintf(w, "CPU:       %s\n", i.CPUModel)
	fmt.Fprintf(w, "Cores:     %d physical, %d logical\n", i.PhysicalCores, i.LogicalCores)
	fmt.Fprintf(w, "Memory:    %s total, %s available\n",
		utils.FormatSize(int64(i.TotalMemory)), utils.FormatSize(int64(i.FreeMemory)))
	fmt.Fprintf(w, "Sensors:   %d temperature sensors\n", i.SensorCount)
	fmt.Fprintf(w, "Platform:  %s/%s\n", i.OS, i.Arch)
}
