// config/config.go
package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/felipebehling/HardStress/utils"
)

// FileConfig mirrors the optional config.json layout. Sizes and durations are
// strings so the file can use the same units the command line accepts.
type FileConfig struct {
	Workers  int     `json:"workers"`
	Memory   string  `json:"memory"`
	Duration string  `json:"duration"`
	Pin      bool    `json:"pin"`
	Kernels  Kernels `json:"kernels"`
}

// LoadFile loads configuration overrides from the given JSON file.
func LoadFile(path string) (FileConfig, error) {
	fc := FileConfig{
		Kernels: Kernels{FPU: true, Integer: true, Stream: true, PointerChase: true},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}

	err = json.Unmarshal(data, &fc)
	return fc, err
}

// ToConfig resolves the raw file fields into an engine Config. Empty fields
// keep the engine defaults.
func (fc FileConfig) ToConfig() (Config, error) {
	cfg := Config{
		Workers:      fc.Workers,
		MemPerWorker: DefaultMemMiB * 1024 * 1024,
		Duration:     DefaultDuration,
		PinWorkers:   fc.Pin,
		Kernels:      fc.Kernels,
	}

	if fc.Memory != "" {
		size, err := utils.ParseSize(fc.Memory)
		if err != nil {
			return cfg, err
		}
		cfg.MemPerWorker = size
	}
	if fc.Duration != "" {
		d, err := time.ParseDuration(fc.Duration)
		if err != nil {
			return cfg, err
		}
		cfg.Duration = d
	}
	return cfg, nil
}
