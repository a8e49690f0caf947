// Command hardstress runs CPU and memory stress sessions from the terminal:
// a configurable number of worker threads hammer private buffers with
// selectable stress kernels while a sampler tracks per-core usage and
// package temperature.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/felipebehling/HardStress/config"
	"github.com/felipebehling/HardStress/session"
	"github.com/felipebehling/HardStress/systeminfo"
	"github.com/felipebehling/HardStress/telemetry"
	"github.com/felipebehling/HardStress/utils"
)

func main() {
	var (
		threads    = flag.Int("threads", 0, "worker threads (0 = one per logical core)")
		memSize    = flag.String("mem", "", "memory per worker, e.g. 256M or 1G (default 256M)")
		duration   = flag.Duration("duration", 0, "run length, e.g. 90s or 10m (0 = default 5m, -1s = unlimited)")
		pin        = flag.Bool("pin", false, "pin each worker to a CPU core")
		fpu        = flag.Bool("fpu", true, "enable the FPU sweep kernel")
		integer    = flag.Bool("int", true, "enable the integer avalanche kernel")
		stream     = flag.Bool("stream", true, "enable the memory stream kernel")
		chase      = flag.Bool("chase", true, "enable the pointer chase kernel")
		configPath = flag.String("config", "config.json", "optional JSON configuration file")
		csvPath    = flag.String("csv", "", "write usage/temperature history to this CSV file on exit")
		printInfo  = flag.Bool("print", false, "print system information and exit")
		debug      = flag.Bool("d", false, "enable debug logging")
	)
	flag.Parse()

	if *printInfo {
		info, err := systeminfo.Collect()
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		info.Print(os.Stdout)
		return
	}

	logger := newLogger(*debug)
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg, err := resolveConfig(*configPath, sugar)
	if err != nil {
		sugar.Fatalf("Configuration error: %v", err)
	}

	// Flags explicitly set on the command line override the file.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["threads"] {
		cfg.Workers = *threads
	}
	if set["mem"] {
		size, err := utils.ParseSize(*memSize)
		if err != nil {
			sugar.Fatalf("Invalid -mem value: %v", err)
		}
		cfg.MemPerWorker = size
	}
	if set["duration"] {
		switch {
		case *duration < 0:
			cfg.Duration = 0 // unlimited
		case *duration > 0:
			cfg.Duration = *duration
		}
	}
	if set["pin"] {
		cfg.PinWorkers = *pin
	}
	if set["fpu"] || set["int"] || set["stream"] || set["chase"] {
		cfg.Kernels = config.Kernels{FPU: *fpu, Integer: *integer, Stream: *stream, PointerChase: *chase}
	}

	source := telemetry.HostSource{}
	if cfg.Workers <= 0 {
		n, err := source.LogicalCoreCount()
		if err != nil || n < 1 {
			sugar.Fatalf("Cannot detect CPU count: %v", err)
		}
		cfg.Workers = n
	}
	if !cfg.Kernels.Any() {
		sugar.Fatal("No stress kernel enabled; enable at least one of -fpu, -int, -stream, -chase")
	}

	sess := session.New(cfg, source, sugar.Infof, nil)
	if err := sess.Start(); err != nil {
		sugar.Fatalf("Cannot start session: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		sess.Wait()
		close(done)
	}()

	ticker := time.NewTicker(config.SampleInterval)
	defer ticker.Stop()
loop:
	for {
		select {
		case sig := <-sigCh:
			sugar.Infof("Received %v, stopping", sig)
			sess.Stop()
		case <-ticker.C:
			logProgress(sugar, sess.Snapshot())
		case <-done:
			break loop
		}
	}

	final := sess.Snapshot()
	sugar.Infof("Finished: %s iterations in %s with %d workers x %s, %d errors",
		utils.FormatCount(final.TotalIters), final.Elapsed.Round(time.Second),
		cfg.Workers, utils.FormatSize(cfg.MemPerWorker), final.Errors)

	if *csvPath != "" {
		if err := exportCSV(sess, *csvPath); err != nil {
			sugar.Fatalf("CSV export failed: %v", err)
		}
		sugar.Infof("History written to %s", *csvPath)
	}
	if final.Errors > 0 {
		os.Exit(1)
	}
}

func newLogger(debug bool) *zap.Logger {
	if debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return logger
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = "" // progress lines carry their own timing
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	return logger
}

// resolveConfig loads the optional config file. A missing file is not an
// error; defaults apply.
func resolveConfig(path string, sugar *zap.SugaredLogger) (config.Config, error) {
	fc, err := config.LoadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return config.Config{}, fmt.Errorf("reading %s: %w", path, err)
		}
		sugar.Debugf("No config file at %s, using defaults", path)
	}
	return fc.ToConfig()
}

func logProgress(sugar *zap.SugaredLogger, snap session.Snapshot) {
	temp := "n/a"
	if snap.TempC > telemetry.TempUnavailable {
		temp = fmt.Sprintf("%.1f°C", snap.TempC)
	}
	sugar.Infof("[%s] %6.1fk iters | cpu %5.1f%% | temp %s | errors %d",
		snap.Elapsed.Round(time.Second),
		float64(snap.TotalIters)/config.IterDisplayScale,
		snap.AvgUsage*100, temp, snap.Errors)
}

func exportCSV(sess *session.Session, path string) error {
	hist := sess.History()
	if hist == nil {
		return fmt.Errorf("no history recorded")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := hist.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
