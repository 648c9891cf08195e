package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/sandbox/config"
	"github.com/pthm-cable/sandbox/sim"
	"github.com/pthm-cable/sandbox/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	runs := flag.Int("runs", 0, "Number of runs (0 = use config)")
	seed := flag.Uint64("seed", 0, "Base seed for every component (0 = use config, or time-based if the config seed is 0)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	noPerturb := flag.Bool("no-perturb", false, "Skip the between-run pose jitter")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		slog.Error("bad log level", "level", *logLevel, "error", err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *runs > 0 {
		cfg.Simulation.Runs = *runs
	}
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = uint64(time.Now().UnixNano())
	}

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	defer out.Close()

	started := time.Now()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}
	if err := out.WriteManifest(cfg.Simulation.Seed, cfg.Simulation.Runs, started); err != nil {
		slog.Error("failed to write manifest", "error", err)
	}

	s, err := sim.Build(cfg, sim.Options{
		Logger:    logger,
		Output:    out,
		LogStats:  *logStats,
		NoPerturb: *noPerturb,
	})
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting simulation",
		"batch", out.ID(),
		"seed", cfg.Simulation.Seed,
		"runs", cfg.Simulation.Runs,
		"ticks", cfg.Derived.Ticks,
		"output_dir", out.Dir(),
	)
	results, err := s.RunMany(ctx, cfg.Simulation.Runs)
	if errors.Is(err, context.Canceled) {
		slog.Warn("interrupted", "completed_runs", len(results)-1)
		return
	}
	if err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}

	var distances []float64
	alive := 0
	for _, r := range results {
		for _, l := range r.Lifetimes {
			if l.Alive {
				alive++
			}
			if l.LightDistance >= 0 {
				distances = append(distances, l.LightDistance)
			}
		}
	}
	slog.Info("simulation finished",
		"runs", len(results),
		"alive", alive,
		"light_distance", telemetry.Summarize(distances),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
}
