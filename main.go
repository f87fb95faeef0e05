package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/pthm-cable/forage/analysis"
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/ingest"
	"github.com/pthm-cable/forage/report"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	input := flag.String("input", "", "Event log to analyze")
	format := flag.String("format", ingest.FormatCSV, "Input format: csv or text")
	outputDir := flag.String("output-dir", "", "Output directory for CSV results, report.json and config snapshot")
	policy := flag.String("policy", "", "Pickup policy: fifo or overwrite (empty = use config)")
	representatives := flag.Int("representatives", -1, "Number of representative agents (-1 = use config)")
	workers := flag.Int("workers", -1, "Worker goroutines (0 = GOMAXPROCS, -1 = use config)")
	noBehavior := flag.Bool("no-behavior", false, "Skip behavioral stabilization analysis")
	logPerf := flag.Bool("log-perf", false, "Log per-phase timings")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if *input == "" {
		slog.Error("missing -input")
		os.Exit(2)
	}

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// CLI overrides
	if *policy != "" {
		cfg.Trips.PickupPolicy = *policy
	}
	if *representatives >= 0 {
		cfg.Selection.Representatives = *representatives
	}
	if *workers >= 0 {
		cfg.Analysis.Workers = *workers
	}
	if *noBehavior {
		cfg.Behavior.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	cfg.ComputeDerived()

	evs, st, err := ingest.ReadFile(*input, *format)
	if err != nil {
		slog.Error("failed to read events", "input", *input, "error", err)
		os.Exit(1)
	}
	slog.Info("events loaded", "input", *input, "format", *format, "stats", st)

	r, perf, err := analysis.RunTimed(evs, cfg)
	if err != nil {
		slog.Error("analysis failed", "error", err)
		os.Exit(1)
	}
	r.LogSummary()
	if *logPerf {
		perf.LogStats()
	}

	om, err := report.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
		os.Exit(1)
	}
	if err := om.WriteReport(r); err != nil {
		slog.Error("failed to write report", "error", err)
		os.Exit(1)
	}
	if om != nil {
		slog.Info("output written", "dir", om.Dir())
	}
}
