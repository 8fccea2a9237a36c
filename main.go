package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/colony/colony"
	"github.com/pthm-cable/colony/config"
	"github.com/pthm-cable/colony/systems"
	"github.com/pthm-cable/colony/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	dt := flag.Float64("dt", 1.0/60.0, "Simulated seconds per tick")
	autopilot := flag.Bool("autopilot", true, "Drive the colony with the built-in command policy")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Use config stats window if not overridden by CLI
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	terrain := systems.NewTerrain(cfg.Terrain, rngSeed)

	c, err := colony.New(cfg, colony.Options{
		Seed:   rngSeed,
		Logger: logger,
		Height: terrain.Height,
		Perf:   perf,
	})
	if err != nil {
		slog.Error("failed to create colony", "error", err)
		os.Exit(1)
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output manager", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := output.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	recorder := colony.NewRecorder(c, perf, output, *logStats)

	var pilot *colony.Autopilot
	if *autopilot {
		pilot = colony.NewAutopilot(colony.AutopilotParamsFrom(cfg.Autopilot))
	}

	slog.Info("starting headless simulation",
		"seed", rngSeed,
		"dt", *dt,
		"stats_window", cfg.Telemetry.StatsWindow,
		"max_ticks", *maxTicks,
		"autopilot", *autopilot,
	)

	for {
		perf.StartTick()

		report, err := c.Advance(*dt)
		if err != nil {
			slog.Error("advance failed", "tick", c.Tick(), "error", err)
			os.Exit(1)
		}

		var actions []colony.Action
		if pilot != nil {
			perf.StartPhase(telemetry.PhaseAutopilot)
			actions, err = pilot.Step(c)
			if err != nil {
				slog.Error("autopilot failed", "tick", c.Tick(), "error", err)
				os.Exit(1)
			}
		}

		perf.StartPhase(telemetry.PhaseTelemetry)
		recorder.Observe(c, report, actions)
		perf.EndTick()

		if c.Victory() {
			recorder.Flush(c)
			slog.Info("victory",
				"tick", c.Tick(),
				"sim_time", c.Clock(),
				"sol", c.Sol(),
				"panels", c.PanelCount(),
			)
			return
		}

		if *maxTicks > 0 && int(c.Tick()) >= *maxTicks {
			recorder.Flush(c)
			slog.Info("max ticks reached", "tick", c.Tick(), "sol", c.Sol())
			return
		}
	}
}
