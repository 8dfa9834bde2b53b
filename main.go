package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/game"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (empty = disabled)")
	only := flag.String("only", "", "Run a single population by name")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := telemetry.NewMetrics(reg)

	if *metricsAddr != "" {
		srv := telemetry.NewMetricsServer(*metricsAddr, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Warn("metrics server exited", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		slog.Info("serving metrics", "addr", *metricsAddr)
	}

	w, err := sim.NewWorld(cfg, sim.WorldOptions{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		Only:           *only,
		Metrics:        metrics,
		Logger:         logger,
	})
	if err != nil {
		slog.Error("failed to create world", "error", err)
		os.Exit(1)
	}
	if err := w.Start(); err != nil {
		slog.Error("failed to start world", "error", err)
		w.Close()
		os.Exit(1)
	}

	if *headless {
		runHeadless(w, logger, rngSeed, *maxTicks)
		return
	}
	runGraphical(w, logger, cfg, *maxTicks)
}

// runHeadless steps the world at the configured fixed dt until it runs out
// of populations, reaches maxTicks or is interrupted.
func runHeadless(w *sim.World, logger *slog.Logger, seed int64, maxTicks int) {
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dt := w.Config().Derived.DT32
	slog.Info("starting headless simulation",
		"seed", seed,
		"dt", dt,
		"max_ticks", maxTicks,
		"populations", w.ActiveCount(),
	)

	for ctx.Err() == nil {
		if err := w.Step(dt); err != nil {
			for _, name := range w.DeactivateFailed(err) {
				logger.Warn("population stopped", "population", name, "tick", w.Tick())
			}
		}
		if w.ActiveCount() == 0 {
			slog.Info("no active populations left", "tick", w.Tick())
			return
		}
		if maxTicks > 0 && int(w.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", w.Tick())
			return
		}
	}
	slog.Info("interrupted", "tick", w.Tick())
}

// runGraphical opens a window and steps the world once per frame.
func runGraphical(w *sim.World, logger *slog.Logger, cfg *config.Config, maxTicks int) {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Shoal")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))
	rl.SetExitKey(rl.KeyEscape)

	g := game.NewGame(w, logger)
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if g.Done() {
			slog.Info("no active populations left", "tick", g.Tick())
			break
		}
		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			break
		}
	}
}
