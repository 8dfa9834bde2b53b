package main

import (
	"io"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/telemetry"
)

// FitnessEvaluator runs headless worlds and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64
	logger      *slog.Logger

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	bestWindows []telemetry.WindowStats
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. Agent counts of both
// populations are replaced by count when it is positive.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config, count int) *FitnessEvaluator {
	base := *baseCfg
	if count > 0 {
		base.Fish.Count = count
		base.Seagull.Count = count
	}
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  &base,
		statsWindow: 2.0,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		bestFitness: math.Inf(1),
	}
}

// BestWindows returns the stats windows of the best seed of the best
// evaluation.
func (fe *FitnessEvaluator) BestWindows() []telemetry.WindowStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestWindows
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the results from a single world run.
type runResult struct {
	ticks       int32                   // ticks until every population stopped, or maxTicks
	windowStats []telemetry.WindowStats // collected via the stats callback
	err         error                   // world construction or start failure
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
	windows []telemetry.WindowStats
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(x, s)
			quality := computeQuality(result.windowStats)
			results[idx] = seedResult{
				fitness: fe.computeFitness(result, quality),
				quality: quality,
				windows: result.windowStats,
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	bestSeedFitness := math.Inf(1)
	var bestSeedWindows []telemetry.WindowStats

	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedWindows = r.windows
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestWindows = bestSeedWindows
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless world. It runs until every
// population has stopped or maxTicks, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{}

	w, err := sim.NewWorld(cfg, sim.WorldOptions{
		Seed:           seed,
		StatsWindowSec: fe.statsWindow,
		Logger:         fe.logger,
	})
	if err != nil {
		result.err = err
		return result
	}
	defer w.Close()

	w.SetStatsCallback(func(stats []telemetry.WindowStats) {
		result.windowStats = append(result.windowStats, stats...)
	})
	if err := w.Start(); err != nil {
		result.err = err
		return result
	}

	dt := cfg.Derived.DT32
	for w.Tick() < fe.maxTicks {
		if err := w.Step(dt); err != nil {
			w.DeactivateFailed(err)
		}
		if w.ActiveCount() == 0 {
			break
		}
	}
	result.ticks = w.Tick()
	return result
}

// copyConfig returns a copy of the base config. Config holds only values,
// so a shallow copy is independent of the base.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survived × quality), where survived is the fraction of maxTicks
// the world kept a population running.
func (fe *FitnessEvaluator) computeFitness(r *runResult, quality float64) float64 {
	if r.err != nil || fe.maxTicks <= 0 {
		return 0
	}
	survived := float64(r.ticks) / float64(fe.maxTicks)
	return -(survived * quality)
}

// Quality component weights.
const (
	qualityWeightPolarization = 0.40
	qualityWeightContainment  = 0.35
	qualityWeightStability    = 0.25

	qualityWarmupWindows = 2 // skip first N windows per population
)

// computeQuality computes flocking quality ∈ [0, 1] from window stats. Each
// population is scored on its own windows and the scores are averaged; a
// population that stopped scores zero for the windows it missed.
func computeQuality(windows []telemetry.WindowStats) float64 {
	byPop := make(map[string][]telemetry.WindowStats)
	var order []string
	for _, w := range windows {
		if _, ok := byPop[w.Population]; !ok {
			order = append(order, w.Population)
		}
		byPop[w.Population] = append(byPop[w.Population], w)
	}
	if len(order) == 0 {
		return 0
	}

	var total float64
	for _, name := range order {
		total += populationQuality(byPop[name])
	}
	return clamp01(total / float64(len(order)))
}

func populationQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var polSum, containSum float64
	spreads := make([]float64, 0, len(valid))
	speeds := make([]float64, 0, len(valid))

	for _, w := range valid {
		if !w.Active || w.Count == 0 {
			continue
		}
		polSum += w.Polarization

		// Fraction of agents inside the legal region and outside the
		// avoided centre square.
		bad := float64(w.OutOfBounds+w.InCenter) / float64(w.Count)
		containSum += clamp01(1 - bad)

		spreads = append(spreads, w.Spread)
		speeds = append(speeds, w.SpeedMean)
	}

	n := float64(len(valid))
	polScore := polSum / n
	containScore := containSum / n

	// Stability: shape and pace should settle rather than drift.
	stabilityScore := 0.0
	if len(spreads) >= 2 {
		cvSpread := cv(spreads)
		cvSpeed := cv(speeds)
		stabilityScore = math.Exp(-(cvSpread*cvSpread + cvSpeed*cvSpeed)) * float64(len(spreads)) / n
	}

	quality := qualityWeightPolarization*polScore +
		qualityWeightContainment*containScore +
		qualityWeightStability*stabilityScore

	return clamp01(quality)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
