package main

import (
	"encoding/csv"
	"flag"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/shoal/config"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// evalLog writes one CSV row per evaluation. Its columns follow the
// parameter set, so rows are written by hand rather than through gocsv.
type evalLog struct {
	w *csv.Writer
}

// newEvalLog writes the header row for specs.
func newEvalLog(out io.Writer, specs []ParamSpec) (*evalLog, error) {
	l := &evalLog{w: csv.NewWriter(out)}
	header := []string{"eval", "fitness", "quality"}
	for _, spec := range specs {
		header = append(header, spec.Name)
	}
	if err := l.write(header); err != nil {
		return nil, fmt.Errorf("write log header: %w", err)
	}
	return l, nil
}

// Row appends and flushes one evaluation.
func (l *evalLog) Row(eval int, fitness, quality float64, values []float64) error {
	row := []string{
		strconv.Itoa(eval),
		fmt.Sprintf("%.6f", fitness),
		fmt.Sprintf("%.6f", quality),
	}
	for _, v := range values {
		row = append(row, fmt.Sprintf("%.6f", v))
	}
	if err := l.write(row); err != nil {
		return fmt.Errorf("write log row %d: %w", eval, err)
	}
	return nil
}

func (l *evalLog) write(record []string) error {
	if err := l.w.Write(record); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTicks := flag.Int("max-ticks", 1800, "Simulation length per run in ticks")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	count := flag.Int("count", 300, "Agents per population during tuning (0 = use config)")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		return errors.New("--output is required")
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// Load base config
	if err := config.Init(*configPath); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	baseCfg := config.Cfg()

	params := NewParamVector()

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	evaluator := NewFitnessEvaluator(params, int32(*maxTicks), evalSeeds, baseCfg, *count)

	// Start from the loaded config rather than the built-in defaults so a
	// previous best_config.yaml can be refined.
	dim := params.Dim()
	initX := params.Normalize(params.Clamp(params.ExtractFromConfig(baseCfg)))

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return evaluator.Evaluate(params.Denormalize(x))
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Seeds already run in parallel
	}

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	logPath := filepath.Join(*outputDir, "tune_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}
	defer logFile.Close()

	evals, err := newEvalLog(logFile, params.Specs)
	if err != nil {
		return err
	}
	var logErr error

	evalCount := 0
	bestFitness := 1e9
	var bestParams []float64
	startTime := time.Now()

	originalFunc := problem.Func
	problem.Func = func(x []float64) float64 {
		fitness := originalFunc(x)
		evalCount++

		// Log the clamped values, which are the ones actually simulated
		clamped := params.Clamp(params.Denormalize(x))
		if fitness < bestFitness {
			bestFitness = fitness
			bestParams = append([]float64(nil), clamped...)
		}

		quality := evaluator.LastQuality()
		if err := evals.Row(evalCount, fitness, quality, clamped); err != nil && logErr == nil {
			logErr = err
			log.Printf("tuning log: %v", err)
		}

		elapsed := time.Since(startTime)
		avgPerEval := elapsed / time.Duration(evalCount)
		remaining := time.Duration(*maxEvals-evalCount) * avgPerEval

		fmt.Printf("Eval %d/%d: fitness=%.4f quality=%.3f (best=%.4f) | elapsed: %s, ETA: %s\n",
			evalCount, *maxEvals, fitness, quality, bestFitness,
			formatDuration(elapsed), formatDuration(remaining))

		return fitness
	}

	fmt.Printf("Starting CMA-ES tuning with %d parameters, population=%d, max_evals=%d\n",
		dim, popSize, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, ticks per run: %d, agents per population: %d\n",
		*seeds, *maxTicks, *count)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("tuning ended: %v", err)
	}

	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		return errors.New("no evaluation completed")
	}

	totalTime := time.Since(startTime)
	fmt.Printf("\nTuning complete after %d evaluations in %s\n", evalCount, formatDuration(totalTime))
	fmt.Printf("Best fitness: %.4f\n", bestFitness)

	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s (%s): %.6f\n", spec.Name, spec.Path, bestParams[i])
	}

	// Save best config with the original counts
	bestCfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	params.ApplyToConfig(bestCfg, bestParams)

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}

	// Save the stats windows of the best run
	if windows := evaluator.BestWindows(); len(windows) > 0 {
		windowsPath := filepath.Join(*outputDir, "best_windows.csv")
		f, err := os.Create(windowsPath)
		if err != nil {
			return fmt.Errorf("create best windows: %w", err)
		}
		defer f.Close()
		if err := gocsv.MarshalFile(&windows, f); err != nil {
			return fmt.Errorf("write best windows: %w", err)
		}
		fmt.Printf("Best run windows saved to: %s\n", windowsPath)
	}
	return logErr
}
