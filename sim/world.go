package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/compute"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/flock"
	"github.com/pthm-cable/shoal/scene"
	"github.com/pthm-cable/shoal/telemetry"
)

// PopulationError reports a failure of one population during a world step.
// The host should deactivate the population.
type PopulationError struct {
	Population string
	Err        error
}

func (e *PopulationError) Error() string {
	return fmt.Sprintf("population %s: %v", e.Population, e.Err)
}

func (e *PopulationError) Unwrap() error { return e.Err }

// PopulationErrors returns every *PopulationError in err, which may be a
// join of several.
func PopulationErrors(err error) []*PopulationError {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*PopulationError); ok {
		return []*PopulationError{pe}
	}
	var out []*PopulationError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, PopulationErrors(e)...)
		}
		return out
	}
	var pe *PopulationError
	if errors.As(err, &pe) {
		out = append(out, pe)
	}
	return out
}

// WorldOptions configures a World.
type WorldOptions struct {
	Seed           int64
	LogStats       bool
	StatsWindowSec float64 // 0 = config telemetry.stats_window
	OutputDir      string
	Only           string // run a single population by name
	Metrics        *telemetry.Metrics
	Logger         *slog.Logger
	Library        *compute.Library[flock.Agent]
}

// population pairs a simulation with its scene id.
type population struct {
	sim       *Simulation
	id        components.Population
	bookmarks *telemetry.BookmarkDetector // nil when disabled

	dispatched time.Time
	submitted  bool
}

// World owns the compute device, the populations, the scene and telemetry,
// and advances them together.
type World struct {
	cfg    *config.Config
	dev    *compute.Device
	pops   []*population
	scene  *scene.Scene
	logger *slog.Logger

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	metrics       *telemetry.Metrics
	logStats      bool
	statsCallback func([]telemetry.WindowStats)

	seed               int64
	snapshotOnBookmark bool

	started bool
	closed  bool
}

// NewWorld creates the device and an Idle simulation for every enabled
// population. Call Start to spawn them.
func NewWorld(cfg *config.Config, opts WorldOptions) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}

	dev := compute.NewDevice(compute.Options{
		Workers:     cfg.Simulation.Workers,
		GroupSize:   cfg.Simulation.GroupSize,
		MemoryLimit: cfg.Derived.MemoryLimit,
		Logger:      logger,
	})

	w := &World{
		cfg:           cfg,
		dev:           dev,
		scene:         scene.New(rand.New(rand.NewSource(opts.Seed))),
		logger:        logger,
		collector:     telemetry.NewCollector(statsWindow),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		outputManager: om,
		metrics:       opts.Metrics,
		logStats:      opts.LogStats,

		seed:               opts.Seed,
		snapshotOnBookmark: cfg.Telemetry.SnapshotOnBookmark,
	}

	for i, np := range cfg.Populations() {
		if !np.Config.Enabled || (opts.Only != "" && opts.Only != np.Name) {
			continue
		}
		id, ok := components.PopulationByName(np.Name)
		if !ok {
			id = components.Population(i)
		}
		simOpts := Options{
			Device:       dev,
			Seed:         opts.Seed + int64(i)*7919,
			NeighborGrid: cfg.Simulation.NeighborGrid,
			Logger:       logger,
			Library:      opts.Library,
		}
		p := &population{sim: NewSimulation(np.Name, *np.Config, simOpts), id: id}
		if cfg.Telemetry.BookmarkHistory > 0 {
			p.bookmarks = telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistory)
		}
		w.pops = append(w.pops, p)
	}
	if len(w.pops) == 0 {
		om.Close()
		dev.Close()
		return nil, &config.ConfigError{Field: "only", Value: opts.Only, Reason: "no enabled population matches"}
	}

	if err := om.WriteConfig(cfg); err != nil {
		logger.Error("failed to write config", "error", err)
	}
	return w, nil
}

// SetStatsCallback sets a function called with each flushed stats window.
func (w *World) SetStatsCallback(fn func([]telemetry.WindowStats)) {
	w.statsCallback = fn
}

// Start initializes every population and places its actors. A population
// that fails to initialize stays out of the world; Start returns an error
// only when none could start.
func (w *World) Start() error {
	if w.started {
		return errors.New("world already started")
	}
	w.started = true

	var errs []error
	active := 0
	for _, p := range w.pops {
		if err := p.sim.Initialize(); err != nil {
			errs = append(errs, &PopulationError{Population: p.sim.Name(), Err: err})
			w.recordEvent(telemetry.NewDispatchFailureEvent(w.collector.Tick(), w.collector.SimTime(), p.sim.Name(), err))
			continue
		}
		active++
		w.scene.Spawn(p.id, p.sim.Population())
		w.recordEvent(telemetry.NewActivatedEvent(w.collector.Tick(), w.collector.SimTime(), p.sim.Name(), p.sim.Params().Count))
	}
	w.metrics.SetDeviceBytes(w.dev.Allocated())

	if active == 0 {
		return fmt.Errorf("no population started: %w", errors.Join(errs...))
	}
	if len(errs) > 0 {
		w.logger.Warn("some populations failed to start", "error", errors.Join(errs...))
	}
	return nil
}

// Step advances every active population by dt. All populations are
// dispatched before any is downloaded so their work overlaps on the device.
// Failed populations are reported as *PopulationError and skipped by later
// steps.
func (w *World) Step(dt float32) error {
	if w.closed {
		return errors.New("world closed")
	}
	var errs []error
	failed := func(p *population, err error) {
		errs = append(errs, &PopulationError{Population: p.sim.Name(), Err: err})
		w.collector.RecordDispatchFailure(p.sim.Name())
		w.metrics.ObserveFailure(p.sim.Name())
		w.recordEvent(telemetry.NewDispatchFailureEvent(w.collector.Tick(), w.collector.SimTime(), p.sim.Name(), err))
	}

	w.perfCollector.StartTick()

	w.perfCollector.StartPhase(telemetry.PhasePush)
	for _, p := range w.pops {
		p.submitted = false
		if !p.sim.Active() {
			continue
		}
		if err := p.sim.Push(dt); err != nil {
			failed(p, err)
		}
	}

	w.perfCollector.StartPhase(telemetry.PhaseDispatch)
	for _, p := range w.pops {
		if !p.sim.Active() {
			continue
		}
		p.dispatched = time.Now()
		if err := p.sim.Submit(); err != nil {
			failed(p, err)
			continue
		}
		p.submitted = true
	}

	w.perfCollector.StartPhase(telemetry.PhaseDownload)
	results := make([][]flock.Agent, len(w.pops))
	for i, p := range w.pops {
		if !p.submitted {
			continue
		}
		agents, err := p.sim.Sync()
		if err != nil {
			failed(p, err)
			continue
		}
		results[i] = agents
		w.collector.RecordTick(p.sim.Name())
		w.metrics.ObserveTick(p.sim.Name(), time.Since(p.dispatched))
	}

	w.perfCollector.StartPhase(telemetry.PhasePresent)
	for i, p := range w.pops {
		if results[i] != nil {
			w.scene.Sync(p.id, results[i], dt)
		}
	}

	w.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	w.collector.Advance(dt)
	w.flushTelemetry()

	w.perfCollector.EndTick()

	return errors.Join(errs...)
}

// flushTelemetry writes a stats window when one is complete.
func (w *World) flushTelemetry() {
	if !w.collector.ShouldFlush() {
		return
	}

	samples := make([]telemetry.PopulationSample, 0, len(w.pops))
	for _, p := range w.pops {
		samples = append(samples, telemetry.PopulationSample{
			Name:   p.sim.Name(),
			Active: p.sim.Active(),
			Agents: p.sim.Population(),
			Params: p.sim.Params(),
		})
	}
	stats := w.collector.Flush(samples)
	perfStats := w.perfCollector.Stats()
	windowEnd := w.collector.Tick()

	if w.statsCallback != nil {
		w.statsCallback(stats)
	}

	for _, s := range stats {
		w.metrics.ObserveStats(s)
		if w.logStats {
			s.LogStats()
		}
		w.checkBookmarks(s)
	}
	if w.logStats {
		perfStats.LogStats()
	}

	if err := w.outputManager.WriteStats(stats); err != nil {
		w.logger.Error("failed to write stats", "error", err)
	}
	if err := w.outputManager.WritePerf(perfStats, windowEnd); err != nil {
		w.logger.Error("failed to write perf", "error", err)
	}
}

// checkBookmarks runs the population's detector over a flushed window and
// records what it finds.
func (w *World) checkBookmarks(s telemetry.WindowStats) {
	p := w.find(s.Population)
	if p == nil || p.bookmarks == nil {
		return
	}
	for _, b := range p.bookmarks.Check(s) {
		if w.logStats {
			b.LogBookmark()
		}
		w.recordEvent(telemetry.NewBookmarkEvent(s.SimTimeSec, b))

		if !w.snapshotOnBookmark || w.outputManager == nil || !p.sim.Active() {
			continue
		}
		snap := w.snapshot(p)
		snap.Bookmark = &b
		if _, err := telemetry.SaveSnapshot(snap, w.snapshotDir()); err != nil {
			w.logger.Error("failed to save snapshot", "population", p.sim.Name(), "error", err)
		}
	}
}

func (w *World) snapshot(p *population) *telemetry.Snapshot {
	return telemetry.NewSnapshot(p.sim.Name(), w.seed, w.collector.Tick(), p.sim.SimTime(),
		p.sim.PathCenter(), p.sim.Population())
}

func (w *World) snapshotDir() string {
	if dir := w.outputManager.Dir(); dir != "" {
		return filepath.Join(dir, "snapshots")
	}
	return "snapshots"
}

// SaveSnapshots writes a snapshot of every active population and returns
// the written paths. An empty dir uses the output directory, or ./snapshots
// when output is disabled.
func (w *World) SaveSnapshots(dir string) ([]string, error) {
	if dir == "" {
		dir = w.snapshotDir()
	}
	var paths []string
	for _, p := range w.pops {
		if !p.sim.Active() {
			continue
		}
		path, err := telemetry.SaveSnapshot(w.snapshot(p), dir)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (w *World) recordEvent(e telemetry.Event) {
	if err := w.outputManager.WriteEvent(e); err != nil {
		w.logger.Error("failed to write event", "error", err)
	}
}

// Deactivate shuts a population down and removes its actors.
func (w *World) Deactivate(name string) error {
	p := w.find(name)
	if p == nil {
		return fmt.Errorf("deactivate: unknown population %q", name)
	}
	if p.sim.State() == StateShutdown {
		return nil
	}
	p.sim.Shutdown()
	w.scene.Remove(p.id)
	w.metrics.SetDeviceBytes(w.dev.Allocated())
	w.recordEvent(telemetry.NewDeactivatedEvent(w.collector.Tick(), w.collector.SimTime(), name))
	w.logger.Info("population deactivated", "population", name, "tick", w.collector.Tick())
	return nil
}

// DeactivateFailed deactivates every population named by a
// *PopulationError in err and returns their names.
func (w *World) DeactivateFailed(err error) []string {
	var names []string
	for _, pe := range PopulationErrors(err) {
		if w.Deactivate(pe.Population) == nil {
			names = append(names, pe.Population)
		}
	}
	return names
}

// Close shuts down every population, stops the device and closes output
// files. Safe to call more than once.
func (w *World) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	for _, p := range w.pops {
		if p.sim.State() != StateShutdown {
			p.sim.Shutdown()
			w.recordEvent(telemetry.NewShutdownEvent(w.collector.Tick(), w.collector.SimTime(), p.sim.Name()))
		}
	}
	w.dev.Close()
	return w.outputManager.Close()
}

func (w *World) find(name string) *population {
	for _, p := range w.pops {
		if p.sim.Name() == name {
			return p
		}
	}
	return nil
}

// Simulation returns the named population, or nil.
func (w *World) Simulation(name string) *Simulation {
	if p := w.find(name); p != nil {
		return p.sim
	}
	return nil
}

// Simulations returns the populations in step order.
func (w *World) Simulations() []*Simulation {
	out := make([]*Simulation, len(w.pops))
	for i, p := range w.pops {
		out[i] = p.sim
	}
	return out
}

// ActiveCount returns the number of populations still ticking.
func (w *World) ActiveCount() int {
	n := 0
	for _, p := range w.pops {
		if p.sim.Active() {
			n++
		}
	}
	return n
}

// Scene returns the actor scene.
func (w *World) Scene() *scene.Scene { return w.scene }

// Device returns the compute device.
func (w *World) Device() *compute.Device { return w.dev }

// Config returns the world configuration.
func (w *World) Config() *config.Config { return w.cfg }

// Perf returns the performance collector.
func (w *World) Perf() *telemetry.PerfCollector { return w.perfCollector }

// Tick returns the number of completed world steps.
func (w *World) Tick() int32 { return w.collector.Tick() }

// SimTime returns the simulated seconds so far.
func (w *World) SimTime() float64 { return w.collector.SimTime() }
