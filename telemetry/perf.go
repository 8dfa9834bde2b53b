package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase is one timed section of the world step.
type Phase uint8

const (
	PhasePush      Phase = iota // frame parameters into the kernels
	PhaseDispatch               // kernel prepare and group submission
	PhaseDownload               // barrier and host copy
	PhasePresent                // scene actor sync
	PhaseTelemetry              // stats windows and output
	NumPhases
)

var phaseNames = [NumPhases]string{"push", "dispatch", "download", "present", "telemetry"}

func (ph Phase) String() string {
	if ph < NumPhases {
		return phaseNames[ph]
	}
	return "unknown"
}

// PhaseTimes holds one duration per phase.
type PhaseTimes [NumPhases]time.Duration

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       PhaseTimes
}

// PerfCollector tracks step timing over a rolling window of ticks.
type PerfCollector struct {
	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int

	current    PhaseTimes
	tickStart  time.Time
	phaseStart time.Time
	inPhase    bool
	lastPhase  Phase

	// Frame timing (for graphics mode)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]PerfSample, windowSize),
	}
}

// StartTick begins timing a new world step.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = PhaseTimes{}
	p.inPhase = false
}

// StartPhase ends the running phase, if any, and starts timing ph.
func (p *PerfCollector) StartPhase(ph Phase) {
	now := time.Now()
	p.endPhase(now)
	p.phaseStart = now
	p.lastPhase = ph
	p.inPhase = ph < NumPhases
}

func (p *PerfCollector) endPhase(now time.Time) {
	if p.inPhase {
		p.current[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.inPhase = false
}

// EndTick finishes timing the current tick and records the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.endPhase(now)

	p.samples[p.writeIndex] = PerfSample{
		TickDuration: now.Sub(p.tickStart),
		Phases:       p.current,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records frame timing for graphics mode.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Tick timing
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration

	// Average phase durations and their share of the tick, in percent
	PhaseAvg PhaseTimes
	PhasePct [NumPhases]float64

	// Throughput
	TicksPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{FrameDuration: p.frameDuration}
	if p.frameDuration > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.sampleCount == 0 {
		return s
	}

	ticks := make([]float64, p.sampleCount)
	var phaseSum PhaseTimes
	for i, sample := range p.samples[:p.sampleCount] {
		ticks[i] = float64(sample.TickDuration)
		for ph, d := range sample.Phases {
			phaseSum[ph] += d
		}
	}
	slices.Sort(ticks)

	n := time.Duration(p.sampleCount)
	s.AvgTickDuration = time.Duration(stat.Mean(ticks, nil))
	s.MinTickDuration = time.Duration(ticks[0])
	s.MaxTickDuration = time.Duration(ticks[len(ticks)-1])
	s.P95TickDuration = time.Duration(stat.Quantile(0.95, stat.Empirical, ticks, nil))

	for ph, sum := range phaseSum {
		s.PhaseAvg[ph] = sum / n
		if s.AvgTickDuration > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) / float64(s.AvgTickDuration) * 100
		}
	}
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}
	return s
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"p95_tick_us", s.P95TickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}

	for ph := range NumPhases {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, ph.String()+"_pct", int(pct*10)/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for ph := range NumPhases {
		attrs = append(attrs, slog.Float64(ph.String()+"_pct", s.PhasePct[ph]))
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd    int32   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	P95TickUS    int64   `csv:"p95_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	FPS          float64 `csv:"fps"`
	PushPct      float64 `csv:"push_pct"`
	DispatchPct  float64 `csv:"dispatch_pct"`
	DownloadPct  float64 `csv:"download_pct"`
	PresentPct   float64 `csv:"present_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		P95TickUS:    s.P95TickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		FPS:          s.FPS,
		PushPct:      s.PhasePct[PhasePush],
		DispatchPct:  s.PhasePct[PhaseDispatch],
		DownloadPct:  s.PhasePct[PhaseDownload],
		PresentPct:   s.PhasePct[PhasePresent],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
