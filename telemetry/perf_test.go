package telemetry

import (
	"math"
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseDispatch)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseDownload)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}
	if stats.PhaseAvg[PhaseDispatch] <= 0 {
		t.Error("expected dispatch phase to be tracked")
	}
	if stats.PhaseAvg[PhaseDownload] <= 0 {
		t.Error("expected download phase to be tracked")
	}
	if stats.PhaseAvg[PhasePush] != 0 {
		t.Errorf("untimed phase should be zero, got %v", stats.PhaseAvg[PhasePush])
	}
	if stats.MinTickDuration > stats.P95TickDuration || stats.P95TickDuration > stats.MaxTickDuration {
		t.Errorf("expected min <= p95 <= max, got %v %v %v",
			stats.MinTickDuration, stats.P95TickDuration, stats.MaxTickDuration)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseDispatch)
		time.Sleep(10 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	// Fixed samples keep the shares independent of timer resolution.
	for i := 0; i < 5; i++ {
		var phases PhaseTimes
		phases[PhasePush] = 100 * time.Microsecond
		phases[PhaseDownload] = 700 * time.Microsecond
		pc.samples[i] = PerfSample{TickDuration: time.Millisecond, Phases: phases}
	}
	pc.sampleCount = 5

	stats := pc.Stats()

	if got := stats.PhasePct[PhasePush]; math.Abs(got-10) > 1e-9 {
		t.Errorf("push share = %v%%, want 10%%", got)
	}
	if got := stats.PhasePct[PhaseDownload]; math.Abs(got-70) > 1e-9 {
		t.Errorf("download share = %v%%, want 70%%", got)
	}
	if got := stats.PhaseAvg[PhaseDownload]; got != 700*time.Microsecond {
		t.Errorf("download avg = %v, want 700µs", got)
	}
	if stats.TicksPerSecond != 1000 {
		t.Errorf("ticks per second = %v, want 1000", stats.TicksPerSecond)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	if stats.AvgTickDuration != 0 || stats.TicksPerSecond != 0 {
		t.Error("expected zero stats for empty collector")
	}
	if stats.PhasePct != [NumPhases]float64{} {
		t.Errorf("expected zero phase shares, got %v", stats.PhasePct)
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// First call establishes baseline
	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()

	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 70 {
		t.Errorf("expected FPS in (0, 70] with 16ms frame time, got %v", stats.FPS)
	}
}

func TestPhaseString(t *testing.T) {
	for ph, want := range map[Phase]string{
		PhasePush:      "push",
		PhaseTelemetry: "telemetry",
		NumPhases:      "unknown",
	} {
		if got := ph.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", ph, got, want)
		}
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	var s PerfStats
	s.AvgTickDuration = 2 * time.Millisecond
	s.P95TickDuration = 3 * time.Millisecond
	s.PhasePct[PhaseDispatch] = 40
	s.PhasePct[PhaseDownload] = 55

	row := s.ToCSV(120)
	if row.WindowEnd != 120 || row.AvgTickUS != 2000 || row.P95TickUS != 3000 {
		t.Errorf("unexpected timing columns: %+v", row)
	}
	if row.DispatchPct != 40 || row.DownloadPct != 55 || row.PushPct != 0 {
		t.Errorf("unexpected phase columns: %+v", row)
	}
}
