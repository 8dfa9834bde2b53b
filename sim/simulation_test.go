package sim

import (
	"errors"
	"testing"

	"github.com/pthm-cable/shoal/compute"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/flock"
)

const testDT = float32(1.0 / 60)

func fishConfig(count int) config.PopulationConfig {
	pc := config.Defaults().Fish
	pc.Count = count
	return pc
}

func seagullConfig(count int) config.PopulationConfig {
	pc := config.Defaults().Seagull
	pc.Count = count
	return pc
}

func newTestDevice(t *testing.T, opts compute.Options) *compute.Device {
	t.Helper()
	dev := compute.NewDevice(opts)
	t.Cleanup(dev.Close)
	return dev
}

func newActive(t *testing.T, name string, pc config.PopulationConfig, opts Options) *Simulation {
	t.Helper()
	s := NewSimulation(name, pc, opts)
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(s.Shutdown)
	return s
}

// panicKernel wraps a flock kernel and panics on the failAt-th dispatch.
type panicKernel struct {
	*flock.Kernel
	dispatches int
	failAt     int
}

func (k *panicKernel) Prepare(src []flock.Agent, workers int) error {
	k.dispatches++
	return k.Kernel.Prepare(src, workers)
}

func (k *panicKernel) Execute(start, end int, src, dst []flock.Agent, worker int) {
	if k.dispatches == k.failAt {
		panic("simulated device fault")
	}
	k.Kernel.Execute(start, end, src, dst, worker)
}

func TestInitializeAndTick(t *testing.T) {
	dev := newTestDevice(t, compute.Options{Workers: 4})
	s := newActive(t, "fish", fishConfig(200), Options{Device: dev, Seed: 1, NeighborGrid: true})

	if s.State() != StateActive {
		t.Fatalf("state = %s, want active", s.State())
	}
	if got := len(s.Population()); got != 200 {
		t.Fatalf("population = %d, want 200", got)
	}
	for i, a := range s.Population() {
		if a.TargetDepth != a.Position.Y {
			t.Fatalf("agent %d target depth %v != spawn depth %v", i, a.TargetDepth, a.Position.Y)
		}
	}

	for i := 0; i < 5; i++ {
		agents, err := s.Tick(testDT)
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if len(agents) != 200 {
			t.Fatalf("tick %d returned %d agents", i, len(agents))
		}
	}
	if s.Ticks() != 5 {
		t.Errorf("ticks = %d, want 5", s.Ticks())
	}
	if s.SimTime() <= 0 {
		t.Error("simulated time should advance")
	}
}

func TestSyncBeforeDispatchReturnsSpawn(t *testing.T) {
	dev := newTestDevice(t, compute.Options{})
	s := newActive(t, "seagull", seagullConfig(100), Options{Device: dev, Seed: 2})

	spawned := append([]flock.Agent(nil), s.Population()...)

	agents, err := s.Sync()
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	for i := range spawned {
		if agents[i] != spawned[i] {
			t.Fatalf("agent %d changed without a dispatch", i)
		}
	}
	if s.Ticks() != 0 {
		t.Errorf("sync without dispatch should not count a tick")
	}
}

func TestInitializeConfigError(t *testing.T) {
	dev := newTestDevice(t, compute.Options{})
	pc := fishConfig(0)

	s := NewSimulation("fish", pc, Options{Device: dev})
	err := s.Initialize()

	var ce *config.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *config.ConfigError, got %v", err)
	}
	if s.State() != StateFailed {
		t.Errorf("state = %s, want failed", s.State())
	}
	if s.Population() != nil {
		t.Error("failed initialization should leave no population")
	}
}

func TestInitializeExclusionCoversSampling(t *testing.T) {
	dev := newTestDevice(t, compute.Options{})
	pc := seagullConfig(10)
	pc.Spawn.ExclusionHalfWidth = 2000

	err := NewSimulation("seagull", pc, Options{Device: dev}).Initialize()
	var ce *config.ConfigError
	if !errors.As(err, &ce) || ce.Field != "seagull.spawn.exclusion_half_width" {
		t.Fatalf("expected exclusion config error, got %v", err)
	}
}

func TestInitializeResourceError(t *testing.T) {
	dev := newTestDevice(t, compute.Options{MemoryLimit: 1024})
	s := NewSimulation("fish", fishConfig(200), Options{Device: dev})

	err := s.Initialize()
	var re *compute.ResourceError
	if !errors.As(err, &re) {
		t.Fatalf("expected *compute.ResourceError, got %v", err)
	}
	if re.Available != 1024 {
		t.Errorf("available = %d, want 1024", re.Available)
	}
	if dev.Allocated() != 0 {
		t.Errorf("device should hold no memory, has %d bytes", dev.Allocated())
	}
	if _, err := s.Tick(testDT); !errors.Is(err, ErrNotActive) {
		t.Errorf("tick after failed init: %v, want ErrNotActive", err)
	}
}

func TestInitializeUnknownKernel(t *testing.T) {
	dev := newTestDevice(t, compute.Options{})
	pc := fishConfig(50)
	pc.Kernel = "SharkUpdate"

	s := NewSimulation("fish", pc, Options{Device: dev})
	err := s.Initialize()

	var de *compute.DeviceError
	if !errors.As(err, &de) {
		t.Fatalf("expected *compute.DeviceError, got %v", err)
	}
	if !errors.Is(err, compute.ErrKernelNotFound) {
		t.Errorf("expected ErrKernelNotFound, got %v", err)
	}
	if de.Kernel != "SharkUpdate" {
		t.Errorf("error kernel = %q", de.Kernel)
	}
	if dev.Allocated() != 0 {
		t.Errorf("buffer should be released, device has %d bytes", dev.Allocated())
	}
}

func TestKernelSizeMismatch(t *testing.T) {
	dev := newTestDevice(t, compute.Options{})
	pc := fishConfig(100)
	params, err := ParamsFromConfig(&pc)
	if err != nil {
		t.Fatal(err)
	}
	params.Count = 64
	lib := compute.NewLibrary[flock.Agent](flock.NewKernel(pc.Kernel, params, false))

	s := newActive(t, "fish", pc, Options{Device: dev, Library: lib})
	before := append([]flock.Agent(nil), s.Population()...)

	_, err = s.Tick(testDT)
	var de *compute.DeviceError
	if !errors.As(err, &de) {
		t.Fatalf("expected *compute.DeviceError, got %v", err)
	}
	if s.State() != StateFailed {
		t.Errorf("state = %s, want failed", s.State())
	}
	for i := range before {
		if s.Population()[i] != before[i] {
			t.Fatalf("agent %d changed by a rejected dispatch", i)
		}
	}
}

func TestFailedTickKeepsLastGoodState(t *testing.T) {
	dev := newTestDevice(t, compute.Options{Workers: 4})
	pc := seagullConfig(300)
	params, err := ParamsFromConfig(&pc)
	if err != nil {
		t.Fatal(err)
	}
	k := &panicKernel{Kernel: flock.NewKernel(pc.Kernel, params, true), failAt: 3}
	lib := compute.NewLibrary[flock.Agent](k)

	s := newActive(t, "seagull", pc, Options{Device: dev, Seed: 3, Library: lib})

	for i := 0; i < 2; i++ {
		if _, err := s.Tick(testDT); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	good := append([]flock.Agent(nil), s.Population()...)

	agents, err := s.Tick(testDT)
	var de *compute.DeviceError
	if !errors.As(err, &de) {
		t.Fatalf("expected *compute.DeviceError, got %v", err)
	}
	if s.State() != StateFailed || s.Err() == nil {
		t.Fatalf("state = %s err = %v, want failed with cause", s.State(), s.Err())
	}
	for i := range good {
		if agents[i] != good[i] || s.Population()[i] != good[i] {
			t.Fatalf("agent %d lost last good state", i)
		}
	}
	if s.Ticks() != 2 {
		t.Errorf("ticks = %d, want 2", s.Ticks())
	}

	if _, err := s.Tick(testDT); !errors.Is(err, ErrNotActive) {
		t.Errorf("tick after failure: %v, want ErrNotActive", err)
	}
}

func TestDispatchWhilePending(t *testing.T) {
	dev := newTestDevice(t, compute.Options{})
	s := newActive(t, "fish", fishConfig(100), Options{Device: dev})

	if err := s.Dispatch(testDT); err != nil {
		t.Fatal(err)
	}
	if err := s.Dispatch(testDT); !errors.Is(err, compute.ErrPending) {
		t.Errorf("second dispatch: %v, want ErrPending", err)
	}
	if s.State() != StateActive {
		t.Errorf("protocol misuse should not fail the population, state = %s", s.State())
	}
	if _, err := s.Sync(); err != nil {
		t.Fatal(err)
	}
	if s.Ticks() != 1 {
		t.Errorf("ticks = %d, want 1", s.Ticks())
	}
}

func TestShutdownIdempotent(t *testing.T) {
	dev := newTestDevice(t, compute.Options{})
	s := newActive(t, "fish", fishConfig(100), Options{Device: dev})
	if dev.Allocated() == 0 {
		t.Fatal("expected device memory in use")
	}

	s.Shutdown()
	s.Shutdown()

	if dev.Allocated() != 0 {
		t.Errorf("device has %d bytes after shutdown", dev.Allocated())
	}
	if s.Population() != nil {
		t.Error("population should be gone after shutdown")
	}
	if _, err := s.Tick(testDT); !errors.Is(err, ErrNotActive) {
		t.Errorf("tick after shutdown: %v, want ErrNotActive", err)
	}
	if err := s.Initialize(); err == nil {
		t.Error("initialize after shutdown should fail")
	}
}

func TestTickDeterministicAcrossWorkers(t *testing.T) {
	run := func(workers int) []flock.Agent {
		dev := newTestDevice(t, compute.Options{Workers: workers})
		s := newActive(t, "seagull", seagullConfig(500), Options{Device: dev, Seed: 42, NeighborGrid: true})
		for i := 0; i < 10; i++ {
			if _, err := s.Tick(testDT); err != nil {
				t.Fatal(err)
			}
		}
		return append([]flock.Agent(nil), s.Population()...)
	}

	seq := run(1)
	par := run(8)
	for i := range seq {
		if seq[i] != par[i] {
			t.Fatalf("agent %d differs: sequential %+v, parallel %+v", i, seq[i], par[i])
		}
	}
}

func TestGridMatchesBruteForce(t *testing.T) {
	run := func(grid bool) []flock.Agent {
		dev := newTestDevice(t, compute.Options{Workers: 2})
		s := newActive(t, "fish", fishConfig(400), Options{Device: dev, Seed: 7, NeighborGrid: grid})
		if _, err := s.Tick(testDT); err != nil {
			t.Fatal(err)
		}
		return append([]flock.Agent(nil), s.Population()...)
	}

	brute := run(false)
	grid := run(true)
	for i := range brute {
		d := flock.DistSq(brute[i].Position, grid[i].Position)
		dv := flock.DistSq(brute[i].Velocity, grid[i].Velocity)
		if d > 1e-6 || dv > 1e-6 {
			t.Fatalf("agent %d differs between grid and brute force: %+v vs %+v", i, brute[i], grid[i])
		}
	}
}

func TestSpeedStaysClamped(t *testing.T) {
	dev := newTestDevice(t, compute.Options{})
	pc := seagullConfig(200)
	pc.Weights.Separation = 1e6
	pc.AvoidanceRadius = 4000
	s := newActive(t, "seagull", pc, Options{Device: dev, Seed: 9})

	limit := float32(pc.MaxSpeed) * 1.0001
	for tick := 0; tick < 5; tick++ {
		agents, err := s.Tick(testDT)
		if err != nil {
			t.Fatal(err)
		}
		for i, a := range agents {
			if a.Velocity.Len() > limit {
				t.Fatalf("tick %d agent %d speed %v exceeds %v", tick, i, a.Velocity.Len(), pc.MaxSpeed)
			}
			if a.Acceleration != (flock.Vec3{}) {
				t.Fatalf("tick %d agent %d acceleration not reset", tick, i)
			}
		}
	}
}
