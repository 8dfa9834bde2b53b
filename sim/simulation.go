// Package sim drives flocking populations on a compute device: spawn,
// upload, per-tick dispatch and download, and teardown.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/shoal/compute"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/flock"
)

// ErrNotActive is returned when ticking a simulation that is not Active.
var ErrNotActive = errors.New("simulation not active")

// State is the lifecycle state of a Simulation.
type State uint8

const (
	StateIdle State = iota
	StateActive
	StateFailed
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateFailed:
		return "failed"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// FrameKernel is a kernel that takes per-tick frame parameters.
type FrameKernel interface {
	compute.Kernel[flock.Agent]
	SetFrame(f flock.Frame)
}

// Options configures a Simulation.
type Options struct {
	Device       *compute.Device
	Seed         int64
	NeighborGrid bool
	Logger       *slog.Logger

	// Library overrides the kernels looked up by name. When nil, the
	// simulation registers a flock kernel for its boundary rule.
	Library *compute.Library[flock.Agent]
}

// Simulation owns one population: its buffer, kernel and anchor.
type Simulation struct {
	name   string
	cfg    config.PopulationConfig
	params flock.Params
	dev    *compute.Device
	lib    *compute.Library[flock.Agent]
	grid   bool
	rng    *rand.Rand
	logger *slog.Logger

	kernel FrameKernel
	buf    *compute.Buffer[flock.Agent]
	anchor *Anchor

	state     State
	err       error
	pending   bool
	pendingDT float32
	simTime   float64
	ticks     int64
}

// NewSimulation creates an Idle simulation for the named population.
// The config is copied and is not read again after Initialize.
func NewSimulation(name string, cfg config.PopulationConfig, opts Options) *Simulation {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulation{
		name:   name,
		cfg:    cfg,
		dev:    opts.Device,
		lib:    opts.Library,
		grid:   opts.NeighborGrid,
		rng:    rand.New(rand.NewSource(opts.Seed)),
		logger: logger.With("population", name),
		anchor: NewAnchor(cfg.Anchor, opts.Seed),
	}
}

// Initialize validates the parameters, allocates the buffer, looks up the
// kernel, spawns the population and uploads it. On any failure the buffer is
// released and the simulation is Failed with no population.
func (s *Simulation) Initialize() error {
	if s.state != StateIdle {
		return fmt.Errorf("initialize %s: simulation is %s", s.name, s.state)
	}
	if err := s.initialize(); err != nil {
		s.buf.Release()
		s.buf = nil
		s.state = StateFailed
		s.err = err
		s.logger.Error("population initialization failed", "error", err)
		return fmt.Errorf("initialize %s: %w", s.name, err)
	}

	s.state = StateActive
	s.logger.Info("population initialized",
		"count", s.params.Count,
		"kernel", s.kernel.Name(),
		"bytes", int64(s.params.Count)*int64(flock.AgentSize)*3,
		"groups", s.buf.Groups(),
	)
	return nil
}

func (s *Simulation) initialize() error {
	if s.dev == nil {
		return errors.New("no compute device")
	}
	if err := s.cfg.Validate(s.name); err != nil {
		return err
	}
	params, err := ParamsFromConfig(&s.cfg)
	if err != nil {
		return err
	}
	s.params = params

	buf, err := compute.Allocate[flock.Agent](s.dev, params.Count)
	if err != nil {
		return err
	}
	s.buf = buf

	lib := s.lib
	if lib == nil {
		lib = compute.NewLibrary[flock.Agent](
			flock.NewKernel(flock.KernelName(params.Boundary.Kind), params, s.grid),
		)
	}
	k, err := lib.Find(s.cfg.Kernel)
	if err != nil {
		return err
	}
	fk, ok := k.(FrameKernel)
	if !ok {
		return &compute.DeviceError{
			Op:     "find_kernel",
			Kernel: s.cfg.Kernel,
			Err:    errors.New("kernel does not take frame parameters"),
		}
	}
	s.kernel = fk

	agents, err := flock.NewSpawner(s.rng).Spawn(params.Count, params.Spawn, params.MaxSpeed, params.UsesTargetDepth())
	if err != nil {
		return err
	}
	return buf.Upload(agents)
}

// Push sets the frame parameters for the next dispatch: dt and the anchor
// position at the current simulated time.
func (s *Simulation) Push(dt float32) error {
	if s.state != StateActive {
		return ErrNotActive
	}
	if s.pending {
		return fmt.Errorf("push %s: %w", s.name, compute.ErrPending)
	}
	s.kernel.SetFrame(flock.Frame{
		DeltaTime:  dt,
		PathCenter: s.anchor.At(s.simTime),
	})
	s.pendingDT = dt
	return nil
}

// Submit dispatches the kernel with the last pushed frame. It returns once
// the work is queued.
func (s *Simulation) Submit() error {
	if s.state != StateActive {
		return ErrNotActive
	}
	if s.pending {
		return fmt.Errorf("dispatch %s: %w", s.name, compute.ErrPending)
	}
	if err := s.buf.Dispatch(s.kernel); err != nil {
		s.fail(err)
		return fmt.Errorf("dispatch %s: %w", s.name, err)
	}
	s.pending = true
	return nil
}

// Dispatch pushes the frame for dt and dispatches the kernel.
func (s *Simulation) Dispatch(dt float32) error {
	if err := s.Push(dt); err != nil {
		return err
	}
	return s.Submit()
}

// Sync waits for the pending dispatch and returns the downloaded population.
// Without a pending dispatch it returns the current population unchanged. On
// failure it returns the last good population and the simulation is Failed.
func (s *Simulation) Sync() ([]flock.Agent, error) {
	if s.state != StateActive {
		return s.Population(), ErrNotActive
	}
	agents, err := s.buf.Download()
	if !s.pending {
		return agents, err
	}
	s.pending = false
	if err != nil {
		s.fail(err)
		return agents, fmt.Errorf("sync %s: %w", s.name, err)
	}
	s.simTime += float64(s.pendingDT)
	s.ticks++
	return agents, nil
}

// Tick runs one dispatch and download.
func (s *Simulation) Tick(dt float32) ([]flock.Agent, error) {
	if err := s.Dispatch(dt); err != nil {
		return s.Population(), err
	}
	return s.Sync()
}

func (s *Simulation) fail(err error) {
	s.state = StateFailed
	s.err = err
	s.logger.Error("population failed", "tick", s.ticks, "error", err)
}

// Population returns the host array. It stays valid until the next Sync and
// keeps the last good tick after a failure. It is nil after Shutdown.
func (s *Simulation) Population() []flock.Agent {
	if s.buf == nil || s.buf.Released() {
		return nil
	}
	return s.buf.Host()
}

// Shutdown releases the buffer. It is safe to call in any state and more
// than once.
func (s *Simulation) Shutdown() {
	if s.state == StateShutdown {
		return
	}
	if s.buf != nil {
		s.buf.Release()
	}
	s.pending = false
	s.state = StateShutdown
	s.logger.Info("population shut down", "ticks", s.ticks)
}

// Name returns the population name.
func (s *Simulation) Name() string { return s.name }

// State returns the lifecycle state.
func (s *Simulation) State() State { return s.state }

// Active reports whether the simulation accepts ticks.
func (s *Simulation) Active() bool { return s.state == StateActive }

// Err returns the error that moved the simulation to Failed.
func (s *Simulation) Err() error { return s.err }

// Params returns the population parameters. Valid after Initialize.
func (s *Simulation) Params() *flock.Params { return &s.params }

// Config returns the population config.
func (s *Simulation) Config() *config.PopulationConfig { return &s.cfg }

// Anchor returns the path-follow anchor.
func (s *Simulation) Anchor() *Anchor { return s.anchor }

// PathCenter returns the anchor position at the current simulated time.
func (s *Simulation) PathCenter() flock.Vec3 { return s.anchor.At(s.simTime) }

// Ticks returns the number of completed ticks.
func (s *Simulation) Ticks() int64 { return s.ticks }

// SimTime returns the simulated seconds of completed ticks.
func (s *Simulation) SimTime() float64 { return s.simTime }
