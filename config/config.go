// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Boundary kinds recognised in population configs.
const (
	BoundsDepthBand  = "depth_band"
	BoundsWaterPlane = "water_plane"
)

// Spawn velocity modes recognised in population configs.
const (
	VelocityHorizontalBall = "horizontal_ball"
	VelocitySphereSurface  = "sphere_surface"
)

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Simulation SimulationConfig `yaml:"simulation"`
	Fish       PopulationConfig `yaml:"fish"`
	Seagull    PopulationConfig `yaml:"seagull"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// SimulationConfig holds tick and compute-device parameters.
type SimulationConfig struct {
	DT            float64 `yaml:"dt"`              // Fixed tick length for headless runs (seconds)
	MaxDT         float64 `yaml:"max_dt"`          // Frame-time clamp in graphical mode (seconds)
	Workers       int     `yaml:"workers"`         // Compute workers (0 = GOMAXPROCS)
	GroupSize     int     `yaml:"group_size"`      // Agents per work group
	MemoryLimitMB int     `yaml:"memory_limit_mb"` // Device buffer budget (0 = unlimited)
	NeighborGrid  bool    `yaml:"neighbor_grid"`   // Uniform grid instead of the O(N^2) scan
}

// PopulationConfig holds the parameters of one flocking population.
type PopulationConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Kernel          string        `yaml:"kernel"` // Kernel name looked up at initialization
	Count           int           `yaml:"count"`
	MaxSpeed        float64       `yaml:"max_speed"`
	MaxForce        float64       `yaml:"max_force"`  // Steering clamp (0 = unlimited)
	TurnSpeed       float64       `yaml:"turn_speed"` // Steering gain
	AvoidanceRadius float64       `yaml:"avoidance_radius"`
	NeighborRadius  float64       `yaml:"neighbor_radius"` // School / flocking radius
	Weights         WeightsConfig `yaml:"weights"`
	Bounds          BoundsConfig  `yaml:"bounds"`
	Spawn           SpawnConfig   `yaml:"spawn"`
	Anchor          AnchorConfig  `yaml:"anchor"`
}

// WeightsConfig holds per-rule steering weights.
type WeightsConfig struct {
	Alignment   float64 `yaml:"alignment"`
	Cohesion    float64 `yaml:"cohesion"`
	Separation  float64 `yaml:"separation"`
	PathFollow  float64 `yaml:"path_follow"`
	AvoidWater  float64 `yaml:"avoid_water"`
	AvoidCenter float64 `yaml:"avoid_center"`
	TargetDepth float64 `yaml:"target_depth"` // Pull toward spawn depth (depth_band only)
}

// BoundsConfig holds the legal region of a population.
type BoundsConfig struct {
	Kind            string  `yaml:"kind"`      // depth_band | water_plane
	MinDepth        float64 `yaml:"min_depth"` // Upper bound of the depth band
	MaxDepth        float64 `yaml:"max_depth"` // Lower (more negative) bound
	WaterHeight     float64 `yaml:"water_height"`
	CenterHalfWidth float64 `yaml:"center_half_width"` // Avoided centre square (0 = off)
}

// SpawnConfig holds spawn geometry.
type SpawnConfig struct {
	SampleHalfWidth    float64 `yaml:"sample_half_width"`
	ExclusionHalfWidth float64 `yaml:"exclusion_half_width"`
	AltitudeMin        float64 `yaml:"altitude_min"`
	AltitudeMax        float64 `yaml:"altitude_max"`
	Velocity           string  `yaml:"velocity"`     // horizontal_ball | sphere_surface
	MaxAttempts        int     `yaml:"max_attempts"` // Rejection budget per agent (0 = default)
}

// AnchorConfig holds the path-follow centre and its drift.
type AnchorConfig struct {
	X           float64 `yaml:"x"`
	Y           float64 `yaml:"y"`
	Z           float64 `yaml:"z"`
	DriftRadius float64 `yaml:"drift_radius"` // Horizontal noise amplitude (0 = static)
	DriftSpeed  float64 `yaml:"drift_speed"`  // Noise frequency per simulated second
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	BookmarkHistory     int     `yaml:"bookmark_history"`     // Windows of history per population (0 = off)
	SnapshotOnBookmark  bool    `yaml:"snapshot_on_bookmark"` // Save a population snapshot with each bookmark
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32        float32 // Simulation.DT as float32
	MaxDT32     float32 // Simulation.MaxDT as float32
	MemoryLimit int64   // Simulation.MemoryLimitMB in bytes
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s = %v: %s", e.Field, e.Value, e.Reason)
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns the embedded default configuration.
func Defaults() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: parsing embedded defaults: %v", err))
	}
	cfg.computeDerived()
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults,
// and validates the result. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Simulation.DT)
	c.Derived.MaxDT32 = float32(c.Simulation.MaxDT)
	c.Derived.MemoryLimit = int64(c.Simulation.MemoryLimitMB) << 20
}

// Populations returns the population configs by name, in tick order.
func (c *Config) Populations() []NamedPopulation {
	return []NamedPopulation{
		{Name: "fish", Config: &c.Fish},
		{Name: "seagull", Config: &c.Seagull},
	}
}

// NamedPopulation pairs a population config with its name.
type NamedPopulation struct {
	Name   string
	Config *PopulationConfig
}

// Validate checks every section and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error
	add := func(field string, value any, reason string) {
		errs = append(errs, &ConfigError{Field: field, Value: value, Reason: reason})
	}

	if c.Simulation.DT <= 0 {
		add("simulation.dt", c.Simulation.DT, "must be positive")
	}
	if c.Simulation.MaxDT < 0 {
		add("simulation.max_dt", c.Simulation.MaxDT, "must not be negative")
	}
	if c.Simulation.Workers < 0 {
		add("simulation.workers", c.Simulation.Workers, "must not be negative")
	}
	if c.Simulation.GroupSize <= 0 {
		add("simulation.group_size", c.Simulation.GroupSize, "must be positive")
	}
	if c.Simulation.MemoryLimitMB < 0 {
		add("simulation.memory_limit_mb", c.Simulation.MemoryLimitMB, "must not be negative")
	}
	if c.Telemetry.StatsWindow <= 0 {
		add("telemetry.stats_window", c.Telemetry.StatsWindow, "must be positive")
	}
	if c.Telemetry.PerfCollectorWindow < 1 {
		add("telemetry.perf_collector_window", c.Telemetry.PerfCollectorWindow, "must be at least 1")
	}
	if c.Telemetry.BookmarkHistory < 0 {
		add("telemetry.bookmark_history", c.Telemetry.BookmarkHistory, "must not be negative")
	}

	enabled := 0
	for _, np := range c.Populations() {
		if !np.Config.Enabled {
			continue
		}
		enabled++
		if err := np.Config.Validate(np.Name); err != nil {
			errs = append(errs, err)
		}
	}
	if enabled == 0 {
		add("fish.enabled/seagull.enabled", false, "at least one population must be enabled")
	}

	return errors.Join(errs...)
}

// Validate checks a population config. prefix names the section in errors.
func (p *PopulationConfig) Validate(prefix string) error {
	var errs []error
	add := func(field string, value any, reason string) {
		errs = append(errs, &ConfigError{Field: prefix + "." + field, Value: value, Reason: reason})
	}

	if p.Kernel == "" {
		add("kernel", p.Kernel, "must name a kernel")
	}
	if p.Count <= 0 {
		add("count", p.Count, "must be positive")
	}
	if p.MaxSpeed <= 0 {
		add("max_speed", p.MaxSpeed, "must be positive")
	}
	if p.MaxForce < 0 {
		add("max_force", p.MaxForce, "must not be negative")
	}
	if p.TurnSpeed <= 0 {
		add("turn_speed", p.TurnSpeed, "must be positive")
	}
	if p.AvoidanceRadius <= 0 {
		add("avoidance_radius", p.AvoidanceRadius, "must be positive")
	}
	if p.NeighborRadius <= 0 {
		add("neighbor_radius", p.NeighborRadius, "must be positive")
	}

	w := p.Weights
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"alignment", w.Alignment},
		{"cohesion", w.Cohesion},
		{"separation", w.Separation},
		{"path_follow", w.PathFollow},
		{"avoid_water", w.AvoidWater},
		{"avoid_center", w.AvoidCenter},
		{"target_depth", w.TargetDepth},
	} {
		if f.v < 0 {
			add("weights."+f.name, f.v, "must not be negative")
		}
	}

	switch p.Bounds.Kind {
	case BoundsDepthBand:
		if p.Bounds.MaxDepth >= p.Bounds.MinDepth {
			add("bounds.max_depth", p.Bounds.MaxDepth, fmt.Sprintf("must be below min_depth %v", p.Bounds.MinDepth))
		}
	case BoundsWaterPlane:
		if p.Bounds.CenterHalfWidth < 0 {
			add("bounds.center_half_width", p.Bounds.CenterHalfWidth, "must not be negative")
		}
	default:
		add("bounds.kind", p.Bounds.Kind, "must be depth_band or water_plane")
	}

	s := p.Spawn
	if s.SampleHalfWidth <= 0 {
		add("spawn.sample_half_width", s.SampleHalfWidth, "must be positive")
	}
	if s.ExclusionHalfWidth < 0 {
		add("spawn.exclusion_half_width", s.ExclusionHalfWidth, "must not be negative")
	}
	if s.ExclusionHalfWidth >= s.SampleHalfWidth {
		add("spawn.exclusion_half_width", s.ExclusionHalfWidth,
			fmt.Sprintf("must be smaller than sample_half_width %v or spawning never terminates", s.SampleHalfWidth))
	}
	if s.AltitudeMin > s.AltitudeMax {
		add("spawn.altitude_min", s.AltitudeMin, fmt.Sprintf("must not exceed altitude_max %v", s.AltitudeMax))
	}
	if s.Velocity != VelocityHorizontalBall && s.Velocity != VelocitySphereSurface {
		add("spawn.velocity", s.Velocity, "must be horizontal_ball or sphere_surface")
	}
	if s.MaxAttempts < 0 {
		add("spawn.max_attempts", s.MaxAttempts, "must not be negative")
	}

	if p.Anchor.DriftRadius < 0 {
		add("anchor.drift_radius", p.Anchor.DriftRadius, "must not be negative")
	}
	if p.Anchor.DriftSpeed < 0 {
		add("anchor.drift_speed", p.Anchor.DriftSpeed, "must not be negative")
	}

	return errors.Join(errs...)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
