package flock

import (
	"fmt"
	"unsafe"
)

// Agent is one flocking entity. The layout is ten packed float32s so that a
// population slice can be split into contiguous work groups.
type Agent struct {
	Position     Vec3
	Velocity     Vec3
	Acceleration Vec3 // per-tick force accumulator, zero between ticks
	TargetDepth  float32
}

// AgentSize is the size of one Agent record in bytes.
const AgentSize = int(unsafe.Sizeof(Agent{}))

// BoundaryKind selects the population-specific boundary rule.
type BoundaryKind uint8

const (
	// DepthBand keeps agents between MaxDepth and MinDepth (fish).
	DepthBand BoundaryKind = iota
	// WaterPlane keeps agents above WaterHeight and out of the centre square (seagulls).
	WaterPlane
)

func (k BoundaryKind) String() string {
	switch k {
	case DepthBand:
		return "depth_band"
	case WaterPlane:
		return "water_plane"
	}
	return fmt.Sprintf("BoundaryKind(%d)", uint8(k))
}

// VelocityMode selects how initial velocities are drawn.
type VelocityMode uint8

const (
	// HorizontalBall draws a point inside the unit sphere and flattens it (swimmers).
	HorizontalBall VelocityMode = iota
	// SphereSurface draws a point on the unit sphere (flyers).
	SphereSurface
)

func (m VelocityMode) String() string {
	switch m {
	case HorizontalBall:
		return "horizontal_ball"
	case SphereSurface:
		return "sphere_surface"
	}
	return fmt.Sprintf("VelocityMode(%d)", uint8(m))
}

// Weights scales each steering rule.
type Weights struct {
	Alignment   float32
	Cohesion    float32
	Separation  float32
	PathFollow  float32
	AvoidWater  float32 // surface/floor push for depth bands, water push for flyers
	AvoidCenter float32
	TargetDepth float32 // cruising-depth pull, depth bands only
}

// Boundary describes the legal region of a population.
type Boundary struct {
	Kind BoundaryKind

	// Depth band: MaxDepth is the lower (more negative) bound.
	MinDepth float32
	MaxDepth float32

	// Water plane.
	WaterHeight     float32
	CenterHalfWidth float32 // 0 disables centre avoidance
}

// SpawnShape describes the spawn region.
type SpawnShape struct {
	SampleHalfWidth    float32 // x,z drawn from [-S, S]
	ExclusionHalfWidth float32 // rejected while |x| < E and |z| < E
	AltitudeMin        float32
	AltitudeMax        float32
	Velocity           VelocityMode
	MaxAttempts        int // per agent; 0 uses DefaultMaxAttempts
}

// Params holds the immutable parameters of one population.
type Params struct {
	Count           int
	MaxSpeed        float32
	MaxForce        float32 // 0 = unlimited
	TurnSpeed       float32 // steering gain applied to the accumulated force
	AvoidanceRadius float32
	NeighborRadius  float32
	Weights         Weights
	Boundary        Boundary
	Spawn           SpawnShape
}

// UsesTargetDepth reports whether agents carry a cruising depth.
func (p *Params) UsesTargetDepth() bool {
	return p.Boundary.Kind == DepthBand
}

// QueryRadius is the largest radius any rule reads neighbours from.
func (p *Params) QueryRadius() float32 {
	return max(p.AvoidanceRadius, p.NeighborRadius)
}

// Frame holds the per-tick inputs pushed before each dispatch.
type Frame struct {
	DeltaTime  float32
	PathCenter Vec3
}
