package sim

import (
	"fmt"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/flock"
)

// ParamsFromConfig converts a population config to kernel parameters.
func ParamsFromConfig(pc *config.PopulationConfig) (flock.Params, error) {
	var kind flock.BoundaryKind
	switch pc.Bounds.Kind {
	case config.BoundsDepthBand:
		kind = flock.DepthBand
	case config.BoundsWaterPlane:
		kind = flock.WaterPlane
	default:
		return flock.Params{}, fmt.Errorf("unknown bounds kind %q", pc.Bounds.Kind)
	}

	var vel flock.VelocityMode
	switch pc.Spawn.Velocity {
	case config.VelocityHorizontalBall:
		vel = flock.HorizontalBall
	case config.VelocitySphereSurface:
		vel = flock.SphereSurface
	default:
		return flock.Params{}, fmt.Errorf("unknown spawn velocity %q", pc.Spawn.Velocity)
	}

	w := pc.Weights
	return flock.Params{
		Count:           pc.Count,
		MaxSpeed:        float32(pc.MaxSpeed),
		MaxForce:        float32(pc.MaxForce),
		TurnSpeed:       float32(pc.TurnSpeed),
		AvoidanceRadius: float32(pc.AvoidanceRadius),
		NeighborRadius:  float32(pc.NeighborRadius),
		Weights: flock.Weights{
			Alignment:   float32(w.Alignment),
			Cohesion:    float32(w.Cohesion),
			Separation:  float32(w.Separation),
			PathFollow:  float32(w.PathFollow),
			AvoidWater:  float32(w.AvoidWater),
			AvoidCenter: float32(w.AvoidCenter),
			TargetDepth: float32(w.TargetDepth),
		},
		Boundary: flock.Boundary{
			Kind:            kind,
			MinDepth:        float32(pc.Bounds.MinDepth),
			MaxDepth:        float32(pc.Bounds.MaxDepth),
			WaterHeight:     float32(pc.Bounds.WaterHeight),
			CenterHalfWidth: float32(pc.Bounds.CenterHalfWidth),
		},
		Spawn: flock.SpawnShape{
			SampleHalfWidth:    float32(pc.Spawn.SampleHalfWidth),
			ExclusionHalfWidth: float32(pc.Spawn.ExclusionHalfWidth),
			AltitudeMin:        float32(pc.Spawn.AltitudeMin),
			AltitudeMax:        float32(pc.Spawn.AltitudeMax),
			Velocity:           vel,
			MaxAttempts:        pc.Spawn.MaxAttempts,
		},
	}, nil
}
