package flock

import (
	"errors"
	"fmt"
	"math/rand"
)

// DefaultMaxAttempts bounds the rejection sampler per agent when the spawn
// shape does not set its own budget.
const DefaultMaxAttempts = 10000

// ErrSpawnExhausted is returned when the rejection sampler runs out of attempts.
var ErrSpawnExhausted = errors.New("spawn rejection budget exhausted")

// Spawner draws initial populations.
type Spawner struct {
	rng *rand.Rand
}

// NewSpawner creates a spawner using rng. Pass a seeded source for
// reproducible populations.
func NewSpawner(rng *rand.Rand) *Spawner {
	return &Spawner{rng: rng}
}

// Spawn creates count agents inside shape, away from the exclusion square.
// withTargetDepth sets each agent's cruising depth to its spawn altitude.
func (s *Spawner) Spawn(count int, shape SpawnShape, maxSpeed float32, withTargetDepth bool) ([]Agent, error) {
	if count <= 0 {
		return nil, fmt.Errorf("spawn count must be positive, got %d", count)
	}
	if shape.ExclusionHalfWidth >= shape.SampleHalfWidth {
		return nil, fmt.Errorf("exclusion half-width %v must be smaller than sample half-width %v",
			shape.ExclusionHalfWidth, shape.SampleHalfWidth)
	}
	attempts := shape.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	agents := make([]Agent, count)
	for i := range agents {
		x, z, ok := s.samplePlane(shape.SampleHalfWidth, shape.ExclusionHalfWidth, attempts)
		if !ok {
			return nil, fmt.Errorf("agent %d after %d attempts: %w", i, attempts, ErrSpawnExhausted)
		}
		y := s.uniform(shape.AltitudeMin, shape.AltitudeMax)

		var vel Vec3
		switch shape.Velocity {
		case SphereSurface:
			vel = s.onUnitSphere().Scale(maxSpeed)
		default:
			vel = s.insideUnitSphere().Scale(maxSpeed)
			vel.Y = 0
		}

		agents[i] = Agent{
			Position: Vec3{x, y, z},
			Velocity: vel,
		}
		if withTargetDepth {
			agents[i].TargetDepth = y
		}
	}
	return agents, nil
}

// samplePlane draws x,z from [-half, half] and rejects points strictly
// inside the exclusion square.
func (s *Spawner) samplePlane(half, exclusion float32, attempts int) (x, z float32, ok bool) {
	for range attempts {
		x = s.uniform(-half, half)
		z = s.uniform(-half, half)
		if !InExclusion(x, z, exclusion) {
			return x, z, true
		}
	}
	return 0, 0, false
}

// InExclusion reports whether (x, z) lies strictly inside the central square.
func InExclusion(x, z, exclusion float32) bool {
	return x > -exclusion && x < exclusion && z > -exclusion && z < exclusion
}

func (s *Spawner) uniform(lo, hi float32) float32 {
	return lo + s.rng.Float32()*(hi-lo)
}

func (s *Spawner) insideUnitSphere() Vec3 {
	for {
		v := Vec3{
			X: s.uniform(-1, 1),
			Y: s.uniform(-1, 1),
			Z: s.uniform(-1, 1),
		}
		if v.LenSq() <= 1 {
			return v
		}
	}
}

func (s *Spawner) onUnitSphere() Vec3 {
	for {
		v := Vec3{
			X: float32(s.rng.NormFloat64()),
			Y: float32(s.rng.NormFloat64()),
			Z: float32(s.rng.NormFloat64()),
		}
		if v.LenSq() > 1e-12 {
			return v.Normalize()
		}
	}
}
