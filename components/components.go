// Package components defines ECS components for scene actors.
package components

import (
	"github.com/pthm-cable/shoal/flock"
	"gonum.org/v1/gonum/num/quat"
)

// Population identifies which flock an actor belongs to.
type Population uint8

const (
	PopulationFish Population = iota
	PopulationSeagull
)

// Transform places an actor in the scene.
type Transform struct {
	Position flock.Vec3
	Rotation quat.Number // unit quaternion
}

// Actor links a scene entity to its slot in a population buffer.
type Actor struct {
	Population Population
	Index      int32
}

// Motion holds per-actor animation inputs derived from the agent velocity.
type Motion struct {
	Velocity flock.Vec3
	Speed    float32
}
