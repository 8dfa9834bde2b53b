// Package scene keeps one ECS actor per agent and moves the actors from
// downloaded population arrays.
package scene

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/flock"
)

// Scene holds the actor world.
type Scene struct {
	world *ecs.World
	rng   *rand.Rand

	actorMapper *ecs.Map3[components.Transform, components.Actor, components.Motion]
	actorFilter *ecs.Filter3[components.Transform, components.Actor, components.Motion]

	// actors[pop][i] is the entity mirroring agent i of pop.
	actors map[components.Population][]ecs.Entity
}

// New creates an empty scene. rng seeds the initial actor headings.
func New(rng *rand.Rand) *Scene {
	world := ecs.NewWorld()
	return &Scene{
		world:       world,
		rng:         rng,
		actorMapper: ecs.NewMap3[components.Transform, components.Actor, components.Motion](world),
		actorFilter: ecs.NewFilter3[components.Transform, components.Actor, components.Motion](world),
		actors:      make(map[components.Population][]ecs.Entity),
	}
}

// Spawn creates one actor per agent, placed at the agent position with a
// random heading about the vertical axis. Existing actors of pop are removed.
func (s *Scene) Spawn(pop components.Population, agents []flock.Agent) {
	s.Remove(pop)

	entities := make([]ecs.Entity, len(agents))
	for i := range agents {
		a := &agents[i]
		tr := components.Transform{
			Position: a.Position,
			Rotation: YawRotation(s.rng.Float64() * 2 * math.Pi),
		}
		actor := components.Actor{Population: pop, Index: int32(i)}
		motion := components.Motion{Velocity: a.Velocity, Speed: a.Velocity.Len()}
		entities[i] = s.actorMapper.NewEntity(&tr, &actor, &motion)
	}
	s.actors[pop] = entities
}

// Sync moves the actors of pop to the agent positions and turns them toward
// their velocity by min(dt*2, 1) of the remaining angle. Actors whose agent
// is nearly stationary keep their rotation.
func (s *Scene) Sync(pop components.Population, agents []flock.Agent, dt float32) {
	entities := s.actors[pop]
	n := min(len(entities), len(agents))
	t := math.Min(float64(dt)*2, 1)

	for i := 0; i < n; i++ {
		tr, _, motion := s.actorMapper.Get(entities[i])
		a := &agents[i]

		tr.Position = a.Position
		motion.Velocity = a.Velocity
		speedSq := a.Velocity.LenSq()
		motion.Speed = float32(math.Sqrt(float64(speedSq)))

		if speedSq > minOrientSpeedSq {
			tr.Rotation = Slerp(tr.Rotation, LookRotation(a.Velocity), t)
		}
	}
}

// Remove deletes every actor of pop.
func (s *Scene) Remove(pop components.Population) {
	for _, e := range s.actors[pop] {
		if s.world.Alive(e) {
			s.world.RemoveEntity(e)
		}
	}
	delete(s.actors, pop)
}

// Count returns the number of actors in pop.
func (s *Scene) Count(pop components.Population) int {
	return len(s.actors[pop])
}

// Actor returns the transform and motion of agent i of pop.
func (s *Scene) Actor(pop components.Population, i int) (components.Transform, components.Motion, bool) {
	entities := s.actors[pop]
	if i < 0 || i >= len(entities) || !s.world.Alive(entities[i]) {
		return components.Transform{}, components.Motion{}, false
	}
	tr, _, motion := s.actorMapper.Get(entities[i])
	return *tr, *motion, true
}

// Each calls fn for every actor. The pointers are only valid during the call
// and fn must not add or remove actors.
func (s *Scene) Each(fn func(tr *components.Transform, actor *components.Actor, motion *components.Motion)) {
	query := s.actorFilter.Query()
	for query.Next() {
		tr, actor, motion := query.Get()
		fn(tr, actor, motion)
	}
}
