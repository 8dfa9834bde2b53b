package scene

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/flock"
)

func testAgents() []flock.Agent {
	return []flock.Agent{
		{Position: flock.V3(1, 2, 3), Velocity: flock.V3(1, 0, 0)},
		{Position: flock.V3(-5, 0, 8), Velocity: flock.V3(0, 0, 2)},
		{Position: flock.V3(0, -1, 0), Velocity: flock.V3(0.01, 0, 0)}, // below orient threshold
	}
}

func TestSpawnCreatesActors(t *testing.T) {
	s := New(rand.New(rand.NewSource(1)))
	agents := testAgents()
	s.Spawn(components.PopulationFish, agents)

	if got := s.Count(components.PopulationFish); got != len(agents) {
		t.Fatalf("expected %d actors, got %d", len(agents), got)
	}
	if got := s.Count(components.PopulationSeagull); got != 0 {
		t.Errorf("expected no seagull actors, got %d", got)
	}

	for i, a := range agents {
		tr, m, ok := s.Actor(components.PopulationFish, i)
		if !ok {
			t.Fatalf("actor %d missing", i)
		}
		if tr.Position != a.Position {
			t.Errorf("actor %d position = %v, want %v", i, tr.Position, a.Position)
		}
		// Initial heading is a pure yaw.
		if f := Forward(tr.Rotation); f.Y > 1e-5 || f.Y < -1e-5 {
			t.Errorf("actor %d initial heading not level: %v", i, f)
		}
		if m.Speed != a.Velocity.Len() {
			t.Errorf("actor %d speed = %v, want %v", i, m.Speed, a.Velocity.Len())
		}
	}
}

func TestSyncMovesAndTurns(t *testing.T) {
	s := New(rand.New(rand.NewSource(2)))
	agents := testAgents()
	s.Spawn(components.PopulationSeagull, agents)
	before, _, _ := s.Actor(components.PopulationSeagull, 2)

	moved := make([]flock.Agent, len(agents))
	copy(moved, agents)
	for i := range moved {
		moved[i].Position = moved[i].Position.Add(flock.V3(10, 0, 0))
	}

	// dt >= 0.5 snaps straight to the target rotation.
	s.Sync(components.PopulationSeagull, moved, 1)

	for i := range moved {
		tr, m, _ := s.Actor(components.PopulationSeagull, i)
		if tr.Position != moved[i].Position {
			t.Errorf("actor %d position = %v, want %v", i, tr.Position, moved[i].Position)
		}
		if m.Velocity != moved[i].Velocity {
			t.Errorf("actor %d velocity not copied", i)
		}
	}

	tr0, _, _ := s.Actor(components.PopulationSeagull, 0)
	if !vecNear(Forward(tr0.Rotation), flock.V3(1, 0, 0), 1e-4) {
		t.Errorf("actor 0 should face +X, faces %v", Forward(tr0.Rotation))
	}

	after, _, _ := s.Actor(components.PopulationSeagull, 2)
	if after.Rotation != before.Rotation {
		t.Error("slow actor should keep its rotation")
	}
}

func TestSyncPartialTurn(t *testing.T) {
	s := New(rand.New(rand.NewSource(3)))
	agents := []flock.Agent{{Velocity: flock.V3(0, 0, 1)}}
	s.Spawn(components.PopulationFish, agents)
	s.Sync(components.PopulationFish, agents, 1) // face +Z

	agents[0].Velocity = flock.V3(1, 0, 0)
	s.Sync(components.PopulationFish, agents, 0.25) // half of the way

	tr, _, _ := s.Actor(components.PopulationFish, 0)
	f := Forward(tr.Rotation)
	if !vecNear(f, flock.V3(0.70710677, 0, 0.70710677), 1e-3) {
		t.Errorf("expected halfway heading, got %v", f)
	}
}

func TestRemoveAndEach(t *testing.T) {
	s := New(rand.New(rand.NewSource(4)))
	s.Spawn(components.PopulationFish, testAgents())
	s.Spawn(components.PopulationSeagull, testAgents()[:2])

	counts := map[components.Population]int{}
	s.Each(func(_ *components.Transform, a *components.Actor, _ *components.Motion) {
		counts[a.Population]++
	})
	if counts[components.PopulationFish] != 3 || counts[components.PopulationSeagull] != 2 {
		t.Errorf("unexpected actor counts: %v", counts)
	}

	s.Remove(components.PopulationFish)
	if s.Count(components.PopulationFish) != 0 {
		t.Error("fish actors should be removed")
	}
	if _, _, ok := s.Actor(components.PopulationFish, 0); ok {
		t.Error("removed actor should not be found")
	}

	total := 0
	s.Each(func(*components.Transform, *components.Actor, *components.Motion) { total++ })
	if total != 2 {
		t.Errorf("expected 2 remaining actors, got %d", total)
	}
}
