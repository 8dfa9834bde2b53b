package flock

import (
	"math"
	"math/rand"
	"slices"
	"testing"
)

func TestGridCandidatesCoverRadius(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	agents := make([]Agent, 2000)
	for i := range agents {
		agents[i].Position = V3(rng.Float32()*400-200, rng.Float32()*400-200, rng.Float32()*400-200)
	}

	const radius = 20
	g := NewGrid(radius)
	g.Build(agents)

	var buf []int32
	for q := 0; q < 100; q++ {
		p := agents[rng.Intn(len(agents))].Position
		buf = g.Candidates(buf[:0], p, radius)

		for j := range agents {
			if DistSq(p, agents[j].Position) > radius*radius {
				continue
			}
			if !slices.Contains(buf, int32(j)) {
				t.Fatalf("agent %d within radius of %v missing from candidates", j, p)
			}
		}
	}
}

func TestGridRebuildDropsMovedAgents(t *testing.T) {
	g := NewGrid(10)
	agents := []Agent{{Position: V3(0, 0, 0)}, {Position: V3(5, 5, 5)}}
	g.Build(agents)

	agents[1].Position = V3(500, 500, 500)
	g.Build(agents)

	got := g.Candidates(nil, V3(0, 0, 0), 10)
	if slices.Contains(got, 1) {
		t.Errorf("moved agent still listed near origin: %v", got)
	}
	if !slices.Contains(got, 0) {
		t.Errorf("agent 0 missing near origin: %v", got)
	}
}

func TestGridFarAndNonFiniteCoordinates(t *testing.T) {
	nan := float32(math.NaN())
	far := float32(math.MaxInt32)
	agents := []Agent{
		{Position: V3(far, far, far)},
		{Position: V3(nan, 0, 0)},
		{Position: V3(float32(math.Inf(-1)), 0, 0)},
		{Position: V3(math.MaxFloat32, -math.MaxFloat32, 0)},
	}
	g := NewGrid(1)
	g.Build(agents)

	got := g.Candidates(nil, V3(far, far, far), 1)
	if !slices.Contains(got, 0) {
		t.Errorf("agent at the edge of the grid missing: %v", got)
	}
	// Queries at the clamped cells terminate and stay bounded.
	for _, p := range []Vec3{V3(nan, nan, nan), V3(math.MaxFloat32, 0, 0), V3(-far, far, 0)} {
		if got := g.Candidates(nil, p, 1); len(got) > len(agents)*27 {
			t.Errorf("query at %v returned %d candidates", p, len(got))
		}
	}
}

func TestNewGridClampsCellSize(t *testing.T) {
	if g := NewGrid(0); g.CellSize() != 1 {
		t.Errorf("cell size = %v, want 1", g.CellSize())
	}
}

func TestAllAgentsCandidates(t *testing.T) {
	got := AllAgents{N: 4}.Candidates(nil, Vec3{}, 0)
	if !slices.Equal(got, []int32{0, 1, 2, 3}) {
		t.Errorf("candidates = %v", got)
	}
}
