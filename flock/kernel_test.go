package flock

import (
	"math"
	"math/rand"
	"testing"
)

const dt = float32(1.0 / 60)

func cohesionOnly() *Params {
	return &Params{
		Count:           3,
		MaxSpeed:        10,
		TurnSpeed:       1,
		AvoidanceRadius: 0.5,
		NeighborRadius:  5,
		Weights:         Weights{Cohesion: 1},
		Boundary:        Boundary{Kind: WaterPlane, WaterHeight: -100},
	}
}

func TestCohesionThreeAgents(t *testing.T) {
	agents := []Agent{
		{Position: V3(0, 0, 0)},
		{Position: V3(1, 0, 0)},
		{Position: V3(2, 0, 0)},
	}
	p := cohesionOnly()
	nb := AllAgents{N: len(agents)}

	s0, _ := Steer(0, agents, nb, p, Frame{DeltaTime: dt}, nil)
	if s0.Cohesion.X <= 0 || s0.Cohesion.Y != 0 || s0.Cohesion.Z != 0 {
		t.Errorf("agent 0 cohesion = %v, want +x", s0.Cohesion)
	}
	if s0.Alignment != (Vec3{}) || s0.Separation != (Vec3{}) {
		t.Errorf("disabled rules should be zero: %+v", s0)
	}

	s1, _ := Steer(1, agents, nb, p, Frame{DeltaTime: dt}, nil)
	if s1.Cohesion != (Vec3{}) {
		t.Errorf("centre agent cohesion = %v, want zero", s1.Cohesion)
	}

	s2, _ := Steer(2, agents, nb, p, Frame{DeltaTime: dt}, nil)
	if s2.Cohesion.X >= 0 {
		t.Errorf("agent 2 cohesion = %v, want -x", s2.Cohesion)
	}

	// After one tick the outer agents move toward the centroid.
	a0 := Update(0, agents, nb, p, Frame{DeltaTime: dt})
	a2 := Update(2, agents, nb, p, Frame{DeltaTime: dt})
	if a0.Position.X <= 0 || a2.Position.X >= 2 {
		t.Errorf("outer agents did not close in: %v %v", a0.Position, a2.Position)
	}
}

func TestIsolatedAgentHasNoFlockingForce(t *testing.T) {
	agents := []Agent{
		{Position: V3(0, 0, 0), Velocity: V3(1, 0, 0)},
		{Position: V3(1000, 0, 0), Velocity: V3(-1, 0, 0)},
	}
	p := &Params{
		Count:           2,
		MaxSpeed:        5,
		TurnSpeed:       1,
		AvoidanceRadius: 5,
		NeighborRadius:  20,
		Weights:         Weights{Alignment: 1, Cohesion: 1, Separation: 1, PathFollow: 1},
		Boundary:        Boundary{Kind: WaterPlane, WaterHeight: -100},
	}
	f := Frame{DeltaTime: dt, PathCenter: V3(0, 0, 1)}

	s, _ := Steer(0, agents, AllAgents{N: 2}, p, f, nil)
	if s.Alignment != (Vec3{}) || s.Cohesion != (Vec3{}) || s.Separation != (Vec3{}) {
		t.Errorf("isolated agent has flocking force: %+v", s)
	}
	if s.Neighbors != 0 || s.Crowding != 0 {
		t.Errorf("isolated agent counted neighbours: %+v", s)
	}
	if s.PathFollow != V3(0, 0, 1) {
		t.Errorf("path follow = %v, want unit +z", s.PathFollow)
	}
}

func TestAlignmentMatchesNeighbourVelocity(t *testing.T) {
	agents := []Agent{
		{Position: V3(0, 0, 0), Velocity: V3(0, 0, 0)},
		{Position: V3(1, 0, 0), Velocity: V3(0, 0, 2)},
	}
	p := &Params{NeighborRadius: 5, AvoidanceRadius: 0.1, Weights: Weights{Alignment: 0.5}}

	s, _ := Steer(0, agents, AllAgents{N: 2}, p, Frame{}, nil)
	if s.Alignment != V3(0, 0, 1) {
		t.Errorf("alignment = %v, want (0,0,1)", s.Alignment)
	}
}

func TestSeparationInverseSquare(t *testing.T) {
	agents := []Agent{
		{Position: V3(0, 0, 0)},
		{Position: V3(2, 0, 0)},
		{Position: V3(0, 0, 0)}, // coincident with agent 0
	}
	p := &Params{NeighborRadius: 1, AvoidanceRadius: 5, Weights: Weights{Separation: 1}}

	s, _ := Steer(0, agents, AllAgents{N: 3}, p, Frame{}, nil)
	// (0-2)/4 = -0.5 along x; the coincident agent adds nothing.
	if s.Separation != V3(-0.5, 0, 0) {
		t.Errorf("separation = %v, want (-0.5,0,0)", s.Separation)
	}
	if s.Crowding != 1 {
		t.Errorf("crowding = %d, want 1", s.Crowding)
	}
	if !finite(s.Separation) {
		t.Error("coincident agents produced a non-finite force")
	}
}

func TestSpeedClampUnderArbitraryForces(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p := &Params{MaxSpeed: 3, TurnSpeed: 1}

	for i := 0; i < 1000; i++ {
		self := Agent{Velocity: V3(rng.Float32()*10-5, rng.Float32()*10-5, rng.Float32()*10-5)}
		scale := float32(math.Pow(10, float64(rng.Intn(40))))
		s := Steering{Separation: V3(rng.Float32()-0.5, rng.Float32()-0.5, rng.Float32()-0.5).Scale(scale)}

		out := Integrate(self, s, p, Frame{DeltaTime: dt})
		if out.Velocity.Len() > p.MaxSpeed*1.0001 {
			t.Fatalf("speed %v exceeds %v (force scale %v)", out.Velocity.Len(), p.MaxSpeed, scale)
		}
		if !finite(out.Position) {
			t.Fatalf("non-finite position %v", out.Position)
		}
		if out.Acceleration != (Vec3{}) {
			t.Fatalf("acceleration not reset: %v", out.Acceleration)
		}
	}
}

func TestMaxForceClampsSteering(t *testing.T) {
	p := &Params{MaxSpeed: 100, TurnSpeed: 1, MaxForce: 0.5}
	s := Steering{Cohesion: V3(10, 0, 0)}

	out := Integrate(Agent{}, s, p, Frame{DeltaTime: 1})
	if math.Abs(float64(out.Velocity.X-0.5)) > 1e-6 {
		t.Errorf("velocity = %v, want 0.5 along x", out.Velocity)
	}
}

func TestSeagullBoundaryCorrection(t *testing.T) {
	p := &Params{
		MaxSpeed:  5,
		TurnSpeed: 1,
		Weights:   Weights{AvoidWater: 1, AvoidCenter: 1},
		Boundary:  Boundary{Kind: WaterPlane, WaterHeight: 20, CenterHalfWidth: 1000},
	}

	below := Agent{Position: V3(1500, 10, 1500)}
	s, _ := Steer(0, []Agent{below}, AllAgents{N: 1}, p, Frame{DeltaTime: dt}, nil)
	if s.Boundary.Y <= 0 {
		t.Errorf("agent below water got boundary force %v, want +y", s.Boundary)
	}
	next := Integrate(below, s, p, Frame{DeltaTime: dt})
	if next.Velocity.Y <= 0 {
		t.Errorf("velocity after one tick = %v, want rising", next.Velocity)
	}

	inCentre := Agent{Position: V3(100, 200, -50)}
	s, _ = Steer(0, []Agent{inCentre}, AllAgents{N: 1}, p, Frame{}, nil)
	if s.Boundary.X <= 0 || s.Boundary.Z >= 0 || s.Boundary.Y != 0 {
		t.Errorf("centre force = %v, want outward (+x, -z)", s.Boundary)
	}

	origin := Agent{Position: V3(0, 200, 0)}
	s, _ = Steer(0, []Agent{origin}, AllAgents{N: 1}, p, Frame{}, nil)
	if s.Boundary != V3(1, 0, 0) {
		t.Errorf("origin force = %v, want +x", s.Boundary)
	}

	legal := Agent{Position: V3(1500, 200, 0)}
	s, _ = Steer(0, []Agent{legal}, AllAgents{N: 1}, p, Frame{}, nil)
	if s.Boundary != (Vec3{}) {
		t.Errorf("legal agent got boundary force %v", s.Boundary)
	}
}

func TestFishBoundaryCorrection(t *testing.T) {
	p := &Params{
		MaxSpeed:  2,
		TurnSpeed: 1,
		Weights:   Weights{AvoidWater: 1},
		Boundary:  Boundary{Kind: DepthBand, MinDepth: -10, MaxDepth: -60},
	}

	tests := []struct {
		name string
		y    float32
		sign float32
	}{
		{"above band", -5, -1},
		{"below band", -70, 1},
		{"inside band", -30, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Agent{Position: V3(0, tt.y, 0)}
			s, _ := Steer(0, []Agent{a}, AllAgents{N: 1}, p, Frame{DeltaTime: dt}, nil)
			switch {
			case tt.sign > 0 && s.Boundary.Y <= 0,
				tt.sign < 0 && s.Boundary.Y >= 0,
				tt.sign == 0 && s.Boundary.Y != 0:
				t.Errorf("boundary force at y=%v is %v", tt.y, s.Boundary)
			}
			next := Integrate(a, s, p, Frame{DeltaTime: dt})
			if tt.sign != 0 && next.Velocity.Y*tt.sign <= 0 {
				t.Errorf("velocity after one tick = %v", next.Velocity)
			}
		})
	}
}

func TestTargetDepthPull(t *testing.T) {
	p := &Params{
		Weights:  Weights{TargetDepth: 0.5},
		Boundary: Boundary{Kind: DepthBand, MinDepth: -10, MaxDepth: -60},
	}
	a := Agent{Position: V3(0, -40, 0), TargetDepth: -20}
	s, _ := Steer(0, []Agent{a}, AllAgents{N: 1}, p, Frame{}, nil)
	if s.Boundary.Y != 10 {
		t.Errorf("target depth force = %v, want +10", s.Boundary.Y)
	}
}

func randomFlock(n int, seed int64) []Agent {
	rng := rand.New(rand.NewSource(seed))
	agents := make([]Agent, n)
	for i := range agents {
		agents[i] = Agent{
			Position: V3(rng.Float32()*100, rng.Float32()*40+30, rng.Float32()*100),
			Velocity: V3(rng.Float32()*2-1, rng.Float32()*2-1, rng.Float32()*2-1),
		}
	}
	return agents
}

func testParams(n int) Params {
	return Params{
		Count:           n,
		MaxSpeed:        5,
		MaxForce:        0.5,
		TurnSpeed:       1,
		AvoidanceRadius: 5,
		NeighborRadius:  20,
		Weights:         Weights{Alignment: 0.5, Cohesion: 0.5, Separation: 1, PathFollow: 1, AvoidWater: 1, AvoidCenter: 1},
		Boundary:        Boundary{Kind: WaterPlane, WaterHeight: 20, CenterHalfWidth: 10},
	}
}

func TestKernelExecuteMatchesUpdate(t *testing.T) {
	const n = 200
	src := randomFlock(n, 3)
	p := testParams(n)
	f := Frame{DeltaTime: dt, PathCenter: V3(50, 50, 50)}

	k := NewKernel(SeagullKernel, p, false)
	k.SetFrame(f)
	if err := k.Prepare(src, 1); err != nil {
		t.Fatal(err)
	}

	dst := make([]Agent, n)
	// Uneven ranges, last one past the end.
	k.Execute(0, 64, src, dst, 0)
	k.Execute(64, 130, src, dst, 0)
	k.Execute(130, 256, src, dst, 0)

	for i := range src {
		want := Update(i, src, AllAgents{N: n}, &p, f)
		if dst[i] != want {
			t.Fatalf("agent %d: kernel %+v, update %+v", i, dst[i], want)
		}
	}
}

func TestKernelPrepareRejects(t *testing.T) {
	k := NewKernel(FishKernel, testParams(10), true)
	if err := k.Prepare(make([]Agent, 9), 1); err == nil {
		t.Error("expected size mismatch error")
	}
	k.SetFrame(Frame{DeltaTime: float32(math.NaN())})
	if err := k.Prepare(make([]Agent, 10), 1); err == nil {
		t.Error("expected invalid delta time error")
	}
}

func TestKernelName(t *testing.T) {
	if KernelName(DepthBand) != FishKernel || KernelName(WaterPlane) != SeagullKernel {
		t.Error("unexpected kernel names")
	}
}

func BenchmarkKernelBruteForce(b *testing.B) {
	benchmarkKernel(b, false)
}

func BenchmarkKernelGrid(b *testing.B) {
	benchmarkKernel(b, true)
}

func benchmarkKernel(b *testing.B, grid bool) {
	const n = 1000
	src := randomFlock(n, 1)
	dst := make([]Agent, n)
	k := NewKernel(SeagullKernel, testParams(n), grid)
	k.SetFrame(Frame{DeltaTime: dt})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := k.Prepare(src, 1); err != nil {
			b.Fatal(err)
		}
		k.Execute(0, n, src, dst, 0)
	}
}
