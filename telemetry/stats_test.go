package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/shoal/flock"
)

func seagullParams() *flock.Params {
	return &flock.Params{
		MaxSpeed: 5,
		Boundary: flock.Boundary{Kind: flock.WaterPlane, WaterHeight: 20, CenterHalfWidth: 100},
	}
}

func TestComputeFlockStatsAligned(t *testing.T) {
	agents := make([]flock.Agent, 10)
	for i := range agents {
		agents[i] = flock.Agent{
			Position: flock.V3(float32(i)*10+500, 200, 500),
			Velocity: flock.V3(float32(i+1)*0.5, 0, 0),
		}
	}

	s := ComputeFlockStats(agents, seagullParams())

	if s.Count != 10 {
		t.Errorf("count = %d, want 10", s.Count)
	}
	if math.Abs(s.Polarization-1) > 1e-6 {
		t.Errorf("aligned flock polarization = %v, want 1", s.Polarization)
	}
	// Speeds 0.5..5.0
	if math.Abs(s.SpeedMean-2.75) > 1e-6 {
		t.Errorf("speed mean = %v, want 2.75", s.SpeedMean)
	}
	if s.SpeedP10 > s.SpeedP50 || s.SpeedP50 > s.SpeedP90 {
		t.Errorf("quantiles out of order: %v %v %v", s.SpeedP10, s.SpeedP50, s.SpeedP90)
	}
	if math.Abs(s.CentroidX-545) > 1e-3 || math.Abs(s.CentroidY-200) > 1e-3 {
		t.Errorf("centroid = (%v, %v, %v)", s.CentroidX, s.CentroidY, s.CentroidZ)
	}
	if s.AltitudeMin != 200 || s.AltitudeMax != 200 {
		t.Errorf("altitude range = [%v, %v], want [200, 200]", s.AltitudeMin, s.AltitudeMax)
	}
	if s.OutOfBounds != 0 || s.InCenter != 0 || s.OverSpeedLimit != 0 {
		t.Errorf("unexpected violations: %+v", s)
	}
}

func TestComputeFlockStatsOpposed(t *testing.T) {
	agents := []flock.Agent{
		{Velocity: flock.V3(1, 0, 0)},
		{Velocity: flock.V3(-1, 0, 0)},
		{Velocity: flock.V3(0, 0, 2)},
		{Velocity: flock.V3(0, 0, -2)},
	}
	s := ComputeFlockStats(agents, nil)
	if s.Polarization > 1e-6 {
		t.Errorf("opposed headings polarization = %v, want 0", s.Polarization)
	}
}

func TestComputeFlockStatsViolations(t *testing.T) {
	p := seagullParams()
	agents := []flock.Agent{
		{Position: flock.V3(500, 10, 500), Velocity: flock.V3(1, 0, 0)}, // below water
		{Position: flock.V3(0, 200, 50), Velocity: flock.V3(6, 0, 0)},   // in centre, too fast
		{Position: flock.V3(500, 200, 500), Velocity: flock.V3(5, 0, 0)}, // at the limit
	}

	s := ComputeFlockStats(agents, p)
	if s.OutOfBounds != 1 {
		t.Errorf("out of bounds = %d, want 1", s.OutOfBounds)
	}
	if s.InCenter != 1 {
		t.Errorf("in center = %d, want 1", s.InCenter)
	}
	if s.OverSpeedLimit != 1 {
		t.Errorf("over speed limit = %d, want 1", s.OverSpeedLimit)
	}
}

func TestComputeFlockStatsDepthBand(t *testing.T) {
	p := &flock.Params{
		MaxSpeed: 2,
		Boundary: flock.Boundary{Kind: flock.DepthBand, MinDepth: -10, MaxDepth: -60},
	}
	agents := []flock.Agent{
		{Position: flock.V3(0, -5, 0)},  // above band
		{Position: flock.V3(0, -30, 0)}, // inside
		{Position: flock.V3(0, -70, 0)}, // below band
	}

	s := ComputeFlockStats(agents, p)
	if s.OutOfBounds != 2 {
		t.Errorf("out of bounds = %d, want 2", s.OutOfBounds)
	}
	if s.InCenter != 0 {
		t.Errorf("depth band has no centre square, got %d", s.InCenter)
	}
	if s.Polarization != 0 {
		t.Errorf("stationary agents polarization = %v, want 0", s.Polarization)
	}
}

func TestComputeFlockStatsEmpty(t *testing.T) {
	s := ComputeFlockStats(nil, nil)
	if s != (FlockSample{}) {
		t.Errorf("empty input should give zero sample, got %+v", s)
	}
}
