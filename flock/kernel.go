package flock

import (
	"fmt"
	"math"
)

// Steering is the per-rule force breakdown for one agent in one tick.
type Steering struct {
	Alignment  Vec3
	Cohesion   Vec3
	Separation Vec3
	PathFollow Vec3
	Boundary   Vec3

	Neighbors int // agents within NeighborRadius
	Crowding  int // agents within AvoidanceRadius
}

// Total returns the sum of all weighted rule forces.
func (s Steering) Total() Vec3 {
	return s.Alignment.
		Add(s.Cohesion).
		Add(s.Separation).
		Add(s.PathFollow).
		Add(s.Boundary)
}

// Steer computes the weighted steering forces acting on agent i, reading
// only the snapshot. scratch is reused for neighbour candidates and returned
// so workers can keep it between calls.
func Steer(i int, snapshot []Agent, nb Neighborhood, p *Params, f Frame, scratch []int32) (Steering, []int32) {
	self := &snapshot[i]
	var s Steering

	scratch = nb.Candidates(scratch[:0], self.Position, p.QueryRadius())

	neighborSq := p.NeighborRadius * p.NeighborRadius
	avoidSq := p.AvoidanceRadius * p.AvoidanceRadius

	var velSum, posSum, away Vec3
	for _, j := range scratch {
		if int(j) == i {
			continue
		}
		other := &snapshot[j]

		d := self.Position.Sub(other.Position)
		distSq := d.LenSq()

		if distSq <= neighborSq {
			velSum = velSum.Add(other.Velocity)
			posSum = posSum.Add(other.Position)
			s.Neighbors++
		}
		// Coincident agents have no defined direction to separate along.
		if distSq <= avoidSq && distSq > 0 {
			away = away.Add(d.Scale(1 / distSq))
			s.Crowding++
		}
	}

	w := &p.Weights
	if s.Neighbors > 0 {
		inv := 1 / float32(s.Neighbors)
		s.Alignment = velSum.Scale(inv).Sub(self.Velocity).Scale(w.Alignment)
		s.Cohesion = posSum.Scale(inv).Sub(self.Position).Scale(w.Cohesion)
	}
	if s.Crowding > 0 {
		s.Separation = away.Scale(w.Separation)
	}

	if w.PathFollow != 0 {
		s.PathFollow = f.PathCenter.Sub(self.Position).Normalize().Scale(w.PathFollow)
	}

	s.Boundary = boundaryForce(self, p)
	return s, scratch
}

// boundaryForce pushes an agent back toward the legal region of its population.
func boundaryForce(self *Agent, p *Params) Vec3 {
	var force Vec3
	pos := self.Position
	b := &p.Boundary
	w := &p.Weights

	switch b.Kind {
	case DepthBand:
		if pos.Y > b.MinDepth {
			force.Y -= w.AvoidWater * (pos.Y - b.MinDepth + 1)
		} else if pos.Y < b.MaxDepth {
			force.Y += w.AvoidWater * (b.MaxDepth - pos.Y + 1)
		}
		if w.TargetDepth != 0 {
			target := clampFloat(self.TargetDepth, b.MaxDepth, b.MinDepth)
			force.Y += w.TargetDepth * (target - pos.Y)
		}

	case WaterPlane:
		if pos.Y < b.WaterHeight {
			force.Y += w.AvoidWater * (b.WaterHeight - pos.Y + 1)
		}
		hw := b.CenterHalfWidth
		if hw > 0 && pos.X > -hw && pos.X < hw && pos.Z > -hw && pos.Z < hw {
			out := Vec3{X: pos.X, Z: pos.Z}.Normalize()
			if out == (Vec3{}) {
				out.X = 1
			}
			force = force.Add(out.Scale(w.AvoidCenter))
		}
	}
	return force
}

// Integrate applies the steering to self and returns the next record.
// Velocity is clamped to MaxSpeed and the acceleration accumulator is reset.
func Integrate(self Agent, s Steering, p *Params, f Frame) Agent {
	dt := f.DeltaTime

	acc := s.Total()
	if p.TurnSpeed > 0 {
		acc = acc.Scale(p.TurnSpeed)
	}
	if p.MaxForce > 0 {
		acc = acc.ClampLen(p.MaxForce)
	}

	vel := self.Velocity.Add(acc.Scale(dt)).ClampLen(p.MaxSpeed)
	if !finite(vel) {
		// Overflowing forces must not poison the population.
		vel = self.Velocity.ClampLen(p.MaxSpeed)
	}

	return Agent{
		Position:    self.Position.Add(vel.Scale(dt)),
		Velocity:    vel,
		TargetDepth: self.TargetDepth,
	}
}

// Update runs the full per-agent step for agent i against a snapshot.
func Update(i int, snapshot []Agent, nb Neighborhood, p *Params, f Frame) Agent {
	s, _ := Steer(i, snapshot, nb, p, f, nil)
	return Integrate(snapshot[i], s, p, f)
}

func finite(v Vec3) bool {
	for _, c := range [3]float32{v.X, v.Y, v.Z} {
		if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
			return false
		}
	}
	return true
}

// Kernel names for the two boundary rules.
const (
	FishKernel    = "FishUpdate"
	SeagullKernel = "SeagullUpdate"
)

// KernelName returns the name a kernel for boundary kind k is registered under.
func KernelName(k BoundaryKind) string {
	if k == WaterPlane {
		return SeagullKernel
	}
	return FishKernel
}

// Kernel is the data-parallel flocking program for one population. Frame
// parameters are pushed with SetFrame before each dispatch.
type Kernel struct {
	name    string
	params  Params
	frame   Frame
	grid    *Grid // nil selects the brute-force scan
	scratch [][]int32
}

// NewKernel creates a kernel for the given population parameters.
func NewKernel(name string, p Params, useGrid bool) *Kernel {
	k := &Kernel{name: name, params: p}
	if useGrid {
		k.grid = NewGrid(p.QueryRadius())
	}
	return k
}

// Name returns the kernel name.
func (k *Kernel) Name() string { return k.name }

// Params returns the kernel's population parameters.
func (k *Kernel) Params() *Params { return &k.params }

// SetFrame pushes the per-tick parameters.
func (k *Kernel) SetFrame(f Frame) { k.frame = f }

// Frame returns the last pushed frame.
func (k *Kernel) Frame() Frame { return k.frame }

// Prepare validates the dispatch and rebuilds the neighbour index from the
// snapshot. It runs single-threaded before any work group.
func (k *Kernel) Prepare(src []Agent, workers int) error {
	if len(src) != k.params.Count {
		return fmt.Errorf("buffer size mismatch: kernel %s expects %d agents, buffer holds %d",
			k.name, k.params.Count, len(src))
	}
	dt := float64(k.frame.DeltaTime)
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		return fmt.Errorf("invalid delta time %v", k.frame.DeltaTime)
	}

	for len(k.scratch) < workers {
		k.scratch = append(k.scratch, make([]int32, 0, 64))
	}
	if k.grid != nil {
		k.grid.Build(src)
	}
	return nil
}

// Execute updates agents [start, end) from src into dst. Indices past the
// end of the population are ignored, so a partial last group is safe.
func (k *Kernel) Execute(start, end int, src, dst []Agent, worker int) {
	end = min(end, len(src), len(dst))

	var nb Neighborhood = AllAgents{N: len(src)}
	if k.grid != nil {
		nb = k.grid
	}

	buf := k.scratch[worker]
	for i := start; i < end; i++ {
		var s Steering
		s, buf = Steer(i, src, nb, &k.params, k.frame, buf)
		dst[i] = Integrate(src[i], s, &k.params, k.frame)
	}
	k.scratch[worker] = buf
}
