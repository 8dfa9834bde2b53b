package sim

import (
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/flock"
)

// Anchor is the path-follow centre of a population. With a drift radius it
// wanders horizontally around its base point along smooth noise.
type Anchor struct {
	base   flock.Vec3
	radius float64
	speed  float64
	noise  opensimplex.Noise
}

// NewAnchor creates an anchor from cfg. seed selects the drift path.
func NewAnchor(cfg config.AnchorConfig, seed int64) *Anchor {
	return &Anchor{
		base:   flock.V3(float32(cfg.X), float32(cfg.Y), float32(cfg.Z)),
		radius: cfg.DriftRadius,
		speed:  cfg.DriftSpeed,
		noise:  opensimplex.New(seed),
	}
}

// StaticAnchor returns an anchor fixed at p.
func StaticAnchor(p flock.Vec3) *Anchor {
	return &Anchor{base: p}
}

// Base returns the undrifted centre.
func (a *Anchor) Base() flock.Vec3 { return a.base }

// At returns the centre after t simulated seconds.
func (a *Anchor) At(t float64) flock.Vec3 {
	if a.radius == 0 || a.speed == 0 || a.noise == nil {
		return a.base
	}
	s := t * a.speed
	// Two decorrelated rows of the same noise field.
	dx := a.noise.Eval2(s, 0)
	dz := a.noise.Eval2(s, 173.5)
	return flock.V3(
		a.base.X+float32(a.radius*dx),
		a.base.Y,
		a.base.Z+float32(a.radius*dz),
	)
}
