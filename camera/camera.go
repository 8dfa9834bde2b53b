// Package camera provides an orbit camera for the 3D flock viewer.
package camera

import (
	"math"

	"github.com/pthm-cable/shoal/flock"
)

const (
	maxPitch = math.Pi/2 - 0.01
	nearClip = 0.1

	// orbitSensitivity converts dragged screen pixels to radians.
	orbitSensitivity = 0.005
)

// Camera orbits a target point at a given distance.
type Camera struct {
	// Target is the point the camera looks at
	Target flock.Vec3

	// Yaw is measured around +Y from +Z, Pitch above the XZ plane (radians)
	Yaw, Pitch float32

	Distance float32
	FovY     float32 // degrees

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Zoom constraints
	MinDistance, MaxDistance float32

	home orbit
}

type orbit struct {
	target     flock.Vec3
	yaw, pitch float32
	distance   float32
}

// New creates a camera looking at target from distance, slightly above the
// horizon. Reset returns to this pose.
func New(viewportW, viewportH float32, target flock.Vec3, distance float32) *Camera {
	c := &Camera{
		Target:      target,
		Pitch:       0.35,
		Distance:    distance,
		FovY:        60,
		ViewportW:   viewportW,
		ViewportH:   viewportH,
		MinDistance: 10,
		MaxDistance: max(distance*4, 10),
	}
	c.home = orbit{target: c.Target, yaw: c.Yaw, pitch: c.Pitch, distance: c.Distance}
	return c
}

// Position returns the camera eye in world coordinates.
func (c *Camera) Position() flock.Vec3 {
	cp := cosf(c.Pitch)
	off := flock.V3(cp*sinf(c.Yaw), sinf(c.Pitch), cp*cosf(c.Yaw))
	return c.Target.Add(off.Scale(c.Distance))
}

// Basis returns the unit forward, right and up vectors of the view.
func (c *Camera) Basis() (forward, right, up flock.Vec3) {
	forward = c.Target.Sub(c.Position()).Normalize()
	right = forward.Cross(flock.V3(0, 1, 0)).Normalize()
	up = right.Cross(forward)
	return forward, right, up
}

func (c *Camera) aspect() float32 {
	if c.ViewportH == 0 {
		return 1
	}
	return c.ViewportW / c.ViewportH
}

func (c *Camera) tanHalfFov() float32 {
	return float32(math.Tan(float64(c.FovY) * math.Pi / 360))
}

// WorldToScreen projects a world point. visible is false for points behind
// the near plane.
func (c *Camera) WorldToScreen(p flock.Vec3) (sx, sy float32, visible bool) {
	f, r, u := c.Basis()
	d := p.Sub(c.Position())

	z := d.Dot(f)
	if z <= nearClip {
		return 0, 0, false
	}
	th := c.tanHalfFov()
	ndcX := d.Dot(r) / (z * th * c.aspect())
	ndcY := d.Dot(u) / (z * th)

	sx = c.ViewportW / 2 * (1 + ndcX)
	sy = c.ViewportH / 2 * (1 - ndcY)
	return sx, sy, true
}

// ScreenRay returns the eye and the unit direction through a screen pixel.
func (c *Camera) ScreenRay(sx, sy float32) (origin, dir flock.Vec3) {
	f, r, u := c.Basis()
	th := c.tanHalfFov()

	ndcX := 2*sx/c.ViewportW - 1
	ndcY := 1 - 2*sy/c.ViewportH

	dir = f.Add(r.Scale(ndcX * th * c.aspect())).Add(u.Scale(ndcY * th)).Normalize()
	return c.Position(), dir
}

// RayHitsSphere returns the distance along a unit ray to the first hit of a
// sphere, or false when the ray misses or the sphere is behind it.
func RayHitsSphere(origin, dir, center flock.Vec3, radius float32) (float32, bool) {
	oc := center.Sub(origin)
	along := oc.Dot(dir)
	perpSq := oc.LenSq() - along*along
	rr := radius * radius
	if perpSq > rr {
		return 0, false
	}
	half := sqrtf(rr - perpSq)
	t := along - half
	if t < 0 {
		t = along + half
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

// Orbit rotates the camera around the target by a drag in screen pixels.
func (c *Camera) Orbit(dx, dy float32) {
	c.Yaw -= dx * orbitSensitivity
	c.Pitch = clamp(c.Pitch+dy*orbitSensitivity, -maxPitch, maxPitch)
}

// Pan moves the target in the view plane so that the scene follows a drag
// of dx, dy screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	_, r, u := c.Basis()
	// World units per pixel at the target distance.
	scale := 2 * c.Distance * c.tanHalfFov() / c.ViewportH
	c.Target = c.Target.Sub(r.Scale(dx * scale)).Add(u.Scale(dy * scale))
}

// SetDistance sets the orbit distance, clamped to min/max.
func (c *Camera) SetDistance(d float32) {
	c.Distance = clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy divides the distance by factor, so factors above 1 move closer.
func (c *Camera) ZoomBy(factor float32) {
	if factor <= 0 {
		return
	}
	c.SetDistance(c.Distance / factor)
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Reset returns the camera to the pose it was created with.
func (c *Camera) Reset() {
	c.Target = c.home.target
	c.Yaw = c.home.yaw
	c.Pitch = c.home.pitch
	c.Distance = c.home.distance
}

func sinf(x float32) float32 { return float32(math.Sin(float64(x))) }
func cosf(x float32) float32 { return float32(math.Cos(float64(x))) }

func sqrtf(x float32) float32 { return float32(math.Sqrt(float64(x))) }

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
