// Package flock implements the per-agent flocking update: neighbour scan,
// steering rules, integration and the spawn sampler.
package flock

import "math"

// Vec3 is a single-precision 3D vector.
type Vec3 struct {
	X, Y, Z float32
}

// V3 is shorthand for Vec3{x, y, z}.
func V3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns a+b.
func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

// Sub returns a-b.
func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Scale returns a*s.
func (a Vec3) Scale(s float32) Vec3 {
	return Vec3{a.X * s, a.Y * s, a.Z * s}
}

// Dot returns the dot product of a and b.
func (a Vec3) Dot(b Vec3) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Cross returns the cross product a x b.
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

// LenSq returns the squared length (avoid sqrt in hot paths).
func (a Vec3) LenSq() float32 {
	return a.X*a.X + a.Y*a.Y + a.Z*a.Z
}

// Len returns the Euclidean length.
func (a Vec3) Len() float32 {
	return sqrtf(a.LenSq())
}

// Normalize returns a unit vector in the direction of a, or zero for a zero vector.
func (a Vec3) Normalize() Vec3 {
	l2 := a.LenSq()
	if l2 == 0 {
		return Vec3{}
	}
	return a.Scale(1 / sqrtf(l2))
}

// ClampLen limits the length of a to maxLen.
func (a Vec3) ClampLen(maxLen float32) Vec3 {
	l2 := a.LenSq()
	if l2 <= maxLen*maxLen || l2 == 0 {
		return a
	}
	return a.Scale(maxLen / sqrtf(l2))
}

// DistSq returns the squared distance between a and b.
func DistSq(a, b Vec3) float32 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return dx*dx + dy*dy + dz*dz
}

func sqrtf(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

// clampFloat clamps a float32 value between min and max.
func clampFloat(v, minVal, maxVal float32) float32 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
