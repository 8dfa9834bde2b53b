package scene

import (
	"math"

	"github.com/pthm-cable/shoal/flock"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// minOrientSpeedSq is the squared speed below which an actor keeps its
// current rotation.
const minOrientSpeedSq = 0.01

// Identity is the unit quaternion with no rotation.
var Identity = quat.Number{Real: 1}

// LookRotation returns the rotation that turns +Z to face forward with +Y as
// up. A zero forward yields the identity.
func LookRotation(forward flock.Vec3) quat.Number {
	f := r3.Vec{X: float64(forward.X), Y: float64(forward.Y), Z: float64(forward.Z)}
	n := r3.Norm(f)
	if n == 0 {
		return Identity
	}
	f = r3.Scale(1/n, f)

	yaw := math.Atan2(f.X, f.Z)
	pitch := math.Asin(math.Max(-1, math.Min(1, f.Y)))

	qYaw := quat.Number(r3.NewRotation(yaw, r3.Vec{Y: 1}))
	// Positive rotation about +X tips +Z toward -Y.
	qPitch := quat.Number(r3.NewRotation(-pitch, r3.Vec{X: 1}))
	return quat.Mul(qYaw, qPitch)
}

// YawRotation returns a rotation of angle radians about +Y.
func YawRotation(angle float64) quat.Number {
	return quat.Number(r3.NewRotation(angle, r3.Vec{Y: 1}))
}

// Slerp interpolates along the shorter arc from q0 to q1; t is clamped to [0,1].
func Slerp(q0, q1 quat.Number, t float64) quat.Number {
	switch {
	case t <= 0:
		return q0
	case t >= 1:
		return q1
	}
	if dot(q0, q1) < 0 {
		q1 = quat.Scale(-1, q1)
	}
	// (q1 * q0^-1)^t * q0
	d := quat.Mul(q1, quat.Conj(q0))
	q := quat.Mul(quat.PowReal(d, t), q0)
	if a := quat.Abs(q); a != 0 && a != 1 {
		q = quat.Scale(1/a, q)
	}
	return q
}

// Forward returns the +Z axis rotated by q.
func Forward(q quat.Number) flock.Vec3 {
	v := r3.Rotation(q).Rotate(r3.Vec{Z: 1})
	return flock.V3(float32(v.X), float32(v.Y), float32(v.Z))
}

func dot(a, b quat.Number) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}
