package vecmath

import "math"

// Quaternion is a unit quaternion (q0, q1, q2, q3) = (w, x, y, z) describing a
// molecule's orientation, matching spec.md's q = (q0,q1,q2,q3) layout.
type Quaternion struct {
	W, X, Y, Z float64
}

// IdentityQuaternion is the no-rotation orientation.
var IdentityQuaternion = Quaternion{W: 1}

func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalized returns q rescaled to unit norm, or the identity quaternion if q
// is (near) the zero quaternion.
func (q Quaternion) Normalized() Quaternion {
	n := q.Norm()
	if n < 1e-300 {
		return IdentityQuaternion
	}
	inv := 1.0 / n
	return Quaternion{q.W * inv, q.X * inv, q.Y * inv, q.Z * inv}
}

// Conjugate returns the inverse rotation of a unit quaternion.
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{q.W, -q.X, -q.Y, -q.Z}
}

// Mul composes two quaternions (applies o, then q, to a vector: q*o).
func (q Quaternion) Mul(o Quaternion) Quaternion {
	return Quaternion{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

// Rotate applies q's rotation to v (body-frame to world-frame when q is a
// molecule's orientation).
func (q Quaternion) Rotate(v Vec3) Vec3 {
	qv := Quaternion{0, v.X, v.Y, v.Z}
	r := q.Mul(qv).Mul(q.Conjugate())
	return Vec3{r.X, r.Y, r.Z}
}

// RotationMatrix returns the 3x3 rotation matrix equivalent to q, the form
// needed to bulk-rotate several body-frame site offsets at once.
func (q Quaternion) RotationMatrix() [3][3]float64 {
	w, x, y, z := q.W, q.X, q.Y, q.Z
	return [3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y)},
		{2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x)},
		{2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y)},
	}
}

// AngularVelocityFromMomentum derives the body-frame angular velocity omega
// from angular momentum D and the principal moments of inertia I, per
// spec.md 4.5 ("omega is derived from angular momentum D and principal
// moments of inertia I").
func AngularVelocityFromMomentum(angularMomentum, principalInertia Vec3) Vec3 {
	return Vec3{
		safeDiv(angularMomentum.X, principalInertia.X),
		safeDiv(angularMomentum.Y, principalInertia.Y),
		safeDiv(angularMomentum.Z, principalInertia.Z),
	}
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// IntegrateQuaternion advances orientation q by angular velocity omega
// (expressed in the body frame) over dt, using the standard first-order
// quaternion derivative q_dot = 0.5 * q * (0, omega), then renormalizes.
func IntegrateQuaternion(q Quaternion, omega Vec3, dt float64) Quaternion {
	omegaQuat := Quaternion{0, omega.X, omega.Y, omega.Z}
	dq := q.Mul(omegaQuat)
	next := Quaternion{
		W: q.W + 0.5*dt*dq.W,
		X: q.X + 0.5*dt*dq.X,
		Y: q.Y + 0.5*dt*dq.Y,
		Z: q.Z + 0.5*dt*dq.Z,
	}
	return next.Normalized()
}
