// Package vecmath provides the small fixed-size vector and quaternion
// arithmetic the rigid-body pair kernel and integrator are built on.
package vecmath

import "math"

// Vec3 is a three-component vector: a site offset, a force, a torque, a
// velocity, or any other quantity the kernel and integrator move around.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) NormSquared() float64 { return v.Dot(v) }

func (v Vec3) Norm() float64 { return math.Sqrt(v.NormSquared()) }

// IsValid reports whether every component is finite (no NaN/Inf).
func (v Vec3) IsValid() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// Unit returns v scaled to unit length, or the zero vector if v is (near) zero.
func (v Vec3) Unit() Vec3 {
	n := v.Norm()
	if n < 1e-300 {
		return Vec3{}
	}
	return v.Scale(1.0 / n)
}

// WrapPeriodic wraps each component of v into [0, box) under periodic
// boundary conditions.
func WrapPeriodic(v Vec3, box Vec3) Vec3 {
	return Vec3{
		wrapOne(v.X, box.X),
		wrapOne(v.Y, box.Y),
		wrapOne(v.Z, box.Z),
	}
}

func wrapOne(x, l float64) float64 {
	if l <= 0 {
		return x
	}
	r := math.Mod(x, l)
	if r < 0 {
		r += l
	}
	return r
}

// MinimumImage returns the displacement d adjusted by periodic images of
// box so that each component lies within [-box/2, box/2].
func MinimumImage(d, box Vec3) Vec3 {
	return Vec3{
		minImageOne(d.X, box.X),
		minImageOne(d.Y, box.Y),
		minImageOne(d.Z, box.Z),
	}
}

func minImageOne(dx, l float64) float64 {
	if l <= 0 {
		return dx
	}
	for dx > l/2 {
		dx -= l
	}
	for dx < -l/2 {
		dx += l
	}
	return dx
}
