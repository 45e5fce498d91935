package vecmath

import (
	"math"
	"testing"
)

func TestVec3Basics(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}

	if got := a.Add(b); got != (Vec3{5, 7, 9}) {
		t.Errorf("Add: got %v", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Errorf("Dot: got %v, want 32", got)
	}
	if got := a.Cross(b); got != (Vec3{-3, 6, -3}) {
		t.Errorf("Cross: got %v", got)
	}
}

func TestVec3IsValidRejectsNaN(t *testing.T) {
	v := Vec3{math.NaN(), 0, 0}
	if v.IsValid() {
		t.Error("expected NaN vector to be invalid")
	}
}

func TestMinimumImageWrapsToHalfBox(t *testing.T) {
	box := Vec3{10, 10, 10}
	d := Vec3{9, 0, 0}
	got := MinimumImage(d, box)
	if math.Abs(got.X-(-1)) > 1e-12 {
		t.Errorf("expected minimum image x=-1, got %v", got.X)
	}
}

func TestQuaternionRotateIdentity(t *testing.T) {
	v := Vec3{1, 2, 3}
	got := IdentityQuaternion.Rotate(v)
	if got != v {
		t.Errorf("identity rotation changed vector: got %v want %v", got, v)
	}
}

func TestQuaternionRotatePreservesNorm(t *testing.T) {
	q := Quaternion{0.7071067811865476, 0.7071067811865476, 0, 0} // 90deg about x
	v := Vec3{1, 0, 0}
	got := q.Rotate(v)
	if math.Abs(got.Norm()-v.Norm()) > 1e-9 {
		t.Errorf("rotation changed vector norm: got %v want %v", got.Norm(), v.Norm())
	}
}

func TestIntegrateQuaternionStaysUnit(t *testing.T) {
	q := IdentityQuaternion
	omega := Vec3{0.1, 0.2, -0.05}
	for i := 0; i < 1000; i++ {
		q = IntegrateQuaternion(q, omega, 0.001)
	}
	if math.Abs(q.Norm()-1) > 1e-9 {
		t.Errorf("quaternion drifted from unit norm: %v", q.Norm())
	}
}
