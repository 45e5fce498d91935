package mirror

import (
	"testing"

	"github.com/mikesoehner/ls1-mardyn/internal/mdcore"
	"github.com/mikesoehner/ls1-mardyn/internal/vecmath"
)

func TestReflectiveFlipsNormalVelocity(t *testing.T) {
	mr := New(Reflective, 1, 10.0, true, 1)
	m := &mdcore.Molecule{R: vecmath.Vec3{Y: 11}, V: vecmath.Vec3{Y: 2}}

	mr.Apply([]*mdcore.Molecule{m})

	if m.V.Y != -2 {
		t.Errorf("expected Vy -2, got %v", m.V.Y)
	}
}

func TestReflectiveIgnoresMoleculesBeforePlane(t *testing.T) {
	mr := New(Reflective, 1, 10.0, true, 1)
	m := &mdcore.Molecule{R: vecmath.Vec3{Y: 5}, V: vecmath.Vec3{Y: 2}}

	mr.Apply([]*mdcore.Molecule{m})

	if m.V.Y != 2 {
		t.Errorf("expected untouched Vy 2, got %v", m.V.Y)
	}
}

func TestReflectiveSkipsGhosts(t *testing.T) {
	mr := New(Reflective, 1, 10.0, true, 1)
	m := &mdcore.Molecule{R: vecmath.Vec3{Y: 11}, V: vecmath.Vec3{Y: 2}, Ghost: true}

	mr.Apply([]*mdcore.Molecule{m})

	if m.V.Y != 2 {
		t.Errorf("expected ghost to be skipped, got Vy %v", m.V.Y)
	}
}

func TestRampingAddsRestoringForce(t *testing.T) {
	mr := New(Ramping, 1, 10.0, true, 1)
	mr.ForceConstant = 2.0
	m := &mdcore.Molecule{R: vecmath.Vec3{Y: 12}}

	mr.Apply([]*mdcore.Molecule{m})

	if m.F.Y >= 0 {
		t.Errorf("expected negative restoring force, got %v", m.F.Y)
	}
}

func TestMelandReflectsWithoutProbabilityWeighting(t *testing.T) {
	mr := New(MelandProbabilistic, 1, 10.0, true, 1)
	mr.VelocityTarget = 0
	mr.UseProbability = false
	m := &mdcore.Molecule{R: vecmath.Vec3{Y: 11}, V: vecmath.Vec3{Y: 3}}

	mr.Apply([]*mdcore.Molecule{m})

	if m.V.Y != -3 {
		t.Errorf("expected Vy -3, got %v", m.V.Y)
	}
}
