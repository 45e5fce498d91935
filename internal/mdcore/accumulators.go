package mdcore

import "github.com/mikesoehner/ls1-mardyn/internal/vecmath"

// Accumulators holds the macroscopic sums a traversal produces, following
// spec.md 4.2's end-of-traversal reduction: U_LJ/6, U_xpoles, virial, and
// the reaction-field self-energy sum myRF. One Accumulators lives per
// rank; DomainDecomp's collective phase sums them across ranks.
type Accumulators struct {
	SixULJ    float64 // running sum of 6*U_LJ; divided by 6 at finalize
	UXpoles   float64
	Virial    float64
	MyRF      float64
}

func (a *Accumulators) Reset() { *a = Accumulators{} }

func (a *Accumulators) Add(other Accumulators) {
	a.SixULJ += other.SixULJ
	a.UXpoles += other.UXpoles
	a.Virial += other.Virial
	a.MyRF += other.MyRF
}

// PotentialEnergy returns U_LJ/6 + U_xpoles + myRF, spec.md 4.2's finalized
// potential energy term.
func (a *Accumulators) PotentialEnergy() float64 {
	return a.SixULJ/6.0 + a.UXpoles + a.MyRF
}

// TotalVirial returns virial + 3*myRF, spec.md 4.2's finalized virial term.
func (a *Accumulators) TotalVirial() float64 {
	return a.Virial + 3*a.MyRF
}

// KineticEnergyAndDOF sums translational and rotational kinetic energy
// across every non-ghost molecule and the corresponding reduced degrees of
// freedom (3N-3 translational, plus one rotational DOF per nonzero
// principal moment of inertia), the two quantities both the thermostat
// (internal/simloop) and the Temperature metric (internal/metrics) need.
func KineticEnergyAndDOF(molecules []*Molecule, table *ComponentTable) (ke, dof float64) {
	n := 0
	for _, m := range molecules {
		if m.Ghost {
			continue
		}
		n++
		comp := m.Component(table)
		ke += 0.5 * comp.Mass * m.V.NormSquared()

		omega := vecmath.AngularVelocityFromMomentum(m.D, comp.PrincipalInertia)
		ke += 0.5 * omega.Dot(m.D)

		for _, inertia := range [3]float64{comp.PrincipalInertia.X, comp.PrincipalInertia.Y, comp.PrincipalInertia.Z} {
			if inertia > 0 {
				dof++
			}
		}
	}
	if n > 1 {
		dof += 3*float64(n) - 3
	}
	return
}
