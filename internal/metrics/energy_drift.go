package metrics

import (
	"math"

	"github.com/mikesoehner/ls1-mardyn/internal/mdcore"
)

// EnergyDrift tracks the maximum relative drift of total energy
// (potential + kinetic) from its value at the first Observe call,
// testable property 5's NVE conservation check: |U(t)+K(t) - U(0)-K(0)|
// should grow sub-linearly and stay below a tolerance proportional to
// dt^2 over the run.
//
// Grounded on the teacher's energy.go EnergyDrift, which tracked the same
// max-relative-drift quantity against a dynamo.Hamiltonian's Energy(x);
// here the "Hamiltonian" is just Accumulators.PotentialEnergy() plus the
// molecule slice's kinetic energy, so no interface indirection is needed.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(acc mdcore.Accumulators, molecules []*mdcore.Molecule, table *mdcore.ComponentTable, _ float64) {
	ke, _ := mdcore.KineticEnergyAndDOF(molecules, table)
	total := acc.PotentialEnergy() + ke

	if e.samples == 0 {
		e.initialEnergy = total
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(total-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
