package metrics

import "github.com/mikesoehner/ls1-mardyn/internal/mdcore"

// PotentialEnergy reports the running average of Accumulators.
// PotentialEnergy() across observed steps.
type PotentialEnergy struct {
	name    string
	sum     float64
	samples int
}

func NewPotentialEnergy() *PotentialEnergy {
	return &PotentialEnergy{name: "potential_energy"}
}

func (p *PotentialEnergy) Name() string { return p.name }

func (p *PotentialEnergy) Observe(acc mdcore.Accumulators, _ []*mdcore.Molecule, _ *mdcore.ComponentTable, _ float64) {
	p.sum += acc.PotentialEnergy()
	p.samples++
}

func (p *PotentialEnergy) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return p.sum / float64(p.samples)
}

func (p *PotentialEnergy) Reset() {
	p.sum = 0
	p.samples = 0
}

// Virial reports the running average of Accumulators.TotalVirial(), used
// for pressure diagnostics alongside Temperature.
type Virial struct {
	name    string
	sum     float64
	samples int
}

func NewVirial() *Virial {
	return &Virial{name: "virial"}
}

func (v *Virial) Name() string { return v.name }

func (v *Virial) Observe(acc mdcore.Accumulators, _ []*mdcore.Molecule, _ *mdcore.ComponentTable, _ float64) {
	v.sum += acc.TotalVirial()
	v.samples++
}

func (v *Virial) Value() float64 {
	if v.samples == 0 {
		return 0
	}
	return v.sum / float64(v.samples)
}

func (v *Virial) Reset() {
	v.sum = 0
	v.samples = 0
}
