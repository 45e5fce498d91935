package metrics

import "github.com/mikesoehner/ls1-mardyn/internal/mdcore"

// Temperature reports the running average instantaneous kinetic
// temperature 2*KE/dof, following the teacher's Energy metric's
// running-average Value() shape (energy.go's totalEnergy/samples) rather
// than reporting only the latest sample.
type Temperature struct {
	name    string
	sum     float64
	samples int
}

func NewTemperature() *Temperature {
	return &Temperature{name: "temperature"}
}

func (t *Temperature) Name() string { return t.name }

func (t *Temperature) Observe(acc mdcore.Accumulators, molecules []*mdcore.Molecule, table *mdcore.ComponentTable, tm float64) {
	ke, dof := mdcore.KineticEnergyAndDOF(molecules, table)
	if dof <= 0 {
		return
	}
	t.sum += 2 * ke / dof
	t.samples++
}

func (t *Temperature) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return t.sum / float64(t.samples)
}

func (t *Temperature) Reset() {
	t.sum = 0
	t.samples = 0
}
