// Package metrics implements the running diagnostics testable property 5
// (NVE energy conservation) and SPEC_FULL.md's ambient observability stack
// draw on: temperature, potential energy, virial, and energy drift, each
// sampled once per completed SimulationLoop.Step.
//
// The teacher's own internal/metrics package used a uniform
// Name()/Observe(x, u, t)/Value()/Reset() shape across control_effort.go,
// energy.go, and stability.go, closing over dynamo.State/dynamo.Control —
// a flat-vector abstraction with no honest analogue in rigid-body MD. That
// shape survives here (every Observer still exposes Name/Observe/Value/
// Reset); what closes over the flat state vector is rewritten to close
// over mdcore.Accumulators and a molecule slice instead.
package metrics

import "github.com/mikesoehner/ls1-mardyn/internal/mdcore"

// Observer is the common shape every metric in this package implements,
// following the teacher's Name/Observe/Value/Reset interface.
type Observer interface {
	Name() string
	Observe(acc mdcore.Accumulators, molecules []*mdcore.Molecule, table *mdcore.ComponentTable, t float64)
	Value() float64
	Reset()
}
