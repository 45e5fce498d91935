package mdcore

import "github.com/mikesoehner/ls1-mardyn/internal/vecmath"

// Molecule is one rigid multi-site body: identity plus the integration
// state spec.md's data model names (r, v, q, D), plus world-frame caches
// rebuilt once per step after the integrator moves it.
type Molecule struct {
	ID             uint64
	ComponentIndex uint16

	R vecmath.Vec3 // centre-of-mass position
	V vecmath.Vec3 // centre-of-mass velocity
	Q vecmath.Quaternion
	D vecmath.Vec3 // angular momentum

	// Force/torque accumulated on the centre of mass this step, reset at
	// the start of force accumulation and written only by the integrator
	// and the force-accumulation phase, per spec.md's Molecule lifecycle.
	F vecmath.Vec3
	Tau vecmath.Vec3

	// Ghost marks a copy received into a neighbour's halo: it carries no
	// integration state and is discarded every exchange (spec.md 3's
	// invariants).
	Ghost bool
}

// Component resolves this molecule's static component definition.
func (m *Molecule) Component(table *ComponentTable) *Component {
	return table.Components[m.ComponentIndex]
}

// WorldLJSites returns the world-frame positions of every LJ site, rotating
// each body-frame offset by the molecule's orientation and translating by
// its centre of mass. Called once per step during cache rebuild (spec.md
// 4.4 step 3), never during the kernel's inner loop.
func (m *Molecule) WorldLJSites(c *Component) []vecmath.Vec3 {
	out := make([]vecmath.Vec3, len(c.LJSites))
	for i, s := range c.LJSites {
		out[i] = m.R.Add(m.Q.Rotate(s.Offset))
	}
	return out
}

func (m *Molecule) WorldCharges(c *Component) []vecmath.Vec3 {
	out := make([]vecmath.Vec3, len(c.Charges))
	for i, s := range c.Charges {
		out[i] = m.R.Add(m.Q.Rotate(s.Offset))
	}
	return out
}

// WorldDipoles returns both the world-frame site position and the
// world-frame orientation axis for each dipole site.
func (m *Molecule) WorldDipoles(c *Component) (positions, axes []vecmath.Vec3) {
	positions = make([]vecmath.Vec3, len(c.Dipoles))
	axes = make([]vecmath.Vec3, len(c.Dipoles))
	for i, s := range c.Dipoles {
		positions[i] = m.R.Add(m.Q.Rotate(s.Offset))
		axes[i] = m.Q.Rotate(s.Axis)
	}
	return
}

func (m *Molecule) WorldQuadrupoles(c *Component) (positions, axes []vecmath.Vec3) {
	positions = make([]vecmath.Vec3, len(c.Quadrupoles))
	axes = make([]vecmath.Vec3, len(c.Quadrupoles))
	for i, s := range c.Quadrupoles {
		positions[i] = m.R.Add(m.Q.Rotate(s.Offset))
		axes[i] = m.Q.Rotate(s.Axis)
	}
	return
}

// ResetForces zeroes the per-step accumulators; called at the start of
// force accumulation.
func (m *Molecule) ResetForces() {
	m.F = vecmath.Vec3{}
	m.Tau = vecmath.Vec3{}
}

// IsValid reports whether the molecule's dynamic state is free of NaN/Inf,
// the invariant checked at postprocessCell per spec.md section 7.
func (m *Molecule) IsValid() bool {
	return m.R.IsValid() && m.V.IsValid() && m.D.IsValid() &&
		m.F.IsValid() && m.Tau.IsValid()
}
