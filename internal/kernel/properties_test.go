package kernel_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mikesoehner/ls1-mardyn/internal/cellsoa"
	"github.com/mikesoehner/ls1-mardyn/internal/kernel"
	"github.com/mikesoehner/ls1-mardyn/internal/mdcore"
	"github.com/mikesoehner/ls1-mardyn/internal/vecmath"
)

const testCutoff = 2.5

// waterLikeComponent exercises the LJ, charge-charge and charge-dipole
// cross-terms in one pass, the same site mix as the water-spce preset in
// internal/config/presets.go, so a single pair covers most of the kernel's
// term dispatch.
func waterLikeComponent() *mdcore.Component {
	return &mdcore.Component{
		ID:   0,
		Name: "test-water",
		LJSites: []mdcore.LJSite{
			{Offset: vecmath.Vec3{Z: 0.05}, Epsilon: 1.0, Sigma: 1.0, TypeID: 0},
		},
		Charges: []mdcore.ChargeSite{
			{Offset: vecmath.Vec3{X: 0.05}, Q: 0.4},
			{Offset: vecmath.Vec3{X: -0.05}, Q: -0.4},
		},
		Dipoles: []mdcore.DipoleSite{
			{Offset: vecmath.Vec3{Y: 0.05}, Moment: 0.3, Axis: vecmath.Vec3{Z: 1}},
		},
		Mass:             18,
		PrincipalInertia: vecmath.Vec3{X: 1, Y: 1, Z: 1},
	}
}

func newPair(component *mdcore.Component, r0, r1 vecmath.Vec3, q0, q1 vecmath.Quaternion) (*mdcore.Molecule, *mdcore.Molecule, *mdcore.ComponentTable) {
	table := mdcore.NewComponentTable([]*mdcore.Component{component}, testCutoff)
	m0 := &mdcore.Molecule{ID: 1, R: r0, Q: q0}
	m1 := &mdcore.Molecule{ID: 2, R: r1, Q: q1}
	return m0, m1, table
}

// runPair builds a single-cell CellSoA from the two molecules, runs the
// intra-cell pair pass (spec.md 4.2's ProcessCell lifecycle), and scatters
// forces/torques back onto the molecules.
func runPair(m0, m1 *mdcore.Molecule, table *mdcore.ComponentTable) mdcore.Accumulators {
	soa := cellsoa.Build([]*mdcore.Molecule{m0, m1}, table, cellsoa.Scalar)
	p := kernel.New(kernel.Config{Table: table, CutoffSq: testCutoff * testCutoff})
	p.InitTraversal()
	p.ProcessCell(soa)
	acc := p.EndTraversal()
	soa.ScatterForces()
	return acc
}

func axisAngleQuaternion(axis vecmath.Vec3, theta float64) vecmath.Quaternion {
	axis = axis.Unit()
	half := theta / 2
	s := math.Sin(half)
	return vecmath.Quaternion{W: math.Cos(half), X: axis.X * s, Y: axis.Y * s, Z: axis.Z * s}
}

var _ = Describe("Newton's third law", func() {
	It("cancels the force added to each site pair, so the pair's total force sums to zero", func() {
		comp := waterLikeComponent()
		m0, m1, table := newPair(comp,
			vecmath.Vec3{X: 0, Y: 0, Z: 0}, vecmath.Vec3{X: 1.2, Y: 0, Z: 0},
			vecmath.IdentityQuaternion, vecmath.IdentityQuaternion)

		runPair(m0, m1, table)

		Expect(m0.F.X + m1.F.X).To(BeNumerically("~", 0, 1e-9))
		Expect(m0.F.Y + m1.F.Y).To(BeNumerically("~", 0, 1e-9))
		Expect(m0.F.Z + m1.F.Z).To(BeNumerically("~", 0, 1e-9))
	})
})

var _ = Describe("Padding safety", func() {
	It("leaves energy and forces unchanged when padding slots hold numeric garbage", func() {
		comp := waterLikeComponent()
		m0, m1, table := newPair(comp,
			vecmath.Vec3{X: 0, Y: 0, Z: 0}, vecmath.Vec3{X: 1.2, Y: 0, Z: 0},
			vecmath.IdentityQuaternion, vecmath.IdentityQuaternion)

		soa := cellsoa.Build([]*mdcore.Molecule{m0, m1}, table, cellsoa.Width4)
		clean := kernel.New(kernel.Config{Table: table, CutoffSq: testCutoff * testCutoff})
		clean.InitTraversal()
		clean.ProcessCell(soa)
		wantAcc := clean.EndTraversal()
		soa.ScatterForces()
		wantF0, wantF1 := m0.F, m1.F

		m0.F, m1.F = vecmath.Vec3{}, vecmath.Vec3{}
		soaDirty := cellsoa.Build([]*mdcore.Molecule{m0, m1}, table, cellsoa.Width4)
		poisonPadding(soaDirty.LJ)
		poisonPadding(soaDirty.Charge)
		poisonPadding(soaDirty.Dipole)
		poisonPadding(soaDirty.Quadrupole)

		dirty := kernel.New(kernel.Config{Table: table, CutoffSq: testCutoff * testCutoff})
		dirty.InitTraversal()
		dirty.ProcessCell(soaDirty)
		gotAcc := dirty.EndTraversal()
		soaDirty.ScatterForces()

		Expect(gotAcc.SixULJ).To(BeNumerically("~", wantAcc.SixULJ, 1e-9))
		Expect(gotAcc.UXpoles).To(BeNumerically("~", wantAcc.UXpoles, 1e-9))
		Expect(m0.F.X).To(BeNumerically("~", wantF0.X, 1e-9))
		Expect(m0.F.Y).To(BeNumerically("~", wantF0.Y, 1e-9))
		Expect(m0.F.Z).To(BeNumerically("~", wantF0.Z, 1e-9))
		Expect(m1.F.X).To(BeNumerically("~", wantF1.X, 1e-9))
		Expect(m1.F.Y).To(BeNumerically("~", wantF1.Y, 1e-9))
		Expect(m1.F.Z).To(BeNumerically("~", wantF1.Z, 1e-9))
	})
})

// poisonPadding fills every slot beyond a SiteArrays' real Count with large
// nonzero numeric garbage, leaving Count itself untouched. If the kernel's
// molecule-indexed loops ever strayed past a molecule's own site slice into
// padding, this would corrupt the energy/force totals.
func poisonPadding(arr *cellsoa.SiteArrays) {
	for i := arr.Count; i < len(arr.PosX); i++ {
		arr.PosX[i], arr.PosY[i], arr.PosZ[i] = 1e6, -1e6, 1e6
		arr.MolX[i], arr.MolY[i], arr.MolZ[i] = 1e6, 1e6, -1e6
		arr.Param[i] = 1e6
		arr.AxisX[i], arr.AxisY[i], arr.AxisZ[i] = 1, 1, 1
		arr.TypeID[i] = 99
	}
}

var _ = Describe("Translation invariance", func() {
	It("leaves energy, virial and forces unchanged under a common shift", func() {
		comp := waterLikeComponent()
		shift := vecmath.Vec3{X: 3.7, Y: -1.4, Z: 0.9}

		m0, m1, table := newPair(comp,
			vecmath.Vec3{X: 0, Y: 0, Z: 0}, vecmath.Vec3{X: 1.2, Y: 0.3, Z: -0.2},
			vecmath.IdentityQuaternion, axisAngleQuaternion(vecmath.Vec3{Y: 1}, 0.4))
		baseAcc := runPair(m0, m1, table)
		baseF0, baseF1 := m0.F, m1.F

		s0, s1, table2 := newPair(comp,
			vecmath.Vec3{X: 0, Y: 0, Z: 0}.Add(shift),
			vecmath.Vec3{X: 1.2, Y: 0.3, Z: -0.2}.Add(shift),
			vecmath.IdentityQuaternion, axisAngleQuaternion(vecmath.Vec3{Y: 1}, 0.4))
		shiftedAcc := runPair(s0, s1, table2)

		Expect(shiftedAcc.SixULJ).To(BeNumerically("~", baseAcc.SixULJ, 1e-9))
		Expect(shiftedAcc.UXpoles).To(BeNumerically("~", baseAcc.UXpoles, 1e-9))
		Expect(shiftedAcc.Virial).To(BeNumerically("~", baseAcc.Virial, 1e-9))
		Expect(s0.F.X).To(BeNumerically("~", baseF0.X, 1e-9))
		Expect(s0.F.Y).To(BeNumerically("~", baseF0.Y, 1e-9))
		Expect(s0.F.Z).To(BeNumerically("~", baseF0.Z, 1e-9))
		Expect(s1.F.X).To(BeNumerically("~", baseF1.X, 1e-9))
		Expect(s1.F.Y).To(BeNumerically("~", baseF1.Y, 1e-9))
		Expect(s1.F.Z).To(BeNumerically("~", baseF1.Z, 1e-9))
	})
})

var _ = Describe("Rotation invariance", func() {
	It("rotates every force by the same rotation and leaves energy/virial unchanged", func() {
		comp := waterLikeComponent()
		rot := axisAngleQuaternion(vecmath.Vec3{X: 0.3, Y: 0.7, Z: 0.2}, 1.1)

		r0 := vecmath.Vec3{X: 0, Y: 0, Z: 0}
		r1 := vecmath.Vec3{X: 1.2, Y: 0.3, Z: -0.2}
		q0 := vecmath.IdentityQuaternion
		q1 := axisAngleQuaternion(vecmath.Vec3{Y: 1}, 0.4)

		m0, m1, table := newPair(comp, r0, r1, q0, q1)
		baseAcc := runPair(m0, m1, table)
		baseF0, baseF1 := m0.F, m1.F

		rr0, rr1, table2 := newPair(comp, rot.Rotate(r0), rot.Rotate(r1), rot.Mul(q0), rot.Mul(q1))
		rotAcc := runPair(rr0, rr1, table2)

		Expect(rotAcc.SixULJ).To(BeNumerically("~", baseAcc.SixULJ, 1e-9))
		Expect(rotAcc.UXpoles).To(BeNumerically("~", baseAcc.UXpoles, 1e-9))
		Expect(rotAcc.Virial).To(BeNumerically("~", baseAcc.Virial, 1e-6))

		wantF0 := rot.Rotate(baseF0)
		wantF1 := rot.Rotate(baseF1)
		Expect(rr0.F.X).To(BeNumerically("~", wantF0.X, 1e-6))
		Expect(rr0.F.Y).To(BeNumerically("~", wantF0.Y, 1e-6))
		Expect(rr0.F.Z).To(BeNumerically("~", wantF0.Z, 1e-6))
		Expect(rr1.F.X).To(BeNumerically("~", wantF1.X, 1e-6))
		Expect(rr1.F.Y).To(BeNumerically("~", wantF1.Y, 1e-6))
		Expect(rr1.F.Z).To(BeNumerically("~", wantF1.Z, 1e-6))
	})
})
