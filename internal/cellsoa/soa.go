package cellsoa

import (
	"github.com/mikesoehner/ls1-mardyn/internal/mdcore"
	"github.com/mikesoehner/ls1-mardyn/internal/vecmath"
)

// SiteArrays is the structure-of-arrays buffer for one site class (LJ,
// charge, dipole, or quadrupole) within a CellSoA, per spec.md 3. Every
// slice is padded to Count's ceiling-to-SIMD-width; padding slots have
// every numeric field zero so they neither trigger the cutoff nor produce
// NaN in vector operations.
type SiteArrays struct {
	Count int // real (unpadded) site count

	PosX, PosY, PosZ []float64 // site world position
	MolX, MolY, MolZ []float64 // parent molecule position, duplicated for vectorization

	ForceX, ForceY, ForceZ    []float64
	TorqueX, TorqueY, TorqueZ []float64

	// Param is the site's scalar strength: charge q, |mu|, or |Q|. Unused
	// (zero) for LJ sites, which instead use TypeID.
	Param []float64

	// AxisX/Y/Z is the world-frame orientation axis, used by dipole and
	// quadrupole sites only; zero (and harmless) for LJ/charge sites.
	AxisX, AxisY, AxisZ []float64

	// TypeID is the LJ site-type id used for pair-table lookup; unused by
	// the other site classes.
	TypeID []int

	// MoleculeIndex maps a site slot back to its molecule's index within
	// the owning CellSoA's molecule arrays, for force/torque scatter-back
	// in postprocess.
	MoleculeIndex []int

	// Mask is the scratch "within-cutoff" lookup for the j-molecule loop,
	// sized and zero-padded exactly like the other arrays.
	Mask []float64
}

func newSiteArrays(n, width int) *SiteArrays {
	padded := CeilToWidth(n, width)
	return &SiteArrays{
		Count:         n,
		PosX:          make([]float64, padded),
		PosY:          make([]float64, padded),
		PosZ:          make([]float64, padded),
		MolX:          make([]float64, padded),
		MolY:          make([]float64, padded),
		MolZ:          make([]float64, padded),
		ForceX:        make([]float64, padded),
		ForceY:        make([]float64, padded),
		ForceZ:        make([]float64, padded),
		TorqueX:       make([]float64, padded),
		TorqueY:       make([]float64, padded),
		TorqueZ:       make([]float64, padded),
		Param:         make([]float64, padded),
		AxisX:         make([]float64, padded),
		AxisY:         make([]float64, padded),
		AxisZ:         make([]float64, padded),
		TypeID:        make([]int, padded),
		MoleculeIndex: make([]int, padded),
		Mask:          make([]float64, padded),
	}
}

// ResetAccumulators zeroes force/torque for every real and padding slot.
func (s *SiteArrays) ResetAccumulators() {
	for i := range s.ForceX {
		s.ForceX[i], s.ForceY[i], s.ForceZ[i] = 0, 0, 0
		s.TorqueX[i], s.TorqueY[i], s.TorqueZ[i] = 0, 0, 0
	}
}

// CellSoA is the one-per-non-empty-cell buffer spec.md 3 defines: molecule
// centre-of-mass arrays plus one SiteArrays per interaction site class.
type CellSoA struct {
	Width int

	MolCount int
	MolX, MolY, MolZ []float64 // padded to Width, centre of mass
	Molecules        []*mdcore.Molecule // non-owning back-reference, unpadded

	LJ         *SiteArrays
	Charge     *SiteArrays
	Dipole     *SiteArrays
	Quadrupole *SiteArrays

	// MolXxxStart/Count locate each molecule's contiguous slice within a
	// site class's arrays (Build fills every class in molecule order, so
	// the slice is always contiguous). Consumed by internal/kernel's
	// molecule-pair loop.
	MolLJStart, MolLJCount             []int
	MolChargeStart, MolChargeCount     []int
	MolDipoleStart, MolDipoleCount     []int
	MolQuadrupoleStart, MolQuadrupoleCount []int
}

// Build constructs a CellSoA from a cell's molecule list, copying
// world-frame site positions (already cached on each Molecule by the
// cache-rebuild step) and zeroing accumulators, per spec.md 4.2's
// preprocess(cell) lifecycle step.
func Build(molecules []*mdcore.Molecule, table *mdcore.ComponentTable, backend Backend) *CellSoA {
	width := backend.Width()
	n := len(molecules)
	padded := CeilToWidth(n, width)

	soa := &CellSoA{
		Width:     width,
		MolCount:  n,
		MolX:      make([]float64, padded),
		MolY:      make([]float64, padded),
		MolZ:      make([]float64, padded),
		Molecules: molecules,
	}

	var nLJ, nQ, nMu, nQuad int
	for _, m := range molecules {
		c := m.Component(table)
		nLJ += c.NumLJSites()
		nQ += c.NumCharges()
		nMu += c.NumDipoles()
		nQuad += c.NumQuadrupoles()
	}

	soa.LJ = newSiteArrays(nLJ, width)
	soa.Charge = newSiteArrays(nQ, width)
	soa.Dipole = newSiteArrays(nMu, width)
	soa.Quadrupole = newSiteArrays(nQuad, width)

	n4 := len(molecules)
	soa.MolLJStart, soa.MolLJCount = make([]int, n4), make([]int, n4)
	soa.MolChargeStart, soa.MolChargeCount = make([]int, n4), make([]int, n4)
	soa.MolDipoleStart, soa.MolDipoleCount = make([]int, n4), make([]int, n4)
	soa.MolQuadrupoleStart, soa.MolQuadrupoleCount = make([]int, n4), make([]int, n4)

	ljIdx, qIdx, muIdx, quadIdx := 0, 0, 0, 0
	for molIdx, m := range molecules {
		soa.MolX[molIdx] = m.R.X
		soa.MolY[molIdx] = m.R.Y
		soa.MolZ[molIdx] = m.R.Z

		c := m.Component(table)

		ljSites := m.WorldLJSites(c)
		soa.MolLJStart[molIdx] = ljIdx
		soa.MolLJCount[molIdx] = len(ljSites)
		for i, pos := range ljSites {
			fillSite(soa.LJ, ljIdx, pos, m.R, 0, vecmath.Vec3{}, c.LJSites[i].TypeID, molIdx)
			ljIdx++
		}

		chgSites := m.WorldCharges(c)
		soa.MolChargeStart[molIdx] = qIdx
		soa.MolChargeCount[molIdx] = len(chgSites)
		for i, pos := range chgSites {
			fillSite(soa.Charge, qIdx, pos, m.R, c.Charges[i].Q, vecmath.Vec3{}, 0, molIdx)
			qIdx++
		}

		dipolePos, dipoleAxis := m.WorldDipoles(c)
		soa.MolDipoleStart[molIdx] = muIdx
		soa.MolDipoleCount[molIdx] = len(dipolePos)
		for i, pos := range dipolePos {
			fillSite(soa.Dipole, muIdx, pos, m.R, c.Dipoles[i].Moment, dipoleAxis[i], 0, molIdx)
			muIdx++
		}

		quadPos, quadAxis := m.WorldQuadrupoles(c)
		soa.MolQuadrupoleStart[molIdx] = quadIdx
		soa.MolQuadrupoleCount[molIdx] = len(quadPos)
		for i, pos := range quadPos {
			fillSite(soa.Quadrupole, quadIdx, pos, m.R, c.Quadrupoles[i].Moment, quadAxis[i], 0, molIdx)
			quadIdx++
		}
	}

	return soa
}

func fillSite(arr *SiteArrays, idx int, pos, mol vecmath.Vec3, param float64, axis vecmath.Vec3, typeID, molIdx int) {
	arr.PosX[idx], arr.PosY[idx], arr.PosZ[idx] = pos.X, pos.Y, pos.Z
	arr.MolX[idx], arr.MolY[idx], arr.MolZ[idx] = mol.X, mol.Y, mol.Z
	arr.Param[idx] = param
	arr.AxisX[idx], arr.AxisY[idx], arr.AxisZ[idx] = axis.X, axis.Y, axis.Z
	arr.TypeID[idx] = typeID
	arr.MoleculeIndex[idx] = molIdx
}

// ScatterForces adds every real site's accumulated force/torque back onto
// its owning Molecule, spec.md 4.2's postprocess(cell) step. Torque about
// the site is converted to torque about the molecule's centre of mass by
// adding the lever-arm cross product.
func (soa *CellSoA) ScatterForces() {
	scatterOne(soa.LJ, soa.Molecules)
	scatterOne(soa.Charge, soa.Molecules)
	scatterOne(soa.Dipole, soa.Molecules)
	scatterOne(soa.Quadrupole, soa.Molecules)
}

func scatterOne(arr *SiteArrays, molecules []*mdcore.Molecule) {
	for i := 0; i < arr.Count; i++ {
		m := molecules[arr.MoleculeIndex[i]]
		rx := arr.PosX[i] - arr.MolX[i]
		ry := arr.PosY[i] - arr.MolY[i]
		rz := arr.PosZ[i] - arr.MolZ[i]
		fx, fy, fz := arr.ForceX[i], arr.ForceY[i], arr.ForceZ[i]

		m.F.X += fx
		m.F.Y += fy
		m.F.Z += fz

		// torque about centre of mass = r x F + site's own torque
		m.Tau.X += ry*fz - rz*fy + arr.TorqueX[i]
		m.Tau.Y += rz*fx - rx*fz + arr.TorqueY[i]
		m.Tau.Z += rx*fy - ry*fx + arr.TorqueZ[i]
	}
}

// ResetAccumulators zeroes force/torque on every site class, including
// padding slots, per spec.md 4.2 initTraversal / per-cell preprocess.
func (soa *CellSoA) ResetAccumulators() {
	soa.LJ.ResetAccumulators()
	soa.Charge.ResetAccumulators()
	soa.Dipole.ResetAccumulators()
	soa.Quadrupole.ResetAccumulators()
}
