// Package kernel implements spec.md 4.2's CellPairProcessor: the vectorized
// pair kernel that consumes two internal/cellsoa.CellSoA buffers (or one,
// for the within-cell case) and accumulates forces, torques, and the
// macroscopic sums (U_LJ, U_xpoles, virial, myRF) across all six LJ and
// electrostatic cross-terms spec.md 2 lists.
//
// Grounded on the teacher's physics/nbody.go pairwise force loop and
// compute/cpu.go's cell-chunked traversal; the multipole gradient math
// (applyBiaxial) has no teacher analogue and is derived directly from the
// standard point-multipole potentials (see potentials.go).
package kernel

import (
	"github.com/mikesoehner/ls1-mardyn/internal/cellsoa"
	"github.com/mikesoehner/ls1-mardyn/internal/mdcore"
	"github.com/mikesoehner/ls1-mardyn/internal/vecmath"
)

// Config holds the parameters a traversal needs that don't change cell to
// cell: the resolved LJ pair table, the global cutoff, and the
// reaction-field prefactor spec.md 2's dipole-dipole term uses.
type Config struct {
	Table       *mdcore.ComponentTable
	CutoffSq    float64
	EpsRFFactor float64 // 2*(epsRF-1)/((2*epsRF+1)*cutoff^3), 0 disables RF
}

// CellPairProcessor is the traversal-scoped kernel state: one instance per
// worker, reset at initTraversal and drained at endTraversal per spec.md
// 4.2's processor lifecycle.
type CellPairProcessor struct {
	cfg       Config
	acc       mdcore.Accumulators
	calcMacro bool
}

func New(cfg Config) *CellPairProcessor {
	return &CellPairProcessor{cfg: cfg}
}

// InitTraversal resets the processor's running accumulators; called once
// per traversal before any ProcessCell/ProcessCellPair call.
func (p *CellPairProcessor) InitTraversal() {
	p.acc.Reset()
}

// EndTraversal returns the accumulated sums and is the last lifecycle call
// in a traversal.
func (p *CellPairProcessor) EndTraversal() mdcore.Accumulators {
	return p.acc
}

// ProcessCell computes all intra-cell molecule pairs (i<j within the same
// CellSoA), the self-interaction case spec.md 4.1's traversal visits once
// per cell.
func (p *CellPairProcessor) ProcessCell(cell *cellsoa.CellSoA) {
	p.calcMacro = true
	for i := 0; i < cell.MolCount; i++ {
		for j := i + 1; j < cell.MolCount; j++ {
			p.moleculePair(cell, i, cell, j)
		}
	}
}

// ProcessCellPair computes every molecule pair between two distinct cells,
// visited once per adjacent (or halo-owner) cell pair in a traversal.
// calcMacro selects spec.md 4.2's macroscopic bookkeeping rule for this
// pair (container.CalculateMacroscopic derives it from the two cells'
// kind and linear index): forces and torques always accumulate onto both
// sides' molecules regardless of calcMacro, since an owned molecule's
// total force must include every neighbour contribution, but U/virial/myRF
// only fold in when calcMacro is true, so a pair split across an owned
// cell and a halo cell contributes its energy on exactly one rank.
func (p *CellPairProcessor) ProcessCellPair(a, b *cellsoa.CellSoA, calcMacro bool) {
	p.calcMacro = calcMacro
	for i := 0; i < a.MolCount; i++ {
		for j := 0; j < b.MolCount; j++ {
			p.moleculePair(a, i, b, j)
		}
	}
}

func (p *CellPairProcessor) moleculePair(a *cellsoa.CellSoA, i int, b *cellsoa.CellSoA, j int) {
	dx := a.MolX[i] - b.MolX[j]
	dy := a.MolY[i] - b.MolY[j]
	dz := a.MolZ[i] - b.MolZ[j]
	r2 := dx*dx + dy*dy + dz*dz
	if r2 == 0 || r2 > p.cfg.CutoffSq {
		return
	}

	table := p.cfg.Table

	// LJ x LJ
	for si := 0; si < a.MolLJCount[i]; si++ {
		ia := a.MolLJStart[i] + si
		for sj := 0; sj < b.MolLJCount[j]; sj++ {
			jb := b.MolLJStart[j] + sj
			p.ljPair(a.LJ, ia, b.LJ, jb, table)
		}
	}

	// charge x charge
	for si := 0; si < a.MolChargeCount[i]; si++ {
		ia := a.MolChargeStart[i] + si
		for sj := 0; sj < b.MolChargeCount[j]; sj++ {
			jb := b.MolChargeStart[j] + sj
			p.chargeChargePair(a.Charge, ia, b.Charge, jb)
		}
	}

	// charge x dipole, both directions
	p.chargeOrientedCross(a.Charge, a.MolChargeStart[i], a.MolChargeCount[i],
		b.Dipole, b.MolDipoleStart[j], b.MolDipoleCount[j], chargeDipole)
	p.chargeOrientedCross(b.Charge, b.MolChargeStart[j], b.MolChargeCount[j],
		a.Dipole, a.MolDipoleStart[i], a.MolDipoleCount[i], chargeDipole)

	// charge x quadrupole, both directions
	p.chargeOrientedCross(a.Charge, a.MolChargeStart[i], a.MolChargeCount[i],
		b.Quadrupole, b.MolQuadrupoleStart[j], b.MolQuadrupoleCount[j], chargeQuadrupole)
	p.chargeOrientedCross(b.Charge, b.MolChargeStart[j], b.MolChargeCount[j],
		a.Quadrupole, a.MolQuadrupoleStart[i], a.MolQuadrupoleCount[i], chargeQuadrupole)

	// dipole x dipole
	for si := 0; si < a.MolDipoleCount[i]; si++ {
		ia := a.MolDipoleStart[i] + si
		for sj := 0; sj < b.MolDipoleCount[j]; sj++ {
			jb := b.MolDipoleStart[j] + sj
			p.dipoleDipolePair(a.Dipole, ia, b.Dipole, jb)
		}
	}

	// dipole x quadrupole, both directions
	p.orientedOrientedCross(a.Dipole, a.MolDipoleStart[i], a.MolDipoleCount[i],
		b.Quadrupole, b.MolQuadrupoleStart[j], b.MolQuadrupoleCount[j], dipoleQuadrupole)
	p.orientedOrientedCross(b.Dipole, b.MolDipoleStart[j], b.MolDipoleCount[j],
		a.Quadrupole, a.MolQuadrupoleStart[i], a.MolQuadrupoleCount[i], dipoleQuadrupole)

	// quadrupole x quadrupole
	for si := 0; si < a.MolQuadrupoleCount[i]; si++ {
		ia := a.MolQuadrupoleStart[i] + si
		for sj := 0; sj < b.MolQuadrupoleCount[j]; sj++ {
			jb := b.MolQuadrupoleStart[j] + sj
			p.quadQuadPair(a.Quadrupole, ia, b.Quadrupole, jb)
		}
	}
}

func (p *CellPairProcessor) ljPair(arrA *cellsoa.SiteArrays, ia int, arrB *cellsoa.SiteArrays, jb int, table *mdcore.ComponentTable) {
	params, ok := table.Pair(arrA.TypeID[ia], arrB.TypeID[jb])
	if !ok {
		return
	}
	dx := arrA.PosX[ia] - arrB.PosX[jb]
	dy := arrA.PosY[ia] - arrB.PosY[jb]
	dz := arrA.PosZ[ia] - arrB.PosZ[jb]
	r2 := dx*dx + dy*dy + dz*dz
	if r2 > params.CutoffSq {
		return
	}
	sixU, fCoeff := ljTerm(params.Eps24, params.SigmaSq, params.Shift6, r2)
	if p.calcMacro {
		p.acc.SixULJ += sixU
		p.acc.Virial += fCoeff * r2
	}

	fx, fy, fz := fCoeff*dx, fCoeff*dy, fCoeff*dz
	arrA.ForceX[ia] += fx
	arrA.ForceY[ia] += fy
	arrA.ForceZ[ia] += fz
	arrB.ForceX[jb] -= fx
	arrB.ForceY[jb] -= fy
	arrB.ForceZ[jb] -= fz
}

func (p *CellPairProcessor) chargeChargePair(arrA *cellsoa.SiteArrays, ia int, arrB *cellsoa.SiteArrays, jb int) {
	rij := vecmath.Vec3{X: arrA.PosX[ia] - arrB.PosX[jb], Y: arrA.PosY[ia] - arrB.PosY[jb], Z: arrA.PosZ[ia] - arrB.PosZ[jb]}
	r := rij.Norm()
	if r == 0 {
		return
	}
	t := chargeChargeTerm(arrA.Param[ia], arrB.Param[jb], r)
	fi, _, _ := applyBiaxial(rij, r, vecmath.Vec3{}, vecmath.Vec3{}, false, false, t)
	if p.calcMacro {
		p.acc.UXpoles += t.u
		p.acc.Virial += fi.Dot(rij)
	}
	addForce(arrA, ia, fi)
	addForce(arrB, jb, fi.Scale(-1))
}

type orientedTermFunc func(isotropicParam, orientedParam, r, cOriented float64) term

func chargeDipole(q, m, r, c float64) term     { return chargeDipoleTerm(q, m, r, c) }
func chargeQuadrupole(q, Q, r, c float64) term { return chargeQuadrupoleTerm(q, Q, r, c) }

// chargeOrientedCross applies fn between every charge site in [cStart,
// cStart+cCount) and every oriented (dipole or quadrupole) site in
// [oStart, oStart+oCount), with rij always pointing from the oriented
// site toward the isotropic site so the term functions' cosine
// convention (potentials.go) is unambiguous regardless of which physical
// molecule owns which site.
func (p *CellPairProcessor) chargeOrientedCross(chargeArr *cellsoa.SiteArrays, cStart, cCount int, orientedArr *cellsoa.SiteArrays, oStart, oCount int, fn orientedTermFunc) {
	for si := 0; si < cCount; si++ {
		ci := cStart + si
		for sj := 0; sj < oCount; sj++ {
			oj := oStart + sj
			rij := vecmath.Vec3{
				X: chargeArr.PosX[ci] - orientedArr.PosX[oj],
				Y: chargeArr.PosY[ci] - orientedArr.PosY[oj],
				Z: chargeArr.PosZ[ci] - orientedArr.PosZ[oj],
			}
			r := rij.Norm()
			if r == 0 {
				continue
			}
			axis := vecmath.Vec3{X: orientedArr.AxisX[oj], Y: orientedArr.AxisY[oj], Z: orientedArr.AxisZ[oj]}
			rhat := rij.Scale(1 / r)
			cj := axis.Dot(rhat)
			t := fn(chargeArr.Param[ci], orientedArr.Param[oj], r, cj)

			fi, _, tauJ := applyBiaxial(rij, r, vecmath.Vec3{}, axis, false, true, t)
			if p.calcMacro {
				p.acc.UXpoles += t.u
				p.acc.Virial += fi.Dot(rij)
			}
			addForce(chargeArr, ci, fi)
			addForce(orientedArr, oj, fi.Scale(-1))
			addTorque(orientedArr, oj, tauJ)
		}
	}
}

func (p *CellPairProcessor) dipoleDipolePair(arrA *cellsoa.SiteArrays, ia int, arrB *cellsoa.SiteArrays, jb int) {
	rij := vecmath.Vec3{X: arrA.PosX[ia] - arrB.PosX[jb], Y: arrA.PosY[ia] - arrB.PosY[jb], Z: arrA.PosZ[ia] - arrB.PosZ[jb]}
	r := rij.Norm()
	if r == 0 {
		return
	}
	ei := vecmath.Vec3{X: arrA.AxisX[ia], Y: arrA.AxisY[ia], Z: arrA.AxisZ[ia]}
	ej := vecmath.Vec3{X: arrB.AxisX[jb], Y: arrB.AxisY[jb], Z: arrB.AxisZ[jb]}
	rhat := rij.Scale(1 / r)
	ci := ei.Dot(rhat)
	cj := ej.Dot(rhat)
	cij := ei.Dot(ej)

	t := dipoleDipoleTerm(arrA.Param[ia], arrB.Param[jb], r, ci, cj, cij)
	fi, tauI, tauJ := applyBiaxial(rij, r, ei, ej, true, true, t)

	if p.calcMacro {
		p.acc.UXpoles += t.u
		p.acc.Virial += fi.Dot(rij)
	}

	if p.cfg.EpsRFFactor != 0 {
		rfDUdcij := p.cfg.EpsRFFactor * arrA.Param[ia] * arrB.Param[jb]
		if p.calcMacro {
			p.acc.MyRF += rfDUdcij * cij
		}
		tauI = tauI.Sub(ei.Cross(ej.Scale(rfDUdcij)))
		tauJ = tauJ.Sub(ej.Cross(ei.Scale(rfDUdcij)))
	}

	addForce(arrA, ia, fi)
	addForce(arrB, jb, fi.Scale(-1))
	addTorque(arrA, ia, tauI)
	addTorque(arrB, jb, tauJ)
}

type biorientedTermFunc func(mi, Qj, r, ci, cj, cij float64) term

func dipoleQuadrupole(mi, Qj, r, ci, cj, cij float64) term {
	return dipoleQuadrupoleTerm(mi, Qj, r, ci, cj, cij)
}

// orientedOrientedCross applies fn between every dipole site in [dStart,
// dStart+dCount) and every quadrupole site in [qStart, qStart+qCount),
// with rij pointing from the dipole site (the "i" role in fn) to the
// quadrupole site (the "j" role).
func (p *CellPairProcessor) orientedOrientedCross(dipoleArr *cellsoa.SiteArrays, dStart, dCount int, quadArr *cellsoa.SiteArrays, qStart, qCount int, fn biorientedTermFunc) {
	for si := 0; si < dCount; si++ {
		di := dStart + si
		for sj := 0; sj < qCount; sj++ {
			qj := qStart + sj
			rij := vecmath.Vec3{
				X: dipoleArr.PosX[di] - quadArr.PosX[qj],
				Y: dipoleArr.PosY[di] - quadArr.PosY[qj],
				Z: dipoleArr.PosZ[di] - quadArr.PosZ[qj],
			}
			r := rij.Norm()
			if r == 0 {
				continue
			}
			ei := vecmath.Vec3{X: dipoleArr.AxisX[di], Y: dipoleArr.AxisY[di], Z: dipoleArr.AxisZ[di]}
			ej := vecmath.Vec3{X: quadArr.AxisX[qj], Y: quadArr.AxisY[qj], Z: quadArr.AxisZ[qj]}
			rhat := rij.Scale(1 / r)
			ci := ei.Dot(rhat)
			cj := ej.Dot(rhat)
			cij := ei.Dot(ej)

			t := fn(dipoleArr.Param[di], quadArr.Param[qj], r, ci, cj, cij)
			fi, tauI, tauJ := applyBiaxial(rij, r, ei, ej, true, true, t)

			if p.calcMacro {
				p.acc.UXpoles += t.u
				p.acc.Virial += fi.Dot(rij)
			}
			addForce(dipoleArr, di, fi)
			addForce(quadArr, qj, fi.Scale(-1))
			addTorque(dipoleArr, di, tauI)
			addTorque(quadArr, qj, tauJ)
		}
	}
}

func (p *CellPairProcessor) quadQuadPair(arrA *cellsoa.SiteArrays, ia int, arrB *cellsoa.SiteArrays, jb int) {
	rij := vecmath.Vec3{X: arrA.PosX[ia] - arrB.PosX[jb], Y: arrA.PosY[ia] - arrB.PosY[jb], Z: arrA.PosZ[ia] - arrB.PosZ[jb]}
	r := rij.Norm()
	if r == 0 {
		return
	}
	ei := vecmath.Vec3{X: arrA.AxisX[ia], Y: arrA.AxisY[ia], Z: arrA.AxisZ[ia]}
	ej := vecmath.Vec3{X: arrB.AxisX[jb], Y: arrB.AxisY[jb], Z: arrB.AxisZ[jb]}
	rhat := rij.Scale(1 / r)
	ci := ei.Dot(rhat)
	cj := ej.Dot(rhat)
	cij := ei.Dot(ej)

	t := quadrupoleQuadrupoleTerm(arrA.Param[ia], arrB.Param[jb], r, ci, cj, cij)
	fi, tauI, tauJ := applyBiaxial(rij, r, ei, ej, true, true, t)

	if p.calcMacro {
		p.acc.UXpoles += t.u
		p.acc.Virial += fi.Dot(rij)
	}
	addForce(arrA, ia, fi)
	addForce(arrB, jb, fi.Scale(-1))
	addTorque(arrA, ia, tauI)
	addTorque(arrB, jb, tauJ)
}

// applyBiaxial is the shared gradient step every cross-term above funnels
// through: given the site separation rij = r_i - r_j, the two sites'
// orientation axes (ignored per side when has* is false), and a term's
// (U, dU/dr, dU/dci, dU/dcj, dU/dcij), it returns the force on site i
// (site j's is its negation, Newton's third law holding for the linear
// force regardless of which side carries which multipole) and the torque
// each oriented site feels about its own centre.
func applyBiaxial(rij vecmath.Vec3, r float64, ei, ej vecmath.Vec3, hasI, hasJ bool, t term) (fi, tauI, tauJ vecmath.Vec3) {
	rhat := rij.Scale(1 / r)
	ci, cj := 0.0, 0.0
	if hasI {
		ci = ei.Dot(rhat)
	}
	if hasJ {
		cj = ej.Dot(rhat)
	}

	grad := rhat.Scale(t.dUdr)
	if hasI {
		grad = grad.Add(ei.Sub(rhat.Scale(ci)).Scale(t.dUdci / r))
	}
	if hasJ {
		grad = grad.Add(ej.Sub(rhat.Scale(cj)).Scale(t.dUdcj / r))
	}
	fi = grad.Scale(-1)

	if hasI {
		dUde := rhat.Scale(t.dUdci)
		if hasJ {
			dUde = dUde.Add(ej.Scale(t.dUdcij))
		}
		tauI = ei.Cross(dUde).Scale(-1)
	}
	if hasJ {
		dUde := rhat.Scale(t.dUdcj)
		if hasI {
			dUde = dUde.Add(ei.Scale(t.dUdcij))
		}
		tauJ = ej.Cross(dUde).Scale(-1)
	}
	return
}

func addForce(arr *cellsoa.SiteArrays, idx int, f vecmath.Vec3) {
	arr.ForceX[idx] += f.X
	arr.ForceY[idx] += f.Y
	arr.ForceZ[idx] += f.Z
}

func addTorque(arr *cellsoa.SiteArrays, idx int, tq vecmath.Vec3) {
	arr.TorqueX[idx] += tq.X
	arr.TorqueY[idx] += tq.Y
	arr.TorqueZ[idx] += tq.Z
}
