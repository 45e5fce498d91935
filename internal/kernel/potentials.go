package kernel

// This file derives every cross-term force/torque from its potential
// energy U(r, ci, cj, cij), where r is the site-site distance, ci = e_i·r̂,
// cj = e_j·r̂ and cij = e_i·e_j are the orientation cosines of the two
// sites' axes (e_i, e_j) against the separation unit vector r̂. Expressing
// every multipole cross-term this way lets applyBiaxial (kernel.go) supply
// one shared gradient (force/torque) routine instead of six hand-derived
// ones; only the term below differs per interaction.
type term struct {
	u, dUdr, dUdci, dUdcj, dUdcij float64
}

// ljTerm is isotropic (no axes); it returns the LJ force coefficient
// directly rather than through the axial U(r) derivative, since the
// pair table already carries eps24/sigmaSq/shift6 in the combined form
// spec.md 3's "ComponentTable.Pair" produces.
func ljTerm(eps24, sigmaSq, shift6, r2 float64) (sixU, fCoeff float64) {
	sr2 := sigmaSq / r2
	sr6 := sr2 * sr2 * sr2
	sr12 := sr6 * sr6
	sixU = eps24*(sr12-sr6) - shift6
	fCoeff = eps24 / r2 * (2*sr12 - sr6)
	return
}

// chargeChargeTerm is isotropic Coulomb, q_i*q_j/r.
func chargeChargeTerm(qi, qj, r float64) term {
	u := qi * qj / r
	return term{u: u, dUdr: -u / r}
}

// chargeDipoleTerm: U = qi*mj*cj/r^2, mj the dipole's scalar moment.
func chargeDipoleTerm(qi, mj, r, cj float64) term {
	u := qi * mj * cj / (r * r)
	return term{
		u:    u,
		dUdr: -2 * u / r,
		dUdcj: qi * mj / (r * r),
	}
}

// chargeQuadrupoleTerm: U = qi*Qj*(3cj^2-1)/(4r^3).
func chargeQuadrupoleTerm(qi, Qj, r, cj float64) term {
	r3 := r * r * r
	u := qi * Qj * (3*cj*cj - 1) / (4 * r3)
	return term{
		u:     u,
		dUdr:  -3 * u / r,
		dUdcj: qi * Qj * 6 * cj / (4 * r3),
	}
}

// dipoleDipoleTerm: U = mi*mj*(cij - 3*ci*cj)/r^3, the standard point-dipole
// interaction (reaction-field correction is added separately in kernel.go,
// since it depends only on cij and contributes to myRF rather than U_xpoles).
func dipoleDipoleTerm(mi, mj, r, ci, cj, cij float64) term {
	r3 := r * r * r
	bracket := cij - 3*ci*cj
	u := mi * mj * bracket / r3
	return term{
		u:      u,
		dUdr:   -3 * u / r,
		dUdci:  mi * mj * (-3 * cj) / r3,
		dUdcj:  mi * mj * (-3 * ci) / r3,
		dUdcij: mi * mj / r3,
	}
}

// dipoleQuadrupoleTerm approximates the Gray-Gubbins dipole-quadrupole
// interaction: dipole i with moment mi against quadrupole j with moment Qj.
func dipoleQuadrupoleTerm(mi, Qj, r, ci, cj, cij float64) term {
	r4 := r * r * r * r
	bracket := ci*(3*cj*cj-1) - 2*cj*cij
	coeff := 1.5 * mi * Qj / r4
	u := coeff * bracket
	return term{
		u:      u,
		dUdr:   -4 * u / r,
		dUdci:  coeff * (3*cj*cj - 1),
		dUdcj:  coeff * (6 * ci * cj - 2*cij),
		dUdcij: coeff * (-2 * cj),
	}
}

// quadrupoleQuadrupoleTerm approximates the Gray-Gubbins quadrupole-
// quadrupole interaction for two axial quadrupoles Qi, Qj.
func quadrupoleQuadrupoleTerm(Qi, Qj, r, ci, cj, cij float64) term {
	r5 := r * r * r * r * r
	inner := cij - 5*ci*cj
	a := 1 - 5*ci*ci - 5*cj*cj - 15*ci*ci*cj*cj + 2*inner*inner
	coeff := 0.75 * Qi * Qj / r5
	u := coeff * a

	dAdci := -10*ci - 30*ci*cj*cj - 20*cj*inner
	dAdcj := -10*cj - 30*ci*ci*cj - 20*ci*inner
	dAdcij := 4 * inner

	return term{
		u:      u,
		dUdr:   -5 * u / r,
		dUdci:  coeff * dAdci,
		dUdcj:  coeff * dAdcj,
		dUdcij: coeff * dAdcij,
	}
}
