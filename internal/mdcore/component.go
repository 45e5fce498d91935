package mdcore

import (
	"math"

	"github.com/mikesoehner/ls1-mardyn/internal/vecmath"
)

// LJSite is a Lennard-Jones interaction site at a fixed body-frame offset.
type LJSite struct {
	Offset    vecmath.Vec3
	Epsilon   float64
	Sigma     float64
	Shift6    float64 // precomputed 6*U_shift for the cutoff-shifted potential
	TypeID    int
}

// ChargeSite is a fixed point charge.
type ChargeSite struct {
	Offset vecmath.Vec3
	Q      float64
}

// DipoleSite is a fixed-magnitude point dipole; Axis is its body-frame
// orientation unit vector.
type DipoleSite struct {
	Offset vecmath.Vec3
	Moment float64
	Axis   vecmath.Vec3
}

// QuadrupoleSite is a fixed-magnitude point quadrupole; Axis is its
// body-frame orientation unit vector.
type QuadrupoleSite struct {
	Offset  vecmath.Vec3
	Moment  float64
	Axis    vecmath.Vec3
}

// LJPairParams is the pre-resolved pair interaction table entry for two LJ
// site types: epsilon*24, sigma^2, and 6*shift, exactly the quantities the
// kernel's inner loop consumes (spec.md 4.1's Component "Derived pair table").
type LJPairParams struct {
	Eps24     float64
	SigmaSq   float64
	Shift6    float64
	CutoffSq  float64 // per-pair cutoff override, defaults to the global r_c^2
}

// Component is the static, immutable-after-init per-component site geometry
// and mass/inertia properties for one molecule species.
type Component struct {
	ID          int
	Name        string
	LJSites     []LJSite
	Charges     []ChargeSite
	Dipoles     []DipoleSite
	Quadrupoles []QuadrupoleSite

	Mass             float64
	PrincipalInertia vecmath.Vec3
}

// NumLJSites, NumCharges, NumDipoles, NumQuadrupoles report the per-molecule
// site counts CellSoA needs to size its arrays.
func (c *Component) NumLJSites() int      { return len(c.LJSites) }
func (c *Component) NumCharges() int      { return len(c.Charges) }
func (c *Component) NumDipoles() int      { return len(c.Dipoles) }
func (c *Component) NumQuadrupoles() int  { return len(c.Quadrupoles) }

// ComponentTable holds every Component in the simulation plus the resolved
// LJ pair-parameter table, built once at startup and immutable thereafter.
type ComponentTable struct {
	Components []*Component
	pairTable  map[[2]int]LJPairParams
}

// NewComponentTable builds the pair table for every ordered pair of LJ site
// types across all components, applying Lorentz-Berthelot combining rules,
// exactly the derived-pair-table construction spec.md 4.1 requires to happen
// once at startup.
func NewComponentTable(components []*Component, globalCutoff float64) *ComponentTable {
	ct := &ComponentTable{
		Components: components,
		pairTable:  make(map[[2]int]LJPairParams),
	}
	cutoffSq := globalCutoff * globalCutoff

	var allSites []LJSite
	for _, c := range components {
		allSites = append(allSites, c.LJSites...)
	}

	for _, a := range allSites {
		for _, b := range allSites {
			eps := combineEpsilon(a.Epsilon, b.Epsilon)
			sigma := combineSigma(a.Sigma, b.Sigma)
			shift := a.Shift6
			if b.Shift6 > shift {
				shift = b.Shift6
			}
			ct.pairTable[[2]int{a.TypeID, b.TypeID}] = LJPairParams{
				Eps24:    24 * eps,
				SigmaSq:  sigma * sigma,
				Shift6:   shift,
				CutoffSq: cutoffSq,
			}
		}
	}
	return ct
}

// combineEpsilon applies the Lorentz-Berthelot geometric-mean combining rule.
func combineEpsilon(a, b float64) float64 { return math.Sqrt(a * b) }

func combineSigma(a, b float64) float64 { return 0.5 * (a + b) }

// Pair returns the resolved LJ parameters for an ordered pair of site type
// IDs, or the zero value and false if the pair is unknown.
func (ct *ComponentTable) Pair(typeI, typeJ int) (LJPairParams, bool) {
	p, ok := ct.pairTable[[2]int{typeI, typeJ}]
	return p, ok
}
