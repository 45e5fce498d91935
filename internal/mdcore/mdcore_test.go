package mdcore

import (
	"math"
	"testing"

	"github.com/mikesoehner/ls1-mardyn/internal/vecmath"
)

func TestComponentTablePairLorentzBerthelot(t *testing.T) {
	c1 := &Component{ID: 0, LJSites: []LJSite{{Epsilon: 1, Sigma: 1, TypeID: 0}}}
	c2 := &Component{ID: 1, LJSites: []LJSite{{Epsilon: 4, Sigma: 3, TypeID: 1}}}

	table := NewComponentTable([]*Component{c1, c2}, 2.5)

	p, ok := table.Pair(0, 1)
	if !ok {
		t.Fatal("expected pair (0,1) to be resolved")
	}
	wantEps24 := 24 * math.Sqrt(1*4)
	if math.Abs(p.Eps24-wantEps24) > 1e-12 {
		t.Errorf("eps24: got %v want %v", p.Eps24, wantEps24)
	}
	wantSigmaSq := ((1.0 + 3.0) / 2) * ((1.0 + 3.0) / 2)
	if math.Abs(p.SigmaSq-wantSigmaSq) > 1e-12 {
		t.Errorf("sigmaSq: got %v want %v", p.SigmaSq, wantSigmaSq)
	}
}

func TestComponentTableSelfPair(t *testing.T) {
	c1 := &Component{ID: 0, LJSites: []LJSite{{Epsilon: 1, Sigma: 1, TypeID: 0}}}
	table := NewComponentTable([]*Component{c1}, 2.5)
	p, ok := table.Pair(0, 0)
	if !ok || math.Abs(p.Eps24-24) > 1e-12 {
		t.Fatalf("self pair resolution incorrect: %+v ok=%v", p, ok)
	}
}

func TestMoleculeWorldLJSitesIdentityOrientation(t *testing.T) {
	c := &Component{LJSites: []LJSite{{Offset: vecmath.Vec3{X: 1}}}}
	m := &Molecule{R: vecmath.Vec3{X: 5, Y: 5, Z: 5}, Q: vecmath.IdentityQuaternion}

	sites := m.WorldLJSites(c)
	want := vecmath.Vec3{X: 6, Y: 5, Z: 5}
	if sites[0] != want {
		t.Errorf("got %v want %v", sites[0], want)
	}
}

func TestMoleculeIsValidDetectsNaN(t *testing.T) {
	m := &Molecule{R: vecmath.Vec3{X: math.NaN()}}
	if m.IsValid() {
		t.Error("expected molecule with NaN position to be invalid")
	}
}

func TestAccumulatorsFinalize(t *testing.T) {
	a := Accumulators{SixULJ: 24, UXpoles: 1, Virial: 2, MyRF: 0.5}
	if got := a.PotentialEnergy(); math.Abs(got-(24.0/6+1+0.5)) > 1e-12 {
		t.Errorf("PotentialEnergy: got %v", got)
	}
	if got := a.TotalVirial(); math.Abs(got-(2+1.5)) > 1e-12 {
		t.Errorf("TotalVirial: got %v", got)
	}
}
