package container

import (
	"testing"

	"github.com/mikesoehner/ls1-mardyn/internal/mdcore"
	"github.com/mikesoehner/ls1-mardyn/internal/vecmath"
)

func newTestContainer() *ParticleContainer {
	return New(
		[3]float64{0, 0, 0}, [3]float64{6, 6, 6},
		[3]int{3, 3, 3}, 1,
		[3]float64{6, 6, 6}, [3]bool{true, true, true},
	)
}

func TestGridIdxCoordsRoundTrip(t *testing.T) {
	g := NewGrid([3]int{5, 5, 5})
	for z := 0; z < 5; z++ {
		for y := 0; y < 5; y++ {
			for x := 0; x < 5; x++ {
				idx := g.Idx(x, y, z)
				gx, gy, gz := g.Coords(idx)
				if gx != x || gy != y || gz != z {
					t.Fatalf("round trip failed: (%d,%d,%d) -> %d -> (%d,%d,%d)", x, y, z, idx, gx, gy, gz)
				}
			}
		}
	}
}

func TestCellClassification(t *testing.T) {
	pc := newTestContainer()
	var inner, boundary, halo int
	for _, c := range pc.Cells {
		switch c.Kind {
		case Inner:
			inner++
		case Boundary:
			boundary++
		case Halo:
			halo++
		}
	}
	// localCells=3 per axis with haloWidth=1: full grid is 5x5x5=125, with
	// 27 local cells. Only the single cell with every local coordinate
	// equal to the middle value (2,2,2) is 1+ cells from every edge, so
	// it alone classifies Inner; the other 26 local cells classify
	// Boundary (distance 0 from a local/halo edge on at least one axis).
	if inner+boundary+halo != 125 {
		t.Fatalf("expected 125 total cells, got %d", inner+boundary+halo)
	}
	if inner != 1 {
		t.Errorf("expected exactly 1 inner cell in a 3x3x3 local domain, got %d", inner)
	}
	if boundary != 26 {
		t.Errorf("expected 26 boundary cells, got %d", boundary)
	}
	if halo != 125-27 {
		t.Errorf("expected %d halo cells, got %d", 125-27, halo)
	}
}

func TestUpdateBucketsMoleculesByPosition(t *testing.T) {
	pc := newTestContainer()
	molecules := []*mdcore.Molecule{
		{R: vecmath.Vec3{X: 0.5, Y: 0.5, Z: 0.5}},
		{R: vecmath.Vec3{X: 5.5, Y: 5.5, Z: 5.5}},
	}
	pc.Update(molecules)

	c0 := pc.CellAt([3]float64{0.5, 0.5, 0.5})
	if len(c0.Molecules) != 1 || c0.Molecules[0] != molecules[0] {
		t.Fatalf("expected molecule 0 bucketed into its own cell")
	}
	c1 := pc.CellAt([3]float64{5.5, 5.5, 5.5})
	if len(c1.Molecules) != 1 || c1.Molecules[0] != molecules[1] {
		t.Fatalf("expected molecule 1 bucketed into its own cell")
	}
}

func TestTraversePairsVisitsEveryOccupiedPairOnce(t *testing.T) {
	pc := newTestContainer()
	molecules := []*mdcore.Molecule{
		{R: vecmath.Vec3{X: 0.5, Y: 0.5, Z: 0.5}},
		{R: vecmath.Vec3{X: 2.5, Y: 0.5, Z: 0.5}}, // neighbouring cell along x
	}
	pc.Update(molecules)

	pairCount := 0
	pc.TraversePairs(func(c *Cell) {}, func(a, b *Cell) { pairCount++ })
	if pairCount != 1 {
		t.Errorf("expected exactly 1 pair visited for two adjacent occupied cells, got %d", pairCount)
	}
}

func TestCalculateMacroscopicThreeWayRule(t *testing.T) {
	owned := &Cell{Index: 0, Kind: Inner}
	boundary := &Cell{Index: 1, Kind: Boundary}
	haloLow := &Cell{Index: 2, Kind: Halo}
	haloHigh := &Cell{Index: 3, Kind: Halo}

	if !CalculateMacroscopic(owned, boundary) {
		t.Error("two owned cells must always calculate macroscopic sums")
	}
	if CalculateMacroscopic(haloLow, haloHigh) {
		t.Error("two halo cells must never calculate macroscopic sums")
	}
	if !CalculateMacroscopic(boundary, haloLow) {
		t.Error("owned cell with the smaller index paired against halo should calculate")
	}
	if CalculateMacroscopic(haloLow, boundary) {
		t.Error("halo cell with the larger index paired against owned should not calculate")
	}
}

func TestRegionForOffsetNarrowsToBoundaryLayer(t *testing.T) {
	pc := newTestContainer()

	plusX := pc.RegionForOffset([3]int{1, 0, 0})
	if plusX.Lo[0] != 6-pc.CellLength[0] || plusX.Hi[0] != 6 {
		t.Errorf("expected +x region to cover [%v,6), got [%v,%v)", 6-pc.CellLength[0], plusX.Lo[0], plusX.Hi[0])
	}
	if plusX.Lo[1] != 0 || plusX.Hi[1] != 6 {
		t.Errorf("expected +x region to leave the y axis untouched, got [%v,%v)", plusX.Lo[1], plusX.Hi[1])
	}

	minusX := pc.RegionForOffset([3]int{-1, 0, 0})
	if minusX.Lo[0] != 0 || minusX.Hi[0] != pc.CellLength[0] {
		t.Errorf("expected -x region to cover [0,%v), got [%v,%v)", pc.CellLength[0], minusX.Lo[0], minusX.Hi[0])
	}

	if !plusX.Contains([3]float64{5.9, 3, 3}) {
		t.Error("expected a molecule just inside the +x boundary layer to be contained")
	}
	if plusX.Contains([3]float64{3, 3, 3}) {
		t.Error("expected an interior molecule to fall outside the +x boundary layer")
	}
}

func TestPartialInnermostStagesPartitionInnerCellsExactlyOnce(t *testing.T) {
	pc := New(
		[3]float64{0, 0, 0}, [3]float64{10, 10, 10},
		[3]int{10, 10, 10}, 1,
		[3]float64{10, 10, 10}, [3]bool{true, true, true},
	)
	// The traversal skips empty cells, so every local cell gets one molecule.
	var molecules []*mdcore.Molecule
	for z := 0; z < 10; z++ {
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				molecules = append(molecules, &mdcore.Molecule{R: vecmath.Vec3{X: float64(x) + 0.5, Y: float64(y) + 0.5, Z: float64(z) + 0.5}})
			}
		}
	}
	pc.Update(molecules)
	seen := make(map[[3]int]int)
	for stageIdx := 0; stageIdx < pc.StageCount(); stageIdx++ {
		pc.TraversePartialInnermostCells(stageIdx, func(c *Cell) {
			seen[c.Coord]++
		}, func(a, b *Cell) {})
	}
	innerCount := 0
	for _, c := range pc.Cells {
		if c.Kind != Inner {
			continue
		}
		innerCount++
		if seen[c.Coord] != 1 {
			t.Errorf("inner cell %v visited %d times across all stages, want 1", c.Coord, seen[c.Coord])
		}
	}
	if innerCount == 0 {
		t.Fatal("expected at least one inner cell in a 10x10x10 local domain")
	}
}
