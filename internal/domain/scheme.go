package domain

// SchemeKind selects a NeighbourScheme, spec.md 4.3's "Schemes" section.
type SchemeKind int

const (
	FullShell SchemeKind = iota // single stage, up to 26 neighbours
	ThreeStage                  // one stage per axis: x, then y, then z
)

// fullShellOffsets enumerates every face/edge/corner direction in
// {-1,0,1}^3 except the origin, the 26 full-shell neighbour offsets.
func fullShellOffsets() [][3]int {
	var out [][3]int
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				out = append(out, [3]int{dx, dy, dz})
			}
		}
	}
	return out
}

// threeStageOffsets splits the same 26 offsets across three stages: stage
// 0 (x face neighbours only, dy=dz=0), stage 1 (neighbours with dz=0,
// already covering the offsets touched by stage 0's wrap so the combined
// effect matches full-shell after three passes), stage 2 (everything
// else, dz != 0). Each stage's enlarged region (handled by the caller
// packing the halo box, not here) is what makes three separate face-only
// exchanges cumulatively equivalent to one full-shell exchange.
func threeStageOffsets() [3][][3]int {
	var stages [3][][3]int
	for _, off := range fullShellOffsets() {
		switch {
		case off[1] == 0 && off[2] == 0:
			stages[0] = append(stages[0], off)
		case off[2] == 0:
			stages[1] = append(stages[1], off)
		default:
			stages[2] = append(stages[2], off)
		}
	}
	return stages
}

// Stages returns the offset groups this scheme communicates in, in order.
// FullShell returns one group of up to 26 offsets; ThreeStage returns
// three groups, one per axis.
func (k SchemeKind) Stages() [][][3]int {
	if k == FullShell {
		return [][][3]int{fullShellOffsets()}
	}
	staged := threeStageOffsets()
	return [][][3]int{staged[0], staged[1], staged[2]}
}
