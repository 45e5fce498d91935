// Package domain implements spec.md 4.3's DomainDecomp and NeighbourScheme:
// a Cartesian-grid (or optional k-d tree) partition of the global box
// across ranks, neighbour discovery, and the non-blocking halo-exchange
// protocol with its deadlock guard.
package domain

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mikesoehner/ls1-mardyn/internal/mdcore"
	"github.com/mikesoehner/ls1-mardyn/internal/vecmath"
)

// MessageType selects what an exchange moves, spec.md 4.3's MessageType.
type MessageType int

const (
	LeavingAndHaloCopies MessageType = iota
	LeavingOnly
	HaloCopies
)

// DomainDecomp is the per-rank partition state: this rank's Cartesian
// coordinates within a Gx x Gy x Gz grid, its subdomain box, and the
// communication partners a NeighbourScheme derives from that geometry.
type DomainDecomp struct {
	Rank      int
	NumRanks  int
	GridDims  [3]int
	RankCoord [3]int

	BoxLength [3]float64 // global periodic box
	Periodic  [3]bool

	LocalOrigin [3]float64
	LocalExtent [3]float64

	Scheme         SchemeKind
	DeadlockTimeout time.Duration

	Transport Transport

	Accumulated mdcore.Accumulators
}

// New builds a Cartesian-grid DomainDecomp: rank maps to 3-d coordinates
// by row-major integer factorization over gridDims, and the subdomain is
// boxLength/gridDims per axis.
func New(rank int, gridDims [3]int, boxLength [3]float64, periodic [3]bool, transport Transport) *DomainDecomp {
	numRanks := gridDims[0] * gridDims[1] * gridDims[2]
	coord := rankToCoord(rank, gridDims)

	var origin, extent [3]float64
	for i := 0; i < 3; i++ {
		extent[i] = boxLength[i] / float64(gridDims[i])
		origin[i] = extent[i] * float64(coord[i])
	}

	return &DomainDecomp{
		Rank:            rank,
		NumRanks:        numRanks,
		GridDims:        gridDims,
		RankCoord:       coord,
		BoxLength:       boxLength,
		Periodic:        periodic,
		LocalOrigin:     origin,
		LocalExtent:     extent,
		Scheme:          FullShell,
		DeadlockTimeout: 60 * time.Second,
		Transport:       transport,
	}
}

func rankToCoord(rank int, gridDims [3]int) [3]int {
	x := rank % gridDims[0]
	y := (rank / gridDims[0]) % gridDims[1]
	z := rank / (gridDims[0] * gridDims[1])
	return [3]int{x, y, z}
}

func coordToRank(coord, gridDims [3]int) int {
	return coord[0] + coord[1]*gridDims[0] + coord[2]*gridDims[0]*gridDims[1]
}

// CoversWholeDomain reports whether this rank's subdomain spans the full
// global box along axis d — the condition under which that axis's
// exchange degenerates to a local periodic wrap (spec.md 4.3).
func (d *DomainDecomp) CoversWholeDomain(axis int) bool {
	return d.GridDims[axis] == 1
}

// neighbourRank resolves the rank occupying the grid cell offset from
// this rank's coordinates, wrapping per axis when Periodic[axis] is set.
// ok is false if the offset falls outside a non-periodic axis (vacuum
// boundary, no partner).
func (d *DomainDecomp) neighbourRank(offset [3]int) (rank int, ok bool) {
	var coord [3]int
	for i := 0; i < 3; i++ {
		c := d.RankCoord[i] + offset[i]
		if d.Periodic[i] {
			c = ((c % d.GridDims[i]) + d.GridDims[i]) % d.GridDims[i]
		} else if c < 0 || c >= d.GridDims[i] {
			return 0, false
		}
		coord[i] = c
	}
	return coordToRank(coord, d.GridDims), true
}

// NeighbourRank exports neighbourRank for simloop's leaving-molecule
// migration, which needs to resolve a destination rank from a raw offset
// without going through BuildPartners' CommunicationPartner wrapping.
func (d *DomainDecomp) NeighbourRank(offset [3]int) (rank int, ok bool) {
	return d.neighbourRank(offset)
}

// OutOfBoundsOffset reports, per axis, whether world position r has moved
// below (-1) or above (+1) this rank's owned subdomain, or stayed inside
// (0). An axis whose grid dimension is 1 always reports 0: the subdomain
// already spans the whole box there, so no rank handoff is needed; the
// simulation loop's migration pass wraps a periodic crossing along such an
// axis in place.
func (d *DomainDecomp) OutOfBoundsOffset(r vecmath.Vec3) [3]int {
	var off [3]int
	coords := [3]float64{r.X, r.Y, r.Z}
	for i := 0; i < 3; i++ {
		if d.CoversWholeDomain(i) {
			continue
		}
		if coords[i] < d.LocalOrigin[i] {
			off[i] = -1
		} else if coords[i] >= d.LocalOrigin[i]+d.LocalExtent[i] {
			off[i] = 1
		}
	}
	return off
}

// PeriodicShift reports the world-space displacement a molecule crossing
// this rank's boundary toward offset must receive before it is handed to
// the neighbour that offset resolves to, per spec.md 3's HaloRegion entity:
// a periodic partner is a mirror image of this rank across one face of the
// global box, so a ghost sent to it must be translated by one BoxLength
// along every axis the rank grid actually wraps on. An axis only
// contributes a shift when stepping by offset[i] would leave the grid's
// [0, GridDims[i]) range: for a non-periodic neighbour inside the grid
// (offset stays in range) no wrap occurred and the shift is zero.
func (d *DomainDecomp) PeriodicShift(offset [3]int) vecmath.Vec3 {
	var shift [3]float64
	for i := 0; i < 3; i++ {
		raw := d.RankCoord[i] + offset[i]
		switch {
		case raw < 0:
			shift[i] = d.BoxLength[i]
		case raw >= d.GridDims[i]:
			shift[i] = -d.BoxLength[i]
		}
	}
	return vecmath.Vec3{X: shift[0], Y: shift[1], Z: shift[2]}
}

// BuildPartners constructs one CommunicationPartner per offset the
// scheme's given stage names, per spec.md 4.3's neighbour discovery: a
// partner whose resolved rank is this rank itself (because every axis
// the offset touches has GridDims==1) is marked Local and will never
// touch Transport.
func (d *DomainDecomp) BuildPartners(stage [][3]int) []*CommunicationPartner {
	partners := make([]*CommunicationPartner, 0, len(stage))
	for _, off := range stage {
		rank, ok := d.neighbourRank(off)
		if !ok {
			continue
		}
		local := rank == d.Rank
		partners = append(partners, &CommunicationPartner{Rank: rank, Offset: off, Local: local})
	}
	return partners
}

// ShouldDeduplicate reports spec.md 4.3's duplicate-handling flag: true
// iff the domain covers the whole global box along every axis this
// exchange's offsets touch, since only then can one molecule arrive via
// more than one periodic image.
func (d *DomainDecomp) ShouldDeduplicate(stage [][3]int) bool {
	touched := map[int]bool{}
	for _, off := range stage {
		for axis, o := range off {
			if o != 0 {
				touched[axis] = true
			}
		}
	}
	for axis := range touched {
		if !d.CoversWholeDomain(axis) {
			return false
		}
	}
	return len(touched) > 0
}

// DeadlockError is returned by Exchange when the wall-clock guard fires;
// main.go translates it (via errors.Is against mdcore.ErrDeadlock) into
// the distinguished process exit code spec.md section 6 assigns
// communication deadlocks.
type DeadlockError struct {
	Elapsed  time.Duration
	Snapshot []string
}

func (e *DeadlockError) Error() string {
	return fmt.Sprintf("halo exchange deadlock after %s: %v", e.Elapsed, e.Snapshot)
}

func (e *DeadlockError) Unwrap() error { return mdcore.ErrDeadlock }

// Exchange drives every partner's non-blocking send/receive to
// completion, per spec.md 4.3's finalizeExchange loop: encode packs each
// partner's outgoing molecules, decode unpacks an arrived payload back
// into molecules. Every 1s of waiting it would emit a diagnostic (left to
// the caller via onDiagnostic, nil-able) listing each partner's state; if
// DeadlockTimeout elapses with partners still pending it returns a
// *DeadlockError.
func (d *DomainDecomp) Exchange(partners []*CommunicationPartner, outgoing map[int][]*mdcore.Molecule, dedup bool, onDiagnostic func(elapsed time.Duration, partners []*CommunicationPartner)) ([]*mdcore.Molecule, error) {
	for _, p := range partners {
		p.reset()
		payload, err := EncodeMolecules(outgoing[p.Rank])
		if err != nil {
			return nil, err
		}
		p.initExchange(d.Transport, payload)
	}

	start := time.Now()
	lastDiag := start
	for {
		allDone := true
		for _, p := range partners {
			p.progress(d.Transport)
			if !p.Done() {
				allDone = false
			}
		}
		if allDone {
			break
		}

		elapsed := time.Since(start)
		if onDiagnostic != nil && time.Since(lastDiag) >= time.Second {
			onDiagnostic(elapsed, partners)
			lastDiag = time.Now()
		}
		if elapsed >= d.DeadlockTimeout {
			snapshot := make([]string, len(partners))
			for i, p := range partners {
				snapshot[i] = fmt.Sprintf("rank=%d state=%s", p.Rank, p.State())
			}
			return nil, &DeadlockError{Elapsed: elapsed, Snapshot: snapshot}
		}
	}

	// Decode every partner's payload concurrently via errgroup: a
	// malformed payload from one partner must abort the whole exchange
	// rather than silently dropping that partner's molecules, which is
	// what errgroup's first-error propagation gives us over a raw
	// sync.WaitGroup (the teacher's dynamo/parallel.go and compute/cpu.go
	// pattern) for free.
	var mu sync.Mutex
	var received []*mdcore.Molecule
	seen := map[uint64]bool{}
	g := new(errgroup.Group)
	for _, p := range partners {
		p := p
		g.Go(func() error {
			mols, err := DecodeMolecules(p.RecvPayload)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, m := range mols {
				if dedup && seen[m.ID] {
					continue
				}
				seen[m.ID] = true
				received = append(received, m)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return received, nil
}

// Reduce sums an Accumulators across every rank's DomainDecomp in one
// process. Real MPI would implement this as a collective allreduce; a
// single Go process hosting every rank's DomainDecomp (the only topology
// this module's tests construct) can do the equivalent by direct summation,
// which is what this does.
func Reduce(ranks []*DomainDecomp) mdcore.Accumulators {
	var total mdcore.Accumulators
	for _, d := range ranks {
		total.Add(d.Accumulated)
	}
	return total
}

// wireMolecule is the gob-encodable shape of mdcore.Molecule: no binary
// serialization library appears anywhere in the retrieved pack, and gob
// is the idiomatic standard-library choice for internal Go-to-Go struct
// transfer (as opposed to the teacher's encoding/json, reserved for
// human-facing run metadata).
type wireMolecule struct {
	ID             uint64
	ComponentIndex uint16
	R, V, D        vecmath.Vec3
	Q              vecmath.Quaternion
	Ghost          bool
}

func EncodeMolecules(molecules []*mdcore.Molecule) ([]byte, error) {
	wire := make([]wireMolecule, len(molecules))
	for i, m := range molecules {
		wire[i] = wireMolecule{ID: m.ID, ComponentIndex: m.ComponentIndex, R: m.R, V: m.V, D: m.D, Q: m.Q, Ghost: m.Ghost}
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		return nil, fmt.Errorf("encode molecules: %w", err)
	}
	return buf.Bytes(), nil
}

func DecodeMolecules(payload []byte) ([]*mdcore.Molecule, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	var wire []wireMolecule
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode molecules: %w", err)
	}
	out := make([]*mdcore.Molecule, len(wire))
	for i, w := range wire {
		out[i] = &mdcore.Molecule{ID: w.ID, ComponentIndex: w.ComponentIndex, R: w.R, V: w.V, D: w.D, Q: w.Q, Ghost: w.Ghost}
	}
	return out, nil
}
