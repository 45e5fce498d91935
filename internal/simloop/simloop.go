// Package simloop drives spec.md 4.4's SimulationLoop: one Step integrates
// every owned molecule a full timestep across pre-force integration,
// inter-rank molecule exchange, spatial re-bucketing, pair-kernel
// traversal, post-force integration, and an optional thermostat.
//
// Grounded on the teacher's (now-removed) internal/sim.Simulator.Run loop
// shape and original_source/src/Simulation.cpp's simulate() body: both
// drive a fixed per-step sequence of "integrate, exchange, compute forces,
// integrate, report" around a domain-decomposed spatial structure.
package simloop

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mikesoehner/ls1-mardyn/internal/cellsoa"
	"github.com/mikesoehner/ls1-mardyn/internal/container"
	"github.com/mikesoehner/ls1-mardyn/internal/domain"
	"github.com/mikesoehner/ls1-mardyn/internal/integrators"
	"github.com/mikesoehner/ls1-mardyn/internal/kernel"
	"github.com/mikesoehner/ls1-mardyn/internal/logging"
	"github.com/mikesoehner/ls1-mardyn/internal/mdcore"
	"github.com/mikesoehner/ls1-mardyn/internal/vecmath"
)

// SimulationLoop owns one rank's slice of the run: its domain partition,
// linked-cells container, and the integrator/kernel pair that advance it.
type SimulationLoop struct {
	Domain     *domain.DomainDecomp
	Container  *container.ParticleContainer
	Table      *mdcore.ComponentTable
	Integrator *integrators.Leapfrog
	Kernel     *kernel.CellPairProcessor
	Backend    cellsoa.Backend
	Log        *logging.Logger
	Thermostat *Thermostat

	// Molecules holds every molecule this rank owns (never Ghost); ghost
	// copies received each step live only for the duration of one Step,
	// discarded and rebuilt on the next exchange.
	Molecules []*mdcore.Molecule

	// Overlap selects spec.md 4.1's compute/communication overlap
	// traversal: the innermost-cell stages, which never touch a halo
	// cell, run concurrently with the halo exchange instead of after it.
	Overlap bool

	StepCount int
	Time      float64
}

// Step advances the simulation one full timestep, spec.md 4.4's ten-stage
// sequence.
func (s *SimulationLoop) Step() error {
	// 1. integrator pre-force half-step: v, r, q all advance before the
	// pair kernel sees this step's positions.
	s.Integrator.PreForce(s.Molecules, s.Table)

	// 2a. migrate molecules that crossed into a neighbour's subdomain.
	// This is a small, synchronous full-shell pass (spec.md 4.3's
	// MessageType LeavingOnly); it must complete before bucketing so a
	// migrated molecule lands in the right rank's container.
	if err := s.migrateLeaversExchange(); err != nil {
		return s.stepError(err)
	}

	// 3-4. rebucket owned molecules into cells. Ghost copies (halo
	// exchange, message type HaloCopies) are folded in below, either
	// before traversal (sequential) or after the inner stages
	// (overlapped with them).
	s.Container.Update(s.Molecules)

	for _, m := range s.Molecules {
		m.ResetForces()
	}

	s.Kernel.InitTraversal()
	cache := s.buildSoACache()

	// 6. pair traversal, with or without compute/communication overlap.
	if s.Overlap {
		if err := s.traverseOverlap(cache); err != nil {
			return s.stepError(err)
		}
	} else {
		ghosts, err := s.haloExchange()
		if err != nil {
			return s.stepError(err)
		}
		s.Container.InsertGhosts(ghosts)
		s.extendSoACache(cache, ghosts)
		s.traverseSequential(cache)
	}

	for _, soa := range cache {
		soa.ScatterForces()
	}
	s.Domain.Accumulated = s.Kernel.EndTraversal()

	// 7. numerical-error check (spec.md section 7: NaN in a force
	// accumulator is fatal, detected at postprocess).
	for _, m := range s.Molecules {
		if !m.IsValid() {
			return s.stepError(fmt.Errorf("%w: molecule %d", mdcore.ErrNumerical, m.ID))
		}
	}

	// 8. integrator post-force half-step.
	s.Integrator.PostForce(s.Molecules, s.Table)

	// 9. thermostat velocity scaling.
	s.Thermostat.Apply(s.Molecules, s.Table)

	// 10. advance time and report.
	s.StepCount++
	s.Time += s.Integrator.GetTimestepLength()
	if s.Log != nil {
		acc := s.Domain.Accumulated
		s.Log.WithStep(s.StepCount, s.Time).Infof(
			"U=%.6f virial=%.6f molecules=%d", acc.PotentialEnergy(), acc.TotalVirial(), len(s.Molecules))
	}
	return nil
}

func (s *SimulationLoop) stepError(err error) error {
	return &mdcore.StepError{Step: s.StepCount, Time: s.Time, Rank: s.Domain.Rank, Wrapped: err}
}

// migrateLeaversExchange removes every owned molecule that has moved
// outside this rank's subdomain, wraps its position across a periodic
// boundary, and exchanges it with the full neighbour shell in one pass. A
// molecule crossing a non-periodic boundary (no neighbour rank) is
// dropped: it has left the simulated region.
func (s *SimulationLoop) migrateLeaversExchange() error {
	leaving := make(map[int][]*mdcore.Molecule)
	kept := s.Molecules[:0]
	box := vecmath.Vec3{X: s.Domain.BoxLength[0], Y: s.Domain.BoxLength[1], Z: s.Domain.BoxLength[2]}
	// A kept molecule is wrapped in place along periodic axes (a zero length
	// leaves a non-periodic axis as it is).
	localWrap := box
	if !s.Domain.Periodic[0] {
		localWrap.X = 0
	}
	if !s.Domain.Periodic[1] {
		localWrap.Y = 0
	}
	if !s.Domain.Periodic[2] {
		localWrap.Z = 0
	}

	for _, m := range s.Molecules {
		off := s.Domain.OutOfBoundsOffset(m.R)
		if off == ([3]int{}) {
			m.R = vecmath.WrapPeriodic(m.R, localWrap)
			kept = append(kept, m)
			continue
		}
		rank, ok := s.Domain.NeighbourRank(off)
		if !ok {
			continue
		}
		m.R = vecmath.WrapPeriodic(m.R, box)
		leaving[rank] = append(leaving[rank], m)
	}
	s.Molecules = kept

	stage := domain.FullShell.Stages()[0]
	partners := s.Domain.BuildPartners(stage)
	arrived, err := s.Domain.Exchange(partners, leaving, s.Domain.ShouldDeduplicate(stage), s.onDiagnostic)
	if err != nil {
		return err
	}
	for _, m := range arrived {
		m.Ghost = false
		s.Molecules = append(s.Molecules, m)
	}
	return nil
}

// haloExchange runs every stage of the configured NeighbourScheme and
// returns the combined set of ghost molecules it collected. Local
// partners (a periodic neighbour that resolves back to this rank, per
// spec.md 3's HaloRegion entity) are folded straight into the result
// without going through Domain.Exchange: a fully periodic single-rank
// domain has every one of a stage's partners resolve to Local with the
// same Rank, and Exchange's outgoing map keys purely by rank, so routing
// them through it would collapse every direction's molecules into one
// shared payload and hand each partner all of them instead of just its
// own.
func (s *SimulationLoop) haloExchange() ([]*mdcore.Molecule, error) {
	var ghosts []*mdcore.Molecule
	for _, stage := range s.Domain.Scheme.Stages() {
		partners := s.Domain.BuildPartners(stage)
		if len(partners) == 0 {
			continue
		}
		outgoing, local := s.packHaloOutgoing(partners)
		for _, m := range local {
			m.Ghost = true
			ghosts = append(ghosts, m)
		}

		remote := remotePartners(partners)
		if len(remote) == 0 {
			continue
		}
		received, err := s.Domain.Exchange(remote, outgoing, s.Domain.ShouldDeduplicate(stage), s.onDiagnostic)
		if err != nil {
			return nil, err
		}
		for _, m := range received {
			m.Ghost = true
			ghosts = append(ghosts, m)
		}
	}
	return ghosts, nil
}

func remotePartners(partners []*domain.CommunicationPartner) []*domain.CommunicationPartner {
	remote := make([]*domain.CommunicationPartner, 0, len(partners))
	for _, p := range partners {
		if !p.Local {
			remote = append(remote, p)
		}
	}
	return remote
}

// packHaloOutgoing selects, for every partner, the owned molecules lying
// in that partner's HaloRegion send box and copies them as ghosts. A
// partner whose offset crosses a periodic face — Local or not — mirrors
// this rank's molecules to the opposite side of the global box, so each
// copy's position is shifted by domain.PeriodicShift before being handed
// off; without it a ghost would arrive at its own unwrapped coordinate
// and land back near the boundary it left instead of in the periodic
// image halo cell on the far side.
func (s *SimulationLoop) packHaloOutgoing(partners []*domain.CommunicationPartner) (out map[int][]*mdcore.Molecule, local []*mdcore.Molecule) {
	out = make(map[int][]*mdcore.Molecule)
	boundary := s.Container.BoundaryCells()

	for _, p := range partners {
		region := s.Container.RegionForOffset(p.Offset)
		shift := s.Domain.PeriodicShift(p.Offset)

		for _, c := range boundary {
			for _, m := range c.Molecules {
				if m.Ghost || !region.Contains([3]float64{m.R.X, m.R.Y, m.R.Z}) {
					continue
				}
				ghostCopy := *m
				ghostCopy.Ghost = true
				ghostCopy.R = ghostCopy.R.Add(shift)
				if p.Local {
					local = append(local, &ghostCopy)
				} else {
					out[p.Rank] = append(out[p.Rank], &ghostCopy)
				}
			}
		}
	}
	return out, local
}

func (s *SimulationLoop) onDiagnostic(elapsed time.Duration, partners []*domain.CommunicationPartner) {
	if s.Log == nil {
		return
	}
	s.Log.Escalate()
	for _, p := range partners {
		s.Log.Warnf("halo exchange pending %s: rank=%d state=%s", elapsed, p.Rank, p.State())
	}
}

func (s *SimulationLoop) buildSoACache() map[*container.Cell]*cellsoa.CellSoA {
	cache := make(map[*container.Cell]*cellsoa.CellSoA)
	for _, c := range s.Container.Cells {
		if len(c.Molecules) == 0 {
			continue
		}
		cache[c] = cellsoa.Build(c.Molecules, s.Table, s.Backend)
	}
	return cache
}

// extendSoACache rebuilds the CellSoA for any halo cell a batch of newly
// arrived ghosts landed in, so the pair kernel's boundary pass sees them.
func (s *SimulationLoop) extendSoACache(cache map[*container.Cell]*cellsoa.CellSoA, ghosts []*mdcore.Molecule) {
	touched := make(map[*container.Cell]bool)
	for _, m := range ghosts {
		if c := s.Container.CellAt([3]float64{m.R.X, m.R.Y, m.R.Z}); c != nil {
			touched[c] = true
		}
	}
	for c := range touched {
		cache[c] = cellsoa.Build(c.Molecules, s.Table, s.Backend)
	}
}

func (s *SimulationLoop) traverseSequential(cache map[*container.Cell]*cellsoa.CellSoA) {
	s.Container.TraversePairs(
		func(c *container.Cell) { s.Kernel.ProcessCell(cache[c]) },
		func(a, b *container.Cell) { s.Kernel.ProcessCellPair(cache[a], cache[b], container.CalculateMacroscopic(a, b)) },
	)
}

// traverseOverlap runs the innermost-cell stages (which by construction
// never border a halo cell, since a cell adjacent to the halo classifies
// as Boundary, not Inner) on the calling goroutine while a second
// goroutine drives the halo exchange concurrently via errgroup. Once both
// finish, the newly arrived ghosts are folded into the container and the
// boundary-cell remainder — the only part of the traversal that needs
// them — runs last.
func (s *SimulationLoop) traverseOverlap(cache map[*container.Cell]*cellsoa.CellSoA) error {
	var ghosts []*mdcore.Molecule
	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		ghosts, err = s.haloExchange()
		return err
	})

	for stageIdx := 0; stageIdx < s.Container.StageCount(); stageIdx++ {
		s.Container.TraversePartialInnermostCells(stageIdx,
			func(c *container.Cell) { s.Kernel.ProcessCell(cache[c]) },
			func(a, b *container.Cell) { s.Kernel.ProcessCellPair(cache[a], cache[b], container.CalculateMacroscopic(a, b)) },
		)
	}

	if err := g.Wait(); err != nil {
		return err
	}

	s.Container.InsertGhosts(ghosts)
	s.extendSoACache(cache, ghosts)
	s.Container.TraverseNonInnermostCells(
		func(c *container.Cell) { s.Kernel.ProcessCell(cache[c]) },
		func(a, b *container.Cell) { s.Kernel.ProcessCellPair(cache[a], cache[b], container.CalculateMacroscopic(a, b)) },
	)
	return nil
}
