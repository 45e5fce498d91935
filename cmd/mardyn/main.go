// Command mardyn is the CLI entry point for the pair-interaction engine,
// implementing spec.md section 6's external interface: a single `run`
// subcommand that reads an XML SimulationConfig plus an ASCII
// phase-space file and drives the timestep loop to completion.
//
// Grounded on the teacher's cmd/dynsim/main.go cobra registration style
// (persistent flags on the root command, one RunE-backed subcommand per
// verb), reduced to the single verb this engine's external interface
// actually names.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mikesoehner/ls1-mardyn/internal/cellsoa"
	"github.com/mikesoehner/ls1-mardyn/internal/config"
	"github.com/mikesoehner/ls1-mardyn/internal/container"
	"github.com/mikesoehner/ls1-mardyn/internal/domain"
	"github.com/mikesoehner/ls1-mardyn/internal/integrators"
	"github.com/mikesoehner/ls1-mardyn/internal/kernel"
	"github.com/mikesoehner/ls1-mardyn/internal/logging"
	"github.com/mikesoehner/ls1-mardyn/internal/mdcore"
	"github.com/mikesoehner/ls1-mardyn/internal/metrics"
	"github.com/mikesoehner/ls1-mardyn/internal/phasespace"
	"github.com/mikesoehner/ls1-mardyn/internal/simloop"
	"github.com/mikesoehner/ls1-mardyn/internal/storage"
)

// version is the CLI's own release string, distinct from a run's
// SimulationConfig header/version date stamp.
const version = "0.1.0"

// exitDeadlock is spec.md section 6's "distinct non-zero (e.g. 457)"
// exit code for a communication-deadlock abort.
const exitDeadlock = 457

var (
	timesteps       int
	outputWriters   string
	outputFrequency int
	outputPrefix    string
	incremental     bool
	dataDir         string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "mardyn",
		Short:   "parallel molecular-dynamics pair-interaction engine",
		Version: version,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mardyn", "run metadata directory")

	runCmd := &cobra.Command{
		Use:   "run [options] <input-file>",
		Short: "run a simulation from an XML configuration file",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().IntVarP(&timesteps, "timesteps", "t", 0, "number of timesteps to run (required)")
	runCmd.Flags().StringVarP(&outputWriters, "output", "o", "ckp", "comma-separated subset of {pov,vis,res,ckp,xyz}")
	runCmd.Flags().IntVarP(&outputFrequency, "output-frequency", "f", 100, "steps between periodic output writes")
	runCmd.Flags().StringVarP(&outputPrefix, "output-filename", "p", "default", "output file prefix")
	runCmd.Flags().BoolVarP(&incremental, "incremental", "i", false, "don't overwrite periodic output; suffix by step")
	_ = runCmd.MarkFlagRequired("timesteps")

	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		var stepErr *mdcore.StepError
		if errors.As(err, &stepErr) && errors.Is(stepErr, mdcore.ErrDeadlock) {
			os.Exit(exitDeadlock)
		}
		fmt.Fprintln(os.Stderr, "mardyn:", err)
		os.Exit(1)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	inputFile := args[0]
	writers := strings.Split(outputWriters, ",")

	cfg, err := config.Load(inputFile)
	if err != nil {
		return err
	}
	if cfg.Experiment.PhaseSpace.Format != "ASCII" {
		return fmt.Errorf("%w: unsupported phase-space format %q (only ASCII is implemented)", mdcore.ErrConfig, cfg.Experiment.PhaseSpace.Format)
	}

	phasePath := resolveRelative(inputFile, cfg.Experiment.PhaseSpace.Source)
	header, molecules, err := phasespace.ReadFile(phasePath)
	if err != nil {
		return err
	}

	// The components file itself (an ls1-mardyn XML/ASCII component
	// listing) is out of this core's scope, per spec.md section 1;
	// SPEC_FULL.md's component-preset library stands in for it, keyed
	// by the components/@source basename instead of parsing a real
	// component document.
	presetName := strings.TrimSuffix(filepath.Base(cfg.Experiment.Components.Source), filepath.Ext(cfg.Experiment.Components.Source))
	component, err := config.GetPreset(presetName, 0, cfg.Experiment.CutoffRadius)
	if err != nil {
		return err
	}
	table := mdcore.NewComponentTable([]*mdcore.Component{component}, cfg.Experiment.CutoffRadius)

	boxLength := boundingBox(molecules, cfg.Experiment.CutoffRadius)
	rank := 0
	dom := domain.New(rank, [3]int{1, 1, 1}, boxLength, [3]bool{true, true, true}, nil)

	cellsPerAxis := cellCounts(boxLength, cfg.Experiment.CutoffRadius)
	cont := container.New(dom.LocalOrigin, dom.LocalExtent, cellsPerAxis, 1, dom.BoxLength, dom.Periodic)

	krn := kernel.New(kernel.Config{
		Table:    table,
		CutoffSq: cfg.Experiment.CutoffRadius * cfg.Experiment.CutoffRadius,
	})
	integrator := integrators.NewLeapfrog(cfg.Experiment.TimestepLength)
	logger := logging.New(rank)

	loop := &simloop.SimulationLoop{
		Domain:     dom,
		Container:  cont,
		Table:      table,
		Integrator: integrator,
		Kernel:     krn,
		Backend:    cellsoa.GetBackend(),
		Log:        logger,
		Molecules:  molecules,
	}
	cont.Update(molecules)

	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	runID := fmt.Sprintf("%s-%d", outputPrefix, time.Now().UnixNano())
	var samples []storage.StepSample

	temperature := metrics.NewTemperature()
	drift := metrics.NewEnergyDrift()
	driftTolerance := 100 * cfg.Experiment.TimestepLength * cfg.Experiment.TimestepLength

	warnedWriters := map[string]bool{}
	warnedDrift := false
	for step := 0; step < timesteps; step++ {
		if err := loop.Step(); err != nil {
			return err
		}
		temperature.Observe(dom.Accumulated, molecules, table, loop.Time)
		drift.Observe(dom.Accumulated, molecules, table, loop.Time)
		if !warnedDrift && drift.Value() > driftTolerance {
			warnedDrift = true
			logger.WithStep(loop.StepCount, loop.Time).Warnf(
				"energy drift %.3e exceeds heuristic tolerance %.3e (property 5)", drift.Value(), driftTolerance)
		}
		ke, dof := mdcore.KineticEnergyAndDOF(molecules, table)
		instantTemp := 0.0
		if dof > 0 {
			instantTemp = 2 * ke / dof
		}
		samples = append(samples, storage.StepSample{
			Step:        loop.StepCount,
			Time:        loop.Time,
			Accumulated: dom.Accumulated,
			Temperature: instantTemp,
		})
		if outputFrequency > 0 && loop.StepCount%outputFrequency == 0 {
			writeOutputs(writers, outputPrefix, loop.StepCount, incremental, header, molecules, warnedWriters, logger)
		}
	}

	if err := phasespace.WriteCheckpoint(outputPrefix, header, molecules); err != nil {
		return err
	}

	meta := storage.RunMetadata{
		Timesteps:        timesteps,
		Dt:               cfg.Experiment.TimestepLength,
		CutoffRadius:     cfg.Experiment.CutoffRadius,
		NumRanks:         1,
		FinalTemperature: temperature.Value(),
	}
	if n := len(samples); n > 0 {
		last := samples[n-1]
		meta.FinalPotentialEnergy = last.Accumulated.PotentialEnergy()
		meta.FinalVirial = last.Accumulated.TotalVirial()
	}
	return store.Save(runID, meta, samples)
}

// writeOutputs handles the subset of spec.md section 6's output writers
// this engine actually implements (res/ckp: the ASCII phase-space
// schema). pov/vis/xyz are external output formats spec.md names as a
// Non-goal collaborator; selecting them logs a one-time warning rather
// than failing the run.
func writeOutputs(writers []string, prefix string, step int, incremental bool, header *phasespace.Header, molecules []*mdcore.Molecule, warned map[string]bool, log *logging.Logger) {
	for _, w := range writers {
		w = strings.TrimSpace(w)
		switch w {
		case "res", "ckp":
			path := fmt.Sprintf("%s.%s", prefix, w)
			if incremental {
				path = fmt.Sprintf("%s.%s.%d", prefix, w, step)
			}
			f, err := os.Create(path)
			if err != nil {
				log.Warnf("output writer %q: %v", w, err)
				continue
			}
			if err := phasespace.Write(f, header, molecules); err != nil {
				log.Warnf("output writer %q: %v", w, err)
			}
			f.Close()
		case "pov", "vis", "xyz":
			if !warned[w] {
				warned[w] = true
				log.Warnf("output writer %q not implemented, skipping", w)
			}
		default:
			if !warned[w] {
				warned[w] = true
				log.Warnf("unknown output writer %q, skipping", w)
			}
		}
	}
}

func resolveRelative(configPath, target string) string {
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(filepath.Dir(configPath), target)
}

// boundingBox estimates a global periodic box from the molecule
// positions read from the phase-space file, padded by one cutoff radius
// on the upper edge. spec.md's phase-space schema carries no explicit
// box-size field, so this is the CLI's own inference, not a core
// concern.
func boundingBox(molecules []*mdcore.Molecule, cutoff float64) [3]float64 {
	var box [3]float64
	for _, m := range molecules {
		box[0] = maxOf(box[0], m.R.X)
		box[1] = maxOf(box[1], m.R.Y)
		box[2] = maxOf(box[2], m.R.Z)
	}
	for i := range box {
		box[i] += cutoff
		if box[i] <= 0 {
			box[i] = cutoff
		}
	}
	return box
}

func maxOf(a, b float64) float64 {
	if b > a {
		return b
	}
	return a
}

func cellCounts(boxLength [3]float64, cutoff float64) [3]int {
	var cells [3]int
	for i := range cells {
		n := int(boxLength[i] / cutoff)
		if n < 1 {
			n = 1
		}
		cells[i] = n
	}
	return cells
}

