// Package phasespace reads and writes the ASCII molecular-state format
// spec.md section 6 defines as the engine's external phase-space
// interface: a header block of whitespace-separated key/value records
// followed by a fixed-column molecule table.
//
// This is the format both the initial phase-space input and the
// end-of-run checkpoint (`<prefix>.restart.inp`) use, so a run's
// checkpoint is directly usable as the next run's input (spec.md's
// restart round-trip testable property, S6).
//
// Grounded on internal/storage/store.go's flat-text tabular I/O shape
// (field-by-field writer, a reader tolerant of malformed rows reporting
// a wrapped error rather than panicking) adapted from CSV columns to
// this whitespace-separated schema, and on original_source's
// MDProjectConfig header-token check for the literal header constant.
package phasespace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mikesoehner/ls1-mardyn/internal/mdcore"
	"github.com/mikesoehner/ls1-mardyn/internal/vecmath"
)

// HeaderToken is the literal first line every phase-space and checkpoint
// file must carry.
const HeaderToken = "MDProjectConfig"

// Header carries the key/value records preceding the molecule table.
// Only the fields the loader needs to cross-check against the
// SimulationConfig are kept as typed fields; anything else round-trips
// through Extra.
type Header struct {
	PhaseSpaceFile string
	TimestepLength float64
	CutoffRadius   float64
	Datastructure  string
	CellsInCutoff  int
	Outputs        []string
	Extra          map[string]string
}

// Read parses an ASCII phase-space file from r, returning its header and
// the decoded molecule table. A malformed header or table row aborts the
// whole read wrapped in mdcore.ErrPhaseSpace, matching spec.md section
// 7's propagation policy: phase-space errors surface at startup and
// abort before any simulation begins.
func Read(r io.Reader) (*Header, []*mdcore.Molecule, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	if !scanner.Scan() {
		return nil, nil, fmt.Errorf("%w: empty phase-space file", mdcore.ErrPhaseSpace)
	}
	if strings.TrimSpace(scanner.Text()) != HeaderToken {
		return nil, nil, fmt.Errorf("%w: expected header token %q, got %q", mdcore.ErrPhaseSpace, HeaderToken, scanner.Text())
	}

	header := &Header{Extra: map[string]string{}}
	var molecules []*mdcore.Molecule
	lineNo := 1

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		if isMoleculeRow(fields) {
			m, err := parseMoleculeRow(fields)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: line %d: %v", mdcore.ErrPhaseSpace, lineNo, err)
			}
			molecules = append(molecules, m)
			continue
		}

		if err := header.applyRecord(fields); err != nil {
			return nil, nil, fmt.Errorf("%w: line %d: %v", mdcore.ErrPhaseSpace, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", mdcore.ErrPhaseSpace, err)
	}
	return header, molecules, nil
}

// ReadFile opens path and delegates to Read.
func ReadFile(path string) (*Header, []*mdcore.Molecule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: opening %s: %v", mdcore.ErrPhaseSpace, path, err)
	}
	defer f.Close()
	return Read(f)
}

// isMoleculeRow distinguishes a 15-field molecule row (id cid x y z vx vy
// vz q0 q1 q2 q3 Dx Dy Dz) from a key/value header record by field count
// and the first token being an integer.
func isMoleculeRow(fields []string) bool {
	if len(fields) != 15 {
		return false
	}
	_, err := strconv.ParseUint(fields[0], 10, 64)
	return err == nil
}

func parseMoleculeRow(fields []string) (*mdcore.Molecule, error) {
	vals := make([]float64, len(fields)-2)
	for i, f := range fields[2:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("field %d (%q): %w", i+2, f, err)
		}
		vals[i] = v
	}

	id, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("id %q: %w", fields[0], err)
	}
	cid, err := strconv.ParseUint(fields[1], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("cid %q: %w", fields[1], err)
	}

	m := &mdcore.Molecule{
		ID:             id,
		ComponentIndex: uint16(cid),
		R:              vecmath.Vec3{X: vals[0], Y: vals[1], Z: vals[2]},
		V:              vecmath.Vec3{X: vals[3], Y: vals[4], Z: vals[5]},
		Q:              vecmath.Quaternion{W: vals[6], X: vals[7], Y: vals[8], Z: vals[9]},
		D:              vecmath.Vec3{X: vals[10], Y: vals[11], Z: vals[12]},
	}
	return m, nil
}

func (h *Header) applyRecord(fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	key := fields[0]
	switch key {
	case "phaseSpaceFile":
		if len(fields) < 2 {
			return fmt.Errorf("phaseSpaceFile: missing value")
		}
		h.PhaseSpaceFile = fields[1]
	case "timestepLength":
		v, err := parseFieldFloat(fields, "timestepLength")
		if err != nil {
			return err
		}
		h.TimestepLength = v
	case "cutoffRadius":
		v, err := parseFieldFloat(fields, "cutoffRadius")
		if err != nil {
			return err
		}
		h.CutoffRadius = v
	case "datastructure":
		if len(fields) < 3 {
			return fmt.Errorf("datastructure: expected name and cells-in-cutoff")
		}
		h.Datastructure = fields[1]
		cells, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("datastructure cells-in-cutoff %q: %w", fields[2], err)
		}
		h.CellsInCutoff = cells
	case "output":
		if len(fields) < 2 {
			return fmt.Errorf("output: missing writer name")
		}
		h.Outputs = append(h.Outputs, fields[1:]...)
	default:
		if len(fields) >= 2 {
			h.Extra[key] = strings.Join(fields[1:], " ")
		} else {
			h.Extra[key] = ""
		}
	}
	return nil
}

func parseFieldFloat(fields []string, name string) (float64, error) {
	if len(fields) < 2 {
		return 0, fmt.Errorf("%s: missing value", name)
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", name, fields[1], err)
	}
	return v, nil
}

// Write serializes the header and molecule table in the ASCII schema,
// suitable both as the initial phase-space file and as the checkpoint
// this package's WriteCheckpoint produces.
func Write(w io.Writer, header *Header, molecules []*mdcore.Molecule) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, HeaderToken)
	if header.PhaseSpaceFile != "" {
		fmt.Fprintf(bw, "phaseSpaceFile\t%s\n", header.PhaseSpaceFile)
	}
	if header.TimestepLength != 0 {
		fmt.Fprintf(bw, "timestepLength\t%s\n", formatFloat(header.TimestepLength))
	}
	if header.CutoffRadius != 0 {
		fmt.Fprintf(bw, "cutoffRadius\t%s\n", formatFloat(header.CutoffRadius))
	}
	if header.Datastructure != "" {
		fmt.Fprintf(bw, "datastructure\t%s\t%d\n", header.Datastructure, header.CellsInCutoff)
	}
	for _, o := range header.Outputs {
		fmt.Fprintf(bw, "output\t%s\n", o)
	}

	for _, m := range molecules {
		if m.Ghost {
			continue
		}
		fmt.Fprintf(bw, "%d %d %s %s %s %s %s %s %s %s %s %s %s %s %s\n",
			m.ID, m.ComponentIndex,
			formatFloat(m.R.X), formatFloat(m.R.Y), formatFloat(m.R.Z),
			formatFloat(m.V.X), formatFloat(m.V.Y), formatFloat(m.V.Z),
			formatFloat(m.Q.W), formatFloat(m.Q.X), formatFloat(m.Q.Y), formatFloat(m.Q.Z),
			formatFloat(m.D.X), formatFloat(m.D.Y), formatFloat(m.D.Z))
	}
	return bw.Flush()
}

// WriteCheckpoint writes molecules under prefix+".restart.inp", the
// end-of-run checkpoint spec.md section 6 mandates, reusing the run's
// original header values so the checkpoint is a drop-in phase-space
// input for a follow-on run.
func WriteCheckpoint(prefix string, header *Header, molecules []*mdcore.Molecule) error {
	path := prefix + ".restart.inp"
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating checkpoint %s: %v", mdcore.ErrPhaseSpace, path, err)
	}
	defer f.Close()
	if err := Write(f, header, molecules); err != nil {
		return fmt.Errorf("%w: writing checkpoint %s: %v", mdcore.ErrPhaseSpace, path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 17, 64)
}
