// Package storage persists a run's human-facing summary and per-step
// metrics trace, distinct from internal/phasespace's ASCII molecular
// state format (spec.md section 6): this is diagnostic output for a
// person skimming past runs, not simulation input/output.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mikesoehner/ls1-mardyn/internal/mdcore"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata is the human-facing summary of one run, written once at
// finish alongside the checkpoint internal/phasespace produces.
type RunMetadata struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Timesteps   int       `json:"timesteps"`
	Dt          float64   `json:"dt"`
	CutoffRadius float64  `json:"cutoff_radius"`
	NumRanks    int       `json:"num_ranks"`

	FinalPotentialEnergy float64 `json:"final_potential_energy"`
	FinalVirial          float64 `json:"final_virial"`
	FinalTemperature     float64 `json:"final_temperature"`
}

// StepSample is one row of the per-step metrics trace.
type StepSample struct {
	Step        int
	Time        float64
	Accumulated mdcore.Accumulators
	Temperature float64
}

// Save writes metadata.json and metrics.csv for one run, following the
// teacher's json-metadata-plus-csv-trace shape (originally one JSON
// header plus a states.csv trajectory dump for a dynamical-systems run;
// here the CSV columns are per-step macroscopic sums instead of a raw
// state vector).
func (s *Store) Save(runID string, meta RunMetadata, samples []StepSample) error {
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "metrics.csv"))
	if err != nil {
		return err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"step", "time", "potential_energy", "virial", "temperature"}); err != nil {
		return err
	}
	for _, sample := range samples {
		row := []string{
			strconv.Itoa(sample.Step),
			strconv.FormatFloat(sample.Time, 'f', 6, 64),
			strconv.FormatFloat(sample.Accumulated.PotentialEnergy(), 'f', 6, 64),
			strconv.FormatFloat(sample.Accumulated.TotalVirial(), 'f', 6, 64),
			strconv.FormatFloat(sample.Temperature, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadMetrics re-reads a run's metrics.csv trace back into StepSamples'
// scalar columns (Accumulated is not round-tripped; only the finalized
// potential energy/virial values are, since that is all the CSV stores).
func (s *Store) LoadMetrics(runID string) ([]StepSample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "metrics.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	samples := make([]StepSample, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 5 {
			continue
		}
		step, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		t, _ := strconv.ParseFloat(rec[1], 64)
		u, _ := strconv.ParseFloat(rec[2], 64)
		virial, _ := strconv.ParseFloat(rec[3], 64)
		temp, _ := strconv.ParseFloat(rec[4], 64)
		samples = append(samples, StepSample{
			Step: step, Time: t, Temperature: temp,
			Accumulated: mdcore.Accumulators{SixULJ: u * 6, Virial: virial},
		})
	}
	return samples, nil
}
