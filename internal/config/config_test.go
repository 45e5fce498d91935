package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `<?xml version="1.0" encoding="UTF-8"?>
<mardyn>
  <header>
    <version>20100525</version>
  </header>
  <experiment>
    <timestep-length>0.001</timestep-length>
    <cutoff-radius>2.5</cutoff-radius>
    <phase-space source="argon.inp" format="ASCII"/>
    <components source="argon.xml" format="XML-internal"/>
    <data-structure>
      <linked-cells>1</linked-cells>
    </data-structure>
    <output>
      <writer>res</writer>
      <writer>ckp</writer>
      <frequency>1000</frequency>
      <prefix>run</prefix>
    </output>
  </experiment>
</mardyn>
`

func writeSample(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.xml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("writing sample config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeSample(t, sampleConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Experiment.TimestepLength != 0.001 {
		t.Errorf("expected timestep-length 0.001, got %v", cfg.Experiment.TimestepLength)
	}
	if cfg.Experiment.CutoffRadius != 2.5 {
		t.Errorf("expected cutoff-radius 2.5, got %v", cfg.Experiment.CutoffRadius)
	}
	if cfg.Experiment.PhaseSpace.Source != "argon.inp" {
		t.Errorf("expected phase-space source argon.inp, got %q", cfg.Experiment.PhaseSpace.Source)
	}
	if cfg.CellsPerCutoff() != 1 {
		t.Errorf("expected linked-cells 1, got %d", cfg.CellsPerCutoff())
	}
}

func TestLoadRejectsOldVersion(t *testing.T) {
	body := `<mardyn><header><version>19990101</version></header></mardyn>`
	path := writeSample(t, body)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for out-of-range version")
	}
}

func TestLoadRejectsMissingDataStructure(t *testing.T) {
	body := `<mardyn>
  <header><version>20100525</version></header>
  <experiment>
    <timestep-length>0.001</timestep-length>
    <cutoff-radius>2.5</cutoff-radius>
    <phase-space source="a" format="ASCII"/>
    <components source="b" format="XML-internal"/>
  </experiment>
</mardyn>`
	path := writeSample(t, body)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing data-structure")
	}
}

func TestLoadRejectsUnknownWriter(t *testing.T) {
	body := `<mardyn>
  <header><version>20100525</version></header>
  <experiment>
    <timestep-length>0.001</timestep-length>
    <cutoff-radius>2.5</cutoff-radius>
    <phase-space source="a" format="ASCII"/>
    <components source="b" format="XML-internal"/>
    <data-structure><linked-cells>1</linked-cells></data-structure>
    <output><writer>bogus</writer></output>
  </experiment>
</mardyn>`
	path := writeSample(t, body)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown writer")
	}
}

func TestGetPresetArgon(t *testing.T) {
	comp, err := GetPreset("argon", 0, 2.5)
	if err != nil {
		t.Fatalf("GetPreset: %v", err)
	}
	if len(comp.LJSites) != 1 {
		t.Fatalf("expected 1 LJ site, got %d", len(comp.LJSites))
	}
	if comp.Mass <= 0 {
		t.Error("expected positive mass")
	}
}

func TestGetPresetWaterHasChargesAndLJ(t *testing.T) {
	comp, err := GetPreset("water-spce", 1, 2.5)
	if err != nil {
		t.Fatalf("GetPreset: %v", err)
	}
	if len(comp.Charges) != 3 {
		t.Errorf("expected 3 charge sites, got %d", len(comp.Charges))
	}
	if len(comp.LJSites) != 1 {
		t.Errorf("expected 1 LJ site, got %d", len(comp.LJSites))
	}
}

func TestGetPresetUnknownName(t *testing.T) {
	if _, err := GetPreset("does-not-exist", 0, 2.5); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}

func TestListPresetsIncludesBuiltins(t *testing.T) {
	names := ListPresets()
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	for _, want := range []string{"argon", "nitrogen-2clj", "water-spce"} {
		if !found[want] {
			t.Errorf("expected preset %q in ListPresets, got %v", want, names)
		}
	}
}
