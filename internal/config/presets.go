package config

import (
	"fmt"

	"github.com/mikesoehner/ls1-mardyn/internal/mdcore"
	"github.com/mikesoehner/ls1-mardyn/internal/vecmath"
	"gopkg.in/yaml.v3"
)

// componentPreset is the YAML-facing shape of one named component, kept
// separate from mdcore.Component so the on-disk format stays stable even
// if the in-memory representation grows fields the file doesn't need to
// carry (TypeID assignment, derived pair-table entries).
type componentPreset struct {
	Name             string    `yaml:"name"`
	Mass             float64   `yaml:"mass"`
	PrincipalInertia []float64 `yaml:"principal_inertia"`
	LJSites          []struct {
		Offset  []float64 `yaml:"offset"`
		Epsilon float64   `yaml:"epsilon"`
		Sigma   float64   `yaml:"sigma"`
	} `yaml:"lj_sites"`
	Charges []struct {
		Offset []float64 `yaml:"offset"`
		Q      float64   `yaml:"q"`
	} `yaml:"charges"`
	Dipoles []struct {
		Offset []float64 `yaml:"offset"`
		Moment float64   `yaml:"moment"`
		Axis   []float64 `yaml:"axis"`
	} `yaml:"dipoles"`
}

// Presets is the teacher's named-model-preset pattern (internal/config's
// original Presets map keyed model -> preset name) applied to molecule
// species instead of dynamical-systems models. Values are embedded YAML
// text rather than *Config literals because a Component's site geometry
// is naturally tabular, matching how spec.md section 3's Data Model
// itself lists LJ/charge/dipole sites as flat offset/parameter rows.
var Presets = map[string]string{
	"argon": `
name: argon
mass: 39.948
principal_inertia: [0, 0, 0]
lj_sites:
  - offset: [0, 0, 0]
    epsilon: 0.997
    sigma: 3.40
`,
	"nitrogen-2clj": `
name: nitrogen-2clj
mass: 28.0134
principal_inertia: [0, 1.44e-5, 1.44e-5]
lj_sites:
  - offset: [0, 0, -0.0549]
    epsilon: 0.294
    sigma: 3.31
  - offset: [0, 0, 0.0549]
    epsilon: 0.294
    sigma: 3.31
`,
	"water-spce": `
name: water-spce
mass: 18.0154
principal_inertia: [1.921e-5, 1.012e-5, 0.909e-5]
lj_sites:
  - offset: [0, 0, 0]
    epsilon: 0.650
    sigma: 3.166
charges:
  - offset: [0, 0.06461, 0.04024]
    q: 0.4238
  - offset: [0, -0.06461, 0.04024]
    q: 0.4238
  - offset: [0, 0, -0.01340]
    q: -0.8476
dipoles: []
`,
}

// GetPreset decodes the named component preset and resolves it into an
// mdcore.Component with the given TypeID, computing each LJ site's
// Shift6 against globalCutoff the way NewComponentTable expects its
// inputs pre-shifted.
func GetPreset(name string, typeID int, globalCutoff float64) (*mdcore.Component, error) {
	raw, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown component preset %q", mdcore.ErrConfig, name)
	}

	var p componentPreset
	if err := yaml.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: decoding preset %q: %v", mdcore.ErrConfig, name, err)
	}

	comp := &mdcore.Component{
		ID:               typeID,
		Name:             p.Name,
		Mass:             p.Mass,
		PrincipalInertia: vec3From(p.PrincipalInertia),
	}

	for i, s := range p.LJSites {
		comp.LJSites = append(comp.LJSites, mdcore.LJSite{
			Offset:  vec3From(s.Offset),
			Epsilon: s.Epsilon,
			Sigma:   s.Sigma,
			Shift6:  shift6(s.Epsilon, s.Sigma, globalCutoff),
			TypeID:  typeID*100 + i,
		})
	}
	for _, s := range p.Charges {
		comp.Charges = append(comp.Charges, mdcore.ChargeSite{Offset: vec3From(s.Offset), Q: s.Q})
	}
	for _, s := range p.Dipoles {
		comp.Dipoles = append(comp.Dipoles, mdcore.DipoleSite{
			Offset: vec3From(s.Offset),
			Moment: s.Moment,
			Axis:   vec3From(s.Axis),
		})
	}
	return comp, nil
}

// ListPresets returns the names of every built-in component preset.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}

func vec3From(v []float64) vecmath.Vec3 {
	if len(v) < 3 {
		return vecmath.Vec3{}
	}
	return vecmath.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

// shift6 precomputes 6*U_shift = 6 * 4*eps*((sigma/rc)^12 - (sigma/rc)^6),
// the cutoff-shift constant NewComponentTable's pair table stores per
// site so the kernel never evaluates the potential at the cutoff itself.
func shift6(epsilon, sigma, cutoff float64) float64 {
	if cutoff <= 0 {
		return 0
	}
	sr6 := pow6(sigma / cutoff)
	return 6 * 4 * epsilon * (sr6*sr6 - sr6)
}

func pow6(x float64) float64 {
	x2 := x * x
	return x2 * x2 * x2
}
