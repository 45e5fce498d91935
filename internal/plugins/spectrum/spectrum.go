// Package spectrum implements the afterForces-hook profile plugin named
// in SPEC_FULL.md's domain stack: it accumulates a kinetic-energy time
// series and periodically emits its power spectrum, a vibrational
// density-of-states diagnostic.
//
// Grounded on the teacher's internal/analysis/fft.go, which used the
// same mjibson/go-dsp/fft package to compute Lyapunov/bifurcation
// spectra from a dynamical system's trajectory; here the series is a
// molecular kinetic-energy trace instead of a state-vector component.
package spectrum

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Analyzer accumulates a kinetic-energy series and, once Window samples
// have been collected, reports a power spectrum on demand.
type Analyzer struct {
	Window int
	series []float64
}

func New(window int) *Analyzer {
	return &Analyzer{Window: window}
}

// Observe appends one step's kinetic energy sample.
func (a *Analyzer) Observe(kineticEnergy float64) {
	a.series = append(a.series, kineticEnergy)
	if len(a.series) > a.Window {
		a.series = a.series[len(a.series)-a.Window:]
	}
}

// Ready reports whether a full window has been accumulated.
func (a *Analyzer) Ready() bool { return len(a.series) >= a.Window && a.Window > 0 }

// PowerSpectrum runs an FFT over the current window and returns the
// magnitude of each non-negative frequency bin, the vibrational
// density-of-states estimate spec.md section 9's supplemented-features
// notes call for as an optional profile.
func (a *Analyzer) PowerSpectrum() []float64 {
	if len(a.series) == 0 {
		return nil
	}
	coeffs := fft.FFTReal(a.series)
	out := make([]float64, len(coeffs)/2+1)
	for i := range out {
		out[i] = cmplx.Abs(coeffs[i])
	}
	return out
}
