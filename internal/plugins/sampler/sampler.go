// Package sampler implements the afterForces-hook ASCII trend plugin
// named in SPEC_FULL.md's domain stack: a rolling console graph of
// potential energy / temperature, the same thing the teacher's
// cmd/dynsim plotRun command drew for a finished run, run live instead.
package sampler

import (
	"fmt"
	"io"

	"github.com/guptarohit/asciigraph"
)

// Sampler accumulates a bounded trailing window of one scalar series and
// renders it with asciigraph every Interval steps.
type Sampler struct {
	Label    string
	Interval int
	Window   int
	Out      io.Writer

	values []float64
	step   int
}

func New(label string, interval, window int, out io.Writer) *Sampler {
	return &Sampler{Label: label, Interval: interval, Window: window, Out: out}
}

// Observe appends one sample and, every Interval calls, renders the
// trailing window to Out.
func (s *Sampler) Observe(value float64) {
	s.values = append(s.values, value)
	if s.Window > 0 && len(s.values) > s.Window {
		s.values = s.values[len(s.values)-s.Window:]
	}
	s.step++
	if s.Interval <= 0 || s.step%s.Interval != 0 {
		return
	}
	graph := asciigraph.Plot(s.values, asciigraph.Caption(s.Label), asciigraph.Height(10))
	fmt.Fprintln(s.Out, graph)
}
