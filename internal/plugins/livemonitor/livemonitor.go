// Package livemonitor is the afterForces-hook TUI dashboard named in
// SPEC_FULL.md's domain stack: a small non-blocking console display of
// step, wall time, potential energy, temperature, and energy drift,
// driven once per step. It runs only on rank 0, per spec.md section
// 6's "rank 0 is the sole console writer."
//
// Grounded on the teacher's internal/tui/live.go (a frame-rate-limited
// redraw loop holding a small bounded trail of recent state) but
// rendered with bubbletea's Program/Msg model instead of raw ANSI
// escapes, and styled with lipgloss instead of hand-built strings.
package livemonitor

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	valueStyle  = lipgloss.NewStyle().Bold(true)
)

// Sample is one step's worth of dashboard data.
type Sample struct {
	Step        int
	WallTime    time.Duration
	Potential   float64
	Temperature float64
	Drift       float64
}

type sampleMsg Sample

type model struct {
	frameRate int
	lastDraw  time.Time
	last      Sample
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sampleMsg:
		m.last = Sample(msg)
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	row := func(label string, value string) string {
		return labelStyle.Render(label+": ") + valueStyle.Render(value) + "  "
	}
	return headerStyle.Render("pair-interaction engine") + "\n" +
		row("step", fmt.Sprintf("%d", m.last.Step)) +
		row("t_wall", m.last.WallTime.Round(time.Millisecond).String()) +
		row("U", fmt.Sprintf("%.6f", m.last.Potential)) +
		row("T", fmt.Sprintf("%.6f", m.last.Temperature)) +
		row("drift", fmt.Sprintf("%.3e", m.last.Drift)) + "\n"
}

// Monitor owns a running bubbletea program; Observe sends it a fresh
// sample from the calling goroutine without blocking on a redraw.
type Monitor struct {
	program *tea.Program
	done    chan struct{}
}

// Start launches the dashboard's event loop in the background. The
// caller must be rank 0; every other rank should not construct a
// Monitor at all.
func Start() *Monitor {
	p := tea.NewProgram(model{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run()
	}()
	return &Monitor{program: p, done: done}
}

// Observe pushes one step's sample into the dashboard. Safe to call
// from the simulation loop's afterForces hook every step; bubbletea
// coalesces rendering internally so this never blocks on I/O.
func (mon *Monitor) Observe(s Sample) {
	if mon == nil {
		return
	}
	mon.program.Send(sampleMsg(s))
}

// Stop quits the dashboard and waits for its event loop to exit.
func (mon *Monitor) Stop() {
	if mon == nil {
		return
	}
	mon.program.Quit()
	<-mon.done
}
