// Package logging wraps logrus for the handful of genuinely long-running,
// multi-rank diagnostics this system has: the domain-decomp deadlock guard,
// the simulation loop's per-step summary, and CLI startup/shutdown.
//
// The teacher (san-kum-dynsim) has no logging package of its own — its CLI
// writes straight to stdout with fmt. The sibling pack repo inference-sim
// carries logrus and uses it directly, package-level, with no wrapper
// struct (sim/simulator.go's logrus.Infof/Warnf calls). We keep that direct
// call style but thread a *Logger down explicitly instead of reaching for
// logrus's package-level default logger, matching spec.md section 9's
// "explicit context parameter, not a global" redesign note.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is a *logrus.Entry with this rank's fields pre-attached. It is
// passed down through DomainDecomp, the simulation loop, and the CLI —
// never reached for as a package-level singleton.
type Logger struct {
	*logrus.Entry
}

// New builds the rank-scoped root logger. Only rank 0 writes to the
// console by default (spec.md section 6: "rank 0 is the sole console
// writer until the deadlock guard raises the log level for all ranks");
// other ranks log at Warn level and above until Escalate is called.
func New(rank int) *Logger {
	base := logrus.New()
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	base.SetOutput(os.Stderr)
	if rank != 0 {
		base.SetLevel(logrus.WarnLevel)
	}
	return &Logger{Entry: base.WithField("rank", rank)}
}

// Escalate raises every rank's log level to Info, the deadlock guard's
// response once a non-blocking exchange has been pending long enough to
// warrant full diagnostics from every participant (spec.md section 6).
func (l *Logger) Escalate() {
	l.Logger.SetLevel(logrus.InfoLevel)
}

// WithStep returns a child logger with the current simulation step and
// time attached, for the simulation loop's per-step summary line.
func (l *Logger) WithStep(step int, t float64) *Logger {
	return &Logger{Entry: l.Entry.WithFields(logrus.Fields{"step": step, "t": t})}
}
