package livemonitor

import (
	"strings"
	"testing"
	"time"
)

func TestModelUpdateStoresSample(t *testing.T) {
	m := model{}
	next, cmd := m.Update(sampleMsg(Sample{Step: 5, Potential: 1.5, Temperature: 2.5, WallTime: time.Second}))
	if cmd != nil {
		t.Error("expected no command from a plain sample update")
	}
	got := next.(model)
	if got.last.Step != 5 || got.last.Potential != 1.5 {
		t.Errorf("unexpected sample stored: %+v", got.last)
	}
}

func TestModelViewContainsFields(t *testing.T) {
	m := model{last: Sample{Step: 3, Potential: 1.0, Temperature: 2.0, Drift: 0.01}}
	view := m.View()
	for _, want := range []string{"step", "U", "T", "drift"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to mention %q, got %q", want, view)
		}
	}
}
