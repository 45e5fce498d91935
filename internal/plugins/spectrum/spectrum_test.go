package spectrum

import (
	"math"
	"testing"
)

func TestAnalyzerNotReadyBeforeWindowFilled(t *testing.T) {
	a := New(4)
	a.Observe(1.0)
	a.Observe(2.0)
	if a.Ready() {
		t.Error("expected analyzer not ready before window fills")
	}
}

func TestAnalyzerReadyAndWindowBounded(t *testing.T) {
	a := New(4)
	for i := 0; i < 10; i++ {
		a.Observe(float64(i))
	}
	if !a.Ready() {
		t.Fatal("expected analyzer ready after exceeding window")
	}
	if len(a.series) != 4 {
		t.Errorf("expected series bounded to window 4, got %d", len(a.series))
	}
}

func TestPowerSpectrumConstantSeriesIsDominatedByDC(t *testing.T) {
	a := New(8)
	for i := 0; i < 8; i++ {
		a.Observe(5.0)
	}
	ps := a.PowerSpectrum()
	if len(ps) == 0 {
		t.Fatal("expected nonempty power spectrum")
	}
	for i := 1; i < len(ps); i++ {
		if ps[i] > ps[0]+1e-9 {
			t.Errorf("expected DC bin to dominate a constant series, bin %d (%v) > DC (%v)", i, ps[i], ps[0])
		}
	}
	if math.Abs(ps[0]-40.0) > 1e-6 {
		t.Errorf("expected DC bin ~= sum of series (40), got %v", ps[0])
	}
}
