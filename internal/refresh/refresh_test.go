package refresh

import (
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)}
}

func TestStatus_FreshCycle(t *testing.T) {
	clk := newClock()
	tr := NewTracker(clk.Now)

	s := tr.Status()
	if s.Color != "GREEN" {
		t.Errorf("color = %s, want GREEN at cycle start", s.Color)
	}
	if s.SecondsRemaining != 602 {
		t.Errorf("remaining = %d, want 602", s.SecondsRemaining)
	}
	if s.Countdown != "10:02" {
		t.Errorf("countdown = %s, want 10:02", s.Countdown)
	}
	if s.IsOverdue {
		t.Error("fresh cycle must not be overdue")
	}
}

func TestStatus_ColorTransitions(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		color   string
	}{
		{100 * time.Second, "GREEN"},  // 502s left
		{450 * time.Second, "ORANGE"}, // 152s left
		{560 * time.Second, "RED"},    // 42s left
	}
	for _, tt := range tests {
		clk := newClock()
		tr := NewTracker(clk.Now)
		clk.Advance(tt.elapsed)
		if s := tr.Status(); s.Color != tt.color {
			t.Errorf("after %v: color = %s, want %s", tt.elapsed, s.Color, tt.color)
		}
	}
}

func TestStatus_Overdue(t *testing.T) {
	clk := newClock()
	tr := NewTracker(clk.Now)
	clk.Advance(Interval + 30*time.Second)

	s := tr.Status()
	if !s.IsOverdue {
		t.Error("expected overdue after the interval passed")
	}
	if s.SecondsRemaining != 0 {
		t.Errorf("remaining clamps at 0, got %d", s.SecondsRemaining)
	}
	if s.ProgressPercent != 100 {
		t.Errorf("progress clamps at 100, got %v", s.ProgressPercent)
	}
}

func TestMark_RestartsCycle(t *testing.T) {
	clk := newClock()
	tr := NewTracker(clk.Now)
	clk.Advance(500 * time.Second)

	tr.Mark()
	s := tr.Status()
	if s.SecondsElapsed != 0 {
		t.Errorf("elapsed = %d after Mark, want 0", s.SecondsElapsed)
	}
	if !s.LastRefresh.Equal(clk.Now()) {
		t.Errorf("last refresh = %v, want %v", s.LastRefresh, clk.Now())
	}
}
