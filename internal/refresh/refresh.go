// Package refresh tracks the dashboard refresh cycle and renders a
// countdown with a colour state for the UI.
package refresh

import (
	"fmt"
	"sync"
	"time"
)

// Interval is the refresh cadence the dashboard expects.
const Interval = 602 * time.Second

// Remaining-time thresholds for the colour state.
const (
	greenThreshold  = 200 * time.Second
	orangeThreshold = 60 * time.Second
)

// Tracker records the last completed data refresh. Safe for concurrent
// use; the clock is injected for tests.
type Tracker struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewTracker creates a tracker with the given clock (nil means
// time.Now) and starts the cycle immediately.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{last: now(), now: now}
}

// Mark records that a refresh just completed.
func (t *Tracker) Mark() {
	t.mu.Lock()
	t.last = t.now()
	t.mu.Unlock()
}

// Status is the countdown snapshot for one instant.
type Status struct {
	SecondsRemaining int       `json:"seconds_remaining"`
	SecondsElapsed   int       `json:"seconds_elapsed"`
	TotalInterval    int       `json:"total_interval"`
	Color            string    `json:"color"`
	ColorName        string    `json:"color_name"`
	ProgressPercent  float64   `json:"progress_percent"`
	LastRefresh      time.Time `json:"last_refresh"`
	NextRefresh      time.Time `json:"next_refresh"`
	IsOverdue        bool      `json:"is_overdue"`
	Countdown        string    `json:"countdown"` // MM:SS
}

// Status reports the current cycle state.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	last := t.last
	t.mu.Unlock()

	elapsed := t.now().Sub(last)
	remaining := Interval - elapsed

	s := Status{
		SecondsElapsed: int(elapsed.Seconds()),
		TotalInterval:  int(Interval.Seconds()),
		LastRefresh:    last,
		NextRefresh:    last.Add(Interval),
		IsOverdue:      remaining < 0,
	}
	if remaining > 0 {
		s.SecondsRemaining = int(remaining.Seconds())
	}

	switch {
	case s.IsOverdue:
		s.Color, s.ColorName = "RED", "Refreshing"
	case remaining > greenThreshold:
		s.Color, s.ColorName = "GREEN", "Fresh Data"
	case remaining > orangeThreshold:
		s.Color, s.ColorName = "ORANGE", "Aging Data"
	default:
		s.Color, s.ColorName = "RED", "Stale Data"
	}

	pct := elapsed.Seconds() / Interval.Seconds() * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	s.ProgressPercent = pct
	s.Countdown = fmt.Sprintf("%02d:%02d", s.SecondsRemaining/60, s.SecondsRemaining%60)
	return s
}
