package scheduler

import (
	"errors"
	"testing"
	"time"

	"LevelSentinel/internal/collector"
	"LevelSentinel/internal/model"
	"LevelSentinel/internal/refresh"
)

func warmMock() *collector.MockFetcher {
	return &collector.MockFetcher{
		Price: 21000,
		Bars: map[string][]model.Bar{
			"1m": collector.GenerateMockBars(21000, 120, time.Minute),
			"1h": collector.GenerateMockBars(21000, 48, time.Hour),
			"1d": collector.GenerateMockBars(21000, 10, 24*time.Hour),
		},
	}
}

func TestWarmTask_MarksTrackerOnSuccess(t *testing.T) {
	clk := time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)
	now := func() time.Time { return clk }
	tr := refresh.NewTracker(now)
	col := collector.New(warmMock(), collector.WithClock(now, func(time.Duration) {}))

	clk = clk.Add(500 * time.Second)
	s := NewScheduler(col, tr, "NQ")
	s.RunWarmNow()

	if got := tr.Status().SecondsElapsed; got != 0 {
		t.Errorf("tracker elapsed = %d after warm, want 0", got)
	}
}

func TestWarmTask_SkipsMarkWhenAllFail(t *testing.T) {
	clk := time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)
	now := func() time.Time { return clk }
	tr := refresh.NewTracker(now)

	mock := warmMock()
	mock.Err = errors.New("provider down")
	col := collector.New(mock,
		collector.WithClock(now, func(time.Duration) {}),
		collector.WithRetryDelays(nil))

	clk = clk.Add(500 * time.Second)
	s := NewScheduler(col, tr, "NQ")
	s.RunWarmNow()

	if got := tr.Status().SecondsElapsed; got != 500 {
		t.Errorf("tracker elapsed = %d, want 500 (no mark on total failure)", got)
	}
}

func TestRegister_BadSpec(t *testing.T) {
	s := NewScheduler(collector.New(warmMock()), refresh.NewTracker(nil), "NQ")
	if err := s.Register("not a cron spec"); err == nil {
		t.Error("expected error for malformed cron spec")
	}
}
