// Package scheduler runs the periodic cache warm job so dashboard
// requests are served from fresh data instead of triggering fetches.
package scheduler

import (
	"fmt"
	"log"

	"LevelSentinel/internal/collector"
	"LevelSentinel/internal/refresh"

	"github.com/robfig/cron/v3"
)

// WarmIntervals are the bar intervals the dashboard reads on every
// render, warmed ahead of demand.
var WarmIntervals = []string{"1m", "1h", "1d"}

// Scheduler manages the cron warm task.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Tracker   *refresh.Tracker
	Symbol    string
}

// NewScheduler creates a scheduler warming the given symbol.
func NewScheduler(col *collector.Collector, tr *refresh.Tracker, symbol string) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Tracker:   tr,
		Symbol:    symbol,
	}
}

// Register registers the warm task with the given cron spec.
func (s *Scheduler) Register(warmCron string) error {
	if _, err := s.Cron.AddFunc(warmCron, s.warmTask); err != nil {
		return fmt.Errorf("register warm task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunWarmNow executes the warm task immediately (for RUN_ON_START).
func (s *Scheduler) RunWarmNow() {
	s.warmTask()
}

func (s *Scheduler) warmTask() {
	log.Printf("[INFO] warming %s caches: %v", s.Symbol, WarmIntervals)
	ok := s.Collector.WarmUp(s.Symbol, WarmIntervals)
	if ok == 0 {
		log.Printf("[WARN] warm task refreshed no intervals for %s", s.Symbol)
		return
	}
	s.Tracker.Mark()
	log.Printf("[INFO] warm task refreshed %d/%d intervals", ok, len(WarmIntervals))
}
