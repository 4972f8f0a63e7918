// Package levels computes the 16 named reference levels and their
// price-proximity signals from hourly, daily, and minute bar series.
package levels

import (
	"math"
	"time"

	"LevelSentinel/internal/market"
	"LevelSentinel/internal/model"
)

// Fixed level identifiers, in display order.
const (
	WeeklyOpen         = "weekly_open"
	MonthlyOpen        = "monthly_open"
	DailyOpenMidnight  = "daily_open_midnight"
	NYOpen0830         = "ny_open_0830"
	NYOpen0700         = "ny_open_0700"
	FourHourOpen       = "four_hour_open"
	TwoHourOpen        = "two_hour_open"
	HourlyOpen         = "hourly_open"
	PreviousHourlyOpen = "previous_hourly_open"
	FifteenMinOpen     = "fifteen_min_open"
	PreviousDayHigh    = "previous_day_high"
	PreviousDayLow     = "previous_day_low"
	PreviousWeekHigh   = "previous_week_high"
	PreviousWeekLow    = "previous_week_low"
	WeeklyHigh         = "weekly_high"
	WeeklyLow          = "weekly_low"
)

// Names lists all 16 level identifiers in display order.
var Names = []string{
	WeeklyOpen, MonthlyOpen, DailyOpenMidnight, NYOpen0830, NYOpen0700,
	FourHourOpen, TwoHourOpen, HourlyOpen, PreviousHourlyOpen, FifteenMinOpen,
	PreviousDayHigh, PreviousDayLow, PreviousWeekHigh, PreviousWeekLow,
	WeeklyHigh, WeeklyLow,
}

// NearThresholdPct is the proximity band: within 0.10% counts as NEAR.
const NearThresholdPct = 0.10

// Proximity classifies current price against a reference level.
type Proximity string

const (
	Above Proximity = "ABOVE"
	Near  Proximity = "NEAR"
	Below Proximity = "BELOW"
)

// Level is one named reference price. Price is nil when the series has
// too little data for the anchor; that is a normal outcome, not an error.
type Level struct {
	Name  string   `json:"name"`
	Price *float64 `json:"price"`
}

// Signal is the classification of current price against one level.
type Signal struct {
	Price       float64   `json:"price"`
	Distance    float64   `json:"distance"`
	DistancePct float64   `json:"distance_pct"`
	Proximity   Proximity `json:"proximity"`
	Signal      int       `json:"signal"` // +1 above, 0 near, -1 below
}

// Closest identifies the resolved level nearest to current price.
type Closest struct {
	Level     string    `json:"level"`
	Price     float64   `json:"price"`
	Distance  float64   `json:"distance"`
	Proximity Proximity `json:"proximity"`
}

// ComputeAll resolves all 16 reference levels. Hourly bars feed the
// anchor opens, daily bars feed the extrema, minute bars feed the
// 15-minute open. Each level resolves independently: a gap in one
// never aborts the others.
func ComputeAll(hourly, daily, minute []model.Bar, now time.Time) []Level {
	lt := market.ToLocal(now)

	prevDayHigh, prevDayLow := prevDayHighLow(daily)
	weekHigh, weekLow := runningWeekHighLow(daily)

	return []Level{
		{WeeklyOpen, anchorOpen(hourly, market.StartOfWeek(lt))},
		{MonthlyOpen, anchorOpen(hourly, market.StartOfMonth(lt))},
		{DailyOpenMidnight, anchorOpen(hourly, market.StartOfDay(lt))},
		{NYOpen0830, anchorOpenOrLatest(hourly, market.AnchorAt(lt, 8, 30))},
		{NYOpen0700, anchorOpenOrLatest(hourly, market.AnchorAt(lt, 7, 0))},
		{FourHourOpen, positionalOpen(hourly, 4)},
		{TwoHourOpen, positionalOpen(hourly, 2)},
		{HourlyOpen, positionalOpen(hourly, 1)},
		{PreviousHourlyOpen, previousPositionalOpen(hourly)},
		{FifteenMinOpen, firstOpen(minute)},
		{PreviousDayHigh, prevDayHigh},
		{PreviousDayLow, prevDayLow},
		{PreviousWeekHigh, prevWeekHigh(daily)},
		{PreviousWeekLow, prevWeekLow(daily)},
		{WeeklyHigh, weekHigh},
		{WeeklyLow, weekLow},
	}
}

// anchorOpen returns the open of the first bar at or after the anchor,
// falling back to the first bar's open when every bar predates it.
func anchorOpen(bars []model.Bar, anchor time.Time) *float64 {
	if len(bars) == 0 {
		return nil
	}
	for _, b := range bars {
		if !market.ToLocal(b.Time).Before(anchor) {
			return ptr(b.Open)
		}
	}
	return ptr(bars[0].Open)
}

// anchorOpenOrLatest is anchorOpen with the opposite fallback: the
// clock anchors (07:00, 08:30) fall back to the most recent bar.
func anchorOpenOrLatest(bars []model.Bar, anchor time.Time) *float64 {
	if len(bars) == 0 {
		return nil
	}
	for _, b := range bars {
		if !market.ToLocal(b.Time).Before(anchor) {
			return ptr(b.Open)
		}
	}
	return ptr(bars[len(bars)-1].Open)
}

// positionalOpen returns the open of the bar n positions from the end
// of the series (n=1 is the last bar), falling back to the first bar.
func positionalOpen(bars []model.Bar, n int) *float64 {
	if len(bars) == 0 {
		return nil
	}
	if len(bars) >= n {
		return ptr(bars[len(bars)-n].Open)
	}
	return ptr(bars[0].Open)
}

// previousPositionalOpen is the second-to-last bar's open, degrading to
// the last bar when only one exists.
func previousPositionalOpen(bars []model.Bar) *float64 {
	if len(bars) == 0 {
		return nil
	}
	if len(bars) >= 2 {
		return ptr(bars[len(bars)-2].Open)
	}
	return ptr(bars[len(bars)-1].Open)
}

func firstOpen(bars []model.Bar) *float64 {
	if len(bars) == 0 {
		return nil
	}
	return ptr(bars[0].Open)
}

// prevDayHighLow takes the second-to-last daily bar, or whole-series
// extrema when fewer than two daily bars exist.
func prevDayHighLow(daily []model.Bar) (*float64, *float64) {
	if len(daily) == 0 {
		return nil, nil
	}
	if len(daily) >= 2 {
		prev := daily[len(daily)-2]
		return ptr(prev.High), ptr(prev.Low)
	}
	h, l := extrema(daily)
	return ptr(h), ptr(l)
}

// prevWeekHigh scans daily bars at positions [-13:-6], a positional
// proxy for the previous calendar week. The window drifts on weeks
// with holidays; that imprecision is deliberate and documented.
func prevWeekHigh(daily []model.Bar) *float64 {
	w := prevWeekWindow(daily)
	if w == nil {
		return nil
	}
	h, _ := extrema(w)
	return ptr(h)
}

func prevWeekLow(daily []model.Bar) *float64 {
	w := prevWeekWindow(daily)
	if w == nil {
		return nil
	}
	_, l := extrema(w)
	return ptr(l)
}

func prevWeekWindow(daily []model.Bar) []model.Bar {
	n := len(daily)
	if n == 0 {
		return nil
	}
	if n >= 7 {
		lo, hi := n-13, n-6
		if lo < 0 {
			lo = 0
		}
		if hi > lo {
			return daily[lo:hi]
		}
	}
	return daily
}

// runningWeekHighLow scans the last 5 daily bars (Mon-Fri), or the
// whole series when shorter.
func runningWeekHighLow(daily []model.Bar) (*float64, *float64) {
	if len(daily) == 0 {
		return nil, nil
	}
	w := daily
	if len(daily) > 5 {
		w = daily[len(daily)-5:]
	}
	h, l := extrema(w)
	return ptr(h), ptr(l)
}

func extrema(bars []model.Bar) (high, low float64) {
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low
}

func ptr(f float64) *float64 { return &f }

// Classify derives the proximity signal for one resolved level.
func Classify(currentPrice, level float64) Signal {
	distance := currentPrice - level
	var pct float64
	if level != 0 {
		pct = math.Abs(distance/level) * 100
	}

	s := Signal{
		Price:       level,
		Distance:    distance,
		DistancePct: pct,
	}
	switch {
	case pct < NearThresholdPct:
		s.Proximity = Near
		s.Signal = 0
	case distance > 0:
		s.Proximity = Above
		s.Signal = 1
	default:
		s.Proximity = Below
		s.Signal = -1
	}
	return s
}

// Signals classifies current price against every resolved level and
// picks the closest by absolute distance. Unresolved levels carry a nil
// signal. The Closest pointer is nil when no level resolved.
func Signals(all []Level, currentPrice float64) (map[string]*Signal, *Closest) {
	signals := make(map[string]*Signal, len(all))
	var closest *Closest
	best := math.Inf(1)

	for _, lv := range all {
		if lv.Price == nil {
			signals[lv.Name] = nil
			continue
		}
		sig := Classify(currentPrice, *lv.Price)
		signals[lv.Name] = &sig

		if d := math.Abs(sig.Distance); d < best {
			best = d
			closest = &Closest{
				Level:     lv.Name,
				Price:     sig.Price,
				Distance:  sig.Distance,
				Proximity: sig.Proximity,
			}
		}
	}
	return signals, closest
}
