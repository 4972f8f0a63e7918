// Package sessions aggregates high/low ranges for the four named
// intraday trading sessions over 5-minute bars.
package sessions

import (
	"time"

	"LevelSentinel/internal/market"
	"LevelSentinel/internal/model"
)

// Session is a fixed named time window in exchange-local time.
type Session struct {
	Key           string `json:"key"`
	Name          string `json:"name"`
	Display       string `json:"display"`
	StartHour     int    `json:"-"`
	StartMin      int    `json:"-"`
	EndHour       int    `json:"-"`
	EndMin        int    `json:"-"`
	SpansMidnight bool   `json:"-"`
}

// The four sessions, exchange-local (ET).
var (
	Asian  = Session{Key: "asian", Name: "Asian", Display: "Asian (18:00-02:00 ET)", StartHour: 18, EndHour: 2, SpansMidnight: true}
	London = Session{Key: "london", Name: "London", Display: "London (03:00-06:00 ET)", StartHour: 3, EndHour: 6}
	NYAM   = Session{Key: "ny_am", Name: "NY AM", Display: "NY AM (08:30-12:00)", StartHour: 8, StartMin: 30, EndHour: 12}
	NYPM   = Session{Key: "ny_pm", Name: "NY PM", Display: "NY PM (14:30-16:00)", StartHour: 14, StartMin: 30, EndHour: 16}
)

// All lists the sessions in chronological order.
var All = []Session{Asian, London, NYAM, NYPM}

// Window returns the [start, end) instants of the session on the given
// target date (any instant on that local date). Midnight-spanning
// sessions start on the prior calendar date and end on the target date.
func (s Session) Window(date time.Time) (start, end time.Time) {
	day := market.StartOfDay(date)
	startDay := day
	if s.SpansMidnight && s.EndHour < s.StartHour {
		startDay = day.AddDate(0, 0, -1)
	}
	start = market.AnchorAt(startDay, s.StartHour, s.StartMin)
	end = market.AnchorAt(day, s.EndHour, s.EndMin)
	return start, end
}

// Range is the aggregated outcome for one session on one date. High,
// Low, and Span are nil when no bars fell inside the window.
type Range struct {
	Session  Session  `json:"session"`
	High     *float64 `json:"high"`
	Low      *float64 `json:"low"`
	Span     *float64 `json:"span"`
	BarCount int      `json:"bar_count"`
	IsActive bool     `json:"is_active"`
}

// Compute aggregates 5-minute bars over the session window on the
// target date. IsActive is only meaningful for current-day queries;
// pass previous=true for historical dates to force it false.
func Compute(bars []model.Bar, s Session, date, now time.Time, previous bool) Range {
	start, end := s.Window(date)

	r := Range{Session: s}
	var high, low float64
	for _, b := range bars {
		lt := market.ToLocal(b.Time)
		if lt.Before(start) || !lt.Before(end) {
			continue
		}
		if r.BarCount == 0 || b.High > high {
			high = b.High
		}
		if r.BarCount == 0 || b.Low < low {
			low = b.Low
		}
		r.BarCount++
	}

	if r.BarCount > 0 {
		span := high - low
		r.High, r.Low, r.Span = &high, &low, &span
	}

	if !previous {
		lnow := market.ToLocal(now)
		r.IsActive = !lnow.Before(start) && lnow.Before(end)
	}
	return r
}

// ComputeDay aggregates every session for one target date.
func ComputeDay(bars []model.Bar, date, now time.Time, previous bool) map[string]Range {
	out := make(map[string]Range, len(All))
	for _, s := range All {
		out[s.Key] = Compute(bars, s, date, now, previous)
	}
	return out
}

// PricePosition compares the current price to a computed range.
type PricePosition struct {
	WithinRange bool `json:"within_range"`
	AboveRange  bool `json:"above_range"`
	BelowRange  bool `json:"below_range"`
}

// Position classifies a price against the session range. Meaningless
// (zero) when the range did not resolve.
func (r Range) Position(price float64) PricePosition {
	if r.High == nil || r.Low == nil {
		return PricePosition{}
	}
	return PricePosition{
		WithinRange: price >= *r.Low && price <= *r.High,
		AboveRange:  price > *r.High,
		BelowRange:  price < *r.Low,
	}
}
