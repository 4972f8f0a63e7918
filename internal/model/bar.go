package model

import "time"

// Bar represents a single OHLCV candlestick.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// BarSeries is an ordered run of bars for one (symbol, interval) pair.
// Bars are sorted by strictly increasing timestamps. A series is never
// mutated after it leaves the collector; re-fetches replace it wholesale.
type BarSeries struct {
	Symbol    string
	Interval  string
	Bars      []Bar
	FetchedAt time.Time
}

// Clone returns a deep copy so callers can never alias the cached slice.
func (s BarSeries) Clone() BarSeries {
	out := s
	out.Bars = make([]Bar, len(s.Bars))
	copy(out.Bars, s.Bars)
	return out
}

// Age reports how long ago the series was fetched.
func (s BarSeries) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}
