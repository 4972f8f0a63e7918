package collector

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"LevelSentinel/internal/model"
)

// Sentinel errors for the acquisition layer.
var (
	// ErrDataUnavailable means every fetch attempt failed and no
	// fallback series exists for the key.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrValidationFailed marks a malformed provider response; the
	// collector treats it exactly like a transport failure.
	ErrValidationFailed = errors.New("bar series validation failed")

	// ErrInvalidInput marks a malformed symbol or interval, rejected
	// before any I/O.
	ErrInvalidInput = errors.New("invalid input")
)

// minBars is the minimum acceptable series length per interval.
var minBars = map[string]int{
	"1m":  60, // at least 1 hour
	"5m":  12,
	"15m": 4,
	"30m": 2,
	"1h":  24, // at least 1 day
	"1d":  5,  // at least 1 week
	"1wk": 1,
}

// SupportedInterval reports whether the collector knows the interval.
func SupportedInterval(interval string) bool {
	_, ok := minBars[interval]
	return ok
}

// normalizeBars sorts bars by time and drops duplicate timestamps so the
// series invariant (strictly increasing) holds.
func normalizeBars(bars []model.Bar) []model.Bar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for i, b := range bars {
		if i > 0 && !b.Time.After(out[len(out)-1].Time) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// validateBars checks a fetched series before it is admitted to the
// cache. Daily and weekly bars skip the OHLC consistency check because
// the provider rounds those imprecisely.
func validateBars(bars []model.Bar, interval string) error {
	min, ok := minBars[interval]
	if !ok {
		return fmt.Errorf("%w: unsupported interval %q", ErrInvalidInput, interval)
	}
	if len(bars) < min {
		return fmt.Errorf("%w: %d bars, need at least %d for %s",
			ErrValidationFailed, len(bars), min, interval)
	}

	strict := interval != "1d" && interval != "1wk"
	for i, b := range bars {
		if !finite(b.Open) || !finite(b.High) || !finite(b.Low) || !finite(b.Close) || !finite(b.Volume) {
			return fmt.Errorf("%w: non-numeric field in bar %d", ErrValidationFailed, i)
		}
		if strict {
			if b.High < b.Low || b.High < b.Open || b.High < b.Close ||
				b.Low > b.Open || b.Low > b.Close {
				return fmt.Errorf("%w: inconsistent OHLC in bar %d at %v",
					ErrValidationFailed, i, b.Time)
			}
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
