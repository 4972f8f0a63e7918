package market

import (
	"time"
)

// Eastern is the exchange-local timezone for CME equity index futures.
// All anchor and session math happens in this zone so daylight-saving
// transitions are resolved by the zone database, never by fixed offsets.
var Eastern = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic("market: load location " + name + ": " + err.Error())
	}
	return loc
}

// ToLocal converts any instant to exchange-local time. Idempotent.
func ToLocal(t time.Time) time.Time {
	return t.In(Eastern)
}

// ToUTC converts any instant to UTC. Idempotent.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// StartOfDay returns midnight exchange-local on t's local calendar date.
func StartOfDay(t time.Time) time.Time {
	lt := ToLocal(t)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, Eastern)
}

// StartOfWeek returns Monday 00:00 exchange-local for the week containing t.
func StartOfWeek(t time.Time) time.Time {
	lt := ToLocal(t)
	// time.Weekday has Sunday == 0; the trading week anchors on Monday.
	offset := (int(lt.Weekday()) + 6) % 7
	day := StartOfDay(lt)
	return day.AddDate(0, 0, -offset)
}

// StartOfMonth returns the 1st at 00:00 exchange-local for t's month.
func StartOfMonth(t time.Time) time.Time {
	lt := ToLocal(t)
	return time.Date(lt.Year(), lt.Month(), 1, 0, 0, 0, 0, Eastern)
}

// AnchorAt returns hh:mm exchange-local on t's local calendar date,
// used for the fixed clock anchors (07:00 and 08:30).
func AnchorAt(t time.Time, hour, minute int) time.Time {
	lt := ToLocal(t)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), hour, minute, 0, 0, Eastern)
}

// CandleOpen returns the opening instant of the candle of the given
// width that contains t, measured from local midnight.
func CandleOpen(t time.Time, width time.Duration) time.Time {
	lt := ToLocal(t)
	day := StartOfDay(lt)
	into := lt.Sub(day)
	return day.Add(into - into%width)
}
