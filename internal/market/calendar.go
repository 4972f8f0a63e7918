package market

import (
	"fmt"
	"time"
)

// State classifies an instant against the weekly futures schedule.
type State string

const (
	StateOpen        State = "OPEN"
	StateClosed      State = "CLOSED"
	StateMaintenance State = "MAINTENANCE"
)

// CME equity index futures schedule, exchange-local time:
// open Sunday 18:00 through Friday 17:00, with a daily maintenance
// halt 17:00-18:00 Monday-Thursday. The Friday 17:00-18:00 slot counts
// as CLOSED rather than MAINTENANCE: the weekend closure takes
// precedence over the daily halt. Saturday is always CLOSED.
const (
	openHour        = 18 // Sunday
	closeHour       = 17 // Friday
	maintenanceHour = 17
)

// EventType labels the next schedule transition.
type EventType string

const (
	EventOpen  EventType = "open"
	EventClose EventType = "close"
)

// Event describes the next market open or close relative to some instant.
type Event struct {
	Type      EventType     `json:"type"`
	At        time.Time     `json:"at"`
	Countdown time.Duration `json:"-"`
}

// Display formats the countdown as whole hours and minutes.
func (e Event) Display() string {
	return FormatCountdown(e.Countdown)
}

// FormatCountdown renders a duration as "Xh Ym", clamped at zero.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", h, m)
}

// CurrentState returns the market state at instant t. Pure and total:
// every instant maps to exactly one of OPEN, CLOSED, MAINTENANCE.
// At an exact boundary the later state takes effect.
func CurrentState(t time.Time) State {
	lt := ToLocal(t)
	switch lt.Weekday() {
	case time.Saturday:
		return StateClosed
	case time.Sunday:
		if lt.Hour() < openHour {
			return StateClosed
		}
		return StateOpen
	case time.Friday:
		if lt.Hour() >= closeHour {
			return StateClosed
		}
		return StateOpen
	default: // Monday-Thursday
		if lt.Hour() == maintenanceHour {
			return StateMaintenance
		}
		return StateOpen
	}
}

// NextEvent projects the next schedule transition after t. When the
// market is OPEN the next event is the upcoming Friday 17:00 close;
// otherwise it is the upcoming Sunday 18:00 open.
func NextEvent(t time.Time) Event {
	lt := ToLocal(t)

	if CurrentState(lt) == StateOpen {
		at := nextWeekdayAt(lt, time.Friday, closeHour)
		return Event{Type: EventClose, At: at, Countdown: at.Sub(lt)}
	}
	at := nextWeekdayAt(lt, time.Sunday, openHour)
	return Event{Type: EventOpen, At: at, Countdown: at.Sub(lt)}
}

// nextWeekdayAt finds the first instant at hour:00 local on the given
// weekday strictly after t (rolling a full week when already past).
func nextWeekdayAt(lt time.Time, day time.Weekday, hour int) time.Time {
	days := (int(day) - int(lt.Weekday()) + 7) % 7
	at := AnchorAt(lt.AddDate(0, 0, days), hour, 0)
	if !at.After(lt) {
		at = AnchorAt(at.AddDate(0, 0, 7), hour, 0)
	}
	return at
}
