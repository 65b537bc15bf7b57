package match

import (
	"errors"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
)

// clock layouts accepted for the stored time column.  MySQL TIME columns come
// back as HH:MM:SS; the admin form posts HH:MM.
var clockLayouts = []string{"15:04:05", "15:04"}

// ScheduledStart combines the stored date and time fields of a match into a
// kickoff instant in loc.
func ScheduledStart(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		return time.Time{}, &MalformedScheduleError{Date: date, Time: clock, Err: errors.New("no time zone configured")}
	}
	d := strings.TrimSpace(date)
	// DATE columns scanned as text may carry a zero time suffix.
	if i := strings.IndexAny(d, " T"); i > 0 {
		d = d[:i]
	}
	c := strings.TrimSpace(clock)
	var lastErr error
	for _, layout := range clockLayouts {
		t, err := time.ParseInLocation(dateLayout+" "+layout, d+" "+c, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &MalformedScheduleError{Date: date, Time: clock, Err: lastErr}
}

// End returns the instant a match window closes.
func End(start time.Time, duration time.Duration) time.Time {
	return start.Add(duration)
}

// Evaluate derives the status a match should have at now.  It only ever moves
// forward: upcoming becomes live inside the window, anything not yet finished
// becomes finished once the window has closed, and every other combination
// returns current unchanged.
func Evaluate(current Status, start, now time.Time, duration time.Duration) Status {
	end := End(start, duration)
	switch {
	case current == Upcoming && !now.Before(start) && now.Before(end):
		return Live
	case current != Finished && !now.Before(end):
		return Finished
	default:
		return current
	}
}

// EvaluateSchedule parses the stored schedule fields and evaluates the status
// with the fixed match Duration.
func EvaluateSchedule(current Status, date, clock string, now time.Time, loc *time.Location) (Status, error) {
	start, err := ScheduledStart(date, clock, loc)
	if err != nil {
		return current, err
	}
	return Evaluate(current, start, now.In(loc), Duration), nil
}
