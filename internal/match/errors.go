package match

import "fmt"

// MalformedScheduleError is returned when the stored date and time fields of
// a match cannot be combined into a timestamp.
type MalformedScheduleError struct {
	Date string
	Time string
	Err  error
}

func (e *MalformedScheduleError) Error() string {
	return fmt.Sprintf("malformed match schedule %q %q: %v", e.Date, e.Time, e.Err)
}

func (e *MalformedScheduleError) Unwrap() error { return e.Err }

// MalformedResultError is returned when a final score is not of the form
// "<int>-<int>" with two non-negative integers.
type MalformedResultError struct {
	Result string
}

func (e *MalformedResultError) Error() string {
	return fmt.Sprintf("malformed match result %q: want <int>-<int>", e.Result)
}
