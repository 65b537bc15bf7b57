// Package match holds the football fixture lifecycle rules: deriving a
// match's status from the clock and awarding points to score predictions.
// Everything here is a pure function of its inputs; persistence is left to
// the service layer.
package match

import (
	"fmt"
	"strings"
	"time"
)

// Duration is the fixed length of a match window measured from kickoff.
const Duration = 100 * time.Minute

// Status is the lifecycle state of a match.  The zero value is not a valid
// status; use ParseStatus to build one from user input.
type Status string

const (
	Upcoming Status = "upcoming"
	Live     Status = "live"
	Finished Status = "finished"
)

// Arabic labels shown by the admin panel.  ParseStatus accepts them as input
// too, since older clients still post the label instead of the code.
var labels = map[Status]string{
	Upcoming: "قادمة",
	Live:     "جارية",
	Finished: "منتهية",
}

// rank orders the statuses along the only legal direction of travel.
func (s Status) rank() int {
	switch s {
	case Upcoming:
		return 0
	case Live:
		return 1
	case Finished:
		return 2
	}
	return -1
}

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool { return s.rank() >= 0 }

// Label returns the Arabic display label.
func (s Status) Label() string { return labels[s] }

func (s Status) String() string { return string(s) }

// CanAdvanceTo reports whether moving from s to next keeps the status
// monotonic.  Staying in place is allowed.
func (s Status) CanAdvanceTo(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return next.rank() >= s.rank()
}

// ParseStatus converts an English code or Arabic label into a Status.
func ParseStatus(raw string) (Status, error) {
	v := strings.TrimSpace(raw)
	if s := Status(strings.ToLower(v)); s.Valid() {
		return s, nil
	}
	for s, l := range labels {
		if v == l {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown match status %q", raw)
}
