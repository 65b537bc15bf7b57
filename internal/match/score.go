package match

import (
	"strconv"
	"strings"
)

// ScorePair is a scoreline for team1 and team2.
type ScorePair struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

func (p ScorePair) String() string {
	return strconv.Itoa(p.Team1) + "-" + strconv.Itoa(p.Team2)
}

// Swap relabels the teams.
func (p ScorePair) Swap() ScorePair { return ScorePair{Team1: p.Team2, Team2: p.Team1} }

// Outcome is the win/draw/loss classification of a scoreline.
type Outcome int

const (
	Team2Wins Outcome = -1
	Draw      Outcome = 0
	Team1Wins Outcome = 1
)

// Outcome classifies the pair with a three-way comparison.
func (p ScorePair) Outcome() Outcome {
	switch {
	case p.Team1 > p.Team2:
		return Team1Wins
	case p.Team1 < p.Team2:
		return Team2Wins
	default:
		return Draw
	}
}

// Points awarded to a prediction.
type Points uint8

const (
	PointsMiss    Points = 0
	PointsOutcome Points = 1
	PointsExact   Points = 3
)

// ParseResult reads a final score of the form "<int>-<int>".
func ParseResult(s string) (ScorePair, error) {
	left, right, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return ScorePair{}, &MalformedResultError{Result: s}
	}
	a, errA := parseGoals(left)
	b, errB := parseGoals(right)
	if errA != nil || errB != nil {
		return ScorePair{}, &MalformedResultError{Result: s}
	}
	return ScorePair{Team1: a, Team2: b}, nil
}

func parseGoals(s string) (int, error) {
	s = strings.TrimSpace(s)
	// Atoi accepts a leading sign; goals never carry one.
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(s)
}

// Score awards 3 points for the exact scoreline, 1 for the right outcome and
// 0 otherwise.
func Score(actual, guess ScorePair) Points {
	switch {
	case actual == guess:
		return PointsExact
	case actual.Outcome() == guess.Outcome():
		return PointsOutcome
	default:
		return PointsMiss
	}
}

// ScoreAll scores every guess against result.  A malformed result returns the
// error and no points at all.
func ScoreAll(result string, guesses map[uint64]ScorePair) (map[uint64]Points, error) {
	actual, err := ParseResult(result)
	if err != nil {
		return nil, err
	}
	out := make(map[uint64]Points, len(guesses))
	for id, g := range guesses {
		out[id] = Score(actual, g)
	}
	return out, nil
}
