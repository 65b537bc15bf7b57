package model

import (
	"time"

	"github.com/iliyamo/venue-admin/internal/match"
)

// Prediction is one user's guessed scoreline for one match.  Points is only
// meaningful once the match is finished with a result.
type Prediction struct {
	ID         uint64         `json:"id"`
	UserID     uint64         `json:"user_id"`
	MatchID    uint64         `json:"football_match_id"`
	Team1Score int            `json:"team1_score"`
	Team2Score int            `json:"team2_score"`
	Points     uint8          `json:"points"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Match      *FootballMatch `json:"match,omitempty"`
}

// Guess returns the predicted scoreline.
func (p *Prediction) Guess() match.ScorePair {
	return match.ScorePair{Team1: p.Team1Score, Team2: p.Team2Score}
}

// LeaderboardEntry is a user's total points across all predictions.
type LeaderboardEntry struct {
	UserID      uint64 `json:"user_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	TotalPoints int    `json:"total_points"`
}
