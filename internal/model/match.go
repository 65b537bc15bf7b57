package model

import (
	"encoding/json"
	"time"

	"github.com/iliyamo/venue-admin/internal/match"
)

// FootballMatch is a fixture row.  Date and Time hold the stored DATE and
// TIME columns as text ("2006-01-02", "15:04:05"); they are interpreted in the
// configured venue time zone.
type FootballMatch struct {
	ID        uint64       `json:"id"`
	Team1     string       `json:"team1"`
	Team2     string       `json:"team2"`
	Team1Logo *string      `json:"team1_logo"`
	Team2Logo *string      `json:"team2_logo"`
	Date      string       `json:"date"`
	Time      string       `json:"time"`
	Channel   string       `json:"channel"`
	Result    *string      `json:"result"`
	Status    match.Status `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ResultText returns the stored result or "".
func (m *FootballMatch) ResultText() string {
	if m.Result == nil {
		return ""
	}
	return *m.Result
}

// MarshalJSON adds the Arabic status label next to the status code.
func (m FootballMatch) MarshalJSON() ([]byte, error) {
	type plain FootballMatch
	return json.Marshal(struct {
		plain
		StatusLabel string `json:"status_label"`
	}{plain(m), m.Status.Label()})
}
