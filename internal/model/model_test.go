package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-admin/internal/match"
)

func TestRoomRemainingCapacityFloorsAtZero(t *testing.T) {
	r := Room{Capacity: 10}
	r.SetBookedGuests(4)
	assert.Equal(t, uint32(6), r.RemainingCapacity)

	r.SetBookedGuests(12)
	assert.Equal(t, uint32(0), r.RemainingCapacity)
	assert.Equal(t, uint32(12), r.BookedGuests)
}

func TestBookingActive(t *testing.T) {
	assert.True(t, Booking{Status: BookingConfirmed}.Active())
	assert.True(t, Booking{Status: BookingPending}.Active())
	assert.False(t, Booking{Status: BookingCancelled}.Active())
	assert.False(t, Booking{Status: BookingCompleted}.Active())
}

func TestFootballMatchJSONCarriesLabel(t *testing.T) {
	res := "2-1"
	m := FootballMatch{ID: 3, Team1: "الهلال", Team2: "النصر", Status: match.Finished, Result: &res}

	raw, err := json.Marshal(m)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "finished", out["status"])
	assert.Equal(t, "منتهية", out["status_label"])
	assert.Equal(t, "2-1", out["result"])
	assert.Equal(t, "2-1", m.ResultText())
}

func TestPredictionGuess(t *testing.T) {
	p := Prediction{Team1Score: 3, Team2Score: 0}
	assert.Equal(t, match.ScorePair{Team1: 3, Team2: 0}, p.Guess())
}
