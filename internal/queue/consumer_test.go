package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMatchFinishedAppendsLine(t *testing.T) {
	MatchLogDir = t.TempDir()
	body, err := json.Marshal(MatchFinishedEvent{
		MatchID: 4, Team1: "الهلال", Team2: "النصر", Result: "2-1", Scored: 3, FinishedAt: "2025-05-01T21:40:00+03:00",
	})
	require.NoError(t, err)

	require.NoError(t, HandleMatchFinished(body))
	require.NoError(t, HandleMatchFinished(body))

	raw, err := os.ReadFile(filepath.Join(MatchLogDir, "matches.log"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "match_id=4")
	assert.Contains(t, string(raw), "result=2-1 | scored=3")
	assert.Equal(t, 2, countLines(raw))
}

func TestHandleMatchFinishedRejectsGarbage(t *testing.T) {
	MatchLogDir = t.TempDir()
	assert.Error(t, HandleMatchFinished([]byte("{")))
	assert.Error(t, HandleMatchFinished([]byte(`{"team1":"a"}`)))
}

func TestBrokerURLPrefersRabbitVar(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "amqp://a")
	t.Setenv("AMQP_URL", "amqp://b")
	assert.Equal(t, "amqp://a", BrokerURL())

	t.Setenv("RABBITMQ_URL", "")
	assert.Equal(t, "amqp://b", BrokerURL())
}

func countLines(b []byte) int {
	n := 0
	for _, c := range b {
		if c == '\n' {
			n++
		}
	}
	return n
}
