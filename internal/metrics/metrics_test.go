package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryIsShared(t *testing.T) {
	assert.Same(t, Registry(), Registry())
}

func TestCountersExposed(t *testing.T) {
	MatchTransitionsTotal.WithLabelValues("live").Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(MatchTransitionsTotal.WithLabelValues("live")), 1.0)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "venue_admin_match_status_transitions_total")
}
