package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-admin/internal/config"
	"github.com/iliyamo/venue-admin/internal/handler"
	"github.com/iliyamo/venue-admin/internal/model"
	"github.com/iliyamo/venue-admin/internal/service"
	"github.com/iliyamo/venue-admin/internal/storage"
	"github.com/iliyamo/venue-admin/internal/utils"
)

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

// noProducts satisfies handler.ProductStore; the guards reject before it is reached.
type noProducts struct{ handler.ProductStore }

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	disk := storage.NewDisk(t.TempDir())

	matchSvc := service.NewMatchService(nil, nil, nil, disk, time.UTC, log)
	roomSvc := service.NewRoomService(nil, nil, nil, disk, time.Minute, log)

	e := echo.New()
	e.Validator = handler.NewValidator()
	m := handler.NewMatchHandler(matchSvc, disk, log)
	r := handler.NewRoomHandler(roomSvc, disk, log)
	p := handler.NewProductHandler(noProducts{}, disk, log)
	a := handler.NewAuthHandler(config.Config{JWTSecret: "secret"}, nil, nil, log)

	RegisterRoutes(e, pinger{}, t.TempDir())
	RegisterAuth(e, a, "secret", passThrough)
	RegisterPublic(e, m, r, p, passThrough)
	RegisterCustomer(e, m, "secret", passThrough)
	RegisterAdmin(e, m, r, p, "secret")
	return e
}

func serve(e *echo.Echo, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken("secret", 1, role, 5)
	require.NoError(t, err)
	return tok.Token
}

func TestRouteInventory(t *testing.T) {
	e := newServer(t)
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /metrics",
		"POST /v1/auth/register",
		"POST /v1/auth/refresh-access",
		"GET /v1/me",
		"GET /v1/matches/:id",
		"GET /v1/predictions/leaderboard",
		"POST /v1/predictions",
		"GET /v1/my-predictions",
		"PATCH /v1/matches/:id",
		"PATCH /v1/bookings/:id/status",
		"DELETE /v1/products/:id",
		"GET /v1/users/:id/predictions",
	} {
		assert.True(t, have[want], want)
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	e := newServer(t)

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodPost, "/v1/matches", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodPost, "/v1/matches", token(t, model.RoleCustomer)).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodDelete, "/v1/rooms/1", token(t, model.RoleCustomer)).Code)

	// Admins pass the guards and reach validation.
	assert.Equal(t, http.StatusUnprocessableEntity, serve(e, http.MethodPost, "/v1/matches", token(t, model.RoleAdmin)).Code)
}

func TestPredictionsRequireLogin(t *testing.T) {
	e := newServer(t)

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodPost, "/v1/predictions", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, serve(e, http.MethodPost, "/v1/predictions", token(t, model.RoleCustomer)).Code)
}

func TestProbes(t *testing.T) {
	e := newServer(t)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/readyz", "").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/metrics", "").Code)
}
