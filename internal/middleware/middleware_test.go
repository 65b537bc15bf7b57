package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-admin/internal/config"
	"github.com/iliyamo/venue-admin/internal/utils"
)

func newContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func TestJWTAuth(t *testing.T) {
	mw := JWTAuth("secret")

	c, rec := newContext(http.MethodGet, "/v1/me")
	require.NoError(t, mw(ok)(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newContext(http.MethodGet, "/v1/me")
	c.Request().Header.Set("Authorization", "Bearer garbage")
	require.NoError(t, mw(ok)(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := utils.NewAccessToken("secret", 12, "ADMIN", 5)
	require.NoError(t, err)
	c, rec = newContext(http.MethodGet, "/v1/me")
	c.Request().Header.Set("Authorization", "Bearer "+tok.Token)
	require.NoError(t, mw(ok)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(12), c.Get(CtxUserID))
	assert.Equal(t, "ADMIN", c.Get(CtxRole))
	assert.Equal(t, "12", userID(c))
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole("ADMIN")

	c, rec := newContext(http.MethodPost, "/v1/matches")
	c.Set(CtxRole, "CUSTOMER")
	require.NoError(t, mw(ok)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	c, rec = newContext(http.MethodPost, "/v1/matches")
	require.NoError(t, mw(ok)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	c, rec = newContext(http.MethodPost, "/v1/matches")
	c.Set(CtxRole, "ADMIN")
	require.NoError(t, mw(ok)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestLoggerKeepsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	c, rec := newContext(http.MethodGet, "/healthz")
	c.Request().Header.Set(echo.HeaderXRequestID, "req-1")
	require.NoError(t, RequestLogger(log)(ok)(c))

	assert.Equal(t, "req-1", rec.Header().Get(echo.HeaderXRequestID))
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.Contains(t, buf.String(), `"user_id":"anon"`)
}

func TestRequestLoggerWritesHandlerErrors(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	c, rec := newContext(http.MethodGet, "/missing")
	h := func(echo.Context) error { return echo.ErrNotFound }
	require.NoError(t, RequestLogger(log)(h)(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestMiddlewaresPassThroughWithoutRedis(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	limit := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, log)
	cache := NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil, log)
	for i := 0; i < 3; i++ {
		c, rec := newContext(http.MethodGet, "/v1/predictions/leaderboard")
		require.NoError(t, limit(cache(ok))(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
}

func TestResponsePacking(t *testing.T) {
	hdr := http.Header{}
	hdr.Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
	bs, err := packResponse(http.StatusOK, hdr, []byte(`{"items":[]}`))
	require.NoError(t, err)

	status, got, body, ok := unpackResponse(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, echo.MIMEApplicationJSONCharsetUTF8, got.Get(echo.HeaderContentType))
	assert.Equal(t, `{"items":[]}`, string(body))

	_, _, _, ok = unpackResponse(bs[:5])
	assert.False(t, ok)
}

func TestKeysIncludeParamsAndUser(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route"}
	c1, _ := newContext(http.MethodGet, "/v1/matches/1")
	c1.SetPath("/v1/matches/:id")
	c1.SetParamNames("id")
	c1.SetParamValues("1")
	c2, _ := newContext(http.MethodGet, "/v1/matches/2")
	c2.SetPath("/v1/matches/:id")
	c2.SetParamNames("id")
	c2.SetParamValues("2")
	assert.NotEqual(t, responseKey(cfg, c1), responseKey(cfg, c2))

	rl := config.RateLimitConfig{Prefix: "rl:predictions", KeyStrategy: "user"}
	c1.Set(CtxUserID, uint64(3))
	assert.Equal(t, "rl:predictions:user:3", rateKey(rl, c1))
	assert.Equal(t, "rl:predictions:user:anon", rateKey(rl, c2))
}
