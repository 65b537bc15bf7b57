package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-admin/internal/handler"
	"github.com/iliyamo/venue-admin/internal/metrics"
	"github.com/iliyamo/venue-admin/internal/middleware"
	"github.com/iliyamo/venue-admin/internal/model"
)

// RegisterRoutes registers the probes, the Prometheus endpoint and the public
// disk that serves uploaded images under /storage.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, uploadDir string) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.Static("/storage", uploadDir)
}

// RegisterAuth registers the session endpoints.  Unauthenticated operations
// live under /v1/auth and share the limiter; /v1/me requires a token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues an access token and keeps the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Accepts a refresh_token body, or a bearer to end every session.
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleCustomer),
	)
}

// RegisterPublic registers the read-only endpoints guests may call.  The
// leaderboard goes through the response cache.
func RegisterPublic(e *echo.Echo, m *handler.MatchHandler, r *handler.RoomHandler, p *handler.ProductHandler,
	responseCache echo.MiddlewareFunc) {
	e.GET("/v1/matches", m.List)
	e.GET("/v1/matches/:id", m.Get)
	e.GET("/v1/predictions/leaderboard", m.Leaderboard, responseCache)

	e.GET("/v1/rooms", r.List)
	e.GET("/v1/rooms/:id", r.Get)

	e.GET("/v1/products", p.List)
	e.GET("/v1/products/:id", p.Get)
}
