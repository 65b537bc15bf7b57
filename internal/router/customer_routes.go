package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-admin/internal/handler"
	"github.com/iliyamo/venue-admin/internal/middleware"
	"github.com/iliyamo/venue-admin/internal/model"
)

// RegisterCustomer registers the prediction endpoints of signed-in users.
// Admins may predict too.  Submissions share the "predictions" limiter.
func RegisterCustomer(e *echo.Echo, m *handler.MatchHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
	)
	g.POST("/predictions", m.SubmitPrediction, limiter)
	g.GET("/my-predictions", m.MyPredictions)
}
