package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-admin/internal/handler"
	"github.com/iliyamo/venue-admin/internal/middleware"
	"github.com/iliyamo/venue-admin/internal/model"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1.
// All routes require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, m *handler.MatchHandler, r *handler.RoomHandler, p *handler.ProductHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Matches ----
	g.POST("/matches", m.Create)
	g.PUT("/matches/:id", m.Update)
	g.PATCH("/matches/:id", m.Update)
	g.DELETE("/matches/:id", m.Delete)
	g.GET("/users/:id/predictions", m.UserPredictions)

	// ---- Rooms ----
	g.POST("/rooms", r.Create)
	g.PUT("/rooms/:id", r.Update)
	g.DELETE("/rooms/:id", r.Delete)

	// ---- Bookings ----
	g.GET("/rooms/:id/bookings", r.Bookings)
	g.POST("/bookings", r.Book)
	g.PATCH("/bookings/:id/status", r.SetBookingStatus)

	// ---- Products ----
	g.POST("/products", p.Create)
	g.PUT("/products/:id", p.Update)
	g.PATCH("/products/:id", p.Update)
	g.DELETE("/products/:id", p.Delete)
}
