package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/guestlist/internal/handler"
	"github.com/iliyamo/guestlist/internal/middleware"
)

// RegisterPatron registers patron-scoped endpoints under /v1.  All routes
// require a valid JWT and the PATRON role.  limit throttles admission.
func RegisterPatron(e *echo.Echo, h *handler.PatronHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RolePatron),
	)
	g.POST("/events/:id/reservations", h.Reserve, limit)
	g.GET("/my-reservations", h.MyReservations)

	g.GET("/reservations/:id", h.GetReservation)
	g.PATCH("/reservations/:id", h.Amend, limit)
	g.DELETE("/reservations/:id", h.Cancel)
}
