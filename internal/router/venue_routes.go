package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/guestlist/internal/handler"
	"github.com/iliyamo/guestlist/internal/middleware"
)

// RegisterVenue registers operator endpoints.  All routes require a valid
// JWT with the VENUE role; the handlers scope every call to the token's
// venue.  limit throttles the door scanner and door admission.
func RegisterVenue(e *echo.Echo, v *handler.VenueHandler, d *handler.DoorHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	auth := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleVenue),
	}

	door := e.Group("/v1/door", auth...)
	door.POST("/redeem", d.Redeem, limit)

	g := e.Group("/v1/venue", auth...)

	// ---- Events ----
	g.POST("/events", v.ScheduleEvent)
	g.GET("/events", v.ListEvents)
	g.PATCH("/events/:id", v.ReconfigureEvent)
	g.POST("/events/:id/close", v.CloseEvent)

	// ---- Guestlist ----
	g.GET("/events/:id/reservations", v.Guestlist)
	g.POST("/events/:id/reservations", v.Admit, limit)
	g.DELETE("/reservations/:id", v.CancelReservation)
}
