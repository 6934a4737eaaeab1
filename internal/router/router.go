package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/guestlist/internal/handler"
)

// RegisterRoutes registers operational endpoints that do not require
// authentication: the health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
	e.GET("/healthz", health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterPublic registers unauthenticated guestlist reads.  cache wraps
// the status endpoint; its TTL must stay short because status changes with
// the clock.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/events/:id/status", p.EventStatus, cache)
}
