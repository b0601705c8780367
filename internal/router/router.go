package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/beach-lounger-reservation/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication and
// are never cached or rate limited.  Currently it exposes only a health
// check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers unauthenticated read endpoints.  mw runs in
// order after routing, typically the rate limiter then the response
// cache.
func RegisterPublic(e *echo.Echo, h *handler.BookingHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mw...)
	// day-by-day free and occupied slots of one lounger
	g.GET("/loungers/:id/availability", h.Availability)
}
