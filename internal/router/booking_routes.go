package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/beach-lounger-reservation/internal/handler"
	"github.com/iliyamo/beach-lounger-reservation/internal/middleware"
)

// RegisterBookings registers the booking endpoints under /v1/bookings.
// All routes require a valid JWT; any role may book.  Ownership is
// enforced by the booking core, not by role.  mw runs after
// authentication.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, mw ...echo.MiddlewareFunc) {
	chain := append([]echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleUser, middleware.RoleModerator, middleware.RoleAdmin),
	}, mw...)
	g := e.Group("/v1/bookings", chain...)

	g.POST("", h.CreateBooking)
	// "my" is registered before ":id" so it is never parsed as an id
	g.GET("/my", h.ListMyBookings)
	g.GET("/:id", h.GetBooking)
	g.PUT("/:id/cancel", h.CancelBooking)
	g.PUT("/:id/confirm", h.ConfirmBooking)
}
