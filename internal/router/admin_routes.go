package router

// Staff routes for monitoring bookings across all users.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/beach-lounger-reservation/internal/handler"
    "github.com/iliyamo/beach-lounger-reservation/internal/middleware"
)

// RegisterAdmin registers staff endpoints under /v1/admin.  They require
// a JWT with the admin or moderator role.
func RegisterAdmin(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, mw ...echo.MiddlewareFunc) {
    chain := append([]echo.MiddlewareFunc{
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(middleware.RoleAdmin, middleware.RoleModerator),
    }, mw...)
    g := e.Group("/v1/admin", chain...)
    g.GET("/bookings", h.ListAllBookings)
}
