package middleware

// identity.go reads the authenticated caller back out of the Echo
// context after JWTAuth has run.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/beach-lounger-reservation/internal/model"
)

// Roles carried in the JWT "role" claim.
const (
    RoleUser      = "user"
    RoleModerator = "moderator"
    RoleAdmin     = "admin"
)

// parseSubject accepts the decimal string form and the numeric form
// some issuers emit.
func parseSubject(v interface{}) (uint64, bool) {
    switch t := v.(type) {
    case string:
        n, err := strconv.ParseUint(t, 10, 64)
        return n, err == nil && n > 0
    case float64:
        if t <= 0 || t != float64(uint64(t)) {
            return 0, false
        }
        return uint64(t), true
    }
    return 0, false
}

// UserID returns the authenticated user's id.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(ctxUserID).(uint64)
    return id, ok && id > 0
}

// Role returns the authenticated user's role, or "" for guests.
func Role(c echo.Context) string {
    r, _ := c.Get(ctxRole).(string)
    return r
}

// ActorFrom builds the ownership scope of the caller.  Admins see every
// reservation.
func ActorFrom(c echo.Context) (model.Actor, bool) {
    id, ok := UserID(c)
    if !ok {
        return model.Actor{}, false
    }
    return model.Actor{UserID: id, Privileged: Role(c) == RoleAdmin}, true
}

// callerKey identifies the caller for rate limiting and logging.
func callerKey(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
