package handler

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
)

// Availability handles GET /v1/loungers/:id/availability?date=&days=.
// date is the first day (YYYY-MM-DD, default today) and days the span
// (default 7, at most 31).  Public; responses are cached per lounger.
func (h *BookingHandler) Availability(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return badRequest(c, "invalid lounger id")
    }
    var from time.Time
    if v := c.QueryParam("date"); v != "" {
        if from, err = time.Parse(dateLayout, v); err != nil {
            return badRequest(c, "date must be YYYY-MM-DD")
        }
    }
    days, err := optionalInt(c, "days")
    if err != nil {
        return badRequest(c, err.Error())
    }

    out, err := h.svc.FreeSlots(c.Request().Context(), id, from, days)
    if err != nil {
        return writeError(c, h.log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"lounger_id": id, "days": out})
}
