package handler

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/beach-lounger-reservation/internal/middleware"
    "github.com/iliyamo/beach-lounger-reservation/internal/model"
)

type apiError struct {
    status  int
    code    string
    message string
}

// domainErrors is the stable mapping from booking errors to responses.
var domainErrors = []struct {
    err error
    apiError
}{
    {model.ErrInvalidInterval, apiError{http.StatusBadRequest, "invalid_interval", "end time must be after start time"}},
    {model.ErrInPast, apiError{http.StatusBadRequest, "in_past", "cannot book in the past"}},
    {model.ErrResourceNotFound, apiError{http.StatusNotFound, "lounger_not_found", "lounger not found"}},
    {model.ErrResourceUnavailable, apiError{http.StatusBadRequest, "lounger_unavailable", "lounger is not available for booking"}},
    {model.ErrTimeConflict, apiError{http.StatusConflict, "time_conflict", "lounger is already booked for this time"}},
    {model.ErrNotFound, apiError{http.StatusNotFound, "booking_not_found", "booking not found"}},
    {model.ErrAlreadyCancelled, apiError{http.StatusBadRequest, "already_cancelled", "booking is already cancelled"}},
    {model.ErrCannotCancelCompleted, apiError{http.StatusBadRequest, "cannot_cancel_completed", "completed bookings cannot be cancelled"}},
    {model.ErrTooLateToCancel, apiError{http.StatusBadRequest, "too_late_to_cancel", "bookings cannot be cancelled shortly before they start"}},
}

const retryMessage = "operation failed, please retry"

func classify(err error) (apiError, bool) {
    for _, d := range domainErrors {
        if errors.Is(err, d.err) {
            return d.apiError, true
        }
    }
    if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
        return apiError{http.StatusServiceUnavailable, "timeout", retryMessage}, false
    }
    return apiError{http.StatusInternalServerError, "internal_error", retryMessage}, false
}

// writeError renders err with the stable mapping.  Anything outside the
// domain taxonomy is logged and answered without detail.
func writeError(c echo.Context, log *zap.Logger, err error) error {
    ae, known := classify(err)
    if !known {
        uid, _ := middleware.UserID(c)
        log.Error("request failed",
            zap.String("method", c.Request().Method),
            zap.String("path", c.Request().URL.Path),
            zap.Uint64("user_id", uid),
            zap.Error(err))
    }
    return c.JSON(ae.status, echo.Map{"error": ae.code, "message": ae.message})
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request", "message": msg})
}

func unauthorized(c echo.Context) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}
