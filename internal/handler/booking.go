package handler

import (
    "context"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/beach-lounger-reservation/internal/middleware"
    "github.com/iliyamo/beach-lounger-reservation/internal/model"
    "github.com/iliyamo/beach-lounger-reservation/internal/repository"
    "github.com/iliyamo/beach-lounger-reservation/internal/service"
)

// Bookings is the booking core as seen by the HTTP layer.
type Bookings interface {
    RequestBooking(ctx context.Context, req service.BookingRequest) (service.BookingResult, error)
    ConfirmBooking(ctx context.Context, reservationID uint64, actor model.Actor) (model.Reservation, error)
    CancelBooking(ctx context.Context, reservationID uint64, actor model.Actor) (model.Reservation, error)
    GetBooking(ctx context.Context, reservationID uint64, actor model.Actor) (model.Reservation, error)
    ListMyBookings(ctx context.Context, userID uint64, f repository.ReservationFilter) ([]model.Reservation, int, error)
    ListAllBookings(ctx context.Context, f repository.ReservationFilter) ([]model.Reservation, error)
    FreeSlots(ctx context.Context, loungerID uint64, from time.Time, days int) ([]service.DayAvailability, error)
}

// BookingHandler serves the booking and availability endpoints.  All
// methods except Availability expect JWTAuth to have run.
type BookingHandler struct {
    svc Bookings
    log *zap.Logger
}

// NewBookingHandler constructs a BookingHandler.  svc must be non-nil.
func NewBookingHandler(svc Bookings, log *zap.Logger) *BookingHandler {
    if svc == nil {
        panic("nil service passed to NewBookingHandler")
    }
    return &BookingHandler{svc: svc, log: log}
}

type createBookingRequest struct {
    LoungerID uint64    `json:"lounger_id"`
    Start     time.Time `json:"start_dt"`
    End       time.Time `json:"end_dt"`
}

// CreateBooking handles POST /v1/bookings.  The window is half-open and
// priced per started hour.  Returns 201 with the booking and lounger.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
    userID, ok := middleware.UserID(c)
    if !ok {
        return unauthorized(c)
    }
    var body createBookingRequest
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "invalid request body")
    }
    if body.LoungerID == 0 || body.Start.IsZero() || body.End.IsZero() {
        return badRequest(c, "lounger_id, start_dt and end_dt are required")
    }

    res, err := h.svc.RequestBooking(c.Request().Context(), service.BookingRequest{
        LoungerID: body.LoungerID,
        UserID:    userID,
        Start:     body.Start.UTC(),
        End:       body.End.UTC(),
    })
    if err != nil {
        return writeError(c, h.log, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "message": "booking created",
        "booking": res.Reservation,
        "lounger": res.Lounger,
    })
}

// ListMyBookings handles GET /v1/bookings/my?status=&period=&limit=&offset=.
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
    userID, ok := middleware.UserID(c)
    if !ok {
        return unauthorized(c)
    }
    f, err := parseListFilter(c)
    if err != nil {
        return badRequest(c, err.Error())
    }
    switch p := c.QueryParam("period"); p {
    case "", repository.PeriodUpcoming, repository.PeriodPast, repository.PeriodActive:
        f.Period = p
    default:
        return badRequest(c, "period must be upcoming, past or active")
    }

    list, total, err := h.svc.ListMyBookings(c.Request().Context(), userID, f)
    if err != nil {
        return writeError(c, h.log, err)
    }
    limit, offset := f.Page()
    return c.JSON(http.StatusOK, echo.Map{
        "bookings": list,
        "total":    total,
        "limit":    limit,
        "offset":   offset,
    })
}

// GetBooking handles GET /v1/bookings/:id.  Other users' bookings are
// reported as not found; admins see all.
func (h *BookingHandler) GetBooking(c echo.Context) error {
    actor, id, ok, err := h.actorAndID(c)
    if !ok {
        return err
    }
    res, err := h.svc.GetBooking(c.Request().Context(), id, actor)
    if err != nil {
        return writeError(c, h.log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"booking": res})
}

// CancelBooking handles PUT /v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
    actor, id, ok, err := h.actorAndID(c)
    if !ok {
        return err
    }
    res, err := h.svc.CancelBooking(c.Request().Context(), id, actor)
    if err != nil {
        return writeError(c, h.log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled", "booking": res})
}

var paymentMethods = map[string]bool{"card": true, "cash": true, "online": true}

// ConfirmBooking handles PUT /v1/bookings/:id/confirm.  The payment
// method is recorded in the response only; no payment is taken.
func (h *BookingHandler) ConfirmBooking(c echo.Context) error {
    actor, id, ok, err := h.actorAndID(c)
    if !ok {
        return err
    }
    var body struct {
        PaymentMethod string `json:"payment_method"`
    }
    if c.Request().ContentLength > 0 {
        if err := c.Bind(&body); err != nil {
            return badRequest(c, "invalid request body")
        }
    }
    if body.PaymentMethod == "" {
        body.PaymentMethod = "card"
    }
    if !paymentMethods[body.PaymentMethod] {
        return badRequest(c, "payment_method must be card, cash or online")
    }

    res, err := h.svc.ConfirmBooking(c.Request().Context(), id, actor)
    if err != nil {
        return writeError(c, h.log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message":        "booking confirmed",
        "booking":        res,
        "payment_method": body.PaymentMethod,
    })
}

// ListAllBookings handles GET /v1/admin/bookings for staff.  Filters:
// beach_id, lounger_id, status, date_from and date_to (inclusive dates).
func (h *BookingHandler) ListAllBookings(c echo.Context) error {
    f, err := parseListFilter(c)
    if err != nil {
        return badRequest(c, err.Error())
    }
    if f.BeachID, err = optionalID(c, "beach_id"); err != nil {
        return badRequest(c, err.Error())
    }
    if f.LoungerID, err = optionalID(c, "lounger_id"); err != nil {
        return badRequest(c, err.Error())
    }
    if v := c.QueryParam("date_from"); v != "" {
        d, err := time.Parse(dateLayout, v)
        if err != nil {
            return badRequest(c, "date_from must be YYYY-MM-DD")
        }
        f.From = d
    }
    if v := c.QueryParam("date_to"); v != "" {
        d, err := time.Parse(dateLayout, v)
        if err != nil {
            return badRequest(c, "date_to must be YYYY-MM-DD")
        }
        f.To = d.AddDate(0, 0, 1)
    }

    list, err := h.svc.ListAllBookings(c.Request().Context(), f)
    if err != nil {
        return writeError(c, h.log, err)
    }
    limit, offset := f.Page()
    return c.JSON(http.StatusOK, echo.Map{"bookings": list, "limit": limit, "offset": offset})
}

const dateLayout = "2006-01-02"

// actorAndID reads the caller and the :id path param.  When ok is false
// the response has already been written and err is its result.
func (h *BookingHandler) actorAndID(c echo.Context) (model.Actor, uint64, bool, error) {
    actor, ok := middleware.ActorFrom(c)
    if !ok {
        return model.Actor{}, 0, false, unauthorized(c)
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return model.Actor{}, 0, false, badRequest(c, "invalid booking id")
    }
    return actor, id, true, nil
}

type filterError string

func (e filterError) Error() string { return string(e) }

var statuses = map[string]bool{
    model.StatusPending:   true,
    model.StatusConfirmed: true,
    model.StatusCancelled: true,
    model.StatusCompleted: true,
}

func parseListFilter(c echo.Context) (repository.ReservationFilter, error) {
    var f repository.ReservationFilter
    if s := c.QueryParam("status"); s != "" {
        if !statuses[s] {
            return f, filterError("unknown status " + strconv.Quote(s))
        }
        f.Status = s
    }
    var err error
    if f.Limit, err = optionalInt(c, "limit"); err != nil {
        return f, err
    }
    if f.Offset, err = optionalInt(c, "offset"); err != nil {
        return f, err
    }
    return f, nil
}

func optionalInt(c echo.Context, name string) (int, error) {
    v := c.QueryParam(name)
    if v == "" {
        return 0, nil
    }
    n, err := strconv.Atoi(v)
    if err != nil || n < 0 {
        return 0, filterError(name + " must be a non-negative integer")
    }
    return n, nil
}

func optionalID(c echo.Context, name string) (uint64, error) {
    v := c.QueryParam(name)
    if v == "" {
        return 0, nil
    }
    n, err := strconv.ParseUint(v, 10, 64)
    if err != nil {
        return 0, filterError("invalid " + name)
    }
    return n, nil
}
