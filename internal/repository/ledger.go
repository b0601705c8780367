package repository

import (
    "context"
    "time"

    "github.com/iliyamo/beach-lounger-reservation/internal/model"
)

// Ledger is the authoritative store of reservations.  Implementations
// must serialize Create and Cancel per lounger so that the live
// reservations of one lounger never overlap, while operations on
// different loungers proceed without contending.
//
// Domain failures are reported with the sentinels from the model
// package.  Any other error is a storage failure and guarantees that
// nothing was written.
type Ledger interface {
    // Create admits a pending reservation for iv on the lounger.  The
    // lounger must exist and be active and iv must not overlap a live
    // reservation.  The returned lounger is the row the price was
    // computed from.
    Create(ctx context.Context, loungerID, userID uint64, iv model.Interval) (model.Reservation, model.Lounger, error)
    // Confirm moves a pending reservation visible to actor to
    // confirmed/paid.  Anything else is ErrNotFound.
    Confirm(ctx context.Context, reservationID uint64, actor model.Actor) (model.Reservation, error)
    // Cancel loads the reservation visible to actor, runs check under
    // the lounger lock and, when check passes, marks it cancelled and
    // refunds a paid booking.
    Cancel(ctx context.Context, reservationID uint64, actor model.Actor, check CancelCheck) (model.Reservation, model.Lounger, error)
    // QueryOverlaps returns the live reservations of the lounger that
    // overlap window, ordered by start.
    QueryOverlaps(ctx context.Context, loungerID uint64, window model.Interval) ([]model.Reservation, error)
    Get(ctx context.Context, reservationID uint64, actor model.Actor) (model.Reservation, error)
    GetLounger(ctx context.Context, loungerID uint64) (model.Lounger, error)
    // ListByUser returns one page of the user's reservations, newest
    // first, and the total number matching the status filter.
    ListByUser(ctx context.Context, userID uint64, f ReservationFilter) ([]model.Reservation, int, error)
    // List returns reservations across all users for staff views.
    List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error)
}

// CancelCheck decides whether a loaded reservation may be cancelled.
// A non-nil error aborts the cancellation and is returned unchanged.
type CancelCheck func(model.Reservation) error

// Period filters relative to ReservationFilter.Now.
const (
    PeriodUpcoming = "upcoming"
    PeriodPast     = "past"
    PeriodActive   = "active"
)

// ReservationFilter narrows reservation listings.  Zero values mean
// "no constraint"; Limit defaults to DefaultListLimit.
type ReservationFilter struct {
    Status    string
    Period    string
    Now       time.Time
    LoungerID uint64
    BeachID   uint64
    From      time.Time // start_dt >= From
    To        time.Time // end_dt <= To
    Limit     int
    Offset    int
}

// DefaultListLimit and MaxListLimit bound page sizes.
const (
    DefaultListLimit = 20
    MaxListLimit     = 200
)

// Page returns the effective limit and offset.
func (f ReservationFilter) Page() (limit, offset int) {
    limit, offset = f.Limit, f.Offset
    if limit <= 0 {
        limit = DefaultListLimit
    }
    if limit > MaxListLimit {
        limit = MaxListLimit
    }
    if offset < 0 {
        offset = 0
    }
    return limit, offset
}

// match reports whether r passes every non-period constraint except
// BeachID, which needs the lounger and is checked by the caller.
func (f ReservationFilter) match(r model.Reservation) bool {
    if f.Status != "" && r.Status != f.Status {
        return false
    }
    if f.LoungerID != 0 && r.LoungerID != f.LoungerID {
        return false
    }
    if !f.From.IsZero() && r.Start.Before(f.From) {
        return false
    }
    if !f.To.IsZero() && r.End.After(f.To) {
        return false
    }
    switch f.Period {
    case PeriodUpcoming:
        return r.Start.After(f.Now)
    case PeriodPast:
        return r.End.Before(f.Now)
    case PeriodActive:
        return !f.Now.Before(r.Start) && !f.Now.After(r.End)
    }
    return true
}
