// Package model holds the booking domain types shared by the ledger,
// services and handlers, together with the domain error taxonomy.
package model

import "errors"

// Domain errors.  Every one of these is an expected outcome that callers
// can act on; anything else coming out of a service is a storage failure.
var (
    // ErrInvalidInterval means end <= start.
    ErrInvalidInterval = errors.New("invalid interval")
    // ErrInPast means the requested start lies before now.
    ErrInPast = errors.New("start is in the past")
    // ErrResourceNotFound means the lounger does not exist.
    ErrResourceNotFound = errors.New("lounger not found")
    // ErrResourceUnavailable means the lounger is inactive.
    ErrResourceUnavailable = errors.New("lounger unavailable")
    // ErrTimeConflict means the interval overlaps a live reservation.
    ErrTimeConflict = errors.New("time conflict")
    // ErrNotFound means the reservation is missing or not visible to the caller.
    ErrNotFound = errors.New("reservation not found")
    ErrAlreadyCancelled      = errors.New("reservation already cancelled")
    ErrCannotCancelCompleted = errors.New("cannot cancel completed reservation")
    ErrTooLateToCancel       = errors.New("too late to cancel")
)
