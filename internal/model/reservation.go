package model

import "time"

// Reservation statuses.
const (
    StatusPending   = "pending"
    StatusConfirmed = "confirmed"
    StatusCancelled = "cancelled"
    StatusCompleted = "completed"
)

// Payment statuses.  No money moves inside this service; these are
// bookkeeping flags only.
const (
    PaymentPending  = "pending"
    PaymentPaid     = "paid"
    PaymentRefunded = "refunded"
)

// Reservation records one lounger booked by one user for one interval.
//
// Fields:
//  ID              – primary key identifier.
//  LoungerID       – lounger being reserved.
//  UserID          – user who made the reservation.
//  Start, End      – half-open booked window, End after Start.
//  TotalPriceCents – price fixed at creation.
//  Status          – pending, confirmed, cancelled or completed.
//  PaymentStatus   – pending, paid or refunded.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Reservation struct {
    ID              uint64    `json:"id"`
    LoungerID       uint64    `json:"lounger_id"`
    UserID          uint64    `json:"user_id"`
    Start           time.Time `json:"start_dt"`
    End             time.Time `json:"end_dt"`
    TotalPriceCents int64     `json:"total_price_cents"`
    Status          string    `json:"status"`
    PaymentStatus   string    `json:"payment_status"`
    CreatedAt       time.Time `json:"created_at"`
    UpdatedAt       time.Time `json:"updated_at"`
}

// Interval returns the booked window.
func (r Reservation) Interval() Interval { return Interval{Start: r.Start, End: r.End} }

// Live reports whether the reservation still holds its lounger.  Only
// live reservations take part in conflict checks.
func (r Reservation) Live() bool {
    return r.Status == StatusPending || r.Status == StatusConfirmed
}

// Actor identifies who is acting on a reservation.  Privileged actors
// see and act on every reservation; others only on their own.
type Actor struct {
    UserID     uint64
    Privileged bool
}

// CanSee reports whether a may act on r.
func (a Actor) CanSee(r Reservation) bool {
    return a.Privileged || r.UserID == a.UserID
}
