package model

import "time"

// Interval is a half-open time range [Start, End).  Two intervals that
// only share an endpoint do not overlap, so a booking ending at 12:00
// and another starting at 12:00 can coexist on the same lounger.
type Interval struct {
    Start time.Time
    End   time.Time
}

// NewInterval builds an interval without validating it.
func NewInterval(start, end time.Time) Interval { return Interval{Start: start, End: end} }

// Overlaps reports whether a and b share any instant.
func Overlaps(a, b Interval) bool {
    return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Overlaps is the method form of the package level Overlaps.
func (iv Interval) Overlaps(other Interval) bool { return Overlaps(iv, other) }

// Contains reports whether t lies within [Start, End).
func (iv Interval) Contains(t time.Time) bool {
    return !t.Before(iv.Start) && t.Before(iv.End)
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration { return iv.End.Sub(iv.Start) }

// Validate checks a requested booking window.  ErrInvalidInterval wins
// over ErrInPast when both apply.  Only the start is compared with now.
func Validate(start, end, now time.Time) error {
    if !end.After(start) {
        return ErrInvalidInterval
    }
    if start.Before(now) {
        return ErrInPast
    }
    return nil
}

// BillableHours rounds the duration up to whole hours.  Any positive
// duration costs at least one hour; non-positive durations cost nothing.
func (iv Interval) BillableHours() int64 {
    d := iv.Duration()
    if d <= 0 {
        return 0
    }
    hours := int64(d / time.Hour)
    if d%time.Hour != 0 {
        hours++
    }
    return hours
}

// PriceCents is the flat hourly price of iv at rateCents per hour.
func PriceCents(iv Interval, rateCents int64) int64 {
    return iv.BillableHours() * rateCents
}
