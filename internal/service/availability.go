package service

import (
	"context"
	"time"

	"github.com/iliyamo/beach-lounger-reservation/internal/model"
)

// Slot is a contiguous free or occupied part of one day's window.
type Slot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
	BookingID *uint64   `json:"booking_id,omitempty"`
}

// DayAvailability is the tiling of one day's operating window.
type DayAvailability struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

const (
	DefaultAvailabilityDays = 7
	MaxAvailabilityDays     = 31
)

// ClampDays applies the default and upper bound to a requested span.
func ClampDays(days int) int {
	switch {
	case days <= 0:
		return DefaultAvailabilityDays
	case days > MaxAvailabilityDays:
		return MaxAvailabilityDays
	}
	return days
}

// IsFree reports whether no live reservation overlaps iv.
func (s *BookingService) IsFree(ctx context.Context, loungerID uint64, iv model.Interval) (bool, error) {
	live, err := s.ledger.QueryOverlaps(ctx, loungerID, iv)
	if err != nil {
		return false, err
	}
	return len(live) == 0, nil
}

// FreeSlots lays out each day from the UTC date of from (today when
// zero), for days days, as alternating free and occupied slots covering
// the operating window.  Reservations spilling outside the window are
// clipped to it.
func (s *BookingService) FreeSlots(ctx context.Context, loungerID uint64, from time.Time, days int) ([]DayAvailability, error) {
	if _, err := s.ledger.GetLounger(ctx, loungerID); err != nil {
		return nil, err
	}
	days = ClampDays(days)
	if from.IsZero() {
		from = s.clock.Now()
	}

	from = from.UTC()
	first := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	open := time.Duration(s.opts.OpenHour) * time.Hour
	closing := time.Duration(s.opts.CloseHour) * time.Hour

	last := first.AddDate(0, 0, days-1)
	live, err := s.ledger.QueryOverlaps(ctx, loungerID, model.NewInterval(first.Add(open), last.Add(closing)))
	if err != nil {
		return nil, err
	}

	out := make([]DayAvailability, 0, days)
	for d := 0; d < days; d++ {
		date := first.AddDate(0, 0, d)
		window := model.NewInterval(date.Add(open), date.Add(closing))
		out = append(out, DayAvailability{
			Date:  date.Format("2006-01-02"),
			Slots: sweepDay(window, live),
		})
	}
	return out, nil
}

// sweepDay tiles window using live, which must be sorted by start and
// pairwise non-overlapping.
func sweepDay(window model.Interval, live []model.Reservation) []Slot {
	slots := make([]Slot, 0, 1)
	cursor := window.Start
	for _, r := range live {
		if !r.Interval().Overlaps(window) {
			continue
		}
		start, end := r.Start, r.End
		if start.Before(cursor) {
			start = cursor
		}
		if end.After(window.End) {
			end = window.End
		}
		if !end.After(start) {
			continue
		}
		if start.After(cursor) {
			slots = append(slots, Slot{Start: cursor, End: start, Available: true})
		}
		id := r.ID
		slots = append(slots, Slot{Start: start, End: end, BookingID: &id})
		cursor = end
	}
	if cursor.Before(window.End) {
		slots = append(slots, Slot{Start: cursor, End: window.End, Available: true})
	}
	return slots
}
