// Package service holds the booking core: admission of new reservations,
// the cancellation policy and the availability view, plus the event and
// cache side effects that follow a successful write.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/beach-lounger-reservation/internal/clock"
	"github.com/iliyamo/beach-lounger-reservation/internal/model"
	"github.com/iliyamo/beach-lounger-reservation/internal/queue"
	"github.com/iliyamo/beach-lounger-reservation/internal/repository"
)

// Options tune the booking rules.  Zero values fall back to defaults.
type Options struct {
	// CancelCutoff is how close to its start a reservation can no longer
	// be cancelled.
	CancelCutoff time.Duration
	// Timeout bounds one admission attempt, lock wait included.
	Timeout time.Duration
	// OpenHour and CloseHour bound the daily operating window (UTC).
	OpenHour  int
	CloseHour int
}

const (
	DefaultCancelCutoff = 2 * time.Hour
	DefaultOpenHour     = 8
	DefaultCloseHour    = 20

	sideEffectTimeout = 5 * time.Second
)

func (o Options) withDefaults() Options {
	if o.CancelCutoff <= 0 {
		o.CancelCutoff = DefaultCancelCutoff
	}
	if o.OpenHour < 0 || o.CloseHour > 24 || o.CloseHour <= o.OpenHour {
		o.OpenHour, o.CloseHour = DefaultOpenHour, DefaultCloseHour
	}
	return o
}

// BookingService admits, confirms, cancels and lists reservations.
type BookingService struct {
	ledger repository.Ledger
	clock  clock.Clock
	pub    Publisher
	inv    Invalidator
	log    *zap.Logger
	opts   Options
}

// NewBookingService wires the service.  pub and inv may be nil.
func NewBookingService(ledger repository.Ledger, clk clock.Clock, pub Publisher, inv Invalidator, log *zap.Logger, opts Options) *BookingService {
	if pub == nil {
		pub = DiscardPublisher{}
	}
	if inv == nil {
		inv = NopInvalidator{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingService{
		ledger: ledger,
		clock:  clk,
		pub:    pub,
		inv:    inv,
		log:    log,
		opts:   opts.withDefaults(),
	}
}

// BookingRequest asks for one lounger over [Start, End).
type BookingRequest struct {
	LoungerID uint64
	UserID    uint64
	Start     time.Time
	End       time.Time
}

// BookingResult is a created reservation and the lounger it holds.
type BookingResult struct {
	Reservation model.Reservation `json:"booking"`
	Lounger     model.Lounger     `json:"lounger"`
}

// RequestBooking validates the window and admits it if the lounger is
// free.  Nothing is written when an error is returned.
func (s *BookingService) RequestBooking(ctx context.Context, req BookingRequest) (BookingResult, error) {
	if err := model.Validate(req.Start, req.End, s.clock.Now()); err != nil {
		return BookingResult{}, err
	}
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	iv := model.NewInterval(req.Start, req.End)
	res, lounger, err := s.ledger.Create(ctx, req.LoungerID, req.UserID, iv)
	if err != nil {
		return BookingResult{}, err
	}
	s.log.Info("booking created",
		zap.Uint64("reservation_id", res.ID),
		zap.Uint64("lounger_id", res.LoungerID),
		zap.Uint64("user_id", res.UserID),
		zap.Time("start", res.Start),
		zap.Time("end", res.End),
		zap.Int64("price_cents", res.TotalPriceCents))

	ev := s.statusEvent(res, lounger, false)
	ev.Until = res.End.UTC().Format(time.RFC3339)
	ev.Number = lounger.Number
	ev.PriceCents = res.TotalPriceCents
	s.afterWrite(ctx, lounger, &ev)

	return BookingResult{Reservation: res, Lounger: lounger}, nil
}

// ConfirmBooking marks a pending reservation confirmed and paid.  No
// payment is taken.
func (s *BookingService) ConfirmBooking(ctx context.Context, reservationID uint64, actor model.Actor) (model.Reservation, error) {
	res, err := s.ledger.Confirm(ctx, reservationID, actor)
	if err != nil {
		return model.Reservation{}, err
	}
	s.log.Info("booking confirmed", zap.Uint64("reservation_id", res.ID), zap.Uint64("actor", actor.UserID))

	lounger, err := s.ledger.GetLounger(context.WithoutCancel(ctx), res.LoungerID)
	if err != nil {
		s.log.Warn("confirm: load lounger for cache invalidation", zap.Uint64("lounger_id", res.LoungerID), zap.Error(err))
		return res, nil
	}
	s.afterWrite(ctx, lounger, nil)
	return res, nil
}

// GetBooking returns one reservation visible to actor.
func (s *BookingService) GetBooking(ctx context.Context, reservationID uint64, actor model.Actor) (model.Reservation, error) {
	return s.ledger.Get(ctx, reservationID, actor)
}

// ListMyBookings returns one page of the user's reservations and the
// total matching the status filter.
func (s *BookingService) ListMyBookings(ctx context.Context, userID uint64, f repository.ReservationFilter) ([]model.Reservation, int, error) {
	if f.Now.IsZero() {
		f.Now = s.clock.Now()
	}
	return s.ledger.ListByUser(ctx, userID, f)
}

// ListAllBookings is the staff listing across users.
func (s *BookingService) ListAllBookings(ctx context.Context, f repository.ReservationFilter) ([]model.Reservation, error) {
	if f.Now.IsZero() {
		f.Now = s.clock.Now()
	}
	return s.ledger.List(ctx, f)
}

func (s *BookingService) statusEvent(res model.Reservation, l model.Lounger, available bool) queue.LoungerStatusChanged {
	return queue.LoungerStatusChanged{
		ID:            uuid.NewString(),
		Type:          queue.EventLoungerStatusChanged,
		LoungerID:     l.ID,
		BeachID:       l.BeachID,
		ReservationID: res.ID,
		Available:     available,
		OccurredAt:    s.clock.Now().UTC().Format(time.RFC3339),
	}
}

// afterWrite invalidates cached views of the lounger and, when ev is
// set, publishes it.  It runs detached from the request so a client
// hanging up does not drop the notification; failures are only logged.
func (s *BookingService) afterWrite(ctx context.Context, l model.Lounger, ev *queue.LoungerStatusChanged) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := s.inv.InvalidateLounger(ctx, l); err != nil {
		s.log.Warn("cache invalidation failed", zap.Uint64("lounger_id", l.ID), zap.Error(err))
	}
	if ev == nil {
		return
	}
	if err := s.pub.Publish(ctx, *ev); err != nil {
		s.log.Warn("event publish failed",
			zap.String("event_id", ev.ID),
			zap.Uint64("lounger_id", ev.LoungerID),
			zap.Error(err))
	}
}
