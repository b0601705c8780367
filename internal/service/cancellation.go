package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/beach-lounger-reservation/internal/model"
)

// cancelCheck is run by the ledger under the lounger lock, so the
// status it sees cannot change before the cancel is written.
func (s *BookingService) cancelCheck(now time.Time) func(model.Reservation) error {
	return func(r model.Reservation) error {
		switch r.Status {
		case model.StatusCancelled:
			return model.ErrAlreadyCancelled
		case model.StatusCompleted:
			return model.ErrCannotCancelCompleted
		}
		if lead := r.Start.Sub(now); lead > 0 && lead < s.opts.CancelCutoff {
			return model.ErrTooLateToCancel
		}
		return nil
	}
}

// CancelBooking cancels a reservation the actor can see.  Cancelled and
// completed reservations are rejected, as is one starting within the
// cutoff.  A reservation already under way can be cancelled; doing so
// frees the lounger immediately and viewers are told.
func (s *BookingService) CancelBooking(ctx context.Context, reservationID uint64, actor model.Actor) (model.Reservation, error) {
	now := s.clock.Now()
	res, lounger, err := s.ledger.Cancel(ctx, reservationID, actor, s.cancelCheck(now))
	if err != nil {
		return model.Reservation{}, err
	}
	s.log.Info("booking cancelled",
		zap.Uint64("reservation_id", res.ID),
		zap.Uint64("lounger_id", res.LoungerID),
		zap.Uint64("actor", actor.UserID),
		zap.String("payment_status", res.PaymentStatus))

	if res.Interval().Contains(now) {
		ev := s.statusEvent(res, lounger, true)
		s.afterWrite(ctx, lounger, &ev)
	} else {
		s.afterWrite(ctx, lounger, nil)
	}
	return res, nil
}
