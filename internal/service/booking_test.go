package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/beach-lounger-reservation/internal/clock"
	"github.com/iliyamo/beach-lounger-reservation/internal/model"
	"github.com/iliyamo/beach-lounger-reservation/internal/queue"
	"github.com/iliyamo/beach-lounger-reservation/internal/repository"
)

var day = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.LoungerStatusChanged
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.LoungerStatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Events() []queue.LoungerStatusChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.LoungerStatusChanged(nil), p.events...)
}

type recordingInvalidator struct {
	mu       sync.Mutex
	loungers []uint64
	err      error
}

func (i *recordingInvalidator) InvalidateLounger(_ context.Context, l model.Lounger) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.loungers = append(i.loungers, l.ID)
	return i.err
}

type fixture struct {
	svc    *BookingService
	ledger *repository.MemoryLedger
	clock  *clock.Fixed
	pub    *recordingPublisher
	inv    *recordingInvalidator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.NewFixed(at(7, 0))
	ledger := repository.NewMemoryLedger(clk)
	ledger.PutLounger(model.Lounger{ID: 1, BeachID: 10, BeachName: "North", Number: "A1", Type: "standard", RateCents: 15000, Active: true})
	ledger.PutLounger(model.Lounger{ID: 2, BeachID: 10, BeachName: "North", Number: "A2", Type: "vip", RateCents: 30000, Active: false})
	pub := &recordingPublisher{}
	inv := &recordingInvalidator{}
	svc := NewBookingService(ledger, clk, pub, inv, zap.NewNop(), Options{})
	return &fixture{svc: svc, ledger: ledger, clock: clk, pub: pub, inv: inv}
}

func (f *fixture) book(t *testing.T, user uint64, start, end time.Time) model.Reservation {
	t.Helper()
	res, err := f.svc.RequestBooking(context.Background(), BookingRequest{LoungerID: 1, UserID: user, Start: start, End: end})
	require.NoError(t, err)
	return res.Reservation
}

func TestRequestBooking_PricesAndNotifies(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.RequestBooking(context.Background(), BookingRequest{LoungerID: 1, UserID: 100, Start: at(10, 0), End: at(11, 30)})
	require.NoError(t, err)
	assert.EqualValues(t, 30000, res.Reservation.TotalPriceCents, "1.5h bills as 2h")
	assert.Equal(t, model.StatusPending, res.Reservation.Status)
	assert.Equal(t, "North", res.Lounger.BeachName)

	events := f.pub.Events()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, queue.EventLoungerStatusChanged, ev.Type)
	assert.False(t, ev.Available)
	assert.EqualValues(t, 1, ev.LoungerID)
	assert.EqualValues(t, 10, ev.BeachID)
	assert.Equal(t, res.Reservation.ID, ev.ReservationID)
	assert.Equal(t, "2026-07-01T11:30:00Z", ev.Until)
	assert.Equal(t, "A1", ev.Number)
	assert.EqualValues(t, 30000, ev.PriceCents)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, []uint64{1}, f.inv.loungers)
}

func TestRequestBooking_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequestBooking(ctx, BookingRequest{LoungerID: 1, UserID: 1, Start: at(11, 0), End: at(10, 0)})
	assert.ErrorIs(t, err, model.ErrInvalidInterval)

	_, err = f.svc.RequestBooking(ctx, BookingRequest{LoungerID: 1, UserID: 1, Start: at(10, 0), End: at(10, 0)})
	assert.ErrorIs(t, err, model.ErrInvalidInterval)

	_, err = f.svc.RequestBooking(ctx, BookingRequest{LoungerID: 1, UserID: 1, Start: at(5, 0), End: at(4, 0)})
	assert.ErrorIs(t, err, model.ErrInvalidInterval, "an inverted window wins over a past start")

	_, err = f.svc.RequestBooking(ctx, BookingRequest{LoungerID: 1, UserID: 1, Start: at(6, 0), End: at(9, 0)})
	assert.ErrorIs(t, err, model.ErrInPast)

	_, err = f.svc.RequestBooking(ctx, BookingRequest{LoungerID: 99, UserID: 1, Start: at(10, 0), End: at(11, 0)})
	assert.ErrorIs(t, err, model.ErrResourceNotFound)

	_, err = f.svc.RequestBooking(ctx, BookingRequest{LoungerID: 2, UserID: 1, Start: at(10, 0), End: at(11, 0)})
	assert.ErrorIs(t, err, model.ErrResourceUnavailable)

	assert.Empty(t, f.pub.Events())
	assert.Empty(t, f.inv.loungers)
}

func TestRequestBooking_ConflictMatrix(t *testing.T) {
	f := newFixture(t)
	f.book(t, 100, at(10, 0), at(12, 0))

	tests := []struct {
		name       string
		start, end time.Time
		wantErr    error
	}{
		{"same window", at(10, 0), at(12, 0), model.ErrTimeConflict},
		{"covers", at(9, 0), at(13, 0), model.ErrTimeConflict},
		{"tail overlap", at(11, 59), at(12, 30), model.ErrTimeConflict},
		{"back to back after", at(12, 0), at(13, 0), nil},
		{"back to back before", at(9, 0), at(10, 0), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RequestBooking(context.Background(), BookingRequest{LoungerID: 1, UserID: 200, Start: tt.start, End: tt.end})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
	assert.Len(t, f.pub.Events(), 3, "only admitted bookings notify")
}

func TestRequestBooking_ConcurrentSameWindow(t *testing.T) {
	f := newFixture(t)
	const n = 32

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			<-start
			_, err := f.svc.RequestBooking(context.Background(), BookingRequest{LoungerID: 1, UserID: user, Start: at(14, 0), End: at(16, 0)})
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}(uint64(i + 1))
	}
	close(start)
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, model.ErrTimeConflict)
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, f.pub.Events(), 1)
}

func TestRequestBooking_SideEffectFailuresAreSwallowed(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")
	f.inv.err = errors.New("redis down")

	ctx, cancel := context.WithCancel(context.Background())
	res, err := f.svc.RequestBooking(ctx, BookingRequest{LoungerID: 1, UserID: 1, Start: at(10, 0), End: at(11, 0)})
	cancel()
	require.NoError(t, err)
	assert.NotZero(t, res.Reservation.ID)
	assert.Len(t, f.pub.Events(), 1)
}

func TestConfirmBooking(t *testing.T) {
	f := newFixture(t)
	res := f.book(t, 100, at(10, 0), at(11, 0))

	_, err := f.svc.ConfirmBooking(context.Background(), res.ID, model.Actor{UserID: 999})
	assert.ErrorIs(t, err, model.ErrNotFound)

	got, err := f.svc.ConfirmBooking(context.Background(), res.ID, model.Actor{UserID: 100})
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)
	assert.Len(t, f.inv.loungers, 2, "create and confirm both invalidate")
	assert.Len(t, f.pub.Events(), 1, "confirm does not notify")
}

func TestListBookings(t *testing.T) {
	f := newFixture(t)
	f.book(t, 100, at(9, 0), at(10, 0))
	f.book(t, 100, at(12, 0), at(13, 0))
	f.book(t, 200, at(14, 0), at(15, 0))

	f.clock.Set(at(11, 0))
	upcoming, total, err := f.svc.ListMyBookings(context.Background(), 100, repository.ReservationFilter{Period: repository.PeriodUpcoming})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, upcoming, 1)
	assert.Equal(t, at(12, 0), upcoming[0].Start)

	all, err := f.svc.ListAllBookings(context.Background(), repository.ReservationFilter{BeachID: 10})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.svc.GetBooking(context.Background(), upcoming[0].ID, model.Actor{UserID: 200})
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = f.svc.GetBooking(context.Background(), upcoming[0].ID, model.Actor{UserID: 1, Privileged: true})
	assert.NoError(t, err)
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{OpenHour: 20, CloseHour: 8}.withDefaults()
	assert.Equal(t, DefaultCancelCutoff, o.CancelCutoff)
	assert.Equal(t, DefaultOpenHour, o.OpenHour)
	assert.Equal(t, DefaultCloseHour, o.CloseHour)

	o = Options{CancelCutoff: time.Hour, OpenHour: 6, CloseHour: 22}.withDefaults()
	assert.Equal(t, time.Hour, o.CancelCutoff)
	assert.Equal(t, 6, o.OpenHour)
	assert.Equal(t, 22, o.CloseHour)
}
