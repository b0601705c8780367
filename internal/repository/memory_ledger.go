package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/beach-lounger-reservation/internal/clock"
	"github.com/iliyamo/beach-lounger-reservation/internal/model"
)

// loungerLocks hands out one exclusive slot per lounger.  A slot is a
// buffered channel of size one so that waiting can be abandoned when
// the caller's context ends.
type loungerLocks struct {
	mu    sync.Mutex
	slots map[uint64]chan struct{}
}

func (l *loungerLocks) slot(id uint64) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.slots == nil {
		l.slots = make(map[uint64]chan struct{})
	}
	ch, ok := l.slots[id]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[id] = ch
	}
	return ch
}

// acquire blocks until the lounger's slot is free or ctx ends.  The
// returned release must be called exactly once.
func (l *loungerLocks) acquire(ctx context.Context, id uint64) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := l.slot(id)
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// MemoryLedger keeps loungers and reservations in process memory.
type MemoryLedger struct {
	clock clock.Clock
	locks loungerLocks

	mu           sync.RWMutex // guards everything below
	loungers     map[uint64]model.Lounger
	reservations map[uint64]model.Reservation
	byLounger    map[uint64][]uint64
	nextID       uint64
}

// NewMemoryLedger returns an empty ledger stamping rows with clk.
func NewMemoryLedger(clk clock.Clock) *MemoryLedger {
	return &MemoryLedger{
		clock:        clk,
		loungers:     make(map[uint64]model.Lounger),
		reservations: make(map[uint64]model.Reservation),
		byLounger:    make(map[uint64][]uint64),
	}
}

// PutLounger inserts or replaces a lounger.  Inventory is owned
// elsewhere; this is how it gets mirrored in.
func (m *MemoryLedger) PutLounger(l model.Lounger) {
	m.mu.Lock()
	m.loungers[l.ID] = l
	m.mu.Unlock()
}

func (m *MemoryLedger) Create(ctx context.Context, loungerID, userID uint64, iv model.Interval) (model.Reservation, model.Lounger, error) {
	release, err := m.locks.acquire(ctx, loungerID)
	if err != nil {
		return model.Reservation{}, model.Lounger{}, err
	}
	defer release()

	m.mu.RLock()
	lounger, ok := m.loungers[loungerID]
	conflict := false
	if ok {
		for _, id := range m.byLounger[loungerID] {
			r := m.reservations[id]
			if r.Live() && r.Interval().Overlaps(iv) {
				conflict = true
				break
			}
		}
	}
	m.mu.RUnlock()

	switch {
	case !ok:
		return model.Reservation{}, model.Lounger{}, model.ErrResourceNotFound
	case !lounger.Active:
		return model.Reservation{}, lounger, model.ErrResourceUnavailable
	case conflict:
		return model.Reservation{}, lounger, model.ErrTimeConflict
	}

	now := m.clock.Now()
	m.mu.Lock()
	m.nextID++
	res := model.Reservation{
		ID:              m.nextID,
		LoungerID:       loungerID,
		UserID:          userID,
		Start:           iv.Start,
		End:             iv.End,
		TotalPriceCents: model.PriceCents(iv, lounger.RateCents),
		Status:          model.StatusPending,
		PaymentStatus:   model.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.reservations[res.ID] = res
	m.byLounger[loungerID] = append(m.byLounger[loungerID], res.ID)
	m.mu.Unlock()

	return res, lounger, nil
}

// lockReservation resolves the lounger of a visible reservation and
// takes its lock.  The reservation must be re-read after locking.
func (m *MemoryLedger) lockReservation(ctx context.Context, reservationID uint64, actor model.Actor) (func(), error) {
	m.mu.RLock()
	r, ok := m.reservations[reservationID]
	m.mu.RUnlock()
	if !ok || !actor.CanSee(r) {
		return nil, model.ErrNotFound
	}
	return m.locks.acquire(ctx, r.LoungerID)
}

func (m *MemoryLedger) Confirm(ctx context.Context, reservationID uint64, actor model.Actor) (model.Reservation, error) {
	release, err := m.lockReservation(ctx, reservationID, actor)
	if err != nil {
		return model.Reservation{}, err
	}
	defer release()

	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.reservations[reservationID]
	if r.Status != model.StatusPending {
		return model.Reservation{}, model.ErrNotFound
	}
	r.Status = model.StatusConfirmed
	r.PaymentStatus = model.PaymentPaid
	r.UpdatedAt = m.clock.Now()
	m.reservations[reservationID] = r
	return r, nil
}

func (m *MemoryLedger) Cancel(ctx context.Context, reservationID uint64, actor model.Actor, check CancelCheck) (model.Reservation, model.Lounger, error) {
	release, err := m.lockReservation(ctx, reservationID, actor)
	if err != nil {
		return model.Reservation{}, model.Lounger{}, err
	}
	defer release()

	m.mu.RLock()
	r := m.reservations[reservationID]
	lounger := m.loungers[r.LoungerID]
	m.mu.RUnlock()

	if check != nil {
		if err := check(r); err != nil {
			return model.Reservation{}, lounger, err
		}
	}

	r.Status = model.StatusCancelled
	if r.PaymentStatus == model.PaymentPaid {
		r.PaymentStatus = model.PaymentRefunded
	}
	r.UpdatedAt = m.clock.Now()

	m.mu.Lock()
	m.reservations[reservationID] = r
	m.mu.Unlock()
	return r, lounger, nil
}

func (m *MemoryLedger) QueryOverlaps(ctx context.Context, loungerID uint64, window model.Interval) ([]model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]model.Reservation, 0)
	for _, id := range m.byLounger[loungerID] {
		r := m.reservations[id]
		if r.Live() && r.Interval().Overlaps(window) {
			out = append(out, r)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (m *MemoryLedger) Get(ctx context.Context, reservationID uint64, actor model.Actor) (model.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reservations[reservationID]
	if !ok || !actor.CanSee(r) {
		return model.Reservation{}, model.ErrNotFound
	}
	return r, nil
}

func (m *MemoryLedger) GetLounger(ctx context.Context, loungerID uint64) (model.Lounger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.loungers[loungerID]
	if !ok {
		return model.Lounger{}, model.ErrResourceNotFound
	}
	return l, nil
}

func (m *MemoryLedger) ListByUser(ctx context.Context, userID uint64, f ReservationFilter) ([]model.Reservation, int, error) {
	m.mu.RLock()
	matched := make([]model.Reservation, 0)
	total := 0
	for _, r := range m.reservations {
		if r.UserID != userID {
			continue
		}
		// the total honours only the status filter, like the MySQL ledger
		if f.Status == "" || r.Status == f.Status {
			total++
		}
		if f.match(r) {
			matched = append(matched, r)
		}
	}
	m.mu.RUnlock()
	return page(matched, f), total, nil
}

func (m *MemoryLedger) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
	m.mu.RLock()
	matched := make([]model.Reservation, 0)
	for _, r := range m.reservations {
		if f.BeachID != 0 && m.loungers[r.LoungerID].BeachID != f.BeachID {
			continue
		}
		if f.match(r) {
			matched = append(matched, r)
		}
	}
	m.mu.RUnlock()
	return page(matched, f), nil
}

// page orders newest first and applies limit/offset.
func page(rs []model.Reservation, f ReservationFilter) []model.Reservation {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].ID > rs[j].ID
		}
		return rs[i].CreatedAt.After(rs[j].CreatedAt)
	})
	limit, offset := f.Page()
	if offset >= len(rs) {
		return []model.Reservation{}
	}
	end := offset + limit
	if end > len(rs) {
		end = len(rs)
	}
	return rs[offset:end]
}
