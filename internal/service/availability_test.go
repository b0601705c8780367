package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/beach-lounger-reservation/internal/model"
)

func TestFreeSlots_EmptyDay(t *testing.T) {
	f := newFixture(t)

	days, err := f.svc.FreeSlots(context.Background(), 1, at(15, 0), 1)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2026-07-01", days[0].Date)
	assert.Equal(t, []Slot{{Start: at(8, 0), End: at(20, 0), Available: true}}, days[0].Slots)
}

func TestFreeSlots_Sweep(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, 100, at(10, 0), at(12, 0))
	b := f.book(t, 200, at(12, 0), at(13, 0))
	c := f.book(t, 300, at(15, 0), at(16, 30))

	days, err := f.svc.FreeSlots(context.Background(), 1, day, 1)
	require.NoError(t, err)
	require.Len(t, days, 1)

	slots := days[0].Slots
	require.Len(t, slots, 6)
	assert.Equal(t, Slot{Start: at(8, 0), End: at(10, 0), Available: true}, slots[0])
	assert.Equal(t, a.ID, *slots[1].BookingID)
	assert.Equal(t, b.ID, *slots[2].BookingID)
	assert.Equal(t, Slot{Start: at(13, 0), End: at(15, 0), Available: true}, slots[3])
	assert.Equal(t, c.ID, *slots[4].BookingID)
	assert.False(t, slots[4].Available)
	assert.Equal(t, Slot{Start: at(16, 30), End: at(20, 0), Available: true}, slots[5])
}

func TestFreeSlots_ClipsToWindowAndTiles(t *testing.T) {
	f := newFixture(t)
	f.book(t, 100, at(19, 0), at(33, 0)) // 19:00 today to 09:00 tomorrow
	f.book(t, 100, at(24+12, 0), at(24+13, 0))

	days, err := f.svc.FreeSlots(context.Background(), 1, day, 3)
	require.NoError(t, err)
	require.Len(t, days, 3)

	for i, d := range days {
		open := day.AddDate(0, 0, i).Add(8 * time.Hour)
		closing := day.AddDate(0, 0, i).Add(20 * time.Hour)
		require.NotEmpty(t, d.Slots)
		assert.Equal(t, open, d.Slots[0].Start, "day %s starts at open", d.Date)
		assert.Equal(t, closing, d.Slots[len(d.Slots)-1].End, "day %s ends at close", d.Date)
		for j := 1; j < len(d.Slots); j++ {
			assert.Equal(t, d.Slots[j-1].End, d.Slots[j].Start, "day %s has a gap", d.Date)
		}
	}

	assert.Equal(t, at(19, 0), days[0].Slots[1].Start)
	assert.Equal(t, at(20, 0), days[0].Slots[1].End)
	assert.Equal(t, at(24+8, 0), days[1].Slots[0].Start)
	assert.Equal(t, at(24+9, 0), days[1].Slots[0].End)
	assert.False(t, days[1].Slots[0].Available)
	assert.Len(t, days[2].Slots, 1)
}

func TestFreeSlots_RoundTrip(t *testing.T) {
	f := newFixture(t)
	f.book(t, 100, at(10, 0), at(11, 0))

	days, err := f.svc.FreeSlots(context.Background(), 1, day, 1)
	require.NoError(t, err)
	for _, s := range days[0].Slots {
		if !s.Available {
			continue
		}
		free, err := f.svc.IsFree(context.Background(), 1, model.NewInterval(s.Start, s.End))
		require.NoError(t, err)
		assert.True(t, free)
		_, err = f.svc.RequestBooking(context.Background(), BookingRequest{LoungerID: 1, UserID: 7, Start: s.Start, End: s.End})
		assert.NoError(t, err, "a reported free slot must be bookable")
	}

	days, err = f.svc.FreeSlots(context.Background(), 1, day, 1)
	require.NoError(t, err)
	for _, s := range days[0].Slots {
		assert.False(t, s.Available)
	}
}

func TestFreeSlots_UnknownLounger(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.FreeSlots(context.Background(), 42, day, 1)
	assert.ErrorIs(t, err, model.ErrResourceNotFound)
}

func TestClampDays(t *testing.T) {
	assert.Equal(t, 7, ClampDays(0))
	assert.Equal(t, 7, ClampDays(-3))
	assert.Equal(t, 5, ClampDays(5))
	assert.Equal(t, 31, ClampDays(90))
}
