package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(h, m int) time.Time {
	return time.Date(2026, 7, 1, h, m, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	existing := NewInterval(at(10, 0), at(12, 0))

	tests := []struct {
		name string
		iv   Interval
		want bool
	}{
		{"touching before", NewInterval(at(9, 0), at(10, 0)), false},
		{"touching after", NewInterval(at(12, 0), at(13, 0)), false},
		{"overlaps start", NewInterval(at(9, 30), at(10, 30)), true},
		{"overlaps end", NewInterval(at(11, 0), at(13, 0)), true},
		{"inside", NewInterval(at(10, 30), at(11, 30)), true},
		{"covers", NewInterval(at(8, 0), at(14, 0)), true},
		{"identical", existing, true},
		{"far away", NewInterval(at(15, 0), at(16, 0)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(existing, tt.iv))
			assert.Equal(t, tt.want, tt.iv.Overlaps(existing), "overlap must be symmetric")
		})
	}
}

func TestValidate(t *testing.T) {
	now := at(9, 0)

	assert.ErrorIs(t, Validate(at(10, 0), at(10, 0), now), ErrInvalidInterval)
	assert.ErrorIs(t, Validate(at(11, 0), at(10, 0), now), ErrInvalidInterval)
	assert.ErrorIs(t, Validate(at(8, 0), at(10, 0), now), ErrInPast)
	// invalid ordering is reported before a past start
	assert.ErrorIs(t, Validate(at(8, 0), at(7, 0), now), ErrInvalidInterval)
	assert.NoError(t, Validate(at(9, 0), at(10, 0), now))
	assert.NoError(t, Validate(at(9, 30), at(10, 0), now))
}

func TestBillableHoursAndPrice(t *testing.T) {
	assert.EqualValues(t, 2, NewInterval(at(10, 0), at(11, 30)).BillableHours())
	assert.EqualValues(t, 1, NewInterval(at(10, 0), at(10, 1)).BillableHours())
	assert.EqualValues(t, 1, NewInterval(at(10, 0), at(11, 0)).BillableHours())
	assert.EqualValues(t, 3, NewInterval(at(10, 0), at(12, 0).Add(time.Nanosecond)).BillableHours())
	assert.EqualValues(t, 0, NewInterval(at(10, 0), at(10, 0)).BillableHours())

	assert.EqualValues(t, 30000, PriceCents(NewInterval(at(10, 0), at(11, 30)), 15000))
}

func TestContains(t *testing.T) {
	iv := NewInterval(at(10, 0), at(12, 0))
	assert.True(t, iv.Contains(at(10, 0)))
	assert.True(t, iv.Contains(at(11, 59)))
	assert.False(t, iv.Contains(at(12, 0)))
	assert.False(t, iv.Contains(at(9, 59)))
}

func TestActorCanSee(t *testing.T) {
	r := Reservation{UserID: 7}
	assert.True(t, Actor{UserID: 7}.CanSee(r))
	assert.False(t, Actor{UserID: 8}.CanSee(r))
	assert.True(t, Actor{UserID: 8, Privileged: true}.CanSee(r))
}
