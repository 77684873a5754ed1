package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gopkg.in/guregu/null.v4"
)

func TestBilledHours(t *testing.T) {
	cases := []struct {
		name string
		d    time.Duration
		want int64
	}{
		{"zero", 0, 1},
		{"one second", time.Second, 1},
		{"exactly one hour", time.Hour, 1},
		{"one hour and a second", time.Hour + time.Second, 2},
		{"ninety minutes", 90 * time.Minute, 2},
		{"five hours", 5 * time.Hour, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BilledHours(tc.d))
		})
	}
}

func TestCost(t *testing.T) {
	assert.Equal(t, 20.0, Cost(90*time.Minute, 10))
	assert.Equal(t, 7.5, Cost(time.Millisecond, 7.5))
	assert.Equal(t, 7.5, Cost(time.Hour, 7.5))
	assert.Equal(t, 15.0, Cost(time.Hour+time.Millisecond, 7.5))
}

func TestReservationDuration(t *testing.T) {
	entry := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	now := entry.Add(3 * time.Hour)

	active := Reservation{ParkingTimestamp: entry}
	assert.True(t, active.IsActive())
	assert.Equal(t, 3*time.Hour, active.Duration(now))

	closed := Reservation{
		ParkingTimestamp: entry,
		LeavingTimestamp: null.TimeFrom(entry.Add(45 * time.Minute)),
	}
	assert.False(t, closed.IsActive())
	assert.Equal(t, 45*time.Minute, closed.Duration(now))
	assert.Equal(t, 0.75, closed.DurationHours(now))
}

func TestNextSpotLabels(t *testing.T) {
	assert.Equal(t, []string{"A1", "A2", "A3"}, NextSpotLabels(nil, 3))
	assert.Equal(t, []string{"A6", "A7"}, NextSpotLabels([]string{"A1", "A5", "B9", "A2"}, 2))
	assert.Empty(t, NextSpotLabels([]string{"A1"}, 0))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(3, 0))
	assert.Equal(t, 33.33, Percent(1, 3))
	assert.Equal(t, 100.0, Percent(4, 4))
}
