package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/harvest-reservation/internal/model"
)

func newTestEvaluator(t *testing.T) (*AvailabilityEvaluator, *fakeHarvestStore) {
	t.Helper()
	harvests := newFakeHarvestStore()
	harvests.addHarvest(model.Harvest{ID: 1, Name: "Mandarin Picking"})
	e := NewAvailabilityEvaluator(harvests)
	e.now = func() time.Time {
		return time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)
	}
	return e, harvests
}

func TestIsBookable(t *testing.T) {
	e, harvests := newTestEvaluator(t)
	harvests.addSlot(1, "2025-07-15", 10, 4)
	harvests.addSlot(1, "2025-07-16", 10, 0)
	harvests.addSlot(1, "2025-05-01", 10, 10)

	cases := []struct {
		name string
		date string
		want bool
	}{
		{"future date with capacity", "2025-07-15", true},
		{"today without a slot", "2025-06-01", false},
		{"future date fully booked", "2025-07-16", false},
		{"past date even with capacity", "2025-05-01", false},
		{"date with no slot", "2025-09-01", false},
		{"malformed date", "soon", false},
		{"empty date", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.IsBookable(context.Background(), 1, tc.date)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsBookable_TodayWithCapacity(t *testing.T) {
	e, harvests := newTestEvaluator(t)
	// The clock is late in the evening UTC; the date itself is still today
	// and must remain bookable.
	harvests.addSlot(1, "2025-06-01", 10, 2)

	got, err := e.IsBookable(context.Background(), 1, "2025-06-01")
	assert.NoError(t, err)
	assert.True(t, got)
}

func TestRemainingCapacity(t *testing.T) {
	e, harvests := newTestEvaluator(t)
	harvests.addSlot(1, "2025-07-15", 10, 4)

	got, err := e.RemainingCapacity(context.Background(), 1, "2025-07-15")
	assert.NoError(t, err)
	assert.Equal(t, uint32(4), got)

	// Dates without a slot report zero rather than an error.
	got, err = e.RemainingCapacity(context.Background(), 1, "2025-09-01")
	assert.NoError(t, err)
	assert.Equal(t, uint32(0), got)
}

func TestAvailableTimeSlots_ReturnsCopy(t *testing.T) {
	e, _ := newTestEvaluator(t)

	slots := e.AvailableTimeSlots(context.Background(), 1, "2025-07-15")
	assert.Equal(t, []string{"10:00", "11:00", "14:00", "15:00", "16:00"}, slots)

	slots[0] = "00:00"
	again := e.AvailableTimeSlots(context.Background(), 1, "2025-07-15")
	assert.Equal(t, "10:00", again[0])
}

func TestValidTimeSlot(t *testing.T) {
	assert.True(t, ValidTimeSlot("10:00"))
	assert.True(t, ValidTimeSlot("16:00"))
	assert.False(t, ValidTimeSlot("12:00"))
	assert.False(t, ValidTimeSlot(""))
	assert.False(t, ValidTimeSlot("10:00:00"))
}
