// Package service implements the booking core: the availability evaluator
// and the reservation workflow.  Handlers call into this package instead
// of re-implementing validation per endpoint, so every entry point applies
// the same rules.
package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/harvest-reservation/internal/model"
	"github.com/iliyamo/harvest-reservation/internal/repository"
)

// dateLayout is the calendar-date form used throughout the API.
const dateLayout = "2006-01-02"

// TimeSlots is the fixed set of time-of-day tokens offered on every
// bookable date.  Capacity is tracked per date, not per time; the token is
// recorded on the reservation but does not partition the slot counter.
var TimeSlots = []string{"10:00", "11:00", "14:00", "15:00", "16:00"}

// ValidTimeSlot reports whether the given token is one of the offered
// time slots.
func ValidTimeSlot(t string) bool {
	for _, s := range TimeSlots {
		if s == t {
			return true
		}
	}
	return false
}

// HarvestStore is the slice of the harvest repository the booking core
// depends on.  *repository.HarvestRepo satisfies it; tests substitute
// in-memory fakes.
type HarvestStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Harvest, error)
	GetSlot(ctx context.Context, harvestID uint64, date string) (*model.HarvestSlot, error)
	DecrementRemaining(ctx context.Context, harvestID uint64, date string, expected, amount uint32) (bool, error)
	RestoreRemaining(ctx context.Context, harvestID uint64, date string, amount uint32) error
	RestoreRemainingTx(ctx context.Context, tx *sql.Tx, harvestID uint64, date string, amount uint32) error
}

// AvailabilityEvaluator answers whether a harvest date is bookable and how
// much capacity remains.  The reference clock is injectable so tests can
// pin "today".
type AvailabilityEvaluator struct {
	harvests HarvestStore
	now      func() time.Time
}

// NewAvailabilityEvaluator constructs an evaluator over the given store
// using the wall clock.
func NewAvailabilityEvaluator(harvests HarvestStore) *AvailabilityEvaluator {
	return &AvailabilityEvaluator{harvests: harvests, now: time.Now}
}

// IsBookable reports whether the given date is open for booking: the date
// must not be in the past (time of day ignored), the harvest must have a
// slot for it and the slot must have capacity left.  A missing slot is not
// an error, just not bookable.
func (e *AvailabilityEvaluator) IsBookable(ctx context.Context, harvestID uint64, date string) (bool, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return false, nil
	}
	today := e.today()
	if day.Before(today) {
		return false, nil
	}
	slot, err := e.harvests.GetSlot(ctx, harvestID, date)
	if err != nil {
		if errors.Is(err, repository.ErrSlotNotFound) {
			return false, nil
		}
		return false, err
	}
	return slot.Remaining > 0, nil
}

// RemainingCapacity returns how many participants can still book the given
// date.  Dates without a slot report zero.
func (e *AvailabilityEvaluator) RemainingCapacity(ctx context.Context, harvestID uint64, date string) (uint32, error) {
	slot, err := e.harvests.GetSlot(ctx, harvestID, date)
	if err != nil {
		if errors.Is(err, repository.ErrSlotNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return slot.Remaining, nil
}

// AvailableTimeSlots returns the time tokens offered for the given date.
// The set is the same for every date; a copy is returned so callers cannot
// mutate the shared slice.
func (e *AvailabilityEvaluator) AvailableTimeSlots(ctx context.Context, harvestID uint64, date string) []string {
	out := make([]string, len(TimeSlots))
	copy(out, TimeSlots)
	return out
}

// today returns the current date with the time of day truncated, in UTC.
func (e *AvailabilityEvaluator) today() time.Time {
	y, m, d := e.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
