// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// reservation workflow and handlers to distinguish between different
// failure scenarios without inspecting SQL errors directly. For example,
// ErrInsufficientCapacity signals that a capacity decrement could not be
// applied, while ErrInvalidTransition signals that a status change
// violates the reservation state machine.
package repository

import "errors"

// ErrHarvestNotFound is returned when no harvest exists for the given id.
// Handlers should translate this into an HTTP 404 response.
var ErrHarvestNotFound = errors.New("harvest not found")

// ErrReservationNotFound is returned when no reservation exists for the
// given id. Handlers should translate this into an HTTP 404 response.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrSlotNotFound is returned when a harvest has no capacity slot for the
// requested date. A date without a slot is not bookable.
var ErrSlotNotFound = errors.New("no capacity slot for date")

// ErrInsufficientCapacity is returned when a decrement would push a slot's
// remaining capacity below zero. The slot is left unchanged.
var ErrInsufficientCapacity = errors.New("insufficient remaining capacity")

// ErrInvalidTransition is returned when a status update does not match the
// reservation state machine (for example cancelling an already cancelled
// reservation). Handlers should translate this into an HTTP 409 response.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrConflict is returned when an operation lost a race against a
// concurrent update, such as a compare-and-decrement whose guard no longer
// holds. Callers may retry with fresh state.
var ErrConflict = errors.New("conflict")
