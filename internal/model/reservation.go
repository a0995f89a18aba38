package model

import "time"

// ReservationStatus enumerates the lifecycle states of a reservation.
// A reservation is created Pending, may be Confirmed or Cancelled by an
// administrator, and a Confirmed reservation may still be Cancelled.
// Cancelled is terminal; no transition leaves it.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "Pending"
	StatusConfirmed ReservationStatus = "Confirmed"
	StatusCancelled ReservationStatus = "Cancelled"
)

// Reservation records a booking request for a harvest experience on a
// specific date.  The participant count was already subtracted from the
// slot's remaining capacity when the reservation was accepted, so every
// Pending or Confirmed reservation is accounted for in the slot counters.
// Reservations are never deleted, only marked Cancelled.
//
// Fields:
//
//	ID              – primary key identifier, assigned on creation.
//	Reference       – opaque code returned to the requester for lookups.
//	HarvestID       – harvest being booked (weak reference by id).
//	UserID          – identity-provider subject of the requester; nil for
//	                  guest bookings.
//	UserName        – requester display name as submitted.
//	UserEmail       – requester contact email as submitted.
//	ReservationDate – booked calendar date in YYYY-MM-DD form.
//	ReservationTime – time-of-day token from the fixed offered set.
//	Participants    – number of participants covered by the booking.
//	Status          – current lifecycle status.
//	CreatedAt       – creation timestamp.
//	UpdatedAt       – last update timestamp.
type Reservation struct {
	ID              uint64            // reservations.id
	Reference       string            // reservations.reference
	HarvestID       uint64            // reservations.harvest_id
	UserID          *string           // reservations.user_id (nullable)
	UserName        string            // reservations.user_name
	UserEmail       string            // reservations.user_email
	ReservationDate string            // reservations.reservation_date
	ReservationTime string            // reservations.reservation_time
	Participants    uint32            // reservations.participants
	Status          ReservationStatus // reservations.status
	CreatedAt       time.Time         // reservations.created_at
	UpdatedAt       time.Time         // reservations.updated_at
}
