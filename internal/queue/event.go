// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the background consumer that turns them
// into an audit trail.
package queue

// ReservationCreatedEvent is published when a reservation is accepted into
// the Pending state. It contains enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.
type ReservationCreatedEvent struct {
	ReservationID   uint64 `json:"reservation_id"`
	Reference       string `json:"reference"`
	HarvestID       uint64 `json:"harvest_id"`
	HarvestName     string `json:"harvest_name"`
	UserID          string `json:"user_id,omitempty"`
	UserName        string `json:"user_name"`
	UserEmail       string `json:"user_email"`
	ReservationDate string `json:"reservation_date"`
	ReservationTime string `json:"reservation_time"`
	Participants    uint32 `json:"participants"`
	CreatedAt       string `json:"created_at"`
}

// ReservationStatusEvent is published when an administrator moves a
// reservation through its lifecycle (confirmation or cancellation).
type ReservationStatusEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	Reference     string `json:"reference"`
	HarvestID     uint64 `json:"harvest_id"`
	OldStatus     string `json:"old_status"`
	NewStatus     string `json:"new_status"`
	Participants  uint32 `json:"participants"`
	ChangedAt     string `json:"changed_at"`
}
