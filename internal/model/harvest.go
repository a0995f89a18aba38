package model

import "time"

// Harvest represents a bookable harvest-experience listing: a farm visit
// during which participants pick produce themselves.  Listings are managed
// by an external catalog process; the booking workflow only reads them and
// adjusts per-date remaining capacity.  This struct corresponds to a row in
// the `harvests` table.
//
// Fields:
//
//	ID          – primary key identifier.
//	Name        – display name of the experience.
//	Description – free-form description shown on detail pages.
//	Location    – prefecture or region where the farm is located.
//	Price       – price per participant as a plain integer (no minor units).
//	ImageURL    – reference to the listing image (may be empty).
//	CreatedAt   – timestamp when the listing was created.
//	UpdatedAt   – timestamp of last update.
type Harvest struct {
	ID          uint64    // harvests.id
	Name        string    // harvests.name
	Description string    // harvests.description
	Location    string    // harvests.location
	Price       uint32    // harvests.price
	ImageURL    string    // harvests.image_url
	CreatedAt   time.Time // harvests.created_at
	UpdatedAt   time.Time // harvests.updated_at
}

// HarvestSlot tracks bookable capacity of a harvest on a single calendar
// date.  A date with no slot row is not bookable at all.  Capacity is the
// configured ceiling; Remaining decreases as reservations are accepted and
// is restored on cancellation, never above Capacity.
//
// Fields:
//
//	ID        – primary key identifier.
//	HarvestID – harvest this slot belongs to.
//	SlotDate  – calendar date in YYYY-MM-DD form.
//	Capacity  – maximum number of participants the date can hold.
//	Remaining – participants still bookable on the date (0..Capacity).
type HarvestSlot struct {
	ID        uint64 // harvest_slots.id
	HarvestID uint64 // harvest_slots.harvest_id
	SlotDate  string // harvest_slots.slot_date
	Capacity  uint32 // harvest_slots.capacity
	Remaining uint32 // harvest_slots.remaining
}
