package model

import "time"

// RoomCategory groups rooms (e.g. "Deluxe", "Suite").  A category cannot be
// removed while rooms still reference it.
type RoomCategory struct {
	ID          uint64    // room_categories.id
	Name        string    // room_categories.name (unique)
	Description string    // room_categories.description
	CreatedAt   time.Time // room_categories.created_at
	UpdatedAt   time.Time // room_categories.updated_at
}

// Room is an entry of the room catalog.  Capacity is at least one and the
// nightly price is a non-negative amount in cents.
type Room struct {
	ID                uint64    // rooms.id
	Number            string    // rooms.number (unique)
	CategoryID        uint64    // rooms.category_id
	CategoryName      string    // room_categories.name, filled by joins
	NightlyPriceCents int64     // rooms.nightly_price_cents
	Capacity          int       // rooms.capacity
	Description       string    // rooms.description
	IsActive          bool      // rooms.is_active
	CreatedAt         time.Time // rooms.created_at
	UpdatedAt         time.Time // rooms.updated_at
}
