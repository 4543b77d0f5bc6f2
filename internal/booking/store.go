package booking

import (
	"context"
	"time"

	"github.com/iliyamo/room-booking/internal/model"
)

// Store is the reservation store the service owns.  Every mutating operation
// runs inside InTx; the unit either commits all of its writes or none.
type Store interface {
	// InTx runs fn as one atomic, isolated unit.  When fn returns an error
	// the unit is rolled back and the error is returned unchanged.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// GetReservation reads a committed reservation without locking it.
	GetReservation(ctx context.Context, id uint64) (model.Reservation, error)

	// ListByRequester returns the requester's reservations, newest first.
	ListByRequester(ctx context.Context, requesterID uint64) ([]model.Reservation, error)

	// ListReservations returns reservations matching f, newest first.
	ListReservations(ctx context.Context, f ListFilter) ([]model.Reservation, error)
}

// Tx is the view of the store inside one atomic unit.  Locks taken through
// it are held until the unit ends.  Callers lock a room before any
// reservation of that room.
type Tx interface {
	// LockRoom reads the room from the catalog and grants the unit
	// exclusive right to add or re-date reservations of that room.
	LockRoom(ctx context.Context, roomID uint64) (model.Room, error)

	// LockReservation reads the current state of a reservation and grants
	// the unit exclusive right to modify it.
	LockReservation(ctx context.Context, id uint64) (model.Reservation, error)

	// HasOverlap reports whether a reservation of roomID in a blocking
	// status, other than excludingID, intersects [checkIn, checkOut).
	HasOverlap(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludingID uint64) (bool, error)

	// Insert stores a new reservation and fills in its ID and timestamps.
	Insert(ctx context.Context, r *model.Reservation) error

	// Update overwrites the mutable fields of an existing reservation.
	Update(ctx context.Context, r *model.Reservation) error
}

// ListFilter narrows ListReservations.  Zero values match everything.
type ListFilter struct {
	Status model.Status
	RoomID uint64
	Limit  int
}
