package booking

import (
	"context"
	"time"

	"github.com/iliyamo/room-booking/internal/model"
)

// EventType names what happened to a reservation.
type EventType string

const (
	EventCreated     EventType = "reservation.created"
	EventRescheduled EventType = "reservation.rescheduled"
	EventApproved    EventType = "reservation.approved"
	EventDeclined    EventType = "reservation.declined"
	EventCheckedIn   EventType = "reservation.checked_in"
	EventCheckedOut  EventType = "reservation.checked_out"
	EventCancelled   EventType = "reservation.cancelled"
)

// Event is emitted after a mutation has been committed.
type Event struct {
	Type        EventType
	Reservation model.Reservation
	ActorID     uint64
	OccurredAt  time.Time
}

// Publisher delivers committed events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }
