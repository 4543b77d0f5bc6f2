// Package queue carries reservation events over RabbitMQ.  The publisher
// side implements booking.Publisher; the consumer side appends every event
// to an audit log on disk.
package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/room-booking/internal/booking"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/pricing"
)

// ReservationMessage is the JSON body of every message on the reservation
// queue.  It is self-contained so consumers never query the database.
type ReservationMessage struct {
	EventID       string  `json:"event_id"`
	Type          string  `json:"type"`
	ReservationID uint64  `json:"reservation_id"`
	RoomID        uint64  `json:"room_id"`
	RequesterID   uint64  `json:"requester_id"`
	ActorID       uint64  `json:"actor_id"`
	Status        string  `json:"status"`
	CheckIn       string  `json:"check_in_date"`
	CheckOut      string  `json:"check_out_date"`
	Nights        int     `json:"nights"`
	Guests        int     `json:"guests"`
	TotalPrice    string  `json:"total_price"`
	ApproverID    *uint64 `json:"approver_id,omitempty"`
	DeclineReason string  `json:"decline_reason,omitempty"`
	OccurredAt    string  `json:"occurred_at"`
}

// NewMessage converts a committed booking event into its wire form with a
// fresh event id.
func NewMessage(ev booking.Event) ReservationMessage {
	r := ev.Reservation
	return ReservationMessage{
		EventID:       uuid.NewString(),
		Type:          string(ev.Type),
		ReservationID: r.ID,
		RoomID:        r.RoomID,
		RequesterID:   r.RequesterID,
		ActorID:       ev.ActorID,
		Status:        string(r.Status),
		CheckIn:       r.CheckIn.Format(model.DateLayout),
		CheckOut:      r.CheckOut.Format(model.DateLayout),
		Nights:        r.Nights(),
		Guests:        r.Guests,
		TotalPrice:    pricing.FormatCents(r.TotalPriceCents),
		ApproverID:    r.ApproverID,
		DeclineReason: r.DeclineReason,
		OccurredAt:    ev.OccurredAt.UTC().Format(time.RFC3339),
	}
}

// AuditLine renders m as a single human readable log line.
func (m ReservationMessage) AuditLine() string {
	line := fmt.Sprintf("[%s] %s | event_id=%s | reservation_id=%d | room_id=%d | requester_id=%d | actor_id=%d | status=%s | stay=%s..%s | nights=%d | guests=%d | total=%s",
		m.OccurredAt, m.Type, m.EventID, m.ReservationID, m.RoomID, m.RequesterID, m.ActorID,
		m.Status, m.CheckIn, m.CheckOut, m.Nights, m.Guests, m.TotalPrice)
	if m.DeclineReason != "" {
		line += fmt.Sprintf(" | reason=%q", m.DeclineReason)
	}
	return line + "\n"
}
