package model

import "time"

// DateLayout is the wire and storage format of check-in and check-out dates.
const DateLayout = "2006-01-02"

// Reservation is a guest's stay request for one room.  TotalPriceCents is
// always derived from the room's nightly rate and is never taken from the
// caller.  ApproverID is set only by an approval; DeclineReason only by a
// decline.
//
// Fields:
//
//	ID              – reservations.id
//	RoomID          – reservations.room_id
//	RequesterID     – user who made the reservation
//	CheckIn         – first night (inclusive), UTC midnight
//	CheckOut        – departure day (exclusive), UTC midnight
//	Guests          – number of guests, at least 1
//	Status          – lifecycle state, see status.go
//	TotalPriceCents – nights × room nightly price
//	ApproverID      – admin who approved (nullable)
//	DeclineReason   – free text, non-empty only when declined
type Reservation struct {
	ID              uint64
	RoomID          uint64
	RequesterID     uint64
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	Status          Status
	TotalPriceCents int64
	ApproverID      *uint64
	DeclineReason   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Nights returns the number of nights of the stay.
func (r Reservation) Nights() int { return Nights(r.CheckIn, r.CheckOut) }

// ParseDate parses a YYYY-MM-DD calendar date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Nights counts the whole days between checkIn and checkOut.  It is negative
// or zero when the dates are not in order.
func Nights(checkIn, checkOut time.Time) int {
	return int(DateOf(checkOut).Sub(DateOf(checkIn)).Hours() / 24)
}

// Overlaps reports whether the half-open ranges [aIn, aOut) and [bIn, bOut)
// intersect.  A stay ending on the day another begins does not overlap it.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && bIn.Before(aOut)
}
