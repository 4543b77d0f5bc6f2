package model

import "strings"

// Status is the lifecycle state of a reservation.  The set is closed: any
// value outside the constants below is treated as unknown and can neither
// be entered nor left.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusApproved   Status = "APPROVED"
	StatusDeclined   Status = "DECLINED"
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusCheckedOut Status = "CHECKED_OUT"
	StatusCancelled  Status = "CANCELLED"
)

// transitions is the adjacency table of the reservation state machine.
// Statuses mapped to an empty set are terminal.
var transitions = map[Status]map[Status]struct{}{
	StatusPending: {
		StatusApproved:  {},
		StatusDeclined:  {},
		StatusCancelled: {},
	},
	StatusApproved: {
		StatusCheckedIn: {},
		StatusCancelled: {},
	},
	StatusCheckedIn: {
		StatusCheckedOut: {},
	},
	StatusDeclined:   {},
	StatusCheckedOut: {},
	StatusCancelled:  {},
}

var labels = map[Status]string{
	StatusPending:    "Pending",
	StatusApproved:   "Approved",
	StatusDeclined:   "Declined",
	StatusCheckedIn:  "Checked In",
	StatusCheckedOut: "Checked Out",
	StatusCancelled:  "Cancelled",
}

// CanTransition reports whether a reservation in status from may move to
// status to.  It is defined for every pair of values, known or not.
func CanTransition(from, to Status) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Blocking reports whether a reservation in this status occupies its room
// for the purpose of overlap detection.
func (s Status) Blocking() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCheckedIn:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// Label is the human readable form shown to clients ("Checked In").
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// ParseStatus normalises user input such as " checked_in " into a Status.
// The boolean is false when the value is not a known status.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// BlockingStatuses lists the statuses counted by the availability check, in
// a stable order suitable for SQL IN clauses.
func BlockingStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusCheckedIn}
}
