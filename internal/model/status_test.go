package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func allStatuses() []Status {
	return []Status{
		StatusPending, StatusApproved, StatusDeclined,
		StatusCheckedIn, StatusCheckedOut, StatusCancelled,
	}
}

func TestCanTransition_Table(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusPending, StatusApproved}:     true,
		{StatusPending, StatusDeclined}:     true,
		{StatusPending, StatusCancelled}:    true,
		{StatusApproved, StatusCheckedIn}:   true,
		{StatusApproved, StatusCancelled}:   true,
		{StatusCheckedIn, StatusCheckedOut}: true,
	}
	for _, from := range allStatuses() {
		for _, to := range allStatuses() {
			want := allowed[[2]Status{from, to}]
			assert.Equalf(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_UnknownStatus(t *testing.T) {
	assert.False(t, CanTransition("ARCHIVED", StatusPending))
	assert.False(t, CanTransition(StatusPending, "ARCHIVED"))
	assert.False(t, CanTransition("", ""))
}

func TestStatus_Terminal(t *testing.T) {
	cases := []struct {
		status   Status
		terminal bool
		blocking bool
	}{
		{StatusPending, false, true},
		{StatusApproved, false, true},
		{StatusCheckedIn, false, true},
		{StatusDeclined, true, false},
		{StatusCheckedOut, true, false},
		{StatusCancelled, true, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.terminal, tc.status.Terminal())
			assert.Equal(t, tc.blocking, tc.status.Blocking())
		})
	}
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus(" checked_in ")
	assert.True(t, ok)
	assert.Equal(t, StatusCheckedIn, s)
	assert.Equal(t, "Checked In", s.Label())

	_, ok = ParseStatus("delayed")
	assert.False(t, ok)
}

func TestOverlaps(t *testing.T) {
	d := func(s string) time.Time {
		v, err := ParseDate(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		return v
	}
	cases := []struct {
		name       string
		a1, a2     string
		b1, b2     string
		overlapped bool
	}{
		{"back to back", "2024-01-01", "2024-01-05", "2024-01-05", "2024-01-10", false},
		{"contained", "2024-01-01", "2024-01-10", "2024-01-05", "2024-01-06", true},
		{"identical", "2024-01-01", "2024-01-03", "2024-01-01", "2024-01-03", true},
		{"disjoint", "2024-01-01", "2024-01-02", "2024-02-01", "2024-02-02", false},
		{"partial", "2024-01-01", "2024-01-05", "2024-01-04", "2024-01-08", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.overlapped, Overlaps(d(tc.a1), d(tc.a2), d(tc.b1), d(tc.b2)))
			assert.Equal(t, tc.overlapped, Overlaps(d(tc.b1), d(tc.b2), d(tc.a1), d(tc.a2)))
		})
	}
}

func TestNights(t *testing.T) {
	in, _ := ParseDate("2024-03-01")
	out, _ := ParseDate("2024-03-04")
	assert.Equal(t, 3, Nights(in, out))
	assert.Equal(t, -3, Nights(out, in))
	assert.Equal(t, 3, Reservation{CheckIn: in, CheckOut: out}.Nights())
}
