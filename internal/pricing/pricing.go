// Package pricing derives reservation totals and converts money between
// integer cents and the two-decimal strings used on the wire.
package pricing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/room-booking/internal/model"
)

// MaxCents is the largest storable amount, 99,999,999.99: ten digits with
// two of them after the point.  Nightly prices and totals share the bound.
const MaxCents int64 = 9_999_999_999

var (
	// ErrInvalidAmount is returned by ParseCents for malformed, negative or
	// out-of-range input.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrTotalOutOfRange is returned by Total when the stay costs more than
	// MaxCents.
	ErrTotalOutOfRange = errors.New("total price out of range")
)

// Total is nights(checkIn, checkOut) × nightly price.  Callers validate the
// date order first; a non-positive night count yields zero.  A negative
// price or a product above MaxCents is rejected.
func Total(nightlyPriceCents int64, checkIn, checkOut time.Time) (int64, error) {
	if nightlyPriceCents < 0 {
		return 0, ErrInvalidAmount
	}
	n := int64(model.Nights(checkIn, checkOut))
	if n <= 0 || nightlyPriceCents == 0 {
		return 0, nil
	}
	if n > MaxCents/nightlyPriceCents {
		return 0, ErrTotalOutOfRange
	}
	return n * nightlyPriceCents, nil
}

// FormatCents renders 30000 as "300.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ParseCents accepts "300", "300.5" or "300.50" and returns the amount in
// cents.  More than two decimal places, signs, exponents and amounts above
// MaxCents are rejected.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "+-eE") {
		return 0, ErrInvalidAmount
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || (hasFrac && (frac == "" || len(frac) > 2)) {
		return 0, ErrInvalidAmount
	}
	if len(strings.TrimLeft(whole, "0")) > 8 {
		return 0, ErrInvalidAmount
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	var cents int64
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		c, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, ErrInvalidAmount
		}
		cents = c
	}
	return units*100 + cents, nil
}
