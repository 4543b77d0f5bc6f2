package booking

import (
	"errors"
	"fmt"

	"github.com/iliyamo/room-booking/internal/model"
)

// Error kinds returned by the booking core.  Callers match them with
// errors.Is; the concrete values carry the details.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnauthorized      = errors.New("unauthorized")
)

// Store implementations report missing rows with these.
var (
	ErrRoomNotFound        = fmt.Errorf("room %w", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)
)

// Validation codes distinguishing the reasons a stay was rejected.
const (
	CodeDateOrder    = "date_order"
	CodeGuests       = "guests"
	CodeCapacity     = "capacity"
	CodeOverlap      = "overlap"
	CodeRoomInactive = "room_inactive"
	CodePrice        = "price"
)

// ValidationError rejects a requested stay before anything is written.
type ValidationError struct {
	Code   string
	Reason string
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Reason }

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(code, reason string) *ValidationError {
	return &ValidationError{Code: code, Reason: reason}
}

// TransitionError reports a state machine edge that does not exist.
type TransitionError struct {
	From model.Status
	To   model.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot move reservation from %s to %s", e.From, e.To)
}

// Is makes errors.Is(err, ErrInvalidTransition) hold.
func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// IsValidationCode reports whether err is a ValidationError with the given code.
func IsValidationCode(err error, code string) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Code == code
}
