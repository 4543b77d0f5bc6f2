package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/booking"
	"github.com/iliyamo/room-booking/internal/identity"
	"github.com/iliyamo/room-booking/internal/middleware"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/pricing"
	"github.com/iliyamo/room-booking/internal/repository"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns a validator that reports JSON field names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// bindAndValidate decodes the body into dst and validates it.  On failure
// it writes a 400 response and returns ok=false together with the write
// error, if any.
func bindAndValidate(c echo.Context, dst interface{}) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body", "code": "bad_request"})
	}
	if err := c.Validate(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return false, c.JSON(http.StatusBadRequest, echo.Map{
				"error": fe.Field() + " failed " + fe.Tag() + " validation",
				"code":  "bad_request",
				"field": fe.Field(),
			})
		}
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "code": "bad_request"})
	}
	return true, nil
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func badID(c echo.Context, what string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + what + " id", "code": "bad_request"})
}

// currentIdentity returns the authenticated caller.  Routes calling it are
// always mounted behind middleware.JWTAuth.
func currentIdentity(c echo.Context) (identity.Identity, error) {
	who, ok := middleware.IdentityFrom(c)
	if !ok {
		return identity.Identity{}, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": "unauthenticated"})
	}
	return who, nil
}

// writeError maps booking and repository errors onto HTTP responses.
// Anything unrecognised is logged and reported as 500.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	var (
		ve *booking.ValidationError
		te *booking.TransitionError
	)
	switch {
	case errors.As(err, &ve):
		status := http.StatusUnprocessableEntity
		if ve.Code == booking.CodeOverlap {
			status = http.StatusConflict
		}
		return c.JSON(status, echo.Map{"error": ve.Reason, "code": ve.Code})
	case errors.As(err, &te):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": te.Error(), "code": "invalid_transition",
			"from": string(te.From), "to": string(te.To),
		})
	case errors.Is(err, booking.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error(), "code": "invalid_transition"})
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error(), "code": "not_found"})
	case errors.Is(err, repository.ErrCategoryNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error(), "code": "not_found"})
	case errors.Is(err, booking.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error(), "code": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "resource is still referenced", "code": "conflict"})
	case errors.Is(err, repository.ErrDuplicate):
		return c.JSON(http.StatusConflict, echo.Map{"error": "resource already exists", "code": "duplicate"})
	}
	log.Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("route", c.Path()),
		zap.Error(err),
	)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error", "code": "internal"})
}

// ReservationResponse is the wire form of a reservation.
type ReservationResponse struct {
	ID            uint64    `json:"id"`
	RoomID        uint64    `json:"room_id"`
	RequesterID   uint64    `json:"requester_id"`
	CheckIn       string    `json:"check_in_date"`
	CheckOut      string    `json:"check_out_date"`
	Nights        int       `json:"nights"`
	Guests        int       `json:"guests"`
	Status        string    `json:"status"`
	StatusLabel   string    `json:"status_label"`
	TotalPrice    string    `json:"total_price"`
	ApproverID    *uint64   `json:"approver_id"`
	DeclineReason string    `json:"decline_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toReservationResponse(r model.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:            r.ID,
		RoomID:        r.RoomID,
		RequesterID:   r.RequesterID,
		CheckIn:       r.CheckIn.Format(model.DateLayout),
		CheckOut:      r.CheckOut.Format(model.DateLayout),
		Nights:        r.Nights(),
		Guests:        r.Guests,
		Status:        string(r.Status),
		StatusLabel:   r.Status.Label(),
		TotalPrice:    pricing.FormatCents(r.TotalPriceCents),
		ApproverID:    r.ApproverID,
		DeclineReason: r.DeclineReason,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func toReservationList(rs []model.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReservationResponse(r))
	}
	return out
}

// RoomResponse is the wire form of a room.
type RoomResponse struct {
	ID           uint64    `json:"id"`
	Number       string    `json:"number"`
	CategoryID   uint64    `json:"category_id"`
	CategoryName string    `json:"category_name"`
	NightlyPrice string    `json:"nightly_price"`
	Capacity     int       `json:"capacity"`
	Description  string    `json:"description"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toRoomResponse(r *model.Room) RoomResponse {
	return RoomResponse{
		ID:           r.ID,
		Number:       r.Number,
		CategoryID:   r.CategoryID,
		CategoryName: r.CategoryName,
		NightlyPrice: pricing.FormatCents(r.NightlyPriceCents),
		Capacity:     r.Capacity,
		Description:  r.Description,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
