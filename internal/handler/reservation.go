package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/booking"
	"github.com/iliyamo/room-booking/internal/identity"
	"github.com/iliyamo/room-booking/internal/model"
)

// ReservationHandler exposes the booking service over HTTP.  Every method
// expects JWTAuth to have run; admin methods additionally sit behind
// RequireRole, although the service re-checks privilege itself.
type ReservationHandler struct {
	svc *booking.Service
	log *zap.Logger
}

// NewReservationHandler wires the handler to the booking service.
func NewReservationHandler(svc *booking.Service, log *zap.Logger) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReservationHandler{svc: svc, log: log}
}

type createReservationRequest struct {
	RoomID   uint64 `json:"room_id" validate:"required"`
	CheckIn  string `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOut string `json:"check_out_date" validate:"required,datetime=2006-01-02"`
	Guests   int    `json:"guests"`
}

type updateDatesRequest struct {
	CheckIn  string `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOut string `json:"check_out_date" validate:"required,datetime=2006-01-02"`
	Guests   int    `json:"guests"`
}

type declineRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// Create handles POST /v1/reservations and answers 201 with the pending
// reservation.
func (h *ReservationHandler) Create(c echo.Context) error {
	who, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var body createReservationRequest
	if ok, err := bindAndValidate(c, &body); !ok {
		return err
	}
	// Layout was checked by the validator.
	checkIn, _ := model.ParseDate(body.CheckIn)
	checkOut, _ := model.ParseDate(body.CheckOut)

	r, err := h.svc.Create(c.Request().Context(), who, booking.CreateRequest{
		RoomID:   body.RoomID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Guests:   body.Guests,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, toReservationResponse(r))
}

// UpdateDates handles PATCH /v1/reservations/:id.
func (h *ReservationHandler) UpdateDates(c echo.Context) error {
	who, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "reservation")
	}
	var body updateDatesRequest
	if ok, err := bindAndValidate(c, &body); !ok {
		return err
	}
	checkIn, _ := model.ParseDate(body.CheckIn)
	checkOut, _ := model.ParseDate(body.CheckOut)

	r, err := h.svc.UpdateDates(c.Request().Context(), who, id, booking.DatesRequest{
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Guests:   body.Guests,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// ListMine handles GET /v1/reservations/mine.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	who, err := currentIdentity(c)
	if err != nil {
		return err
	}
	rs, err := h.svc.ListMine(c.Request().Context(), who)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toReservationList(rs)})
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	who, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "reservation")
	}
	r, err := h.svc.Get(c.Request().Context(), who, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// Cancel handles POST /v1/reservations/:id/cancel.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	return h.transition(c, h.svc.Cancel)
}

// AdminList handles GET /v1/admin/reservations?status=&room_id=&limit=.
func (h *ReservationHandler) AdminList(c echo.Context) error {
	who, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var f booking.ListFilter
	if raw := c.QueryParam("status"); raw != "" {
		st, ok := model.ParseStatus(raw)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status " + strconv.Quote(raw), "code": "bad_request"})
		}
		f.Status = st
	}
	if raw := c.QueryParam("room_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return badID(c, "room")
		}
		f.RoomID = id
	}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be between 1 and 500", "code": "bad_request"})
		}
		f.Limit = n
	}
	rs, err := h.svc.List(c.Request().Context(), who, f)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toReservationList(rs)})
}

// Approve handles POST /v1/admin/reservations/:id/approve.
func (h *ReservationHandler) Approve(c echo.Context) error {
	return h.transition(c, h.svc.Approve)
}

// maxDeclineBody caps how much of a decline body is buffered.
const maxDeclineBody = 8 << 10

// Decline handles POST /v1/admin/reservations/:id/decline.  The body is
// optional and may carry a reason.
func (h *ReservationHandler) Decline(c echo.Context) error {
	var body declineRequest
	empty, err := emptyBody(c.Request())
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read request body", "code": "bad_request"})
	}
	if !empty {
		if ok, err := bindAndValidate(c, &body); !ok {
			return err
		}
	}
	return h.transition(c, func(ctx context.Context, who identity.Identity, id uint64) (model.Reservation, error) {
		return h.svc.Decline(ctx, who, id, strings.TrimSpace(body.Reason))
	})
}

// emptyBody reports whether the request carries no payload besides
// whitespace.  Chunked requests have no length up front, so the body is
// read and put back for the binder.
func emptyBody(req *http.Request) (bool, error) {
	if req.Body == nil || req.Body == http.NoBody || req.ContentLength == 0 {
		return true, nil
	}
	raw, err := io.ReadAll(io.LimitReader(req.Body, maxDeclineBody))
	if err != nil {
		return false, err
	}
	req.Body = io.NopCloser(bytes.NewReader(raw))
	req.ContentLength = int64(len(raw))
	return len(bytes.TrimSpace(raw)) == 0, nil
}

// CheckIn handles POST /v1/admin/reservations/:id/check-in.
func (h *ReservationHandler) CheckIn(c echo.Context) error {
	return h.transition(c, h.svc.CheckIn)
}

// CheckOut handles POST /v1/admin/reservations/:id/check-out.
func (h *ReservationHandler) CheckOut(c echo.Context) error {
	return h.transition(c, h.svc.CheckOut)
}

type transitionFunc func(ctx context.Context, who identity.Identity, id uint64) (model.Reservation, error)

func (h *ReservationHandler) transition(c echo.Context, op transitionFunc) error {
	who, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "reservation")
	}
	r, err := op(c.Request().Context(), who, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}
