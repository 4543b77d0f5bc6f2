package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/pricing"
	"github.com/iliyamo/room-booking/internal/repository"
)

// RoomCatalog is the room storage the handler needs.  *repository.RoomRepo
// satisfies it.
type RoomCatalog interface {
	Create(ctx context.Context, rm *model.Room) error
	GetByID(ctx context.Context, id uint64) (*model.Room, error)
	List(ctx context.Context, f repository.RoomFilter) ([]*model.Room, error)
	Update(ctx context.Context, rm *model.Room) error
	Delete(ctx context.Context, id uint64) error
}

// Purger drops cached public responses after a catalog write.
type Purger interface {
	Purge(ctx context.Context) int
}

type nopPurger struct{}

func (nopPurger) Purge(context.Context) int { return 0 }

// RoomHandler serves the public room listing and the admin room
// management endpoints.
type RoomHandler struct {
	rooms  RoomCatalog
	purger Purger
	log    *zap.Logger
}

// NewRoomHandler returns a RoomHandler.  purger may be nil.
func NewRoomHandler(rooms RoomCatalog, purger Purger, log *zap.Logger) *RoomHandler {
	if rooms == nil {
		panic("nil catalog passed to NewRoomHandler")
	}
	if purger == nil {
		purger = nopPurger{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RoomHandler{rooms: rooms, purger: purger, log: log}
}

// roomRequest is used for create (PUT semantics) and partial update (PATCH).
// Pointer fields distinguish "absent" from "zero" on PATCH.
type roomRequest struct {
	Number       *string `json:"number" validate:"omitempty,min=1,max=20"`
	CategoryID   *uint64 `json:"category_id" validate:"omitempty,min=1"`
	NightlyPrice *string `json:"nightly_price"`
	Capacity     *int    `json:"capacity" validate:"omitempty,min=1"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
	IsActive     *bool   `json:"is_active"`
}

// apply copies the present fields onto rm.  With full set, every field
// except description and is_active is required.
func (r roomRequest) apply(rm *model.Room, full bool) (string, bool) {
	if full && (r.Number == nil || r.CategoryID == nil || r.NightlyPrice == nil || r.Capacity == nil) {
		return "number, category_id, nightly_price and capacity are required", false
	}
	if r.Number != nil {
		n := strings.TrimSpace(*r.Number)
		if n == "" {
			return "number must not be blank", false
		}
		rm.Number = n
	}
	if r.CategoryID != nil {
		rm.CategoryID = *r.CategoryID
	}
	if r.NightlyPrice != nil {
		cents, err := pricing.ParseCents(*r.NightlyPrice)
		if err != nil {
			return "nightly_price must be a non-negative amount up to 99999999.99 with at most two decimals", false
		}
		rm.NightlyPriceCents = cents
	}
	if r.Capacity != nil {
		rm.Capacity = *r.Capacity
	}
	if r.Description != nil {
		rm.Description = *r.Description
	}
	if r.IsActive != nil {
		rm.IsActive = *r.IsActive
	}
	return "", true
}

// filterFromQuery reads category_id, min_capacity, q, limit and offset.
func filterFromQuery(c echo.Context) (repository.RoomFilter, string) {
	var f repository.RoomFilter
	if raw := c.QueryParam("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return f, "invalid category_id"
		}
		f.CategoryID = id
	}
	if raw := c.QueryParam("min_capacity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, "invalid min_capacity"
		}
		f.MinCapacity = n
	}
	f.Search = c.QueryParam("q")
	f.Limit = 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			return f, "limit must be between 1 and 200"
		}
		f.Limit = n
	}
	if raw := c.QueryParam("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, "invalid offset"
		}
		f.Offset = n
	}
	return f, ""
}

func toRoomList(rooms []*model.Room) []RoomResponse {
	out := make([]RoomResponse, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, toRoomResponse(r))
	}
	return out
}

// ListPublic handles GET /v1/rooms.  Only active rooms are listed.
func (h *RoomHandler) ListPublic(c echo.Context) error {
	f, msg := filterFromQuery(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": "bad_request"})
	}
	active := true
	f.Active = &active
	rooms, err := h.rooms.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toRoomList(rooms), "limit": f.Limit, "offset": f.Offset})
}

// GetPublic handles GET /v1/rooms/:id.  Inactive rooms are hidden.
func (h *RoomHandler) GetPublic(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "room")
	}
	rm, err := h.rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if !rm.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found", "code": "not_found"})
	}
	return c.JSON(http.StatusOK, toRoomResponse(rm))
}

// AdminList handles GET /v1/admin/rooms, including inactive rooms unless
// ?active= is given.
func (h *RoomHandler) AdminList(c echo.Context) error {
	f, msg := filterFromQuery(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": "bad_request"})
	}
	if raw := c.QueryParam("active"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid active flag", "code": "bad_request"})
		}
		f.Active = &b
	}
	rooms, err := h.rooms.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toRoomList(rooms), "limit": f.Limit, "offset": f.Offset})
}

// Create handles POST /v1/admin/rooms.  New rooms are active unless the
// body says otherwise.
func (h *RoomHandler) Create(c echo.Context) error {
	var body roomRequest
	if ok, err := bindAndValidate(c, &body); !ok {
		return err
	}
	rm := model.Room{IsActive: true}
	if msg, ok := body.apply(&rm, true); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": "bad_request"})
	}
	if err := h.rooms.Create(c.Request().Context(), &rm); err != nil {
		return h.catalogError(c, err)
	}
	h.purger.Purge(c.Request().Context())
	return c.JSON(http.StatusCreated, toRoomResponse(&rm))
}

// Update handles PUT (full) and PATCH (partial) on /v1/admin/rooms/:id.
// Price and capacity changes apply to future bookings only; existing
// reservations keep their computed totals.
func (h *RoomHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "room")
	}
	var body roomRequest
	if ok, err := bindAndValidate(c, &body); !ok {
		return err
	}
	ctx := c.Request().Context()
	rm, err := h.rooms.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if msg, ok := body.apply(rm, c.Request().Method == http.MethodPut); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": "bad_request"})
	}
	if err := h.rooms.Update(ctx, rm); err != nil {
		return h.catalogError(c, err)
	}
	h.purger.Purge(ctx)
	h.log.Info("room updated", zap.Uint64("room_id", rm.ID), zap.Bool("active", rm.IsActive))
	return c.JSON(http.StatusOK, toRoomResponse(rm))
}

// Delete handles DELETE /v1/admin/rooms/:id.  A room with reservation
// history answers 409; deactivate it instead.
func (h *RoomHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "room")
	}
	if err := h.rooms.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.log, err)
	}
	h.purger.Purge(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// catalogError reports an unknown category on create/update as 422 rather
// than 404 since the room itself was found.
func (h *RoomHandler) catalogError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "category does not exist", "code": "category"})
	}
	return writeError(c, h.log, err)
}
