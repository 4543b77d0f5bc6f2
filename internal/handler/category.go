package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/model"
)

// CategoryStore is satisfied by *repository.CategoryRepo.
type CategoryStore interface {
	Create(ctx context.Context, c *model.RoomCategory) error
	GetByID(ctx context.Context, id uint64) (*model.RoomCategory, error)
	List(ctx context.Context) ([]*model.RoomCategory, error)
	Update(ctx context.Context, c *model.RoomCategory) error
	Delete(ctx context.Context, id uint64) error
}

// CategoryHandler serves room categories.
type CategoryHandler struct {
	store  CategoryStore
	purger Purger
	log    *zap.Logger
}

// NewCategoryHandler returns a CategoryHandler.  purger may be nil.
func NewCategoryHandler(store CategoryStore, purger Purger, log *zap.Logger) *CategoryHandler {
	if store == nil {
		panic("nil store passed to NewCategoryHandler")
	}
	if purger == nil {
		purger = nopPurger{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CategoryHandler{store: store, purger: purger, log: log}
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type categoryResponse struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toCategoryResponse(c *model.RoomCategory) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Description: c.Description, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

// List handles GET /v1/categories.
func (h *CategoryHandler) List(c echo.Context) error {
	cats, err := h.store.List(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]categoryResponse, 0, len(cats))
	for _, cat := range cats {
		out = append(out, toCategoryResponse(cat))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Create handles POST /v1/admin/categories.
func (h *CategoryHandler) Create(c echo.Context) error {
	var body categoryRequest
	if ok, err := bindAndValidate(c, &body); !ok {
		return err
	}
	cat := model.RoomCategory{Name: strings.TrimSpace(body.Name), Description: body.Description}
	if err := h.store.Create(c.Request().Context(), &cat); err != nil {
		return writeError(c, h.log, err)
	}
	h.purger.Purge(c.Request().Context())
	return c.JSON(http.StatusCreated, toCategoryResponse(&cat))
}

// Update handles PUT /v1/admin/categories/:id.
func (h *CategoryHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "category")
	}
	var body categoryRequest
	if ok, err := bindAndValidate(c, &body); !ok {
		return err
	}
	cat := model.RoomCategory{ID: id, Name: strings.TrimSpace(body.Name), Description: body.Description}
	if err := h.store.Update(c.Request().Context(), &cat); err != nil {
		return writeError(c, h.log, err)
	}
	h.purger.Purge(c.Request().Context())
	return c.JSON(http.StatusOK, toCategoryResponse(&cat))
}

// Delete handles DELETE /v1/admin/categories/:id.  Categories still used by
// a room answer 409.
func (h *CategoryHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c, "category")
	}
	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.log, err)
	}
	h.purger.Purge(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}
