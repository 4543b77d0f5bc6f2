package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/room-booking/internal/model"
)

// CategoryRepo provides CRUD access to room_categories.
type CategoryRepo struct {
	db *sql.DB
}

// NewCategoryRepo constructs a CategoryRepo with the given DB handle.
func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

const categorySelect = `SELECT id, name, description, created_at, updated_at FROM room_categories`

func scanCategory(row rowScanner) (*model.RoomCategory, error) {
	var c model.RoomCategory
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a category.  Names are unique; a clash yields ErrDuplicate.
func (r *CategoryRepo) Create(ctx context.Context, c *model.RoomCategory) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO room_categories (name, description) VALUES (?, ?)`, c.Name, c.Description)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*c = *stored
	return nil
}

// GetByID returns ErrCategoryNotFound when the id is unknown.
func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (*model.RoomCategory, error) {
	return scanCategory(r.db.QueryRowContext(ctx, categorySelect+` WHERE id = ?`, id))
}

// List returns all categories ordered by name.
func (r *CategoryRepo) List(ctx context.Context) ([]*model.RoomCategory, error) {
	rows, err := r.db.QueryContext(ctx, categorySelect+` ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.RoomCategory, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update renames or re-describes a category.
func (r *CategoryRepo) Update(ctx context.Context, c *model.RoomCategory) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE room_categories SET name = ?, description = ? WHERE id = ?`, c.Name, c.Description, c.ID); err != nil {
		return classify(err)
	}
	// Zero affected rows also means "unchanged", so existence is decided by
	// the reload.
	stored, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *stored
	return nil
}

// Delete removes a category that no room references.  Otherwise it
// returns ErrConflict.
func (r *CategoryRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms WHERE category_id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM room_categories WHERE id = ?`, id)
	if err != nil {
		// A room inserted after the count still trips the foreign key.
		return classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
