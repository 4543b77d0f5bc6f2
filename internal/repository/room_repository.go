package repository // repository holds data access logic for domain entities

import (
	"context"      // context carries deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"       // errors is used for sentinel comparisons
	"fmt"
	"strings"

	"github.com/iliyamo/room-booking/internal/booking"
	"github.com/iliyamo/room-booking/internal/model"
)

// RoomFilter narrows a room listing.  Zero values mean "no constraint".
type RoomFilter struct {
	CategoryID  uint64 // CategoryID limits results to one category
	Active      *bool  // Active filters on is_active when non-nil
	MinCapacity int    // MinCapacity keeps rooms that fit at least this many guests
	Search      string // Search matches number or description (LIKE)
	Limit       int
	Offset      int
}

// RoomRepo provides CRUD access to the rooms table.  Reads join the
// category so callers get a display name without a second query.
type RoomRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

const roomSelect = `SELECT r.id, r.number, r.category_id, c.name, r.nightly_price_cents, r.capacity,
	r.description, r.is_active, r.created_at, r.updated_at
	FROM rooms r JOIN room_categories c ON c.id = r.category_id`

func scanRoom(row rowScanner) (*model.Room, error) {
	var rm model.Room
	err := row.Scan(&rm.ID, &rm.Number, &rm.CategoryID, &rm.CategoryName, &rm.NightlyPriceCents, &rm.Capacity,
		&rm.Description, &rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}

// Create inserts a room and reloads it so timestamps and the category name
// are populated.  A duplicate number yields ErrDuplicate and an unknown
// category ErrCategoryNotFound.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	const q = `INSERT INTO rooms (number, category_id, nightly_price_cents, capacity, description, is_active)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rm.Number, rm.CategoryID, rm.NightlyPriceCents, rm.Capacity, rm.Description, rm.IsActive)
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
	*rm = *stored
	return nil
}

// GetByID retrieves a room.  It returns booking.ErrRoomNotFound when no row
// exists.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	return scanRoom(r.db.QueryRowContext(ctx, roomSelect+` WHERE r.id = ?`, id))
}

// GetForUpdateTx reads a room inside tx and takes an exclusive row lock
// that is held until tx ends.  All writers that add or move a stay in the
// room queue up on this lock.
func (r *RoomRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Room, error) {
	return scanRoom(tx.QueryRowContext(ctx, roomSelect+` WHERE r.id = ? FOR UPDATE OF r`, id))
}

// List returns rooms ordered by number.
func (r *RoomRepo) List(ctx context.Context, f RoomFilter) ([]*model.Room, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.CategoryID != 0 {
		where = append(where, "r.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.Active != nil {
		where = append(where, "r.is_active = ?")
		args = append(args, *f.Active)
	}
	if f.MinCapacity > 0 {
		where = append(where, "r.capacity >= ?")
		args = append(args, f.MinCapacity)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(r.number LIKE ? OR r.description LIKE ? OR c.name LIKE ?)")
		like := "%" + s + "%"
		args = append(args, like, like, like)
	}
	q := roomSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY r.number, r.id"
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// Update overwrites the mutable columns of a room.  The row is locked first
// so a price or capacity change cannot interleave with a booking decision
// for the same room.
func (r *RoomRepo) Update(ctx context.Context, rm *model.Room) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := r.GetForUpdateTx(ctx, tx, rm.ID); err != nil {
		return err
	}
	const q = `UPDATE rooms SET number = ?, category_id = ?, nightly_price_cents = ?, capacity = ?,
	           description = ?, is_active = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, rm.Number, rm.CategoryID, rm.NightlyPriceCents, rm.Capacity,
		rm.Description, rm.IsActive, rm.ID); err != nil {
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	stored, err := r.GetByID(ctx, rm.ID)
	if err != nil {
		return err
	}
	*rm = *stored
	return nil
}

// Delete removes a room that has never been booked.  Rooms with any
// reservation history yield ErrConflict; deactivate them instead.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := r.GetForUpdateTx(ctx, tx, id); err != nil {
		return err
	}
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE room_id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id); err != nil {
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
