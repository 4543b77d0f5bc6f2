package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/room-booking/internal/booking"
	"github.com/iliyamo/room-booking/internal/model"
)

// ReservationRepo is the MySQL booking.Store.  Units run at READ COMMITTED
// and serialise on row locks: the room row for anything that adds or
// re-dates a stay, the reservation row for status changes.  All dates are
// DATE columns interpreted in UTC.
type ReservationRepo struct {
	db    *sql.DB
	rooms *RoomRepo
}

// NewReservationRepo returns a ReservationRepo bound to db.  Room rows are
// read and locked through rooms.
func NewReservationRepo(db *sql.DB, rooms *RoomRepo) *ReservationRepo {
	return &ReservationRepo{db: db, rooms: rooms}
}

// DB exposes the underlying handle.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `id, room_id, requester_id, check_in, check_out, guests, status,
	total_price_cents, approver_id, decline_reason, created_at, updated_at`

// InTx implements booking.Store.
func (r *ReservationRepo) InTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin reservation tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&sqlTx{tx: tx, rooms: r.rooms}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reservation tx: %w", err)
	}
	committed = true
	return nil
}

// GetReservation implements booking.Store.
func (r *ReservationRepo) GetReservation(ctx context.Context, id uint64) (model.Reservation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	return scanReservation(row)
}

// ListByRequester implements booking.Store.
func (r *ReservationRepo) ListByRequester(ctx context.Context, requesterID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE requester_id = ?
	           ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, requesterID)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// ListReservations implements booking.Store.
func (r *ReservationRepo) ListReservations(ctx context.Context, f booking.ListFilter) ([]model.Reservation, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.RoomID != 0 {
		where = append(where, "room_id = ?")
		args = append(args, f.RoomID)
	}
	q := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// sqlTx implements booking.Tx on a *sql.Tx.
type sqlTx struct {
	tx    *sql.Tx
	rooms *RoomRepo
}

func (t *sqlTx) LockRoom(ctx context.Context, roomID uint64) (model.Room, error) {
	room, err := t.rooms.GetForUpdateTx(ctx, t.tx, roomID)
	if err != nil {
		return model.Room{}, err
	}
	return *room, nil
}

func (t *sqlTx) LockReservation(ctx context.Context, id uint64) (model.Reservation, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ? FOR UPDATE`, id)
	return scanReservation(row)
}

func (t *sqlTx) HasOverlap(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludingID uint64) (bool, error) {
	// [check_in, check_out) intersects [?, ?) iff check_in < new_out AND new_in < check_out.
	const q = `SELECT EXISTS (
	             SELECT 1 FROM reservations
	             WHERE room_id = ? AND id <> ?
	               AND status IN (?, ?, ?)
	               AND check_in < ? AND check_out > ?)`
	blocking := model.BlockingStatuses()
	var exists bool
	err := t.tx.QueryRowContext(ctx, q,
		roomID, excludingID,
		string(blocking[0]), string(blocking[1]), string(blocking[2]),
		checkOut.Format(model.DateLayout), checkIn.Format(model.DateLayout),
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (t *sqlTx) Insert(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations
	           (room_id, requester_id, check_in, check_out, guests, status, total_price_cents, approver_id, decline_reason)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := t.tx.ExecContext(ctx, q,
		res.RoomID, res.RequesterID,
		res.CheckIn.Format(model.DateLayout), res.CheckOut.Format(model.DateLayout),
		res.Guests, string(res.Status), res.TotalPriceCents,
		nullableID(res.ApproverID), res.DeclineReason,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	// Read the row back to pick up server-side timestamps.
	row := t.tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	stored, err := scanReservation(row)
	if err != nil {
		return err
	}
	*res = stored
	return nil
}

func (t *sqlTx) Update(ctx context.Context, res *model.Reservation) error {
	const q = `UPDATE reservations
	           SET check_in = ?, check_out = ?, guests = ?, status = ?, total_price_cents = ?,
	               approver_id = ?, decline_reason = ?
	           WHERE id = ?`
	result, err := t.tx.ExecContext(ctx, q,
		res.CheckIn.Format(model.DateLayout), res.CheckOut.Format(model.DateLayout),
		res.Guests, string(res.Status), res.TotalPriceCents,
		nullableID(res.ApproverID), res.DeclineReason, res.ID,
	)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		// MySQL reports zero affected rows when nothing changed, so only a
		// missing row is an error.
		var one int
		if err := t.tx.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id = ?`, res.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return booking.ErrReservationNotFound
			}
			return err
		}
	}
	res.UpdatedAt = time.Now().UTC()
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (model.Reservation, error) {
	var (
		res      model.Reservation
		status   string
		approver sql.NullInt64
	)
	err := row.Scan(
		&res.ID, &res.RoomID, &res.RequesterID, &res.CheckIn, &res.CheckOut, &res.Guests, &status,
		&res.TotalPriceCents, &approver, &res.DeclineReason, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, booking.ErrReservationNotFound
		}
		return model.Reservation{}, err
	}
	res.Status = model.Status(status)
	res.CheckIn = model.DateOf(res.CheckIn)
	res.CheckOut = model.DateOf(res.CheckOut)
	if approver.Valid {
		id := uint64(approver.Int64)
		res.ApproverID = &id
	}
	return res, nil
}

func collectReservations(rows *sql.Rows) ([]model.Reservation, error) {
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nullableID(id *uint64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
