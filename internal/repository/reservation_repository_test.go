package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/booking"
	"github.com/iliyamo/room-booking/internal/model"
)

var (
	roomCols = []string{"id", "number", "category_id", "name", "nightly_price_cents", "capacity",
		"description", "is_active", "created_at", "updated_at"}
	reservationCols = []string{"id", "room_id", "requester_id", "check_in", "check_out", "guests", "status",
		"total_price_cents", "approver_id", "decline_reason", "created_at", "updated_at"}
	stamp = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *ReservationRepo) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewReservationRepo(db, NewRoomRepo(db))
	return db, mock, repo
}

func date(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestReservationRepo_InTx_InsertCommits(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM rooms r JOIN room_categories c .* WHERE r.id = \? FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(roomCols).
			AddRow(7, "101", 1, "Standard", 10000, 2, "", true, stamp, stamp))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(uint64(7), uint64(0), "PENDING", "APPROVED", "CHECKED_IN", "2024-03-04", "2024-03-01").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO reservations`).
		WithArgs(uint64(7), uint64(10), "2024-03-01", "2024-03-04", 2, "PENDING", int64(30000), nil, "").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(`FROM reservations WHERE id = \?`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(42, 7, 10, date("2024-03-01"), date("2024-03-04"), 2, "PENDING", 30000, nil, "", stamp, stamp))
	mock.ExpectCommit()

	res := model.Reservation{
		RoomID:          7,
		RequesterID:     10,
		CheckIn:         date("2024-03-01"),
		CheckOut:        date("2024-03-04"),
		Guests:          2,
		Status:          model.StatusPending,
		TotalPriceCents: 30000,
	}
	err := repo.InTx(context.Background(), func(tx booking.Tx) error {
		room, err := tx.LockRoom(context.Background(), 7)
		if err != nil {
			return err
		}
		assert.Equal(t, "Standard", room.CategoryName)
		overlap, err := tx.HasOverlap(context.Background(), 7, res.CheckIn, res.CheckOut, 0)
		if err != nil {
			return err
		}
		assert.False(t, overlap)
		return tx.Insert(context.Background(), &res)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), res.ID)
	assert.Equal(t, stamp, res.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_InTx_RollsBackOnError(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(5)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.InTx(context.Background(), func(tx booking.Tx) error {
		_, err := tx.LockReservation(context.Background(), 5)
		return err
	})
	assert.ErrorIs(t, err, booking.ErrReservationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_InTx_ReturnsCallbackError(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := repo.InTx(context.Background(), func(booking.Tx) error { return boom })
	assert.Same(t, boom, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_UpdateWritesApprover(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	approver := uint64(1)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE reservations`).
		WithArgs("2024-03-01", "2024-03-04", 2, "APPROVED", int64(30000), approver, "", uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.InTx(context.Background(), func(tx booking.Tx) error {
		return tx.Update(context.Background(), &model.Reservation{
			ID: 42, CheckIn: date("2024-03-01"), CheckOut: date("2024-03-04"), Guests: 2,
			Status: model.StatusApproved, TotalPriceCents: 30000, ApproverID: &approver,
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_UpdateMissingRow(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE reservations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM reservations WHERE id = \?`).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectRollback()

	err := repo.InTx(context.Background(), func(tx booking.Tx) error {
		return tx.Update(context.Background(), &model.Reservation{
			ID: 9, CheckIn: date("2024-03-01"), CheckOut: date("2024-03-02"), Guests: 1, Status: model.StatusPending,
		})
	})
	assert.ErrorIs(t, err, booking.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_ListReservationsFilters(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM reservations WHERE status = \? AND room_id = \? ORDER BY created_at DESC, id DESC LIMIT \?`).
		WithArgs("APPROVED", uint64(7), 10).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(3, 7, 10, date("2024-03-01"), date("2024-03-04"), 2, "APPROVED", 30000, 1, "", stamp, stamp))

	out, err := repo.ListReservations(context.Background(), booking.ListFilter{
		Status: model.StatusApproved, RoomID: 7, Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].ApproverID)
	assert.Equal(t, uint64(1), *out[0].ApproverID)
	assert.Equal(t, model.StatusApproved, out[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_ListByRequesterEmpty(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE requester_id = \?`).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows(reservationCols))

	out, err := repo.ListByRequester(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}
