package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/booking"
	"github.com/iliyamo/room-booking/internal/model"
)

func TestRoomRepo_GetByIDNotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE r.id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(roomCols))

	_, err := repo.rooms.GetByID(context.Background(), 3)
	assert.ErrorIs(t, err, booking.ErrRoomNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepo_ListBuildsFilter(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	active := true
	mock.ExpectQuery(`WHERE r.category_id = \? AND r.is_active = \? AND r.capacity >= \? AND \(r.number LIKE \? OR r.description LIKE \? OR c.name LIKE \?\) ORDER BY r.number, r.id LIMIT 20 OFFSET 40`).
		WithArgs(uint64(2), true, 3, "%sea%", "%sea%", "%sea%").
		WillReturnRows(sqlmock.NewRows(roomCols).
			AddRow(5, "201", 2, "Suite", 25000, 4, "sea view", true, stamp, stamp))

	rooms, err := repo.rooms.List(context.Background(), RoomFilter{
		CategoryID: 2, Active: &active, MinCapacity: 3, Search: " sea ", Limit: 20, Offset: 40,
	})
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "Suite", rooms[0].CategoryName)
	assert.Equal(t, int64(25000), rooms[0].NightlyPriceCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepo_CreateDuplicateNumber(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO rooms`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '101' for key 'number'"})

	err := repo.rooms.Create(context.Background(), &model.Room{Number: "101", CategoryID: 1, Capacity: 2})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepo_DeleteWithReservationsConflicts(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE r.id = \? FOR UPDATE`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(roomCols).
			AddRow(5, "201", 2, "Suite", 25000, 4, "", true, stamp, stamp))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reservations WHERE room_id = \?`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	err := repo.rooms.Delete(context.Background(), 5)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepo_DeleteUnbooked(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE r.id = \? FOR UPDATE`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(roomCols).
			AddRow(5, "201", 2, "Suite", 25000, 4, "", true, stamp, stamp))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reservations`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM rooms WHERE id = \?`).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.rooms.Delete(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepo_DeleteInUse(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewCategoryRepo(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM rooms WHERE category_id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	assert.ErrorIs(t, repo.Delete(context.Background(), 1), ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepo_DeleteUnknown(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewCategoryRepo(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM rooms`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM room_categories WHERE id = \?`).
		WithArgs(uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 8), ErrCategoryNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewCategoryRepo(db)

	mock.ExpectQuery(`FROM room_categories ORDER BY name, id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at", "updated_at"}).
			AddRow(1, "Deluxe", "", stamp, stamp).
			AddRow(2, "Standard", "basic", stamp, stamp))

	out, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Deluxe", out[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
