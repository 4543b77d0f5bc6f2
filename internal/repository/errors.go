// Package repository holds the MySQL data access layer and the in-memory
// reservation store.  Sentinel values defined here let handlers tell apart
// failure scenarios that are not part of the booking core: ErrConflict when a
// catalog row is still referenced (e.g. deleting a room that has
// reservations) and ErrDuplicate when a unique key would be violated.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when a delete cannot proceed because dependent
// rows exist.  Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when an insert or update collides with a unique
// key, such as a room number or category name that is already taken.
var ErrDuplicate = errors.New("duplicate")

// ErrCategoryNotFound is returned when a room category lookup fails.
var ErrCategoryNotFound = errors.New("category not found")

// MySQL server error numbers the repositories react to.
const (
	mysqlDuplicateEntry   = 1062
	mysqlRowIsReferenced  = 1451
	mysqlNoReferencedRow  = 1452
)

// classify maps driver errors onto the sentinels above and returns other
// errors unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return ErrDuplicate
		case mysqlRowIsReferenced:
			return ErrConflict
		case mysqlNoReferencedRow:
			return ErrCategoryNotFound
		}
	}
	if strings.Contains(err.Error(), "Error 1062") {
		return ErrDuplicate
	}
	return err
}
