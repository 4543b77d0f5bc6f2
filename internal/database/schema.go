package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the three tables the service needs.  Reservations point at
// rooms with ON DELETE RESTRICT; a booked room is deactivated, never removed.
// The (room_id, status, check_in, check_out) index serves the overlap probe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS room_categories (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name        VARCHAR(100)    NOT NULL,
		description VARCHAR(500)    NOT NULL DEFAULT '',
		created_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_room_categories_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id                  BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		number              VARCHAR(20)     NOT NULL,
		category_id         BIGINT UNSIGNED NOT NULL,
		nightly_price_cents BIGINT          NOT NULL,
		capacity            INT             NOT NULL,
		description         VARCHAR(1000)   NOT NULL DEFAULT '',
		is_active           BOOLEAN         NOT NULL DEFAULT TRUE,
		created_at          DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at          DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_rooms_number (number),
		KEY idx_rooms_category (category_id),
		CONSTRAINT fk_rooms_category FOREIGN KEY (category_id) REFERENCES room_categories (id) ON DELETE RESTRICT,
		CONSTRAINT chk_rooms_capacity CHECK (capacity >= 1),
		CONSTRAINT chk_rooms_price CHECK (nightly_price_cents >= 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id                BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		room_id           BIGINT UNSIGNED NOT NULL,
		requester_id      BIGINT UNSIGNED NOT NULL,
		check_in          DATE            NOT NULL,
		check_out         DATE            NOT NULL,
		guests            INT             NOT NULL,
		status            ENUM('PENDING','APPROVED','DECLINED','CHECKED_IN','CHECKED_OUT','CANCELLED') NOT NULL DEFAULT 'PENDING',
		total_price_cents BIGINT          NOT NULL,
		approver_id       BIGINT UNSIGNED NULL,
		decline_reason    VARCHAR(500)    NOT NULL DEFAULT '',
		created_at        DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at        DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_reservations_overlap (room_id, status, check_in, check_out),
		KEY idx_reservations_requester (requester_id, created_at),
		CONSTRAINT fk_reservations_room FOREIGN KEY (room_id) REFERENCES rooms (id) ON DELETE RESTRICT,
		CONSTRAINT chk_reservations_dates CHECK (check_in < check_out),
		CONSTRAINT chk_reservations_guests CHECK (guests >= 1)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema.  Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
