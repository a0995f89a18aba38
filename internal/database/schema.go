package database

import (
	"context"
	"database/sql"
)

// EnsureSchema creates the tables the service needs when they do not exist
// yet.  The statements are idempotent so startup can run them every time.
// harvest_slots carries both the configured ceiling and the live remaining
// counter; the UNIQUE key on (harvest_id, slot_date) is what the
// compare-and-decrement UPDATE addresses a single row through.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS harvests (
			id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			name        VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			location    VARCHAR(255) NOT NULL,
			price       INT UNSIGNED NOT NULL DEFAULT 0,
			image_url   VARCHAR(1024) NULL,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS harvest_slots (
			id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			harvest_id BIGINT UNSIGNED NOT NULL,
			slot_date  CHAR(10) NOT NULL,
			capacity   INT UNSIGNED NOT NULL,
			remaining  INT UNSIGNED NOT NULL,
			PRIMARY KEY (id),
			UNIQUE KEY uq_harvest_slot (harvest_id, slot_date),
			CONSTRAINT fk_slot_harvest FOREIGN KEY (harvest_id) REFERENCES harvests (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS reservations (
			id               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			reference        CHAR(36) NOT NULL,
			harvest_id       BIGINT UNSIGNED NOT NULL,
			user_id          VARCHAR(255) NULL,
			user_name        VARCHAR(255) NOT NULL,
			user_email       VARCHAR(255) NOT NULL,
			reservation_date CHAR(10) NOT NULL,
			reservation_time CHAR(5) NOT NULL,
			participants     INT UNSIGNED NOT NULL,
			status           VARCHAR(20) NOT NULL DEFAULT 'Pending',
			created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uq_reservation_reference (reference),
			KEY idx_reservation_user (user_id),
			KEY idx_reservation_harvest_date (harvest_id, reservation_date),
			CONSTRAINT fk_reservation_harvest FOREIGN KEY (harvest_id) REFERENCES harvests (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
