package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the tables in dependency order.  Reservations keep their
// seats in reserved_seats; ordinal preserves the order the customer chose.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		id           INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		title        VARCHAR(255) NOT NULL,
		duration     INT          NOT NULL,
		description  TEXT         NOT NULL,
		genre        VARCHAR(100) NOT NULL,
		director     VARCHAR(255) NOT NULL,
		release_year INT          NOT NULL,
		language     VARCHAR(50)  NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id            INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name          VARCHAR(100) NOT NULL,
		seat_rows     INT          NOT NULL,
		seats_per_row INT          NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS screenings (
		id           INT UNSIGNED  NOT NULL AUTO_INCREMENT PRIMARY KEY,
		movie_id     INT UNSIGNED  NOT NULL,
		room_id      INT UNSIGNED  NOT NULL,
		starts_at    DATETIME      NOT NULL,
		ticket_price DECIMAL(10,2) NOT NULL,
		CONSTRAINT fk_screenings_movie FOREIGN KEY (movie_id) REFERENCES movies(id),
		CONSTRAINT fk_screenings_room FOREIGN KEY (room_id) REFERENCES rooms(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id             CHAR(36)      NOT NULL PRIMARY KEY,
		screening_id   INT UNSIGNED  NOT NULL,
		customer_name  VARCHAR(100)  NOT NULL,
		customer_email VARCHAR(254)  NOT NULL,
		customer_phone VARCHAR(32)   NOT NULL,
		created_at     DATETIME(6)   NOT NULL,
		status         ENUM('PENDING','CONFIRMED','CANCELLED') NOT NULL,
		ticket_price   DECIMAL(10,2) NOT NULL,
		total_price    DECIMAL(10,2) NOT NULL,
		KEY idx_reservations_email (customer_email),
		CONSTRAINT fk_reservations_screening FOREIGN KEY (screening_id) REFERENCES screenings(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reserved_seats (
		reservation_id CHAR(36) NOT NULL,
		ordinal        INT      NOT NULL,
		seat_row       INT      NOT NULL,
		seat_number    INT      NOT NULL,
		PRIMARY KEY (reservation_id, ordinal),
		CONSTRAINT fk_reserved_seats_reservation FOREIGN KEY (reservation_id) REFERENCES reservations(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates any missing table.  Existing tables are left as is.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
