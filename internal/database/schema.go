package database

import "database/sql"

// Schema statements are idempotent so Migrate can run on every startup.
// DATETIME(6) keeps sub-second precision so updated_at moves on immediate
// re-updates. Stations cascade away with their exhibition and exhibitions
// with their admin.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS admin_users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		email         VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		created_at    DATETIME(6)     NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at    DATETIME(6)     NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		PRIMARY KEY (id),
		UNIQUE KEY uq_admin_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS exhibitions (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		admin_user_id BIGINT UNSIGNED NOT NULL,
		title         VARCHAR(255)    NOT NULL,
		description   TEXT            NULL,
		created_at    DATETIME(6)     NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at    DATETIME(6)     NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		PRIMARY KEY (id),
		KEY idx_exhibitions_admin (admin_user_id),
		CONSTRAINT fk_exhibitions_admin FOREIGN KEY (admin_user_id)
			REFERENCES admin_users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS stations (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		exhibition_id BIGINT UNSIGNED NOT NULL,
		title         VARCHAR(255)    NOT NULL,
		texts         JSON            NOT NULL,
		created_at    DATETIME(6)     NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at    DATETIME(6)     NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		PRIMARY KEY (id),
		KEY idx_stations_exhibition (exhibition_id),
		CONSTRAINT fk_stations_exhibition FOREIGN KEY (exhibition_id)
			REFERENCES exhibitions (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables if they do not exist yet.
func Migrate(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
