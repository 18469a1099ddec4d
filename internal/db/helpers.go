package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
)

type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NullIfEmpty stores optional strings as NULL.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func HasTable(ctx context.Context, q QueryRower, table string) bool {
	var name sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1
	`, table).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}

var schema = []struct {
	table string
	ddl   string
}{
	{"console_operators", `
		CREATE TABLE IF NOT EXISTS console_operators (
			id            BIGINT AUTO_INCREMENT PRIMARY KEY,
			username      VARCHAR(100) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			backend_user  VARCHAR(100) NOT NULL,
			ou_id         INT NOT NULL DEFAULT 0,
			role          VARCHAR(50) NOT NULL DEFAULT 'planner',
			active        TINYINT(1) NOT NULL DEFAULT 1,
			last_login_at DATETIME NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		) DEFAULT CHARSET=utf8mb4`},
	{"filter_presets", `
		CREATE TABLE IF NOT EXISTS filter_presets (
			user_id    VARCHAR(100) NOT NULL,
			picker     VARCHAR(50) NOT NULL,
			filters    JSON NOT NULL,
			page_size  INT NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (user_id, picker)
		) DEFAULT CHARSET=utf8mb4`},
	{"trip_save_log", `
		CREATE TABLE IF NOT EXISTS trip_save_log (
			id           BIGINT AUTO_INCREMENT PRIMARY KEY,
			drawer_id    VARCHAR(64) NOT NULL,
			trip_no      VARCHAR(64) NOT NULL,
			plan         VARCHAR(50) NOT NULL,
			message_type VARCHAR(100) NOT NULL,
			message_id   VARCHAR(64) NOT NULL,
			user_id      VARCHAR(100) NOT NULL,
			outcome      VARCHAR(20) NOT NULL,
			error_code   VARCHAR(100) NULL,
			message      TEXT NULL,
			duration_ms  BIGINT NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL,
			KEY idx_trip_save_log_trip (trip_no, created_at)
		) DEFAULT CHARSET=utf8mb4`},
}

// EnsureSchema creates the console's own tables when missing.
func EnsureSchema(ctx context.Context, conn *sql.DB) error {
	if conn == nil {
		return errors.New("db: nil connection")
	}
	for _, t := range schema {
		if _, err := conn.ExecContext(ctx, t.ddl); err != nil {
			if errors.Is(err, driver.ErrBadConn) {
				return err
			}
			return fmt.Errorf("db: create %s: %w", t.table, err)
		}
	}
	return nil
}

// Tables lists the console tables for health reporting.
func Tables() []string {
	out := make([]string, 0, len(schema))
	for _, t := range schema {
		out = append(out, t.table)
	}
	return out
}
