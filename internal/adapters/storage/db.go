package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLDB is the database interface used by all stores.
// Both *sql.DB and *TimedDB satisfy this interface.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Compile-time check that *sql.DB satisfies SQLDB.
var _ SQLDB = (*sql.DB)(nil)

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables are created, WAL mode enabled
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	// Enable foreign key enforcement
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// The unique constraint on (booking_uid, attendee_email) is what makes
	// webhook redelivery and overlapping sync runs idempotent.
	schema := `
	CREATE TABLE IF NOT EXISTS staff (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'active'
	);

	CREATE TABLE IF NOT EXISTS volunteer_assignment (
		id TEXT PRIMARY KEY,
		booking_uid TEXT NOT NULL,
		attendee_email TEXT NOT NULL,
		attendee_name TEXT NOT NULL DEFAULT '',
		staff_id TEXT,
		service_slot_id INTEGER NOT NULL,
		assignment_date TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'Volunteer',
		status TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT,
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		notes TEXT,
		source TEXT NOT NULL DEFAULT 'calcom',
		updated_at TEXT NOT NULL,
		FOREIGN KEY (staff_id) REFERENCES staff(id),
		UNIQUE (booking_uid, attendee_email)
	);

	CREATE INDEX IF NOT EXISTS idx_assignment_date
		ON volunteer_assignment(assignment_date);
	CREATE INDEX IF NOT EXISTS idx_assignment_booking
		ON volunteer_assignment(booking_uid);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
