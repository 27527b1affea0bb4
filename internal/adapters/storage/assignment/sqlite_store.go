package assignment

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"nextgen/internal/adapters/storage"
	domain "nextgen/internal/domain/assignment"
	"nextgen/internal/domain/slot"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new assignment store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const assignmentColumns = "id, booking_uid, attendee_email, attendee_name, staff_id, service_slot_id, assignment_date, role, status, start_time, end_time, duration_minutes, notes, source, updated_at"

// GetByKey retrieves one assignment by its natural key.
// PRE: bookingUID and attendeeEmail are non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByKey(ctx context.Context, bookingUID string, attendeeEmail string) (domain.Assignment, error) {
	query := "SELECT " + assignmentColumns + " FROM volunteer_assignment WHERE booking_uid = ? AND attendee_email = ?"
	row := s.db.QueryRowContext(ctx, query, bookingUID, strings.ToLower(attendeeEmail))
	entity, err := scanAssignment(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Assignment{}, fmt.Errorf("assignment not found: %w", err)
	}
	return entity, err
}

// ListByBookingUID retrieves all assignments for one booking.
// PRE: bookingUID is non-empty
// POST: Returns all rows sharing the booking uid
func (s *SQLiteStore) ListByBookingUID(ctx context.Context, bookingUID string) ([]domain.Assignment, error) {
	query := "SELECT " + assignmentColumns + " FROM volunteer_assignment WHERE booking_uid = ? ORDER BY attendee_email"
	return s.list(ctx, query, bookingUID)
}

// ListBySourceSince retrieves assignments from one external source whose
// date is on or after fromDate. Used by the periodic reconciler to load the
// persisted window.
// PRE: source is non-empty, fromDate is YYYY-MM-DD format
// POST: Returns matching rows
func (s *SQLiteStore) ListBySourceSince(ctx context.Context, source string, fromDate string) ([]domain.Assignment, error) {
	query := "SELECT " + assignmentColumns + " FROM volunteer_assignment WHERE source = ? AND assignment_date >= ? ORDER BY assignment_date, service_slot_id"
	return s.list(ctx, query, source, fromDate)
}

// ListByDateRange retrieves assignments within a civil-date range, both
// bounds inclusive. Used by the roster projection.
// PRE: startDate and endDate are YYYY-MM-DD format
// POST: Returns matching rows ordered by date and slot
func (s *SQLiteStore) ListByDateRange(ctx context.Context, startDate string, endDate string) ([]domain.Assignment, error) {
	query := "SELECT " + assignmentColumns + " FROM volunteer_assignment WHERE assignment_date >= ? AND assignment_date <= ? ORDER BY assignment_date, service_slot_id, attendee_email"
	return s.list(ctx, query, startDate, endDate)
}

// UpsertBatch writes all rows of one booking in a single transaction keyed
// on (booking_uid, attendee_email). The conflict target keeps redelivered
// events and overlapping sync runs idempotent; the stored id survives.
// PRE: every value has been validated
// POST: All rows are persisted, or none are
func (s *SQLiteStore) UpsertBatch(ctx context.Context, values []domain.Assignment) error {
	if len(values) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO volunteer_assignment (` + assignmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(booking_uid, attendee_email) DO UPDATE SET
			attendee_name=excluded.attendee_name,
			staff_id=excluded.staff_id,
			service_slot_id=excluded.service_slot_id,
			assignment_date=excluded.assignment_date,
			role=excluded.role,
			status=excluded.status,
			start_time=excluded.start_time,
			end_time=excluded.end_time,
			duration_minutes=excluded.duration_minutes,
			notes=excluded.notes,
			source=excluded.source,
			updated_at=excluded.updated_at`

	for _, entity := range values {
		var staffID, endTime, notes any
		if entity.StaffID != "" {
			staffID = entity.StaffID
		}
		if !entity.EndTime.IsZero() {
			endTime = entity.EndTime.Format(time.RFC3339Nano)
		}
		if entity.Notes != "" {
			notes = entity.Notes
		}

		_, err = tx.ExecContext(ctx, query,
			entity.ID,
			entity.BookingUID,
			strings.ToLower(entity.AttendeeEmail),
			entity.AttendeeName,
			staffID,
			int(entity.ServiceSlotID),
			entity.Date,
			entity.Role,
			entity.Status,
			entity.StartTime.Format(time.RFC3339Nano),
			endTime,
			entity.DurationMins,
			notes,
			entity.Source,
			entity.UpdatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("upsert assignment %s/%s: %w", entity.BookingUID, entity.AttendeeEmail, err)
		}
	}

	return tx.Commit()
}

// Reschedule applies recomputed schedule fields to every row of a booking.
// A reschedule moves the whole booking, never a single attendee.
// PRE: bookingUID is non-empty, update carries valid schedule fields
// POST: Returns the number of updated rows
func (s *SQLiteStore) Reschedule(ctx context.Context, bookingUID string, update ScheduleUpdate) (int, error) {
	var endTime any
	if update.EndTime != "" {
		endTime = update.EndTime
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE volunteer_assignment SET
			service_slot_id = ?, assignment_date = ?, start_time = ?, end_time = ?,
			duration_minutes = ?, status = ?, updated_at = ?
		WHERE booking_uid = ?`,
		update.ServiceSlotID, update.Date, update.StartTime, endTime,
		update.DurationMins, update.Status, update.UpdatedAt, bookingUID)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// UpdateStatusByBookingUID sets the status on every row of a booking. The
// caller supplies the updated_at stamp so its clock stays authoritative.
// PRE: bookingUID and status are non-empty, updatedAt is RFC3339
// POST: Returns the number of updated rows
func (s *SQLiteStore) UpdateStatusByBookingUID(ctx context.Context, bookingUID string, status string, updatedAt string) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE volunteer_assignment SET status = ?, updated_at = ? WHERE booking_uid = ?",
		status, updatedAt, bookingUID)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// DeleteByBookingUID removes every row of a booking.
// PRE: bookingUID is non-empty
// POST: Returns the number of deleted rows
func (s *SQLiteStore) DeleteByBookingUID(ctx context.Context, bookingUID string) (int, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM volunteer_assignment WHERE booking_uid = ?", bookingUID)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// DeleteByBookingUIDs removes every row of several bookings in one call.
// Used by the reconciler for bookings that vanished from the source.
// PRE: none (empty slice is a no-op)
// POST: Returns the total number of deleted rows
func (s *SQLiteStore) DeleteByBookingUIDs(ctx context.Context, bookingUIDs []string) (int, error) {
	if len(bookingUIDs) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(bookingUIDs))
	args := make([]any, len(bookingUIDs))
	for i, uid := range bookingUIDs {
		placeholders[i] = "?"
		args[i] = uid
	}
	query := fmt.Sprintf("DELETE FROM volunteer_assignment WHERE booking_uid IN (%s)", strings.Join(placeholders, ","))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]domain.Assignment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Assignment
	for rows.Next() {
		entity, err := scanAssignment(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanAssignment(scan func(dest ...any) error) (domain.Assignment, error) {
	var entity domain.Assignment
	var slotID int
	var startStr, updatedStr string
	var staffID, endStr, notes sql.NullString

	err := scan(
		&entity.ID,
		&entity.BookingUID,
		&entity.AttendeeEmail,
		&entity.AttendeeName,
		&staffID,
		&slotID,
		&entity.Date,
		&entity.Role,
		&entity.Status,
		&startStr,
		&endStr,
		&entity.DurationMins,
		&notes,
		&entity.Source,
		&updatedStr,
	)
	if err != nil {
		return domain.Assignment{}, err
	}

	entity.ServiceSlotID = slot.ID(slotID)
	if staffID.Valid {
		entity.StaffID = staffID.String
	}
	if notes.Valid {
		entity.Notes = notes.String
	}
	entity.StartTime, err = parseStoredTime(startStr)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if endStr.Valid {
		entity.EndTime, err = parseStoredTime(endStr.String)
		if err != nil {
			return domain.Assignment{}, fmt.Errorf("failed to parse end_time: %w", err)
		}
	}
	entity.UpdatedAt, err = parseStoredTime(updatedStr)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return entity, nil
}

func parseStoredTime(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %q", value)
}
