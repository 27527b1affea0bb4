package orchestrators

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	assignmentStore "nextgen/internal/adapters/storage/assignment"
	staffStore "nextgen/internal/adapters/storage/staff"
	"nextgen/internal/domain/assignment"
	"nextgen/internal/domain/slot"
	staffDomain "nextgen/internal/domain/staff"
)

var errRowNotFound = errors.New("assignment not found")

func key(bookingUID, email string) string {
	return bookingUID + "\x00" + strings.ToLower(email)
}

// mockAssignmentStore keeps rows in a map keyed the same way the SQLite
// unique constraint does.
type mockAssignmentStore struct {
	rows      map[string]assignment.Assignment
	upsertErr error
}

func newMockAssignmentStore() *mockAssignmentStore {
	return &mockAssignmentStore{rows: make(map[string]assignment.Assignment)}
}

// GetByKey retrieves one row by natural key.
// PRE: bookingUID and attendeeEmail are non-empty
// POST: Returns the row or an error
func (m *mockAssignmentStore) GetByKey(_ context.Context, bookingUID string, attendeeEmail string) (assignment.Assignment, error) {
	row, ok := m.rows[key(bookingUID, attendeeEmail)]
	if !ok {
		return assignment.Assignment{}, errRowNotFound
	}
	return row, nil
}

// ListByBookingUID returns all rows of one booking.
// PRE: bookingUID is non-empty
// POST: Returns matching rows sorted by email
func (m *mockAssignmentStore) ListByBookingUID(_ context.Context, bookingUID string) ([]assignment.Assignment, error) {
	var out []assignment.Assignment
	for _, row := range m.rows {
		if row.BookingUID == bookingUID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttendeeEmail < out[j].AttendeeEmail })
	return out, nil
}

// ListBySourceSince filters by source and minimum date.
// PRE: fromDate is YYYY-MM-DD
// POST: Returns matching rows
func (m *mockAssignmentStore) ListBySourceSince(_ context.Context, source string, fromDate string) ([]assignment.Assignment, error) {
	var out []assignment.Assignment
	for _, row := range m.rows {
		if row.Source == source && row.Date >= fromDate {
			out = append(out, row)
		}
	}
	return out, nil
}

// ListByDateRange filters by inclusive date range.
// PRE: dates are YYYY-MM-DD
// POST: Returns matching rows
func (m *mockAssignmentStore) ListByDateRange(_ context.Context, startDate string, endDate string) ([]assignment.Assignment, error) {
	var out []assignment.Assignment
	for _, row := range m.rows {
		if row.Date >= startDate && row.Date <= endDate {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].AttendeeEmail < out[j].AttendeeEmail
	})
	return out, nil
}

// UpsertBatch inserts or replaces rows by natural key, keeping the stored id.
// PRE: values are validated
// POST: All rows stored, or none when upsertErr is set
func (m *mockAssignmentStore) UpsertBatch(_ context.Context, values []assignment.Assignment) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, v := range values {
		k := key(v.BookingUID, v.AttendeeEmail)
		if prev, ok := m.rows[k]; ok {
			v.ID = prev.ID
		}
		m.rows[k] = v
	}
	return nil
}

// Reschedule applies schedule fields to every row of a booking.
// PRE: bookingUID is non-empty
// POST: Returns updated row count
func (m *mockAssignmentStore) Reschedule(_ context.Context, bookingUID string, update assignmentStore.ScheduleUpdate) (int, error) {
	n := 0
	for k, row := range m.rows {
		if row.BookingUID != bookingUID {
			continue
		}
		row.ServiceSlotID = slot.ID(update.ServiceSlotID)
		row.Date = update.Date
		row.DurationMins = update.DurationMins
		row.Status = update.Status
		if t, err := time.Parse(time.RFC3339Nano, update.StartTime); err == nil {
			row.StartTime = t
		}
		m.rows[k] = row
		n++
	}
	return n, nil
}

// UpdateStatusByBookingUID sets status on every row of a booking.
// PRE: bookingUID and status are non-empty
// POST: Returns updated row count
func (m *mockAssignmentStore) UpdateStatusByBookingUID(_ context.Context, bookingUID string, status string, updatedAt string) (int, error) {
	stamp, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return 0, err
	}
	n := 0
	for k, row := range m.rows {
		if row.BookingUID == bookingUID {
			row.Status = status
			row.UpdatedAt = stamp
			m.rows[k] = row
			n++
		}
	}
	return n, nil
}

// DeleteByBookingUID removes every row of a booking.
// PRE: bookingUID is non-empty
// POST: Returns deleted row count
func (m *mockAssignmentStore) DeleteByBookingUID(_ context.Context, bookingUID string) (int, error) {
	n := 0
	for k, row := range m.rows {
		if row.BookingUID == bookingUID {
			delete(m.rows, k)
			n++
		}
	}
	return n, nil
}

// DeleteByBookingUIDs removes every row of several bookings.
// PRE: none
// POST: Returns total deleted row count
func (m *mockAssignmentStore) DeleteByBookingUIDs(_ context.Context, bookingUIDs []string) (int, error) {
	n := 0
	for _, uid := range bookingUIDs {
		d, _ := m.DeleteByBookingUID(context.Background(), uid)
		n += d
	}
	return n, nil
}

// mockStaffStore resolves staff from a fixed map.
type mockStaffStore struct {
	records map[string]staffDomain.Staff
	err     error
}

// GetActiveByEmail resolves from the map.
// PRE: email is non-empty
// POST: Returns the record or ErrNotFound
func (m *mockStaffStore) GetActiveByEmail(_ context.Context, email string) (staffDomain.Staff, error) {
	if m.err != nil {
		return staffDomain.Staff{}, m.err
	}
	s, ok := m.records[strings.ToLower(email)]
	if !ok {
		return staffDomain.Staff{}, staffStore.ErrNotFound
	}
	return s, nil
}
