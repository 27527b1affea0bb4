package assignment_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"nextgen/internal/adapters/storage"
	assignmentStore "nextgen/internal/adapters/storage/assignment"
	domain "nextgen/internal/domain/assignment"
	"nextgen/internal/domain/slot"
)

func newTestStore(t *testing.T) *assignmentStore.SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return assignmentStore.NewSQLiteStore(db)
}

func testAssignment(bookingUID, email string) domain.Assignment {
	start := time.Date(2024, 1, 7, 2, 0, 0, 0, time.UTC)
	return domain.Assignment{
		ID:            "id-" + bookingUID + "-" + email,
		BookingUID:    bookingUID,
		AttendeeEmail: email,
		AttendeeName:  "Volunteer",
		ServiceSlotID: slot.FirstService,
		Date:          "2024-01-07",
		Role:          "Volunteer",
		Status:        domain.StatusAccepted,
		StartTime:     start,
		EndTime:       start.Add(2 * time.Hour),
		DurationMins:  120,
		Source:        "calcom",
		UpdatedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// TestUpsertBatch_Idempotent tests that re-upserting one key keeps one row.
func TestUpsertBatch_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := testAssignment("bk_1", "v@x.com")
	if err := store.UpsertBatch(ctx, []domain.Assignment{a}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Second delivery of the same event, different surrogate id.
	b := a
	b.ID = "different-id"
	b.Role = "Usher"
	if err := store.UpsertBatch(ctx, []domain.Assignment{b}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	rows, err := store.ListByBookingUID(ctx, "bk_1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].ID != a.ID {
		t.Errorf("stored id changed to %q; the original surrogate id must survive", rows[0].ID)
	}
	if rows[0].Role != "Usher" {
		t.Errorf("role = %q, want updated Usher", rows[0].Role)
	}
}

// TestUpsertBatch_NullableFields tests round-tripping of optional columns.
func TestUpsertBatch_NullableFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := testAssignment("bk_n", "v@x.com")
	a.StaffID = ""
	a.EndTime = time.Time{}
	a.Notes = ""
	if err := store.UpsertBatch(ctx, []domain.Assignment{a}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.GetByKey(ctx, "bk_n", "v@x.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.StaffID != "" || !got.EndTime.IsZero() || got.Notes != "" {
		t.Errorf("nullable fields did not round-trip empty: %+v", got)
	}
	if got.IsResolved() {
		t.Error("row without staff id must be unresolved")
	}
}

// TestReschedule tests that a reschedule moves every row of the booking.
func TestReschedule(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertBatch(ctx, []domain.Assignment{
		testAssignment("bk_2", "a@x.com"),
		testAssignment("bk_2", "b@x.com"),
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	newStart := time.Date(2024, 1, 14, 5, 0, 0, 0, time.UTC)
	n, err := store.Reschedule(ctx, "bk_2", assignmentStore.ScheduleUpdate{
		ServiceSlotID: int(slot.SecondService),
		Date:          "2024-01-14",
		StartTime:     newStart.Format(time.RFC3339Nano),
		EndTime:       newStart.Add(90 * time.Minute).Format(time.RFC3339Nano),
		DurationMins:  90,
		Status:        domain.StatusAccepted,
		UpdatedAt:     time.Now().Format(time.RFC3339Nano),
	})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if n != 2 {
		t.Errorf("rescheduled %d rows, want 2", n)
	}

	rows, err := store.ListByBookingUID(ctx, "bk_2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("row count changed to %d", len(rows))
	}
	for _, r := range rows {
		if r.ServiceSlotID != slot.SecondService || r.Date != "2024-01-14" || r.DurationMins != 90 {
			t.Errorf("row %s not moved: %+v", r.AttendeeEmail, r)
		}
	}
}

// TestUpdateStatusByBookingUID tests rejection marking.
func TestUpdateStatusByBookingUID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertBatch(ctx, []domain.Assignment{
		testAssignment("bk_3", "a@x.com"),
		testAssignment("bk_3", "b@x.com"),
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	stamp := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	n, err := store.UpdateStatusByBookingUID(ctx, "bk_3", domain.StatusRejected, stamp.Format(time.RFC3339Nano))
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if n != 2 {
		t.Errorf("updated %d rows, want 2", n)
	}
	rows, _ := store.ListByBookingUID(ctx, "bk_3")
	for _, r := range rows {
		if r.Status != domain.StatusRejected {
			t.Errorf("row %s status = %q", r.AttendeeEmail, r.Status)
		}
		if !r.UpdatedAt.Equal(stamp) {
			t.Errorf("row %s updated_at = %v, want the caller's stamp %v", r.AttendeeEmail, r.UpdatedAt, stamp)
		}
	}
}

// TestDeleteByBookingUIDs tests orphan cleanup across bookings.
func TestDeleteByBookingUIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertBatch(ctx, []domain.Assignment{
		testAssignment("bk_keep", "a@x.com"),
		testAssignment("bk_gone1", "b@x.com"),
		testAssignment("bk_gone2", "c@x.com"),
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	n, err := store.DeleteByBookingUIDs(ctx, []string{"bk_gone1", "bk_gone2"})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d rows, want 2", n)
	}

	if rows, _ := store.ListByBookingUID(ctx, "bk_keep"); len(rows) != 1 {
		t.Errorf("surviving booking lost rows: %d", len(rows))
	}
	if rows, _ := store.ListByBookingUID(ctx, "bk_gone1"); len(rows) != 0 {
		t.Errorf("deleted booking still has rows: %d", len(rows))
	}

	// Empty input is a no-op, not an error.
	if n, err := store.DeleteByBookingUIDs(ctx, nil); err != nil || n != 0 {
		t.Errorf("empty delete: n=%d err=%v", n, err)
	}
}

// TestListBySourceSince tests the reconciler's window query.
func TestListBySourceSince(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := testAssignment("bk_old", "a@x.com")
	old.Date = "2023-12-01"
	recent := testAssignment("bk_recent", "b@x.com")
	recent.Date = "2024-01-07"
	foreign := testAssignment("bk_foreign", "c@x.com")
	foreign.Date = "2024-01-07"
	foreign.Source = "manual"

	if err := store.UpsertBatch(ctx, []domain.Assignment{old, recent, foreign}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	rows, err := store.ListBySourceSince(ctx, "calcom", "2024-01-01")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].BookingUID != "bk_recent" {
		t.Errorf("window query returned %+v, want only bk_recent", rows)
	}
}

// TestGetByKey_CaseInsensitiveEmail tests the lowercased key.
func TestGetByKey_CaseInsensitiveEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertBatch(ctx, []domain.Assignment{testAssignment("bk_4", "v@x.com")}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := store.GetByKey(ctx, "bk_4", "V@X.COM")
	if err != nil {
		t.Fatalf("get with upper-case email: %v", err)
	}
	if got.AttendeeEmail != "v@x.com" {
		t.Errorf("stored email = %q", got.AttendeeEmail)
	}
}
