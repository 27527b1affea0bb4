package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"nextgen/internal/domain/assignment"
	"nextgen/internal/domain/booking"
	"nextgen/internal/domain/slot"
)

// BookingFetcher lists the source system's bookings for a time window.
type BookingFetcher interface {
	ListBookings(ctx context.Context, from time.Time, to time.Time) ([]booking.Booking, error)
}

// SyncBookingsInput carries the resync window parameters.
type SyncBookingsInput struct {
	DaysBack  int
	DaysAhead int
	Source    string
}

// SyncBookingsDeps holds dependencies for SyncBookings.
type SyncBookingsDeps struct {
	Fetcher BookingFetcher
	Engine  ProcessBookingEventDeps // reuses the per-event transform and stores
}

// SyncBookingsResult summarizes one reconciler run.
type SyncBookingsResult struct {
	Processed int // bookings fetched from the source
	Synced    int // bookings whose rows were written
	Deleted   int // rows removed because their booking vanished from the source
	Skipped   int // bookings dropped: unmapped slot, stale, or no eligible attendees
}

// ExecuteSyncBookings performs a full resync over the rolling window. It is
// the correctness backstop for missed or out-of-order webhooks: it re-derives
// every assignment from the source's current state, skips rows whose stored
// copy is at least as new as the source's last-modified timestamp, and
// deletes rows whose booking no longer appears in the fetched set.
// PRE: deps.Fetcher and the engine stores are wired
// POST: Returns the run summary; a fetch failure aborts the whole run with
// no writes, a persistence failure aborts mid-run without corrupting
// already-committed bookings
func ExecuteSyncBookings(ctx context.Context, input SyncBookingsInput, deps SyncBookingsDeps) (SyncBookingsResult, error) {
	var result SyncBookingsResult
	now := deps.Engine.now()
	from := now.AddDate(0, 0, -input.DaysBack)
	to := now.AddDate(0, 0, input.DaysAhead)

	fetched, err := deps.Fetcher.ListBookings(ctx, from, to)
	if err != nil {
		return result, fmt.Errorf("fetch bookings: %w", err)
	}
	result.Processed = len(fetched)

	existing, err := deps.Engine.AssignmentStore.ListBySourceSince(ctx, input.Source, slot.CivilDate(from))
	if err != nil {
		return result, fmt.Errorf("load persisted window: %w", err)
	}
	stored := make(map[string]assignment.Assignment, len(existing))
	persistedBookings := make(map[string]bool)
	for _, row := range existing {
		stored[row.BookingUID+"\x00"+row.AttendeeEmail] = row
		persistedBookings[row.BookingUID] = true
	}

	present := make(map[string]bool, len(fetched))
	for i := range fetched {
		b := &fetched[i]

		// A cancelled booking still present in the response is treated the
		// same as an absent one: its rows are removed below.
		if b.Status == assignment.StatusCancelled {
			continue
		}
		present[b.UID] = true

		rows, err := BuildAssignments(ctx, b, input.Source, deps.Engine)
		if errors.Is(err, ErrUnmappedSlot) {
			slog.Warn("sync_slot_unmapped", "booking_uid", b.UID,
				"start", b.Start.Format(time.RFC3339))
			result.Skipped++
			continue
		}
		if err != nil {
			return result, err
		}
		if len(rows) == 0 {
			result.Skipped++
			continue
		}

		// Staleness guard: only write rows the source modified after our
		// last write, so a resync never clobbers newer local edits.
		toWrite := rows[:0]
		for _, row := range rows {
			prev, ok := stored[row.BookingUID+"\x00"+row.AttendeeEmail]
			if ok && !b.UpdatedAt.IsZero() && !b.UpdatedAt.After(prev.UpdatedAt) {
				continue
			}
			toWrite = append(toWrite, row)
		}
		if len(toWrite) == 0 {
			result.Skipped++
			continue
		}

		if err := deps.Engine.AssignmentStore.UpsertBatch(ctx, toWrite); err != nil {
			return result, fmt.Errorf("upsert booking %s: %w", b.UID, err)
		}
		result.Synced++
	}

	// Bookings persisted in the window but absent from the fetch were
	// cancelled or deleted without a webhook arriving.
	var orphans []string
	for uid := range persistedBookings {
		if !present[uid] {
			orphans = append(orphans, uid)
		}
	}
	if len(orphans) > 0 {
		n, err := deps.Engine.AssignmentStore.DeleteByBookingUIDs(ctx, orphans)
		if err != nil {
			return result, fmt.Errorf("delete orphaned bookings: %w", err)
		}
		result.Deleted = n
	}

	slog.Info("sync_completed",
		"processed", result.Processed,
		"synced", result.Synced,
		"deleted", result.Deleted,
		"skipped", result.Skipped,
		"window_from", slot.CivilDate(from),
		"window_to", slot.CivilDate(to))
	return result, nil
}
