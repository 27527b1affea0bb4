package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	assignmentStore "nextgen/internal/adapters/storage/assignment"
	staffStore "nextgen/internal/adapters/storage/staff"
	"nextgen/internal/domain/assignment"
	"nextgen/internal/domain/booking"
	"nextgen/internal/domain/slot"
)

// ErrUnmappedSlot marks a booking whose start time matches none of the
// service windows. Such events are dropped and logged, never stored and
// never surfaced as a failure to the webhook sender.
var ErrUnmappedSlot = errors.New("start time maps to no service slot")

// ProcessBookingEventInput carries one normalized booking lifecycle event.
type ProcessBookingEventInput struct {
	Kind    booking.EventKind
	Booking booking.Booking
	Source  string // external system identifier stamped on rows
}

// ProcessBookingEventDeps holds dependencies for ProcessBookingEvent.
type ProcessBookingEventDeps struct {
	AssignmentStore assignmentStore.Store
	StaffStore      staffStore.Store
	AdminEmail      string           // fixed administrative address, filtered from attendees
	Now             func() time.Time // nil means time.Now
}

func (d *ProcessBookingEventDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// ExecuteProcessBookingEvent applies one lifecycle event to the assignments
// table. Created upserts one row per eligible attendee; Rescheduled moves
// every row of the booking; Cancelled deletes them; Rejected retains them
// with status "rejected".
// PRE: input.Booking is normalized (uid and start present for Created/Rescheduled)
// POST: Assignment rows reflect the event; unmapped slots drop the event
// without error
// INVARIANT: At most one row per (booking uid, attendee email) — guaranteed
// by the store's upsert key, not by receiver-side deduplication
func ExecuteProcessBookingEvent(ctx context.Context, input ProcessBookingEventInput, deps ProcessBookingEventDeps) error {
	b := &input.Booking

	switch input.Kind {
	case booking.EventCreated:
		return applyCreated(ctx, input, deps)

	case booking.EventRescheduled:
		return applyRescheduled(ctx, b, deps)

	case booking.EventCancelled:
		n, err := deps.AssignmentStore.DeleteByBookingUID(ctx, b.UID)
		if err != nil {
			return fmt.Errorf("delete assignments for %s: %w", b.UID, err)
		}
		slog.Info("booking_cancelled", "booking_uid", b.UID, "deleted", n)
		return nil

	case booking.EventRejected:
		n, err := deps.AssignmentStore.UpdateStatusByBookingUID(ctx, b.UID,
			assignment.StatusRejected, deps.now().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("mark assignments rejected for %s: %w", b.UID, err)
		}
		slog.Info("booking_rejected", "booking_uid", b.UID, "updated", n)
		return nil

	default:
		slog.Warn("booking_event_ignored", "kind", string(input.Kind), "booking_uid", b.UID)
		return nil
	}
}

func applyCreated(ctx context.Context, input ProcessBookingEventInput, deps ProcessBookingEventDeps) error {
	rows, err := BuildAssignments(ctx, &input.Booking, input.Source, deps)
	if errors.Is(err, ErrUnmappedSlot) {
		slog.Warn("booking_slot_unmapped", "booking_uid", input.Booking.UID,
			"start", input.Booking.Start.Format(time.RFC3339))
		return nil
	}
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		slog.Info("booking_no_eligible_attendees", "booking_uid", input.Booking.UID)
		return nil
	}

	if err := deps.AssignmentStore.UpsertBatch(ctx, rows); err != nil {
		return fmt.Errorf("upsert assignments for %s: %w", input.Booking.UID, err)
	}
	slog.Info("booking_created", "booking_uid", input.Booking.UID, "rows", len(rows))
	return nil
}

func applyRescheduled(ctx context.Context, b *booking.Booking, deps ProcessBookingEventDeps) error {
	slotID := slot.FromStartTime(b.Start)
	if slotID == slot.Unknown {
		slog.Warn("booking_slot_unmapped", "booking_uid", b.UID,
			"start", b.Start.Format(time.RFC3339))
		return nil
	}

	update := assignmentStore.ScheduleUpdate{
		ServiceSlotID: int(slotID),
		Date:          slot.CivilDate(b.Start),
		StartTime:     b.Start.Format(time.RFC3339Nano),
		DurationMins:  b.DurationMinutes(),
		Status:        statusOrDefault(b.Status),
		UpdatedAt:     deps.now().Format(time.RFC3339Nano),
	}
	if !b.End.IsZero() {
		update.EndTime = b.End.Format(time.RFC3339Nano)
	}

	n, err := deps.AssignmentStore.Reschedule(ctx, b.UID, update)
	if err != nil {
		return fmt.Errorf("reschedule assignments for %s: %w", b.UID, err)
	}
	slog.Info("booking_rescheduled", "booking_uid", b.UID, "rows", n,
		"date", update.Date, "slot", update.ServiceSlotID)
	return nil
}

// BuildAssignments transforms one booking into its assignment rows: slot
// derivation, attendee eligibility, role fallback, staff resolution. A staff
// lookup failure for one attendee leaves that row unresolved and never
// aborts the rest of the booking.
// PRE: b is normalized
// POST: Returns validated rows, or ErrUnmappedSlot when the start time
// matches no service window
func BuildAssignments(ctx context.Context, b *booking.Booking, source string, deps ProcessBookingEventDeps) ([]assignment.Assignment, error) {
	slotID := slot.FromStartTime(b.Start)
	if slotID == slot.Unknown {
		return nil, ErrUnmappedSlot
	}

	now := deps.now()
	eligible := b.EligibleAttendees(deps.AdminEmail)
	rows := make([]assignment.Assignment, 0, len(eligible))

	for _, a := range eligible {
		row := assignment.Assignment{
			ID:            uuid.New().String(),
			BookingUID:    b.UID,
			AttendeeEmail: a.Email,
			AttendeeName:  a.Name,
			ServiceSlotID: slotID,
			Date:          slot.CivilDate(b.Start),
			Role:          b.RoleFor(a),
			Status:        statusOrDefault(b.Status),
			StartTime:     b.Start,
			EndTime:       b.End,
			DurationMins:  b.DurationMinutes(),
			Notes:         b.Notes,
			Source:        source,
			UpdatedAt:     now,
		}

		// Unregistered volunteers are stored unresolved, never dropped.
		st, err := deps.StaffStore.GetActiveByEmail(ctx, a.Email)
		switch {
		case err == nil:
			row.StaffID = st.ID
		case errors.Is(err, staffStore.ErrNotFound):
			// unresolved
		default:
			slog.Warn("staff_lookup_failed", "email", a.Email, "error", err.Error())
		}

		if err := row.Validate(); err != nil {
			slog.Warn("assignment_invalid", "booking_uid", b.UID, "email", a.Email, "error", err.Error())
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func statusOrDefault(status string) string {
	if status == "" {
		return assignment.StatusAccepted
	}
	return status
}
