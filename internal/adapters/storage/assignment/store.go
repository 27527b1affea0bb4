package assignment

import (
	"context"

	domain "nextgen/internal/domain/assignment"
)

// Store persists Assignment state.
type Store interface {
	GetByKey(ctx context.Context, bookingUID string, attendeeEmail string) (domain.Assignment, error)
	ListByBookingUID(ctx context.Context, bookingUID string) ([]domain.Assignment, error)
	ListBySourceSince(ctx context.Context, source string, fromDate string) ([]domain.Assignment, error)
	ListByDateRange(ctx context.Context, startDate string, endDate string) ([]domain.Assignment, error)
	UpsertBatch(ctx context.Context, values []domain.Assignment) error
	Reschedule(ctx context.Context, bookingUID string, update ScheduleUpdate) (int, error)
	UpdateStatusByBookingUID(ctx context.Context, bookingUID string, status string, updatedAt string) (int, error)
	DeleteByBookingUID(ctx context.Context, bookingUID string) (int, error)
	DeleteByBookingUIDs(ctx context.Context, bookingUIDs []string) (int, error)
}

// ScheduleUpdate carries the recomputed schedule fields applied to every
// row of a rescheduled booking.
type ScheduleUpdate struct {
	ServiceSlotID int
	Date          string
	StartTime     string // RFC3339
	EndTime       string // RFC3339, may be empty
	DurationMins  int
	Status        string
	UpdatedAt     string // RFC3339
}
