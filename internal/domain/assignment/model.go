package assignment

import (
	"errors"
	"time"

	"nextgen/internal/domain/slot"
)

// Status values mirror the source booking's lifecycle state, lowercased.
const (
	StatusAccepted  = "accepted"
	StatusPending   = "pending"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// Assignment binds a single attendee to a single booking and its derived
// service slot and date. Natural key: (BookingUID, AttendeeEmail).
type Assignment struct {
	ID            string
	BookingUID    string
	AttendeeEmail string // lowercased
	AttendeeName  string
	StaffID       string // empty when no active staff record matches
	ServiceSlotID slot.ID
	Date          string // YYYY-MM-DD in the ministry timezone
	Role          string
	Status        string
	StartTime     time.Time
	EndTime       time.Time
	DurationMins  int
	Notes         string
	Source        string // external system identifier, e.g. "calcom"
	UpdatedAt     time.Time
}

// Validate checks if the Assignment has valid data.
// PRE: Assignment struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: BookingUID and AttendeeEmail must not be empty; the slot must
// be one of the defined service windows
func (a *Assignment) Validate() error {
	if a.BookingUID == "" {
		return errors.New("assignment must reference a booking")
	}
	if a.AttendeeEmail == "" {
		return errors.New("assignment must have an attendee email")
	}
	if slot.Label(a.ServiceSlotID) == "" {
		return errors.New("assignment must map to a known service slot")
	}
	if a.Date == "" {
		return errors.New("assignment date must be set")
	}
	if a.Role == "" {
		return errors.New("assignment role must be set")
	}
	return nil
}

// IsResolved reports whether the attendee matched an active staff record.
// Unresolved assignments are still valid and displayable.
func (a *Assignment) IsResolved() bool {
	return a.StaffID != ""
}
