package booking

import (
	"math"
	"strings"
	"time"
)

// EventKind classifies a booking lifecycle notification.
type EventKind string

const (
	EventCreated     EventKind = "BOOKING_CREATED"
	EventRescheduled EventKind = "BOOKING_RESCHEDULED"
	EventCancelled   EventKind = "BOOKING_CANCELLED"
	EventRejected    EventKind = "BOOKING_REJECTED"
	EventPing        EventKind = "PING"
)

// Attendee is one person attached to a booking.
type Attendee struct {
	Email string
	Name  string
	Role  string // per-attendee role response, may be empty
}

// Booking is a normalized booking from the external scheduling system,
// either a webhook payload or one entry of a list-bookings fetch. It is
// transient: constructed per event or per fetched page, never persisted.
type Booking struct {
	UID            string
	Start          time.Time
	End            time.Time
	LengthMinutes  int // explicit duration from the source, 0 if absent
	Status         string
	Location       string
	Notes          string
	Role           string // booking-level role response, may be empty
	OrganizerEmail string
	Attendees      []Attendee
	UpdatedAt      time.Time // source's last-modified timestamp, zero if absent
}

// DefaultRole is assigned when neither the attendee nor the booking carries
// a role response.
const DefaultRole = "Volunteer"

// EligibleAttendees filters the attendees a booking produces assignments
// for. An attendee is skipped when the email is absent, matches the
// organizer, or matches the administrative address.
// PRE: adminEmail is the fixed administrative address (may be empty)
// POST: Returns attendees with non-empty emails, organizer and admin excluded
func (b *Booking) EligibleAttendees(adminEmail string) []Attendee {
	eligible := make([]Attendee, 0, len(b.Attendees))
	for _, a := range b.Attendees {
		email := strings.ToLower(strings.TrimSpace(a.Email))
		if email == "" {
			continue
		}
		if email == strings.ToLower(b.OrganizerEmail) {
			continue
		}
		if adminEmail != "" && email == strings.ToLower(adminEmail) {
			continue
		}
		a.Email = email
		eligible = append(eligible, a)
	}
	return eligible
}

// RoleFor resolves the role for one attendee: per-attendee response, then
// booking-level response, then DefaultRole.
func (b *Booking) RoleFor(a Attendee) string {
	if a.Role != "" {
		return a.Role
	}
	if b.Role != "" {
		return b.Role
	}
	return DefaultRole
}

// DurationMinutes prefers the source's explicit length and falls back to
// the rounded start/end delta.
func (b *Booking) DurationMinutes() int {
	if b.LengthMinutes > 0 {
		return b.LengthMinutes
	}
	if b.Start.IsZero() || b.End.IsZero() {
		return 0
	}
	return int(math.Round(b.End.Sub(b.Start).Minutes()))
}
