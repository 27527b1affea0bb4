package calcom

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"nextgen/internal/domain/booking"
)

// Source identifies rows this adapter owns in the assignments table.
const Source = "calcom"

// roleField is the custom booking field carrying the serving role.
const roleField = "physical_role"

// ErrMissingUID marks a payload without a booking uid. The caller drops the
// event (logged), it is not a transport failure.
var ErrMissingUID = errors.New("booking payload carries no uid")

// WebhookEnvelope is the outer shape of a Cal.com webhook call.
type WebhookEnvelope struct {
	TriggerEvent string          `json:"triggerEvent"`
	CreatedAt    string          `json:"createdAt"`
	Payload      json.RawMessage `json:"payload"`
}

// bookingPayload covers both webhook payloads and list-API entries. Cal.com
// moves fields between envelope versions, so every field the pipeline needs
// is read from an ordered list of alternative locations.
type bookingPayload struct {
	UID             string           `json:"uid"`
	BookingID       string           `json:"bookingId"`
	Title           string           `json:"title"`
	Start           string           `json:"start"`
	StartTime       string           `json:"startTime"`
	End             string           `json:"end"`
	EndTime         string           `json:"endTime"`
	Length          int              `json:"length"`
	Duration        int              `json:"duration"`
	Status          string           `json:"status"`
	Location        string           `json:"location"`
	AdditionalNotes string           `json:"additionalNotes"`
	Description     string           `json:"description"`
	UpdatedAt       string           `json:"updatedAt"`
	Organizer       *partyPayload    `json:"organizer"`
	Hosts           []partyPayload   `json:"hosts"`
	Attendees       []partyPayload   `json:"attendees"`
	UserFields      map[string]any   `json:"userFieldsResponses"`
	Responses       map[string]any   `json:"responses"`
	BookingFields   map[string]any   `json:"bookingFieldsResponses"`
	Booking         *bookingPayload  `json:"booking"`
}

type partyPayload struct {
	Email         string         `json:"email"`
	Name          string         `json:"name"`
	BookingFields map[string]any `json:"bookingFieldsResponses"`
}

// DecodeEnvelope parses the raw webhook body.
func DecodeEnvelope(body []byte) (WebhookEnvelope, error) {
	var env WebhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return WebhookEnvelope{}, fmt.Errorf("decode webhook envelope: %w", err)
	}
	return env, nil
}

// NormalizeBooking turns a raw payload object into a booking.Booking,
// applying the documented field precedence. Precedence for the start time:
// payload.start, then payload.startTime, then payload.booking.start (same
// chain for the end time). The start time is optional: cancellation and
// rejection payloads carry only the uid, so Start is zero when absent from
// every location and callers that need a schedule must check for it.
// PRE: raw is a JSON object
// POST: Returns a normalized booking, or ErrMissingUID when the uid is
// absent from every location
func NormalizeBooking(raw json.RawMessage) (booking.Booking, error) {
	var p bookingPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return booking.Booking{}, fmt.Errorf("decode booking payload: %w", err)
	}
	return normalize(&p)
}

func normalize(p *bookingPayload) (booking.Booking, error) {
	uid := firstNonEmpty(p.UID, p.BookingID, nestedUID(p.Booking))
	if uid == "" {
		return booking.Booking{}, ErrMissingUID
	}

	var start time.Time
	if startRaw := firstNonEmpty(p.Start, p.StartTime, nestedStart(p.Booking)); startRaw != "" {
		parsed, err := parseEventTime(startRaw)
		if err != nil {
			return booking.Booking{}, fmt.Errorf("parse start %q: %w", startRaw, err)
		}
		start = parsed
	}

	b := booking.Booking{
		UID:            uid,
		Start:          start,
		Status:         strings.ToLower(p.Status),
		Location:       p.Location,
		Notes:          firstNonEmpty(p.AdditionalNotes, p.Description),
		LengthMinutes:  firstPositive(p.Length, p.Duration),
		OrganizerEmail: organizerEmail(p),
	}

	if endRaw := firstNonEmpty(p.End, p.EndTime, nestedEnd(p.Booking)); endRaw != "" {
		if end, err := parseEventTime(endRaw); err == nil {
			b.End = end
		}
	}
	if p.UpdatedAt != "" {
		if updated, err := parseEventTime(p.UpdatedAt); err == nil {
			b.UpdatedAt = updated
		}
	}

	// Booking-level role response: newer payloads use userFieldsResponses,
	// older ones responses, list entries bookingFieldsResponses.
	b.Role = firstNonEmpty(
		fieldResponse(p.UserFields, roleField),
		fieldResponse(p.Responses, roleField),
		fieldResponse(p.BookingFields, roleField),
	)

	for _, a := range p.Attendees {
		b.Attendees = append(b.Attendees, booking.Attendee{
			Email: a.Email,
			Name:  a.Name,
			Role:  fieldResponse(a.BookingFields, roleField),
		})
	}

	return b, nil
}

// fieldResponse extracts a custom-field value that is either a bare string
// or a {"label": ..., "value": ...} object.
func fieldResponse(fields map[string]any, name string) string {
	v, ok := fields[name]
	if !ok {
		return ""
	}
	switch value := v.(type) {
	case string:
		return value
	case map[string]any:
		if s, ok := value["value"].(string); ok {
			return s
		}
	}
	return ""
}

func organizerEmail(p *bookingPayload) string {
	if p.Organizer != nil && p.Organizer.Email != "" {
		return p.Organizer.Email
	}
	if len(p.Hosts) > 0 {
		return p.Hosts[0].Email
	}
	return ""
}

// parseEventTime accepts RFC3339 timestamps and timezone-naive values,
// which the source emits as UTC.
func parseEventTime(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q", value)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func nestedUID(b *bookingPayload) string {
	if b == nil {
		return ""
	}
	return firstNonEmpty(b.UID, b.BookingID)
}

func nestedStart(b *bookingPayload) string {
	if b == nil {
		return ""
	}
	return firstNonEmpty(b.Start, b.StartTime)
}

func nestedEnd(b *bookingPayload) string {
	if b == nil {
		return ""
	}
	return firstNonEmpty(b.End, b.EndTime)
}
