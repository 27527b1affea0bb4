package projections

import (
	"context"
	"fmt"

	"nextgen/internal/domain/assignment"
	"nextgen/internal/domain/slot"
)

// AssignmentReader is the read-side store interface the roster needs.
type AssignmentReader interface {
	ListByDateRange(ctx context.Context, startDate string, endDate string) ([]assignment.Assignment, error)
}

// RosterEntry is one volunteer on the roster board.
type RosterEntry struct {
	AttendeeName  string `json:"attendeeName"`
	AttendeeEmail string `json:"attendeeEmail"`
	Role          string `json:"role"`
	Status        string `json:"status"`
	StaffID       string `json:"staffId,omitempty"`
	Registered    bool   `json:"registered"` // false for unresolved volunteers
}

// RosterService groups one date's entries for one service slot.
type RosterService struct {
	Date      string        `json:"date"`
	SlotID    int           `json:"slotId"`
	SlotLabel string        `json:"slotLabel"`
	Entries   []RosterEntry `json:"entries"`
}

// GetServiceRosterInput carries the civil-date window to display.
type GetServiceRosterInput struct {
	StartDate string // YYYY-MM-DD, inclusive
	EndDate   string // YYYY-MM-DD, inclusive
}

// GetServiceRosterDeps holds dependencies for GetServiceRoster.
type GetServiceRosterDeps struct {
	AssignmentStore AssignmentReader
}

// GetServiceRosterResult is the grouped roster the calendar renders.
type GetServiceRosterResult struct {
	Services []RosterService `json:"services"`
}

// ExecuteGetServiceRoster builds the roster board for a date window,
// grouped by date and service slot in display order. Unresolved volunteers
// appear with their booking name and email.
// PRE: Both dates are YYYY-MM-DD and StartDate <= EndDate
// POST: Returns services ordered by date then slot
func ExecuteGetServiceRoster(ctx context.Context, input GetServiceRosterInput, deps GetServiceRosterDeps) (GetServiceRosterResult, error) {
	if input.StartDate == "" || input.EndDate == "" {
		return GetServiceRosterResult{}, fmt.Errorf("roster window requires start and end dates")
	}
	if input.StartDate > input.EndDate {
		return GetServiceRosterResult{}, fmt.Errorf("roster window start %s is after end %s", input.StartDate, input.EndDate)
	}

	rows, err := deps.AssignmentStore.ListByDateRange(ctx, input.StartDate, input.EndDate)
	if err != nil {
		return GetServiceRosterResult{}, err
	}

	result := GetServiceRosterResult{Services: []RosterService{}}
	index := map[string]int{} // date + slot id -> position in Services

	for _, row := range rows {
		key := fmt.Sprintf("%s/%d", row.Date, row.ServiceSlotID)
		pos, ok := index[key]
		if !ok {
			result.Services = append(result.Services, RosterService{
				Date:      row.Date,
				SlotID:    int(row.ServiceSlotID),
				SlotLabel: slot.Label(row.ServiceSlotID),
			})
			pos = len(result.Services) - 1
			index[key] = pos
		}
		result.Services[pos].Entries = append(result.Services[pos].Entries, RosterEntry{
			AttendeeName:  row.AttendeeName,
			AttendeeEmail: row.AttendeeEmail,
			Role:          row.Role,
			Status:        row.Status,
			StaffID:       row.StaffID,
			Registered:    row.IsResolved(),
		})
	}

	return result, nil
}
