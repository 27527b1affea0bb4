package slot

import (
	"fmt"
	"time"
)

// TimezoneName is the ministry's civil timezone. Every slot comparison and
// assignment date is derived in this zone, never in the server's local zone.
const TimezoneName = "Asia/Manila"

// ID identifies one of the three fixed daily service windows.
type ID int

const (
	// Unknown marks a start time that matches none of the service windows.
	Unknown ID = 0

	FirstService  ID = 1
	SecondService ID = 2
	ThirdService  ID = 3
)

// ServiceSlot is one fixed daily service window.
type ServiceSlot struct {
	ID        ID
	Label     string
	StartTime string // HH:MM, 24-hour, zero-padded, in TimezoneName
}

// Slots is the full service-slot table. The mapping from wall-clock start
// time to slot is a total function over exactly these three values.
var Slots = []ServiceSlot{
	{ID: FirstService, Label: "First Service", StartTime: "10:00"},
	{ID: SecondService, Label: "Second Service", StartTime: "13:00"},
	{ID: ThirdService, Label: "Third Service", StartTime: "16:00"},
}

// location is resolved once. cmd/server imports time/tzdata so the lookup
// works on hosts without system zoneinfo.
var location = mustLoadLocation()

func mustLoadLocation() *time.Location {
	loc, err := time.LoadLocation(TimezoneName)
	if err != nil {
		panic(fmt.Sprintf("load timezone %s: %v", TimezoneName, err))
	}
	return loc
}

// FromStartTime maps an instant to its service slot.
// PRE: start is a valid instant (any zone; it is converted)
// POST: Returns the matching slot ID, or Unknown if the wall-clock time in
// the ministry timezone matches none of the three service start times
func FromStartTime(start time.Time) ID {
	hhmm := start.In(location).Format("15:04")
	for _, s := range Slots {
		if s.StartTime == hhmm {
			return s.ID
		}
	}
	return Unknown
}

// CivilDate returns the YYYY-MM-DD calendar date of an instant in the
// ministry timezone. Must use the same zone as FromStartTime, otherwise
// assignments shift to the wrong day near midnight boundaries.
func CivilDate(t time.Time) string {
	return t.In(location).Format("2006-01-02")
}

// Label returns the human label for a slot ID, or "" for Unknown.
func Label(id ID) string {
	for _, s := range Slots {
		if s.ID == id {
			return s.Label
		}
	}
	return ""
}
