package staff

// Staff is a registered staff or volunteer record. This pipeline only ever
// reads staff; registration lives elsewhere in the application.
type Staff struct {
	ID     string
	Name   string
	Email  string
	Status string
}

// Active statuses a staff record may carry.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// IsActive reports whether the record is eligible for assignment resolution.
func (s *Staff) IsActive() bool {
	return s.Status == StatusActive
}
