package staff

import (
	"context"
	"errors"

	domain "nextgen/internal/domain/staff"
)

// ErrNotFound is returned when no active staff record matches a lookup.
// Callers treat it as "unresolved", never as a failure.
var ErrNotFound = errors.New("staff not found")

// Store reads staff reference data. The sync pipeline never writes staff;
// registration is owned by the rest of the application.
type Store interface {
	GetActiveByEmail(ctx context.Context, email string) (domain.Staff, error)
}
