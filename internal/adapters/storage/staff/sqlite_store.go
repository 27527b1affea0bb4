package staff

import (
	"context"
	"database/sql"
	"strings"

	"nextgen/internal/adapters/storage"
	domain "nextgen/internal/domain/staff"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new staff store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetActiveByEmail looks up an active staff record by case-insensitive email.
// PRE: email is non-empty
// POST: Returns the record, or ErrNotFound when no active staff matches
func (s *SQLiteStore) GetActiveByEmail(ctx context.Context, email string) (domain.Staff, error) {
	query := "SELECT id, name, email, status FROM staff WHERE LOWER(email) = ? AND status = ?"
	row := s.db.QueryRowContext(ctx, query, strings.ToLower(email), domain.StatusActive)

	var entity domain.Staff
	err := row.Scan(&entity.ID, &entity.Name, &entity.Email, &entity.Status)
	if err == sql.ErrNoRows {
		return domain.Staff{}, ErrNotFound
	}
	return entity, err
}
