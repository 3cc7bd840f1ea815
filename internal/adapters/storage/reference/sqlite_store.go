package reference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trainingops/internal/adapters/storage"
	domain "trainingops/internal/domain/reference"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
// PRE: db is a valid, open database connection with the schema applied
// POST: store is ready for use
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// List returns one reference table.
// PRE: kind is a known Kind
// POST: entries are ordered by name, then id, so matching is deterministic
func (s *SQLiteStore) List(ctx context.Context, kind domain.Kind) (domain.Table, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM reference_entry WHERE kind = ? ORDER BY name, id`, string(kind))
	if err != nil {
		return domain.Table{}, err
	}
	defer rows.Close()

	t := domain.Table{Kind: kind}
	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return domain.Table{}, err
		}
		t.Entries = append(t.Entries, e)
	}
	return t, rows.Err()
}

// Save inserts or renames a reference entry.
// PRE: e has been validated and carries an ID
// POST: entry persisted; a duplicate name within the kind returns an error wrapping storage.ErrConflict
func (s *SQLiteStore) Save(ctx context.Context, kind domain.Kind, e domain.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reference_entry (id, kind, name, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name`,
		e.ID, string(kind), e.Name, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if storage.IsUniqueViolation(err) {
		return fmt.Errorf("%s %q: %w", kind, e.Name, storage.ErrConflict)
	}
	return err
}

// GetByID retrieves one entry and its kind.
// PRE: id is non-empty
// POST: returns an error wrapping storage.ErrNotFound when absent
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Kind, domain.Entry, error) {
	var kind string
	var e domain.Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT kind, id, name FROM reference_entry WHERE id = ?`, id,
	).Scan(&kind, &e.ID, &e.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.Entry{}, fmt.Errorf("reference entry not found: %w", storage.ErrNotFound)
	}
	return domain.Kind(kind), e, err
}
