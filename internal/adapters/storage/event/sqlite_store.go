package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trainingops/internal/adapters/storage"
	domain "trainingops/internal/domain/event"
)

const dateLayout = "2006-01-02"

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

// Save inserts or updates a training event.
// PRE: e is a valid Event (Validate() returns nil)
// POST: event is persisted
func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	var endDate any
	if !e.EndDate.IsZero() {
		endDate = e.EndDate.Format(dateLayout)
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO training_event (id, title, kind, description, location, start_date, end_date, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title=excluded.title, kind=excluded.kind, description=excluded.description,
		   location=excluded.location, start_date=excluded.start_date, end_date=excluded.end_date`,
		e.ID, e.Title, e.Kind, e.Description, e.Location,
		e.StartDate.Format(dateLayout), endDate,
		e.CreatedBy, createdAt.Format(time.RFC3339Nano),
	)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (domain.Event, error) {
	var e domain.Event
	var startStr, createdStr string
	var endStr sql.NullString
	if err := row.Scan(&e.ID, &e.Title, &e.Kind, &e.Description, &e.Location,
		&startStr, &endStr, &e.CreatedBy, &createdStr); err != nil {
		return domain.Event{}, err
	}
	e.StartDate = parseDate(startStr)
	e.EndDate = parseDate(endStr.String)
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return e, nil
}

// GetByID retrieves a training event by ID.
// PRE: id is non-empty
// POST: returns the event or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx,
		`SELECT id, title, kind, description, location, start_date, end_date, created_by, created_at
		 FROM training_event WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, fmt.Errorf("event %q: %w", id, storage.ErrNotFound)
	}
	return e, err
}

// ListByDateRange returns events overlapping the given date range.
// PRE: from and to are valid date strings (YYYY-MM-DD)
// POST: returns events sorted by start_date ascending
func (s *SQLiteStore) ListByDateRange(ctx context.Context, from, to string) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, kind, description, location, start_date, end_date, created_by, created_at
		 FROM training_event
		 WHERE start_date <= ? AND (end_date >= ? OR (end_date IS NULL AND start_date >= ?))
		 ORDER BY start_date ASC, id ASC`, to, from, from,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(dateLayout, s)
	return t
}
