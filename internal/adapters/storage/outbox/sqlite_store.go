package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trainingops/internal/adapters/storage"
	domain "trainingops/internal/domain/outbox"
)

// timeLayout is fixed width so stored times compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const selectColumns = `id, action_type, payload, subject, status, attempts, max_attempts,
	last_attempted_at, next_attempt_at, created_at, external_id, error_message`

// SQLiteStore implements the outbox Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new outbox store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(timeLayout, s)
	return t
}

// GetByID retrieves an outbox entry by its ID.
// PRE: id is non-empty
// POST: Returns the entry or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM outbox WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, fmt.Errorf("outbox entry %q: %w", id, storage.ErrNotFound)
	}
	return e, err
}

// Save persists an outbox entry to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update); payload and created_at never change on update
func (s *SQLiteStore) Save(ctx context.Context, e domain.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outbox (`+selectColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status=excluded.status, attempts=excluded.attempts, max_attempts=excluded.max_attempts,
		   last_attempted_at=excluded.last_attempted_at, next_attempt_at=excluded.next_attempt_at,
		   external_id=excluded.external_id, error_message=excluded.error_message`,
		e.ID, e.ActionType, e.Payload, e.Subject, e.Status, e.Attempts, e.MaxAttempts,
		formatTime(e.LastAttemptedAt), formatTime(e.NextAttemptAt), formatTime(e.CreatedAt),
		e.ExternalID, e.ErrorMessage)
	return err
}

// ListDue returns pending or retrying entries whose next attempt is at or before now.
// PRE: limit > 0
// POST: Returns up to limit entries ordered by created_at
func (s *SQLiteStore) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+selectColumns+` FROM outbox
		 WHERE status IN (?, ?) AND (next_attempt_at = '' OR next_attempt_at <= ?)
		 ORDER BY created_at ASC LIMIT ?`,
		domain.StatusPending, domain.StatusRetrying, formatTime(now), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListByStatus returns entries in one status, newest first. An empty status lists all.
// PRE: limit > 0
func (s *SQLiteStore) ListByStatus(ctx context.Context, status string, limit int) ([]domain.Entry, error) {
	query := "SELECT " + selectColumns + " FROM outbox"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (domain.Entry, error) {
	var e domain.Entry
	var lastAttempted, nextAttempt, created string
	err := row.Scan(&e.ID, &e.ActionType, &e.Payload, &e.Subject, &e.Status, &e.Attempts, &e.MaxAttempts,
		&lastAttempted, &nextAttempt, &created, &e.ExternalID, &e.ErrorMessage)
	if err != nil {
		return domain.Entry{}, err
	}
	e.LastAttemptedAt = parseTime(lastAttempted)
	e.NextAttemptAt = parseTime(nextAttempt)
	e.CreatedAt = parseTime(created)
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]domain.Entry, error) {
	var entries []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
