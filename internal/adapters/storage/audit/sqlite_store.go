package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"trainingops/internal/adapters/storage"
	domain "trainingops/internal/domain/audit"
)

// timeLayout is fixed width so timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const selectColumns = `id, timestamp, category, action, severity, actor_email,
	resource_type, resource_id, description, ip_address, user_agent, metadata`

// SQLiteStore implements the audit Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new audit event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists an audit event.
// PRE: event is valid
// POST: Event is persisted
func (s *SQLiteStore) Save(ctx context.Context, event domain.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_event (`+selectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Timestamp.UTC().Format(timeLayout), string(event.Category), string(event.Action),
		string(event.Severity), strings.ToLower(event.ActorEmail), event.ResourceType, event.ResourceID,
		event.Description, event.IPAddress, event.UserAgent, event.Metadata)
	return err
}

// List returns audit events with optional filtering.
// PRE: limit > 0; From and To are YYYY-MM-DD when set
// POST: Returns events ordered by timestamp desc
func (s *SQLiteStore) List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error) {
	query := "SELECT " + selectColumns + " FROM audit_event WHERE 1=1"
	var args []any

	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, string(filter.Category))
	}
	if filter.Action != "" {
		query += " AND action = ?"
		args = append(args, string(filter.Action))
	}
	if filter.ActorEmail != "" {
		query += " AND actor_email = ?"
		args = append(args, strings.ToLower(filter.ActorEmail))
	}
	if filter.ResourceID != "" {
		query += " AND resource_id = ?"
		args = append(args, filter.ResourceID)
	}
	if filter.From != "" {
		query += " AND timestamp >= ?"
		args = append(args, filter.From)
	}
	if filter.To != "" {
		to, err := time.Parse("2006-01-02", filter.To)
		if err != nil {
			return nil, fmt.Errorf("audit filter to: %w", err)
		}
		query += " AND timestamp < ?"
		args = append(args, to.AddDate(0, 0, 1).Format("2006-01-02"))
	}

	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var timestamp string
		err := rows.Scan(&e.ID, &timestamp, &e.Category, &e.Action, &e.Severity, &e.ActorEmail,
			&e.ResourceType, &e.ResourceID, &e.Description, &e.IPAddress, &e.UserAgent, &e.Metadata)
		if err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(timeLayout, timestamp)
		events = append(events, e)
	}
	return events, rows.Err()
}
