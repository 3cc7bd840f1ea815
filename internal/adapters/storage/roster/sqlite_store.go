package roster

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"trainingops/internal/adapters/storage"
	domain "trainingops/internal/domain/roster"
)

const maxInParams = 500

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

// ListExisting reports which of personIDs are already on the event's roster.
// PRE: eventID is non-empty
// POST: the returned set only contains IDs from personIDs
func (s *SQLiteStore) ListExisting(ctx context.Context, eventID string, personIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for start := 0; start < len(personIDs); start += maxInParams {
		chunk := personIDs[start:min(start+maxInParams, len(personIDs))]
		args := make([]any, 0, len(chunk)+1)
		args = append(args, eventID)
		for _, id := range chunk {
			args = append(args, id)
		}
		rows, err := s.db.QueryContext(ctx,
			fmt.Sprintf(`SELECT person_id FROM roster_entry WHERE event_id = ? AND person_id IN (%s)`,
				strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")),
			args...,
		)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, err
			}
			out[id] = true
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Create adds personIDs to the event's roster in one transaction.
// PRE: eventID and every person ID exist
// POST: all associations are written or none are; pairs already present are left untouched
func (s *SQLiteStore) Create(ctx context.Context, eventID string, personIDs []string) error {
	if len(personIDs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO roster_entry (event_id, person_id, attended, created_at) VALUES (?, ?, 0, ?)
		 ON CONFLICT(event_id, person_id) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, id := range personIDs {
		if _, err := stmt.ExecContext(ctx, eventID, id, now); err != nil {
			return fmt.Errorf("add %q to roster: %w", id, err)
		}
	}
	return tx.Commit()
}

// ListByEvent returns the event's roster with directory details.
// PRE: eventID is non-empty
// POST: members are ordered by full name
func (s *SQLiteStore) ListByEvent(ctx context.Context, eventID string) ([]domain.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.full_name, p.identifier_code, p.email, pos.name, ter.name, r.attended, r.created_at
		 FROM roster_entry r
		 JOIN person p ON p.id = r.person_id
		 LEFT JOIN reference_entry pos ON pos.id = p.position_id
		 LEFT JOIN reference_entry ter ON ter.id = p.territory_id
		 WHERE r.event_id = ?
		 ORDER BY p.full_name, p.id`, eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		var code, email, position, territory sql.NullString
		var addedAt string
		if err := rows.Scan(&m.PersonID, &m.FullName, &code, &email, &position, &territory, &m.Attended, &addedAt); err != nil {
			return nil, err
		}
		m.IdentifierCode = code.String
		m.Email = email.String
		m.Position = position.String
		m.Territory = territory.String
		m.AddedAt, _ = time.Parse(time.RFC3339Nano, addedAt)
		members = append(members, m)
	}
	return members, rows.Err()
}

// CountByEvent returns the roster size of an event.
func (s *SQLiteStore) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM roster_entry WHERE event_id = ?`, eventID).Scan(&n)
	return n, err
}
