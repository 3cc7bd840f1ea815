package person

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"trainingops/internal/adapters/storage"
	domain "trainingops/internal/domain/person"
)

// maxInParams keeps IN lists well under SQLite's bound-parameter limit.
const maxInParams = 500

const selectColumns = "id, full_name, email, identifier_code, position_id, territory_id, phone, experience_days, approval_status, created_at, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new person Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (domain.Entry, error) {
	var e domain.Entry
	var email, code, positionID, territoryID sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(
		&e.ID,
		&e.FullName,
		&email,
		&code,
		&positionID,
		&territoryID,
		&e.Phone,
		&e.ExperienceDays,
		&e.ApprovalStatus,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Entry{}, err
	}
	e.Email = email.String
	e.IdentifierCode = code.String
	e.PositionID = positionID.String
	e.TerritoryID = territoryID.String
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return e, nil
}

func (s *SQLiteStore) getOne(ctx context.Context, where string, arg any) (domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM person WHERE "+where, arg)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, fmt.Errorf("person not found: %w", storage.ErrNotFound)
	}
	return e, err
}

// GetByID retrieves an entry by its ID.
// PRE: id is non-empty
// POST: Returns the entry or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	return s.getOne(ctx, "id = ?", id)
}

// Lookup finds the entry owning the identifier code, falling back to the email.
// PRE: key is not zero
// POST: an identifier hit is returned even when the email belongs to someone else;
// returns an error wrapping storage.ErrNotFound when neither key matches
func (s *SQLiteStore) Lookup(ctx context.Context, key domain.LookupKey) (domain.Entry, error) {
	if key.IdentifierCode != "" {
		e, err := s.getOne(ctx, "identifier_code = ?", key.IdentifierCode)
		if err == nil || !errors.Is(err, storage.ErrNotFound) {
			return e, err
		}
	}
	if key.Email != "" {
		return s.getOne(ctx, "email = ?", strings.ToLower(key.Email))
	}
	return domain.Entry{}, fmt.Errorf("person not found: %w", storage.ErrNotFound)
}

// FindExisting resolves many codes and emails in as few queries as possible.
// PRE: none; empty values are ignored
// POST: Matches holds only keys that exist in the directory
func (s *SQLiteStore) FindExisting(ctx context.Context, codes, emails []string) (Matches, error) {
	m := Matches{ByCode: map[string]string{}, ByEmail: map[string]string{}}
	if err := s.collect(ctx, "identifier_code", dedupe(codes, false), m.ByCode); err != nil {
		return Matches{}, err
	}
	if err := s.collect(ctx, "email", dedupe(emails, true), m.ByEmail); err != nil {
		return Matches{}, err
	}
	return m, nil
}

func (s *SQLiteStore) collect(ctx context.Context, column string, values []string, into map[string]string) error {
	for start := 0; start < len(values); start += maxInParams {
		chunk := values[start:min(start+maxInParams, len(values))]
		args := make([]any, len(chunk))
		for i, v := range chunk {
			args[i] = v
		}
		query := fmt.Sprintf("SELECT %s, id FROM person WHERE %s IN (%s)",
			column, column, strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ","))
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		for rows.Next() {
			var key, id string
			if err := rows.Scan(&key, &id); err != nil {
				rows.Close()
				return err
			}
			if column == "email" {
				key = strings.ToLower(key)
			}
			into[key] = id
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func dedupe(values []string, lower bool) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Create inserts a new entry.
// PRE: e has been validated and carries an ID
// POST: Entry is persisted; a taken identifier code or email returns an error wrapping storage.ErrConflict
func (s *SQLiteStore) Create(ctx context.Context, e domain.Entry) error {
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO person ("+selectColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID,
		e.FullName,
		storage.NullString(strings.ToLower(e.Email)),
		storage.NullString(e.IdentifierCode),
		storage.NullString(e.PositionID),
		storage.NullString(e.TerritoryID),
		e.Phone,
		e.ExperienceDays,
		e.ApprovalStatus,
		e.CreatedAt.Format(time.RFC3339Nano),
		e.UpdatedAt.Format(time.RFC3339Nano),
	)
	if storage.IsUniqueViolation(err) {
		return fmt.Errorf("person %q: %w", e.ID, storage.ErrConflict)
	}
	return err
}

// Update applies a partial patch to an existing entry.
// PRE: id is non-empty
// POST: only the non-empty patch fields are written; returns an error wrapping
// storage.ErrNotFound when id does not exist
func (s *SQLiteStore) Update(ctx context.Context, id string, p domain.Patch) error {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(time.RFC3339Nano)}
	if p.PositionID != "" {
		sets = append(sets, "position_id = ?")
		args = append(args, p.PositionID)
	}
	if p.TerritoryID != "" {
		sets = append(sets, "territory_id = ?")
		args = append(args, p.TerritoryID)
	}
	if p.Phone != "" {
		sets = append(sets, "phone = ?")
		args = append(args, p.Phone)
	}
	if p.ExperienceDays > 0 {
		sets = append(sets, "experience_days = ?")
		args = append(args, p.ExperienceDays)
	}
	if p.ApprovalStatus != "" {
		sets = append(sets, "approval_status = ?")
		args = append(args, p.ApprovalStatus)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE person SET %s WHERE id = ?", strings.Join(sets, ", ")),
		args...,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("person %q: %w", id, storage.ErrNotFound)
	}
	return nil
}

// List returns entries ordered by full name.
// PRE: filter.Limit >= 0 (0 means no limit)
// POST: Returns at most Limit entries starting at Offset
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Entry, error) {
	query := "SELECT " + selectColumns + " FROM person"
	var args []any
	if q := strings.TrimSpace(filter.Query); q != "" {
		query += " WHERE full_name LIKE ? OR identifier_code LIKE ? OR email LIKE ?"
		like := "%" + q + "%"
		args = append(args, like, like, like)
	}
	query += " ORDER BY full_name, id"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}
