package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SchemaVersion is bumped whenever the statements in InitDB change shape.
const SchemaVersion = 1

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables are created, WAL mode enabled, user_version set to SchemaVersion
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	// Enable foreign key enforcement
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// identifier_code and email are NULL when absent so that UNIQUE only
	// applies to values that are actually present.
	schema := `
	CREATE TABLE IF NOT EXISTS reference_entry (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL CHECK (kind IN ('position', 'territory')),
		name TEXT NOT NULL COLLATE NOCASE,
		created_at TEXT NOT NULL,
		UNIQUE (kind, name)
	);

	CREATE TABLE IF NOT EXISTS person (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		email TEXT COLLATE NOCASE UNIQUE,
		identifier_code TEXT UNIQUE,
		position_id TEXT,
		territory_id TEXT,
		phone TEXT NOT NULL DEFAULT '',
		experience_days INTEGER NOT NULL DEFAULT 0,
		approval_status TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (email IS NOT NULL OR identifier_code IS NOT NULL),
		FOREIGN KEY (position_id) REFERENCES reference_entry(id),
		FOREIGN KEY (territory_id) REFERENCES reference_entry(id)
	);

	CREATE TABLE IF NOT EXISTS training_event (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		kind TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS roster_entry (
		event_id TEXT NOT NULL,
		person_id TEXT NOT NULL,
		attended INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		PRIMARY KEY (event_id, person_id),
		FOREIGN KEY (event_id) REFERENCES training_event(id),
		FOREIGN KEY (person_id) REFERENCES person(id)
	);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL,
		last_attempted_at TEXT NOT NULL DEFAULT '',
		next_attempt_at TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS audit_event (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		category TEXT NOT NULL,
		action TEXT NOT NULL,
		severity TEXT NOT NULL,
		actor_email TEXT NOT NULL DEFAULT '',
		resource_type TEXT NOT NULL DEFAULT '',
		resource_id TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		ip_address TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_audit_event_timestamp ON audit_event(timestamp);
	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status, next_attempt_at);
	CREATE INDEX IF NOT EXISTS idx_roster_entry_person ON roster_entry(person_id);
	CREATE INDEX IF NOT EXISTS idx_training_event_start ON training_event(start_date);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}

	return nil
}

// CurrentSchemaVersion reads the schema version recorded in the database.
// PRE: db is a valid database connection
// POST: returns 0 for a database InitDB has never touched
func CurrentSchemaVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// Open opens the SQLite file at path and brings its schema up to date.
// PRE: path names a writable location
// POST: the pool runs with WAL, foreign keys and a busy timeout; InitDB has run
func Open(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	if err := InitDB(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
