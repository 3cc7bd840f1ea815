package roster

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"trainingops/internal/adapters/storage"
)

func newTestStore(t *testing.T) (*SQLiteStore, *sql.DB) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "roster.db") + "?_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	mustExec := func(q string, args ...any) {
		if _, err := db.Exec(q, args...); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	mustExec(`INSERT INTO reference_entry (id, kind, name, created_at) VALUES ('pos1', 'position', 'Trainer', 'x')`)
	mustExec(`INSERT INTO training_event (id, title, kind, start_date, created_at) VALUES ('e1', 'Wave 1', 'training', '2026-10-05', 'x')`)
	mustExec(`INSERT INTO person (id, full_name, identifier_code, position_id, created_at, updated_at) VALUES ('p1', 'Petrov', '1', 'pos1', 'x', 'x')`)
	mustExec(`INSERT INTO person (id, full_name, email, created_at, updated_at) VALUES ('p2', 'Abramov', 'a@x.com', 'x', 'x')`)
	mustExec(`INSERT INTO person (id, full_name, identifier_code, created_at, updated_at) VALUES ('p3', 'Ivanov', '3', 'x', 'x')`)
	return NewSQLiteStore(db), db
}

// TestSQLiteStore_CreateAndListExisting verifies batch insert and existence checks.
// PRE: empty roster for e1.
// POST: p1 and p2 on roster; ListExisting reports exactly those.
func TestSQLiteStore_CreateAndListExisting(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, "e1", []string{"p1", "p2"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := s.ListExisting(ctx, "e1", []string{"p1", "p2", "p3"})
	if err != nil {
		t.Fatalf("ListExisting: %v", err)
	}
	if !got["p1"] || !got["p2"] || got["p3"] || len(got) != 2 {
		t.Errorf("existing = %v", got)
	}

	none, err := s.ListExisting(ctx, "e1", nil)
	if err != nil || len(none) != 0 {
		t.Errorf("empty ListExisting = %v, %v", none, err)
	}
}

// TestSQLiteStore_CreateIdempotent verifies re-adding a person creates no duplicate.
func TestSQLiteStore_CreateIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.Create(ctx, "e1", []string{"p1"})
	if err := s.Create(ctx, "e1", []string{"p1", "p3"}); err != nil {
		t.Fatalf("second Create: %v", err)
	}
	n, err := s.CountByEvent(ctx, "e1")
	if err != nil || n != 2 {
		t.Errorf("count = %d, %v; want 2", n, err)
	}
}

// TestSQLiteStore_CreateAtomic verifies one unknown person rolls back the whole batch.
func TestSQLiteStore_CreateAtomic(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	if err := s.Create(ctx, "e1", []string{"p1", "ghost"}); err == nil {
		t.Fatal("expected foreign key failure")
	}
	n, _ := s.CountByEvent(ctx, "e1")
	if n != 0 {
		t.Errorf("count = %d, want 0 after rollback", n)
	}
}

// TestSQLiteStore_ListByEvent verifies the joined roster view.
func TestSQLiteStore_ListByEvent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.Create(ctx, "e1", []string{"p1", "p2"})

	members, err := s.ListByEvent(ctx, "e1")
	if err != nil {
		t.Fatalf("ListByEvent: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("members = %d, want 2", len(members))
	}
	if members[0].FullName != "Abramov" || members[0].Email != "a@x.com" {
		t.Errorf("first = %+v", members[0])
	}
	if members[1].Position != "Trainer" || members[1].IdentifierCode != "1" || members[1].Attended {
		t.Errorf("second = %+v", members[1])
	}
}
