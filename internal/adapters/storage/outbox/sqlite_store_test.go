package outbox

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"trainingops/internal/adapters/storage"
	domain "trainingops/internal/domain/outbox"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "outbox.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	return NewSQLiteStore(db)
}

func entry(id string, created time.Time) domain.Entry {
	e := domain.Entry{ID: id, ActionType: domain.ActionImportReport, Payload: `{"to":["a@x.com"]}`, Subject: "Roster import: " + id, CreatedAt: created}
	e.Validate()
	return e
}

// TestSQLiteStore_RoundTrip verifies every column survives save and update.
func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 10, 5, 9, 0, 0, 123, time.UTC)

	e := entry("o1", t0)
	if err := s.Save(ctx, e); err != nil {
		t.Fatalf("Save: %v", err)
	}
	e.MarkAttempt(t0.Add(time.Second))
	e.MarkFailed(errors.New("timeout"), time.Minute, time.Hour)
	if err := s.Save(ctx, e); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetByID(ctx, "o1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.StatusRetrying || got.Attempts != 1 || got.ErrorMessage != "timeout" || got.Subject != e.Subject {
		t.Errorf("got = %+v", got)
	}
	if !got.CreatedAt.Equal(t0) || !got.NextAttemptAt.Equal(e.NextAttemptAt) || got.Payload != e.Payload {
		t.Errorf("times/payload = %v %v %q", got.CreatedAt, got.NextAttemptAt, got.Payload)
	}

	if _, err := s.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing err = %v, want ErrNotFound", err)
	}
}

// TestSQLiteStore_ListDue verifies backoff and status filtering.
// PRE: o1 pending, o2 retrying with next attempt in 10m, o3 sent.
// POST: at t0 only o1 is due; at t0+10m o1 and o2 in creation order.
func TestSQLiteStore_ListDue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)

	o1 := entry("o1", t0)
	o2 := entry("o2", t0.Add(time.Second))
	o2.Status, o2.Attempts, o2.NextAttemptAt = domain.StatusRetrying, 1, t0.Add(10*time.Minute)
	o3 := entry("o3", t0.Add(2*time.Second))
	o3.MarkSuccess("m-3")
	for _, e := range []domain.Entry{o1, o2, o3} {
		if err := s.Save(ctx, e); err != nil {
			t.Fatalf("Save %s: %v", e.ID, err)
		}
	}

	due, err := s.ListDue(ctx, t0, 10)
	if err != nil || len(due) != 1 || due[0].ID != "o1" {
		t.Errorf("due at t0 = %v, %v", ids(due), err)
	}
	due, _ = s.ListDue(ctx, t0.Add(10*time.Minute), 10)
	if len(due) != 2 || due[0].ID != "o1" || due[1].ID != "o2" {
		t.Errorf("due later = %v", ids(due))
	}

	sent, _ := s.ListByStatus(ctx, domain.StatusSent, 10)
	if len(sent) != 1 || sent[0].ExternalID != "m-3" {
		t.Errorf("sent = %+v", sent)
	}
	all, _ := s.ListByStatus(ctx, "", 10)
	if len(all) != 3 || all[0].ID != "o3" {
		t.Errorf("all = %v", ids(all))
	}
}

func ids(entries []domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
