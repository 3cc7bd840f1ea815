package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"trainingops/internal/adapters/email"
	"trainingops/internal/adapters/http/perf"
	"trainingops/internal/adapters/storage"
	auditStore "trainingops/internal/adapters/storage/audit"
	eventStore "trainingops/internal/adapters/storage/event"
	outboxStore "trainingops/internal/adapters/storage/outbox"
	personStore "trainingops/internal/adapters/storage/person"
	referenceStore "trainingops/internal/adapters/storage/reference"
	rosterStore "trainingops/internal/adapters/storage/roster"
	"trainingops/internal/domain/event"
	"trainingops/internal/domain/reference"
)

const (
	testOperator = "ops@x.com"
	testKey      = "letmein"
)

type testServer struct {
	handler   http.Handler
	stores    *Stores
	collector *perf.Collector
	auth      bool
}

// newTestServer wires the mux over a fresh SQLite file seeded with event e1
// and a small position table.
func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "web.db")+"?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}

	s := &Stores{
		PersonStore:    personStore.NewSQLiteStore(db),
		ReferenceStore: referenceStore.NewSQLiteStore(db),
		EventStore:     eventStore.NewSQLiteStore(db),
		RosterStore:    rosterStore.NewSQLiteStore(db),
		OutboxStore:    outboxStore.NewSQLiteStore(db),
		AuditStore:     auditStore.NewSQLiteStore(db),
	}
	ctx := context.Background()
	if err := s.EventStore.Save(ctx, event.Event{
		ID: "e1", Title: "Wave 1", Kind: event.KindTraining,
		StartDate: time.Now().UTC().Truncate(24 * time.Hour),
	}); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	for _, e := range []reference.Entry{{ID: "pos-trainer", Name: "Trainer"}, {ID: "pos-sales", Name: "Sales Rep"}} {
		if err := s.ReferenceStore.Save(ctx, reference.KindPosition, e); err != nil {
			t.Fatalf("seed reference: %v", err)
		}
	}

	if opts.OperatorKeys == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(testKey), bcrypt.MinCost)
		if err != nil {
			t.Fatal(err)
		}
		opts.OperatorKeys = map[string]string{testOperator: string(hash)}
	}
	collector := perf.NewCollector(1000)
	SetEmailSender(nil, "")
	return &testServer{
		handler:   NewMux(s, collector, opts),
		stores:    s,
		collector: collector,
		auth:      len(opts.OperatorKeys) > 0,
	}
}

func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if ts.auth && req.Header.Get("Authorization") == "" {
		req.SetBasicAuth(testOperator, testKey)
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, httptest.NewRequest("GET", path, nil))
}

func (ts *testServer) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return ts.do(t, req)
}

func (ts *testServer) upload(t *testing.T, path, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(content)
	} else {
		mw.WriteField("note", "no file")
	}
	mw.Close()
	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return ts.do(t, req)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	body, _ := io.ReadAll(rr.Body)
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %T: %v\n%s", v, err, body)
	}
	return v
}

// TestAuth_Boundary verifies operator credentials guard the API but not health checks.
func TestAuth_Boundary(t *testing.T) {
	ts := newTestServer(t, Options{})

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", rr.Code)
	}

	rr = httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/events", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous /api/events = %d, want 401", rr.Code)
	}

	req := httptest.NewRequest("GET", "/api/events", nil)
	req.SetBasicAuth(testOperator, "wrong")
	if rr := ts.do(t, req); rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong key = %d, want 401", rr.Code)
	}

	if rr := ts.get(t, "/api/events"); rr.Code != http.StatusOK {
		t.Errorf("authenticated = %d, want 200", rr.Code)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

// TestRateLimit_Applies verifies the configured per-IP limit.
func TestRateLimit_Applies(t *testing.T) {
	ts := newTestServer(t, Options{RateLimitPerSecond: 2})
	codes := []int{ts.get(t, "/api/events").Code, ts.get(t, "/api/events").Code, ts.get(t, "/api/events").Code}
	if codes[0] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

// TestReferenceList verifies canonical tables are served by kind.
func TestReferenceList(t *testing.T) {
	ts := newTestServer(t, Options{})
	rr := ts.get(t, "/api/reference/position")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	table := decode[reference.Table](t, rr)
	if table.Kind != reference.KindPosition || len(table.Entries) != 2 || table.Entries[0].Name != "Sales Rep" {
		t.Errorf("table = %+v", table)
	}

	rr = ts.get(t, "/api/reference/territory")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"entries":[]`) {
		t.Errorf("empty territory table = %d %s", rr.Code, rr.Body.String())
	}
	if rr := ts.get(t, "/api/reference/planet"); rr.Code != http.StatusNotFound {
		t.Errorf("unknown kind = %d, want 404", rr.Code)
	}
}

// TestEvents verifies event listing and lookup.
func TestEvents(t *testing.T) {
	ts := newTestServer(t, Options{})
	events := decode[[]event.Event](t, ts.get(t, "/api/events"))
	if len(events) != 1 || events[0].ID != "e1" {
		t.Errorf("events = %+v", events)
	}
	if rr := ts.get(t, "/api/events?from=2000-01-01&to=2000-01-31"); rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("empty range = %d %s", rr.Code, rr.Body.String())
	}
	if rr := ts.get(t, "/api/events?from=yesterday"); rr.Code != http.StatusBadRequest {
		t.Errorf("bad date = %d, want 400", rr.Code)
	}
	if rr := ts.get(t, "/api/events?from=2026-02-01&to=2026-01-01"); rr.Code != http.StatusBadRequest {
		t.Errorf("inverted range = %d, want 400", rr.Code)
	}
	if rr := ts.get(t, "/api/events/e1"); rr.Code != http.StatusOK {
		t.Errorf("get e1 = %d", rr.Code)
	}
	if rr := ts.get(t, "/api/events/nope"); rr.Code != http.StatusNotFound {
		t.Errorf("get unknown = %d, want 404", rr.Code)
	}
}

// TestAdminPerf verifies the perf snapshot endpoint.
func TestAdminPerf(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.get(t, "/api/events")

	rr := ts.get(t, "/api/admin/perf?window=10m&top=3")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	snap := decode[perf.Snapshot](t, rr)
	if snap.TotalRecorded < 1 || len(snap.SlowestPaths) == 0 {
		t.Errorf("snapshot = %+v", snap)
	}
	if rr := ts.get(t, "/api/admin/perf?window=soon"); rr.Code != http.StatusBadRequest {
		t.Errorf("bad window = %d, want 400", rr.Code)
	}
}

// TestSetEmailSender verifies the package sender is replaced.
func TestSetEmailSender(t *testing.T) {
	s := email.NewNoopSender()
	SetEmailSender(s, "noreply@x.com")
	defer SetEmailSender(nil, "")
	if emailSender != s || emailFromAddress != "noreply@x.com" {
		t.Error("sender not set")
	}
}
