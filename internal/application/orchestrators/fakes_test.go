package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"trainingops/internal/adapters/storage"
	personStore "trainingops/internal/adapters/storage/person"
	"trainingops/internal/domain/event"
	"trainingops/internal/domain/person"
	"trainingops/internal/domain/reference"
)

// fakeDirectory is an in-memory person store with unique code and email keys.
type fakeDirectory struct {
	mu      sync.Mutex
	entries map[string]person.Entry
	creates int
	updates map[string][]person.Patch

	lookupErr error
	createErr error
	// beforeCreate runs inside Create before uniqueness checks; used to simulate a race.
	beforeCreate func(d *fakeDirectory)
	findCalls    int
}

func newFakeDirectory(seed ...person.Entry) *fakeDirectory {
	d := &fakeDirectory{entries: map[string]person.Entry{}, updates: map[string][]person.Patch{}}
	for _, e := range seed {
		d.entries[e.ID] = e
	}
	return d
}

// Lookup implements IdentityLookup.
func (d *fakeDirectory) Lookup(_ context.Context, key person.LookupKey) (person.Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lookupErr != nil {
		return person.Entry{}, d.lookupErr
	}
	if key.IdentifierCode != "" {
		for _, e := range d.entries {
			if e.IdentifierCode == key.IdentifierCode {
				return e, nil
			}
		}
	}
	if key.Email != "" {
		for _, e := range d.entries {
			if e.Email != "" && strings.EqualFold(e.Email, key.Email) {
				return e, nil
			}
		}
	}
	return person.Entry{}, fmt.Errorf("person: %w", storage.ErrNotFound)
}

// Create implements DirectoryStore.
func (d *fakeDirectory) Create(_ context.Context, e person.Entry) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.beforeCreate != nil {
		hook := d.beforeCreate
		d.beforeCreate = nil
		hook(d)
	}
	if d.createErr != nil {
		return d.createErr
	}
	for _, x := range d.entries {
		if (e.IdentifierCode != "" && x.IdentifierCode == e.IdentifierCode) ||
			(e.Email != "" && strings.EqualFold(x.Email, e.Email)) {
			return fmt.Errorf("person: %w", storage.ErrConflict)
		}
	}
	d.entries[e.ID] = e
	d.creates++
	return nil
}

// Update implements DirectoryStore.
func (d *fakeDirectory) Update(_ context.Context, id string, p person.Patch) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.entries[id]
	if !ok {
		return fmt.Errorf("person: %w", storage.ErrNotFound)
	}
	p.Apply(&e)
	d.entries[id] = e
	d.updates[id] = append(d.updates[id], p)
	return nil
}

// FindExisting implements ExistingFinder.
func (d *fakeDirectory) FindExisting(_ context.Context, codes, emails []string) (personStore.Matches, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.findCalls++
	if d.lookupErr != nil {
		return personStore.Matches{}, d.lookupErr
	}
	m := personStore.Matches{ByCode: map[string]string{}, ByEmail: map[string]string{}}
	for _, e := range d.entries {
		for _, c := range codes {
			if c != "" && c == e.IdentifierCode {
				m.ByCode[c] = e.ID
			}
		}
		for _, em := range emails {
			if em != "" && strings.EqualFold(em, e.Email) {
				m.ByEmail[strings.ToLower(em)] = e.ID
			}
		}
	}
	return m, nil
}

func (d *fakeDirectory) get(id string) person.Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.entries[id]
}

func (d *fakeDirectory) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// fakeReferences serves fixed tables.
type fakeReferences struct {
	tables map[reference.Kind]reference.Table
	err    error
}

// List implements ReferenceLister.
func (r *fakeReferences) List(_ context.Context, kind reference.Kind) (reference.Table, error) {
	if r.err != nil {
		return reference.Table{}, r.err
	}
	return r.tables[kind], nil
}

func referenceFixture() *fakeReferences {
	return &fakeReferences{tables: map[reference.Kind]reference.Table{
		reference.KindPosition: {Kind: reference.KindPosition, Entries: []reference.Entry{
			{ID: "pos-med", Name: "Медицинский представитель"},
			{ID: "pos-sales", Name: "Sales Rep"},
			{ID: "pos-trainer", Name: "Trainer"},
		}},
		reference.KindTerritory: {Kind: reference.KindTerritory, Entries: []reference.Entry{
			{ID: "ter-a", Name: "Branch-A"},
			{ID: "ter-msk", Name: "Москва"},
		}},
	}}
}

// fakeRoster is an in-memory association table keyed by event then person.
type fakeRoster struct {
	mu      sync.Mutex
	byEvent map[string]map[string]bool

	listCalls   int
	createCalls [][]string
	listErr     error
	// failPerson makes any Create call containing this person fail.
	failPerson string
}

func newFakeRoster() *fakeRoster {
	return &fakeRoster{byEvent: map[string]map[string]bool{}}
}

// ListExisting implements RosterWriter.
func (r *fakeRoster) ListExisting(_ context.Context, eventID string, ids []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := map[string]bool{}
	for _, id := range ids {
		if r.byEvent[eventID][id] {
			out[id] = true
		}
	}
	return out, nil
}

// Create implements RosterWriter. Batches are all-or-nothing.
func (r *fakeRoster) Create(_ context.Context, eventID string, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls = append(r.createCalls, append([]string(nil), ids...))
	for _, id := range ids {
		if id == r.failPerson {
			return errors.New("foreign key constraint failed")
		}
	}
	if r.byEvent[eventID] == nil {
		r.byEvent[eventID] = map[string]bool{}
	}
	for _, id := range ids {
		r.byEvent[eventID][id] = true
	}
	return nil
}

func (r *fakeRoster) count(eventID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byEvent[eventID])
}

// fakeEvents knows a fixed set of event IDs.
type fakeImportRecorder struct {
	rows []int
}

func (r *fakeImportRecorder) RecordImport(rows int, _ time.Duration, _ time.Time) {
	r.rows = append(r.rows, rows)
}

type fakeEvents map[string]event.Event

// GetByID implements EventLookup.
func (f fakeEvents) GetByID(_ context.Context, id string) (event.Event, error) {
	e, ok := f[id]
	if !ok {
		return event.Event{}, fmt.Errorf("event: %w", storage.ErrNotFound)
	}
	return e, nil
}

// sequentialIDs returns a generator of "p1", "p2", ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("p%d", n)
	}
}
