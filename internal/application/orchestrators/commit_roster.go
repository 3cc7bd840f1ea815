package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"trainingops/internal/adapters/storage"
	"trainingops/internal/domain/event"
	"trainingops/internal/domain/person"
	"trainingops/internal/domain/reference"
	"trainingops/internal/domain/rosterimport"
)

// DirectoryStore is the part of the person store the merge engine writes through.
type DirectoryStore interface {
	IdentityLookup
	Create(ctx context.Context, e person.Entry) error
	Update(ctx context.Context, id string, p person.Patch) error
}

// ReferenceLister loads one canonical attribute table.
type ReferenceLister interface {
	List(ctx context.Context, kind reference.Kind) (reference.Table, error)
}

// RosterWriter checks and creates event roster associations.
type RosterWriter interface {
	ListExisting(ctx context.Context, eventID string, personIDs []string) (map[string]bool, error)
	Create(ctx context.Context, eventID string, personIDs []string) error
}

// EventLookup fetches an event by ID.
type EventLookup interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
}

// Outcome is the terminal classification of one committed candidate.
type Outcome string

// Terminal outcomes. Every input candidate ends in exactly one.
const (
	OutcomeCreated          Outcome = "created"
	OutcomeMatchedExisting  Outcome = "matched_existing"
	OutcomeSkippedDuplicate Outcome = "skipped_duplicate_association"
	OutcomeValidationError  Outcome = "validation_error"
	OutcomeFailed           Outcome = "failed"
)

// Commit errors.
var (
	ErrEventRequired   = errors.New("event ID is required")
	ErrEventNotFound   = errors.New("event not found")
	ErrImportCancelled = errors.New("import cancelled")
)

// IdentityConflictError reports a create that collided with an existing
// identifier code or email which a second lookup still could not find.
type IdentityConflictError struct {
	Row            int
	IdentifierCode string
	Email          string
	Err            error
}

func (e *IdentityConflictError) Error() string {
	return fmt.Sprintf("row %d: identity conflict for code %q / email %q: %v", e.Row, e.IdentifierCode, e.Email, e.Err)
}

func (e *IdentityConflictError) Unwrap() error { return e.Err }

// StoreError wraps a store failure on a single candidate.
type StoreError struct {
	Op  string
	Row int
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("row %d: %s: %v", e.Row, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// RosterOutcome is the per-candidate line of a commit report.
type RosterOutcome struct {
	Row            int     `json:"row"`
	FullName       string  `json:"full_name"`
	IdentifierCode string  `json:"identifier_code,omitempty"`
	Email          string  `json:"email,omitempty"`
	PersonID       string  `json:"person_id,omitempty"`
	PositionID     string  `json:"position_id,omitempty"`
	TerritoryID    string  `json:"territory_id,omitempty"`
	Outcome        Outcome `json:"outcome"`
	Reason         string  `json:"reason,omitempty"`
}

// CommitRosterInput carries the confirmed candidates for one event.
type CommitRosterInput struct {
	EventID    string
	Candidates []rosterimport.Candidate
	Operator   string
}

// ImportRecorder receives the timing of each finished commit.
type ImportRecorder interface {
	RecordImport(rows int, elapsed time.Duration, at time.Time)
}

// CommitRosterDeps holds dependencies for ExecuteCommitRoster.
type CommitRosterDeps struct {
	Directory  DirectoryStore
	References ReferenceLister
	Roster     RosterWriter
	Events     EventLookup // nil skips the event existence check
	Matcher    rosterimport.Matcher
	Options    rosterimport.Options
	GenerateID func() string
	Now        func() time.Time
	Perf       ImportRecorder // nil skips timing
}

// CommitRosterResult aggregates the outcomes of one commit.
type CommitRosterResult struct {
	EventID          string          `json:"event_id"`
	Outcomes         []RosterOutcome `json:"outcomes"`
	Created          int             `json:"created"`
	MatchedExisting  int             `json:"matched_existing"`
	SkippedDuplicate int             `json:"skipped_duplicate_association"`
	ValidationErrors int             `json:"validation_errors"`
	Failed           int             `json:"failed"`
	Associated       int             `json:"associated"`
	Cancelled        bool            `json:"cancelled,omitempty"`
}

// resolved is a candidate that reached the Associating state.
type resolved struct {
	index    int
	personID string
	created  bool
}

// ExecuteCommitRoster merges confirmed candidates into the directory and the
// event roster.
// PRE: Input.EventID names an existing event
// POST: every candidate has exactly one outcome, in input order; new identities
// are created, existing ones patched with non-empty resolved attributes, and each
// person is associated with the event at most once
// INVARIANT: a failed row never aborts the batch; rows committed before a
// cancellation stay committed
func ExecuteCommitRoster(ctx context.Context, input CommitRosterInput, deps CommitRosterDeps) (CommitRosterResult, error) {
	eventID := strings.TrimSpace(input.EventID)
	if eventID == "" {
		return CommitRosterResult{}, ErrEventRequired
	}
	deps = withCommitDefaults(deps)
	start := deps.Now()

	if deps.Events != nil {
		if _, err := deps.Events.GetByID(ctx, eventID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return CommitRosterResult{}, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
			}
			return CommitRosterResult{}, err
		}
	}

	positions := loadTable(ctx, deps.References, reference.KindPosition)
	territories := loadTable(ctx, deps.References, reference.KindTerritory)

	result := CommitRosterResult{
		EventID:  eventID,
		Outcomes: make([]RosterOutcome, len(input.Candidates)),
	}
	var pending []resolved

	for i, raw := range input.Candidates {
		if ctx.Err() != nil {
			result.Cancelled = true
			for j := i; j < len(input.Candidates); j++ {
				result.Outcomes[j] = outcomeFor(input.Candidates[j])
				result.Outcomes[j].Outcome = OutcomeFailed
				result.Outcomes[j].Reason = ErrImportCancelled.Error()
			}
			break
		}

		c := rosterimport.Revalidate(raw, deps.Options)
		out := outcomeFor(c)
		if !c.IsValid() {
			out.Outcome = OutcomeValidationError
			out.Reason = c.ValidationError
			result.Outcomes[i] = out
			continue
		}

		out.PositionID, _ = deps.Matcher.Match(c.PositionLabel, positions)
		out.TerritoryID, _ = deps.Matcher.Match(c.TerritoryLabel, territories)

		personID, created, err := commitIdentity(ctx, c, out, deps)
		if err != nil {
			out.Outcome = OutcomeFailed
			out.Reason = err.Error()
			result.Outcomes[i] = out
			slog.Warn("roster_row_failed", "event_id", eventID, "row", c.Row, "error", err)
			continue
		}
		out.PersonID = personID
		result.Outcomes[i] = out
		pending = append(pending, resolved{index: i, personID: personID, created: created})
	}

	// Rows resolved before a cancellation still get their association.
	assocCtx := context.WithoutCancel(ctx)
	result.Associated = associate(assocCtx, eventID, pending, result.Outcomes, deps.Roster)

	for _, o := range result.Outcomes {
		switch o.Outcome {
		case OutcomeCreated:
			result.Created++
		case OutcomeMatchedExisting:
			result.MatchedExisting++
		case OutcomeSkippedDuplicate:
			result.SkippedDuplicate++
		case OutcomeValidationError:
			result.ValidationErrors++
		case OutcomeFailed:
			result.Failed++
		}
	}

	elapsed := deps.Now().Sub(start)
	if deps.Perf != nil {
		deps.Perf.RecordImport(len(input.Candidates), elapsed, start)
	}
	slog.Info("roster_commit",
		"event_id", eventID,
		"operator", input.Operator,
		"rows", len(input.Candidates),
		"created", result.Created,
		"matched_existing", result.MatchedExisting,
		"skipped_duplicate", result.SkippedDuplicate,
		"validation_errors", result.ValidationErrors,
		"failed", result.Failed,
		"associated", result.Associated,
		"cancelled", result.Cancelled,
		"ms", elapsed.Milliseconds(),
	)
	return result, nil
}

func withCommitDefaults(deps CommitRosterDeps) CommitRosterDeps {
	if len(deps.Matcher.Rules) == 0 {
		deps.Matcher = rosterimport.NewMatcher()
	}
	if deps.GenerateID == nil {
		deps.GenerateID = func() string { return uuid.New().String() }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return deps
}

func loadTable(ctx context.Context, refs ReferenceLister, kind reference.Kind) reference.Table {
	if refs == nil {
		return reference.Table{Kind: kind}
	}
	t, err := refs.List(ctx, kind)
	if err != nil {
		slog.Warn("reference_table_load_failed", "kind", kind, "error", err)
		return reference.Table{Kind: kind}
	}
	return t
}

func outcomeFor(c rosterimport.Candidate) RosterOutcome {
	return RosterOutcome{
		Row:            c.Row,
		FullName:       c.FullName,
		IdentifierCode: c.IdentifierCode,
		Email:          c.Email,
	}
}

// commitIdentity runs Resolving and then Creating or Updating for one candidate.
func commitIdentity(ctx context.Context, c rosterimport.Candidate, out RosterOutcome, deps CommitRosterDeps) (string, bool, error) {
	id, err := ResolveIdentity(ctx, deps.Directory, c)
	if err != nil {
		return "", false, &StoreError{Op: "lookup", Row: c.Row, Err: err}
	}
	patch := person.Patch{
		PositionID:     out.PositionID,
		TerritoryID:    out.TerritoryID,
		Phone:          c.Phone,
		ExperienceDays: c.ExperienceDays,
		ApprovalStatus: c.ApprovalStatus,
	}
	if id.Found {
		return id.PersonID, false, updateIdentity(ctx, c.Row, id.PersonID, patch, deps.Directory)
	}

	now := deps.Now().UTC()
	entry := person.Entry{
		ID:             deps.GenerateID(),
		FullName:       c.FullName,
		Email:          c.Email,
		IdentifierCode: c.IdentifierCode,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	patch.Apply(&entry)
	if err := entry.Validate(); err != nil {
		return "", false, &StoreError{Op: "create", Row: c.Row, Err: err}
	}

	err = deps.Directory.Create(ctx, entry)
	switch {
	case err == nil:
		return entry.ID, true, nil
	case !errors.Is(err, storage.ErrConflict):
		return "", false, &StoreError{Op: "create", Row: c.Row, Err: err}
	}

	// Someone else took the code or email since the lookup: resolve once more.
	slog.Info("roster_identity_conflict_retry", "row", c.Row, "identifier_code", c.IdentifierCode, "email", c.Email)
	id, lookupErr := ResolveIdentity(ctx, deps.Directory, c)
	if lookupErr != nil {
		return "", false, &StoreError{Op: "lookup", Row: c.Row, Err: lookupErr}
	}
	if !id.Found {
		return "", false, &IdentityConflictError{Row: c.Row, IdentifierCode: c.IdentifierCode, Email: c.Email, Err: err}
	}
	return id.PersonID, false, updateIdentity(ctx, c.Row, id.PersonID, patch, deps.Directory)
}

func updateIdentity(ctx context.Context, row int, personID string, patch person.Patch, dir DirectoryStore) error {
	if patch.IsEmpty() {
		return nil
	}
	if err := dir.Update(ctx, personID, patch); err != nil {
		return &StoreError{Op: "update", Row: row, Err: err}
	}
	return nil
}

// associate runs the Associating state for every resolved row and fills in
// their outcomes. It returns the number of associations inserted.
func associate(ctx context.Context, eventID string, pending []resolved, outcomes []RosterOutcome, roster RosterWriter) int {
	if len(pending) == 0 {
		return 0
	}

	ids := make([]string, 0, len(pending))
	seen := make(map[string]bool, len(pending))
	for _, p := range pending {
		if !seen[p.personID] {
			seen[p.personID] = true
			ids = append(ids, p.personID)
		}
	}

	existing, err := roster.ListExisting(ctx, eventID, ids)
	if err != nil {
		for _, p := range pending {
			fail(&outcomes[p.index], &StoreError{Op: "list associations", Row: outcomes[p.index].Row, Err: err})
		}
		return 0
	}

	var fresh []string
	for _, id := range ids {
		if !existing[id] {
			fresh = append(fresh, id)
		}
	}

	insertErr := map[string]error{}
	if len(fresh) > 0 {
		if err := roster.Create(ctx, eventID, fresh); err != nil {
			slog.Warn("roster_batch_insert_failed", "event_id", eventID, "count", len(fresh), "error", err)
			for _, id := range fresh {
				if err := roster.Create(ctx, eventID, []string{id}); err != nil {
					insertErr[id] = err
				}
			}
		}
	}

	assigned := make(map[string]bool, len(ids))
	for _, p := range pending {
		o := &outcomes[p.index]
		switch {
		case insertErr[p.personID] != nil:
			fail(o, &StoreError{Op: "create association", Row: o.Row, Err: insertErr[p.personID]})
		case assigned[p.personID] || existing[p.personID]:
			o.Outcome = OutcomeSkippedDuplicate
		case p.created:
			o.Outcome = OutcomeCreated
		default:
			o.Outcome = OutcomeMatchedExisting
		}
		assigned[p.personID] = true
	}
	return len(fresh) - len(insertErr)
}

func fail(o *RosterOutcome, err error) {
	o.Outcome = OutcomeFailed
	o.Reason = err.Error()
	slog.Warn("roster_row_failed", "row", o.Row, "person_id", o.PersonID, "error", err)
}
