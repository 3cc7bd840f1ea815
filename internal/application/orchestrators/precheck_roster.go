package orchestrators

import (
	"context"
	"log/slog"

	personStore "trainingops/internal/adapters/storage/person"
	"trainingops/internal/domain/rosterimport"
)

// ExistingFinder resolves many identifier codes and emails in one pass.
type ExistingFinder interface {
	FindExisting(ctx context.Context, codes, emails []string) (personStore.Matches, error)
}

// PrecheckRosterInput carries the preview candidates, possibly edited by the operator.
type PrecheckRosterInput struct {
	Candidates []rosterimport.Candidate
}

// PrecheckRosterDeps holds dependencies for ExecutePrecheckRoster.
type PrecheckRosterDeps struct {
	Directory ExistingFinder
	Options   rosterimport.Options
}

// PrecheckRosterResult is the advisory classification of a candidate set.
type PrecheckRosterResult struct {
	Candidates []rosterimport.Candidate `json:"candidates"`
	Summary    rosterimport.Summary     `json:"summary"`
}

// ExecutePrecheckRoster marks each valid candidate new or existing with a single
// directory query over all identifier codes and emails.
// PRE: none
// POST: candidates keep their input order; invalid ones keep status error;
// existing ones carry the matching person ID
// INVARIANT: advisory only; nothing is written and commit resolves again
func ExecutePrecheckRoster(ctx context.Context, input PrecheckRosterInput, deps PrecheckRosterDeps) (PrecheckRosterResult, error) {
	cands := make([]rosterimport.Candidate, len(input.Candidates))
	var codes, emails []string
	for i, c := range input.Candidates {
		c = rosterimport.Revalidate(c, deps.Options)
		cands[i] = c
		if !c.IsValid() {
			continue
		}
		if c.IdentifierCode != "" {
			codes = append(codes, c.IdentifierCode)
		}
		if c.Email != "" {
			emails = append(emails, c.Email)
		}
	}

	matches, err := deps.Directory.FindExisting(ctx, codes, emails)
	if err != nil {
		return PrecheckRosterResult{}, err
	}

	for i := range cands {
		if !cands[i].IsValid() {
			continue
		}
		if id, ok := matches.Resolve(cands[i].IdentifierCode, cands[i].Email); ok {
			cands[i].Status = rosterimport.StatusExisting
			cands[i].PersonID = id
		} else {
			cands[i].Status = rosterimport.StatusNew
			cands[i].PersonID = ""
		}
	}

	result := PrecheckRosterResult{Candidates: cands, Summary: rosterimport.Summarize(cands)}
	slog.Info("roster_precheck",
		"total", result.Summary.Total,
		"existing", result.Summary.Existing,
		"new", result.Summary.New,
		"invalid", result.Summary.Invalid,
	)
	return result, nil
}
