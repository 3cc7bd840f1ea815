package orchestrators

import (
	"context"
	"errors"
	"strings"

	"trainingops/internal/adapters/storage"
	"trainingops/internal/domain/person"
	"trainingops/internal/domain/rosterimport"
)

// IdentityLookup finds directory entries by identifier code or email.
type IdentityLookup interface {
	Lookup(ctx context.Context, key person.LookupKey) (person.Entry, error)
}

// Identity is the outcome of resolving one candidate against the directory.
type Identity struct {
	PersonID  string
	Found     bool
	MatchedBy string // "identifier_code" or "email" when Found
}

// Match sources reported in Identity.MatchedBy.
const (
	MatchedByCode  = "identifier_code"
	MatchedByEmail = "email"
)

// ResolveIdentity looks a candidate up by exact identifier code, then by email.
// PRE: c passed validation
// POST: an identifier hit wins over an email hit; a miss is Found=false with a nil error;
// any other store failure is returned as is
func ResolveIdentity(ctx context.Context, lookup IdentityLookup, c rosterimport.Candidate) (Identity, error) {
	if code := strings.TrimSpace(c.IdentifierCode); code != "" {
		e, err := lookup.Lookup(ctx, person.LookupKey{IdentifierCode: code})
		switch {
		case err == nil:
			return Identity{PersonID: e.ID, Found: true, MatchedBy: MatchedByCode}, nil
		case !errors.Is(err, storage.ErrNotFound):
			return Identity{}, err
		}
	}
	if email := strings.ToLower(strings.TrimSpace(c.Email)); email != "" {
		e, err := lookup.Lookup(ctx, person.LookupKey{Email: email})
		switch {
		case err == nil:
			return Identity{PersonID: e.ID, Found: true, MatchedBy: MatchedByEmail}, nil
		case !errors.Is(err, storage.ErrNotFound):
			return Identity{}, err
		}
	}
	return Identity{}, nil
}
