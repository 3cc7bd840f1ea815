package person

import (
	"context"

	domain "trainingops/internal/domain/person"
)

// Store persists directory entries. Entries are never deleted.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Entry, error)
	Lookup(ctx context.Context, key domain.LookupKey) (domain.Entry, error)
	FindExisting(ctx context.Context, codes, emails []string) (Matches, error)
	Create(ctx context.Context, e domain.Entry) error
	Update(ctx context.Context, id string, p domain.Patch) error
	List(ctx context.Context, filter ListFilter) ([]domain.Entry, error)
}

// Matches maps identifier codes and lowercased emails to the person IDs that own them.
type Matches struct {
	ByCode  map[string]string
	ByEmail map[string]string
}

// Resolve returns the person owning code or email. A code hit wins.
func (m Matches) Resolve(code, email string) (string, bool) {
	if code != "" {
		if id, ok := m.ByCode[code]; ok {
			return id, true
		}
	}
	if email != "" {
		if id, ok := m.ByEmail[email]; ok {
			return id, true
		}
	}
	return "", false
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit  int
	Offset int
	Query  string // substring of full name, code or email
}
