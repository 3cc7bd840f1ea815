package reference

import (
	"errors"
	"strings"
)

// Kind names one of the canonical organizational reference tables.
type Kind string

// Reference table kinds.
const (
	KindPosition  Kind = "position"
	KindTerritory Kind = "territory"
)

// MaxNameLength bounds reference entry names.
const MaxNameLength = 200

// Domain errors
var (
	ErrEmptyName   = errors.New("reference entry name cannot be empty")
	ErrNameTooLong = errors.New("reference entry name cannot exceed 200 characters")
	ErrInvalidKind = errors.New("reference kind must be 'position' or 'territory'")
)

// ParseKind converts user input into a Kind.
// PRE: none
// POST: returns ErrInvalidKind for anything but the known kinds
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindPosition:
		return KindPosition, nil
	case KindTerritory:
		return KindTerritory, nil
	}
	return "", ErrInvalidKind
}

// Entry is one canonical job title or territory.
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Validate checks if the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if len(e.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// Table is a read-only snapshot of one reference kind.
type Table struct {
	Kind    Kind    `json:"kind"`
	Entries []Entry `json:"entries"`
}

// Names returns entry names in table order.
func (t Table) Names() []string {
	names := make([]string, len(t.Entries))
	for i, e := range t.Entries {
		names[i] = e.Name
	}
	return names
}

// Len reports the number of entries.
func (t Table) Len() int {
	return len(t.Entries)
}
