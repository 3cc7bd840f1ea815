package person

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Max length constants for imported fields, in characters.
const (
	MaxNameLength = 200
	MaxCodeLength = 64
)

// Domain errors
var (
	ErrEmptyName    = errors.New("person name cannot be empty")
	ErrNameTooLong  = errors.New("person name cannot exceed 200 characters")
	ErrMissingKey   = errors.New("person needs an identifier code or an email")
	ErrInvalidEmail = errors.New("person email must be valid")
	ErrCodeTooLong  = errors.New("identifier code cannot exceed 64 characters")
)

// Entry is one person in the organizational directory.
// INVARIANT: at least one of IdentifierCode or Email is set; both are unique when set
type Entry struct {
	ID             string    `json:"id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email,omitempty"`
	IdentifierCode string    `json:"identifier_code,omitempty"`
	PositionID     string    `json:"position_id,omitempty"`
	TerritoryID    string    `json:"territory_id,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	ExperienceDays int       `json:"experience_days"`
	ApprovalStatus string    `json:"approval_status,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Validate checks if the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, the first violated rule otherwise
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.FullName) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(e.FullName) > MaxNameLength {
		return ErrNameTooLong
	}
	if e.IdentifierCode == "" && e.Email == "" {
		return ErrMissingKey
	}
	if utf8.RuneCountInString(e.IdentifierCode) > MaxCodeLength {
		return ErrCodeTooLong
	}
	if e.Email != "" && !strings.Contains(e.Email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

// Patch carries the attributes an import may fill in on an existing entry.
// Empty strings and a zero ExperienceDays mean "leave as is".
type Patch struct {
	PositionID     string
	TerritoryID    string
	Phone          string
	ExperienceDays int
	ApprovalStatus string
}

// IsEmpty reports whether applying the patch would change nothing.
func (p Patch) IsEmpty() bool {
	return p.PositionID == "" && p.TerritoryID == "" && p.Phone == "" &&
		p.ExperienceDays <= 0 && p.ApprovalStatus == ""
}

// Apply copies the non-empty patch fields onto e.
// PRE: none
// POST: fields absent from the patch keep their previous value; FullName, Email
// and IdentifierCode are never touched
func (p Patch) Apply(e *Entry) {
	if p.PositionID != "" {
		e.PositionID = p.PositionID
	}
	if p.TerritoryID != "" {
		e.TerritoryID = p.TerritoryID
	}
	if p.Phone != "" {
		e.Phone = p.Phone
	}
	if p.ExperienceDays > 0 {
		e.ExperienceDays = p.ExperienceDays
	}
	if p.ApprovalStatus != "" {
		e.ApprovalStatus = p.ApprovalStatus
	}
}

// LookupKey selects a directory entry by identifier code or email.
// When both are set the identifier code is tried first.
type LookupKey struct {
	IdentifierCode string
	Email          string
}

// IsZero reports whether the key carries nothing to look up.
func (k LookupKey) IsZero() bool {
	return k.IdentifierCode == "" && k.Email == ""
}
