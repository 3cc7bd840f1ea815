package roster

import (
	"errors"
	"time"
)

// Association records that a person is on an event's roster.
// INVARIANT: at most one Association exists per (EventID, PersonID)
type Association struct {
	EventID   string    `json:"event_id"`
	PersonID  string    `json:"person_id"`
	Attended  bool      `json:"attended"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the association's invariants.
// PRE: fields may be empty (validation will catch this).
// POST: Returns nil if valid, error with descriptive message otherwise.
func (a *Association) Validate() error {
	if a.EventID == "" {
		return errors.New("event_id is required")
	}
	if a.PersonID == "" {
		return errors.New("person_id is required")
	}
	return nil
}

// Member is a roster line joined with the directory data shown to operators.
type Member struct {
	PersonID       string    `json:"person_id"`
	FullName       string    `json:"full_name"`
	IdentifierCode string    `json:"identifier_code,omitempty"`
	Email          string    `json:"email,omitempty"`
	Position       string    `json:"position,omitempty"`
	Territory      string    `json:"territory,omitempty"`
	Attended       bool      `json:"attended"`
	AddedAt        time.Time `json:"added_at"`
}
