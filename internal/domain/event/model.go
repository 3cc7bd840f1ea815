package event

import (
	"errors"
	"time"
)

// Event kinds.
const (
	KindTraining = "training"
	KindSeminar  = "seminar"
	KindTest     = "test"
)

// Max length constants.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxLocationLength    = 200
)

// Event is a scheduled training activity that carries a roster.
// PRE: Title is non-empty. StartDate is set. Kind is one of the known kinds.
// INVARIANT: EndDate >= StartDate when EndDate is set.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Kind        string    `json:"kind"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date,omitzero"` // zero value means single-day event
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks the event's invariants.
// PRE: none
// POST: returns nil if valid, error describing the first violation otherwise
func (e *Event) Validate() error {
	if e.Title == "" {
		return errors.New("event title cannot be empty")
	}
	if len(e.Title) > MaxTitleLength {
		return errors.New("event title cannot exceed 200 characters")
	}
	if e.Kind != KindTraining && e.Kind != KindSeminar && e.Kind != KindTest {
		return errors.New("event kind must be 'training', 'seminar' or 'test'")
	}
	if e.StartDate.IsZero() {
		return errors.New("event start date is required")
	}
	if !e.EndDate.IsZero() && e.EndDate.Before(e.StartDate) {
		return errors.New("event end date cannot be before start date")
	}
	if len(e.Description) > MaxDescriptionLength {
		return errors.New("event description cannot exceed 2000 characters")
	}
	if len(e.Location) > MaxLocationLength {
		return errors.New("event location cannot exceed 200 characters")
	}
	return nil
}

// IsMultiDay returns true if the event spans more than one day.
// PRE: none
// POST: returns true if EndDate is set and on a different calendar day than StartDate
func (e *Event) IsMultiDay() bool {
	if e.EndDate.IsZero() {
		return false
	}
	return e.EndDate.After(e.StartDate) &&
		e.EndDate.Format("2006-01-02") != e.StartDate.Format("2006-01-02")
}
