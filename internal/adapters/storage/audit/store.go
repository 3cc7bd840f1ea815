package audit

import (
	"context"

	domain "trainingops/internal/domain/audit"
)

// Store defines the interface for audit event persistence.
type Store interface {
	// Save persists an audit event.
	// PRE: event is valid
	// POST: Event is persisted
	Save(ctx context.Context, event domain.Event) error

	// List returns audit events with optional filtering.
	// PRE: limit > 0
	// POST: Returns events ordered by timestamp desc
	List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error)
}

// Filter defines query parameters for listing audit events. Empty fields do not filter.
type Filter struct {
	Category   domain.Category
	Action     domain.Action
	ActorEmail string
	ResourceID string
	From       string // inclusive, YYYY-MM-DD
	To         string // inclusive, YYYY-MM-DD
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
