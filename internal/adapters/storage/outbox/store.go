package outbox

import (
	"context"
	"time"

	domain "trainingops/internal/domain/outbox"
)

// Store defines the interface for outbox entry persistence.
type Store interface {
	// GetByID retrieves an outbox entry by its ID.
	// PRE: id is non-empty
	// POST: Returns the entry or an error wrapping storage.ErrNotFound
	GetByID(ctx context.Context, id string) (domain.Entry, error)

	// Save persists an outbox entry to the database.
	// PRE: entity has been validated
	// POST: Entity is persisted (insert or update)
	Save(ctx context.Context, e domain.Entry) error

	// ListDue returns pending or retrying entries whose next attempt is at or before now.
	// PRE: limit > 0
	// POST: Returns up to limit entries ordered by created_at
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Entry, error)

	// ListByStatus returns entries in one status, newest first. An empty status lists all.
	// PRE: limit > 0
	ListByStatus(ctx context.Context, status string, limit int) ([]domain.Entry, error)
}
