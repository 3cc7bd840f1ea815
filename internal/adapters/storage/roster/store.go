package roster

import (
	"context"

	domain "trainingops/internal/domain/roster"
)

// Store persists event roster associations.
type Store interface {
	ListExisting(ctx context.Context, eventID string, personIDs []string) (map[string]bool, error)
	Create(ctx context.Context, eventID string, personIDs []string) error
	ListByEvent(ctx context.Context, eventID string) ([]domain.Member, error)
	CountByEvent(ctx context.Context, eventID string) (int, error)
}
