package event

import (
	"context"

	domain "trainingops/internal/domain/event"
)

// Store persists training events.
type Store interface {
	Save(ctx context.Context, e domain.Event) error
	GetByID(ctx context.Context, id string) (domain.Event, error)
	ListByDateRange(ctx context.Context, from, to string) ([]domain.Event, error)
}
