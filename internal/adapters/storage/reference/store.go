package reference

import (
	"context"

	domain "trainingops/internal/domain/reference"
)

// Store persists the canonical position and territory tables.
type Store interface {
	List(ctx context.Context, kind domain.Kind) (domain.Table, error)
	Save(ctx context.Context, kind domain.Kind, e domain.Entry) error
	GetByID(ctx context.Context, id string) (domain.Kind, domain.Entry, error)
}
