package workinghours

import (
	"context"

	domain "trainerdesk/internal/domain/workinghours"
)

// Store persists a trainer's working-hours config.
type Store interface {
	// Get returns domain.ErrNotFound when the trainer has not saved a config.
	Get(ctx context.Context, trainerID string) (domain.Config, error)
	Save(ctx context.Context, value domain.Config) error
}
