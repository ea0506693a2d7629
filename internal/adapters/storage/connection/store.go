package connection

import (
	"context"

	domain "trainerdesk/internal/domain/connection"
)

// Store persists external calendar connections, one per trainer.
type Store interface {
	// Get returns domain.ErrNotFound when the trainer has not connected a calendar.
	Get(ctx context.Context, trainerID string) (domain.Connection, error)
	Save(ctx context.Context, value domain.Connection) error
	Delete(ctx context.Context, trainerID string) error
}
