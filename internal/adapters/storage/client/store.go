package client

import (
	"context"

	domain "trainerdesk/internal/domain/client"
)

// Store persists Client state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Client, error)
	Save(ctx context.Context, value domain.Client) error
	ListByTrainer(ctx context.Context, trainerID string) ([]domain.Client, error)
}
