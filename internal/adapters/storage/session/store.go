package session

import (
	"context"
	"time"

	domain "trainerdesk/internal/domain/session"
)

// DefaultUpcomingLimit caps how many sessions one agenda fetch reads.
const DefaultUpcomingLimit = 100

// Store persists Session state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Session, error)
	Save(ctx context.Context, value domain.Session) error
	Delete(ctx context.Context, id string) error
	ListUpcoming(ctx context.Context, trainerID string, from time.Time, limit int) ([]domain.Booked, error)
}
