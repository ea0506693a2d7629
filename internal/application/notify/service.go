package notify

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTTL is how long a notification stays visible when not dismissed.
const DefaultTTL = 15 * time.Minute

// Level is the notification's severity.
type Level string

// Notification levels
const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Errors
var (
	ErrNotFound       = errors.New("notification not found")
	ErrEmptyTrainerID = errors.New("trainer ID cannot be empty")
	ErrEmptyMessage   = errors.New("notification message cannot be empty")
)

// Notification is a dismissible message for one trainer.
type Notification struct {
	ID        uint64
	TrainerID string
	Level     Level
	Key       string // repeated Creates with the same key refresh one notification
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether n is past its expiry at t.
func (n Notification) Expired(t time.Time) bool {
	return !n.ExpiresAt.After(t)
}

// Service owns the live notifications and the counter that numbers them.
// Safe for concurrent use.
type Service struct {
	mu    sync.Mutex
	items map[uint64]Notification
	next  atomic.Uint64
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an empty notification service. A non-positive ttl uses DefaultTTL.
func NewService(ttl time.Duration, opts ...Option) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Service{
		items: make(map[uint64]Notification),
		ttl:   ttl,
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create adds a notification, or refreshes the live one with the same
// trainer and key.
// PRE: trainerID and message are non-empty
// POST: returned ID is greater than every ID issued before it, unless an existing notification was refreshed
func (s *Service) Create(trainerID string, level Level, key, message string) (Notification, error) {
	if strings.TrimSpace(trainerID) == "" {
		return Notification{}, ErrEmptyTrainerID
	}
	if strings.TrimSpace(message) == "" {
		return Notification{}, ErrEmptyMessage
	}
	if level == "" {
		level = LevelInfo
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	if key != "" {
		for id, n := range s.items {
			if n.TrainerID == trainerID && n.Key == key && !n.Expired(now) {
				n.Level = level
				n.Message = message
				n.ExpiresAt = now.Add(s.ttl)
				s.items[id] = n
				return n, nil
			}
		}
	}

	n := Notification{
		ID:        s.next.Add(1),
		TrainerID: trainerID,
		Level:     level,
		Key:       key,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.items[n.ID] = n
	slog.Debug("notification_created", "id", n.ID, "trainer_id", trainerID, "level", level, "key", key)
	return n, nil
}

// Dismiss removes the trainer's notification id.
// PRE: none
// POST: returns ErrNotFound when id is unknown, expired or owned by another trainer
func (s *Service) Dismiss(trainerID string, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[id]
	if !ok || n.TrainerID != trainerID || n.Expired(s.now()) {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// List returns the trainer's live notifications, oldest first.
func (s *Service) List(trainerID string) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var out []Notification
	for _, n := range s.items {
		if n.TrainerID == trainerID && !n.Expired(now) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Sweep deletes expired notifications and returns how many it removed.
func (s *Service) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, n := range s.items {
		if n.Expired(now) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored notifications, expired ones included.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

type ctxKey struct{}

// WithService returns a context carrying s.
func WithService(ctx context.Context, s *Service) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the Service stored by WithService, or nil.
func FromContext(ctx context.Context) *Service {
	s, _ := ctx.Value(ctxKey{}).(*Service)
	return s
}
