package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"trainerdesk/internal/domain/connection"
)

// ConnectionStoreForOrchestrator defines the store interface needed by calendar connection orchestrators.
type ConnectionStoreForOrchestrator interface {
	Save(ctx context.Context, c connection.Connection) error
	Delete(ctx context.Context, trainerID string) error
}

// ConnectCalendarInput carries input for the connect calendar orchestrator.
type ConnectCalendarInput struct {
	TrainerID   string
	Provider    string
	AccessToken string
	FeedURL     string
}

// ConnectCalendarDeps holds dependencies for the calendar connection orchestrators.
type ConnectCalendarDeps struct {
	ConnectionStore ConnectionStoreForOrchestrator
	Now             func() time.Time
}

// ExecuteConnectCalendar stores (or replaces) the trainer's external calendar connection.
// PRE: input.TrainerID is the authenticated trainer
// POST: one connection per trainer; the previous one, if any, is overwritten
func ExecuteConnectCalendar(ctx context.Context, input ConnectCalendarInput, deps ConnectCalendarDeps) (connection.Connection, error) {
	c := connection.Connection{
		TrainerID:   input.TrainerID,
		Provider:    strings.ToLower(strings.TrimSpace(input.Provider)),
		AccessToken: strings.TrimSpace(input.AccessToken),
		FeedURL:     strings.TrimSpace(input.FeedURL),
		ConnectedAt: deps.Now(),
	}
	if c.Provider == connection.ProviderGoogle {
		c.FeedURL = ""
	}
	if err := c.Validate(); err != nil {
		return connection.Connection{}, err
	}
	if err := deps.ConnectionStore.Save(ctx, c); err != nil {
		return connection.Connection{}, err
	}

	slog.Info("calendar_event", "event", "calendar_connected", "trainer_id", c.TrainerID, "provider", c.Provider)
	return c, nil
}

// ExecuteDisconnectCalendar removes the trainer's external calendar connection.
// PRE: trainerID is the authenticated trainer
// POST: no connection remains; removing a missing connection is not an error
func ExecuteDisconnectCalendar(ctx context.Context, trainerID string, deps ConnectCalendarDeps) error {
	if strings.TrimSpace(trainerID) == "" {
		return connection.ErrEmptyTrainerID
	}
	if err := deps.ConnectionStore.Delete(ctx, trainerID); err != nil {
		return err
	}
	slog.Info("calendar_event", "event", "calendar_disconnected", "trainer_id", trainerID)
	return nil
}
