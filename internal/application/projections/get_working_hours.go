package projections

import (
	"context"
	"errors"
	"log/slog"

	"trainerdesk/internal/domain/workinghours"
)

// WorkingHoursStore defines the store interface needed by this projection.
type WorkingHoursStore interface {
	Get(ctx context.Context, trainerID string) (workinghours.Config, error)
}

// GetWorkingHoursDeps holds dependencies for the projection.
type GetWorkingHoursDeps struct {
	WorkingHoursStore WorkingHoursStore
}

// QueryGetWorkingHours returns the trainer's working hours, or nil when none
// are saved. A read failure is logged and also yields nil, so the grid shows
// every hour as available.
// PRE: trainerID is non-empty
// POST: never returns an error for a missing config
func QueryGetWorkingHours(ctx context.Context, trainerID string, deps GetWorkingHoursDeps) *workinghours.Config {
	if deps.WorkingHoursStore == nil {
		return nil
	}
	cfg, err := deps.WorkingHoursStore.Get(ctx, trainerID)
	if errors.Is(err, workinghours.ErrNotFound) {
		return nil
	}
	if err != nil {
		slog.Warn("working_hours_unavailable", "trainer_id", trainerID, "error", err)
		return nil
	}
	return &cfg
}
