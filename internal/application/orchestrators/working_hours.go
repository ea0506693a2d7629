package orchestrators

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"trainerdesk/internal/domain/workinghours"
)

// WorkingHoursStoreForSave defines the store interface needed by SaveWorkingHours.
type WorkingHoursStoreForSave interface {
	Save(ctx context.Context, cfg workinghours.Config) error
}

// SaveWorkingHoursInput carries input for the save working hours orchestrator.
type SaveWorkingHoursInput struct {
	TrainerID string
	WorkDays  []int
	WorkStart string
	WorkEnd   string
}

// SaveWorkingHoursDeps holds dependencies for SaveWorkingHours.
type SaveWorkingHoursDeps struct {
	WorkingHoursStore WorkingHoursStoreForSave
	Now               func() time.Time
}

// ExecuteSaveWorkingHours validates and stores the trainer's working hours.
// PRE: input.TrainerID is the authenticated trainer
// POST: the stored config has sorted days and WorkStart < WorkEnd
func ExecuteSaveWorkingHours(ctx context.Context, input SaveWorkingHoursInput, deps SaveWorkingHoursDeps) (workinghours.Config, error) {
	days := append([]int(nil), input.WorkDays...)
	sort.Ints(days)

	cfg := workinghours.Config{
		TrainerID: input.TrainerID,
		WorkDays:  days,
		WorkStart: input.WorkStart,
		WorkEnd:   input.WorkEnd,
		UpdatedAt: deps.Now(),
	}
	if err := cfg.Validate(); err != nil {
		return workinghours.Config{}, err
	}
	if err := deps.WorkingHoursStore.Save(ctx, cfg); err != nil {
		return workinghours.Config{}, err
	}

	slog.Info("working_hours_event", "event", "working_hours_saved", "trainer_id", cfg.TrainerID, "work_days", cfg.WorkDays, "work_start", cfg.WorkStart, "work_end", cfg.WorkEnd)
	return cfg, nil
}
