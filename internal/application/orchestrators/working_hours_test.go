package orchestrators

import (
	"context"
	"errors"
	"testing"

	"trainerdesk/internal/domain/workinghours"
)

// mockWorkingHoursStore implements WorkingHoursStoreForSave for testing.
type mockWorkingHoursStore struct {
	saved map[string]workinghours.Config
}

// Save implements WorkingHoursStoreForSave.
func (m *mockWorkingHoursStore) Save(_ context.Context, cfg workinghours.Config) error {
	m.saved[cfg.TrainerID] = cfg
	return nil
}

// TestExecuteSaveWorkingHours_Valid tests days are sorted and the config stored.
func TestExecuteSaveWorkingHours_Valid(t *testing.T) {
	store := &mockWorkingHoursStore{saved: map[string]workinghours.Config{}}
	cfg, err := ExecuteSaveWorkingHours(context.Background(), SaveWorkingHoursInput{
		TrainerID: "t1",
		WorkDays:  []int{5, 1, 3},
		WorkStart: "08:30",
		WorkEnd:   "16:00",
	}, SaveWorkingHoursDeps{WorkingHoursStore: store, Now: fixedNow})
	if err != nil {
		t.Fatalf("ExecuteSaveWorkingHours: %v", err)
	}
	if got := cfg.WorkDays; len(got) != 3 || got[0] != 1 || got[2] != 5 {
		t.Errorf("WorkDays = %v, want [1 3 5]", got)
	}
	if !cfg.UpdatedAt.Equal(fixedTime) {
		t.Errorf("UpdatedAt = %v", cfg.UpdatedAt)
	}
	if _, ok := store.saved["t1"]; !ok {
		t.Error("config not saved")
	}
}

// TestExecuteSaveWorkingHours_Invalid tests validation errors are returned unsaved.
func TestExecuteSaveWorkingHours_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input SaveWorkingHoursInput
		want  error
	}{
		{"start after end", SaveWorkingHoursInput{TrainerID: "t1", WorkDays: []int{1}, WorkStart: "17:00", WorkEnd: "09:00"}, workinghours.ErrStartNotBeforeEnd},
		{"equal bounds", SaveWorkingHoursInput{TrainerID: "t1", WorkDays: []int{1}, WorkStart: "09:00", WorkEnd: "09:00"}, workinghours.ErrStartNotBeforeEnd},
		{"day out of range", SaveWorkingHoursInput{TrainerID: "t1", WorkDays: []int{7}, WorkStart: "09:00", WorkEnd: "17:00"}, workinghours.ErrInvalidDay},
		{"duplicate day", SaveWorkingHoursInput{TrainerID: "t1", WorkDays: []int{2, 2}, WorkStart: "09:00", WorkEnd: "17:00"}, workinghours.ErrDuplicateDay},
		{"bad clock", SaveWorkingHoursInput{TrainerID: "t1", WorkDays: []int{1}, WorkStart: "9am", WorkEnd: "17:00"}, workinghours.ErrInvalidTime},
		{"no trainer", SaveWorkingHoursInput{WorkDays: []int{1}, WorkStart: "09:00", WorkEnd: "17:00"}, workinghours.ErrEmptyTrainerID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockWorkingHoursStore{saved: map[string]workinghours.Config{}}
			_, err := ExecuteSaveWorkingHours(context.Background(), tt.input, SaveWorkingHoursDeps{WorkingHoursStore: store, Now: fixedNow})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if len(store.saved) != 0 {
				t.Error("invalid config saved")
			}
		})
	}
}
