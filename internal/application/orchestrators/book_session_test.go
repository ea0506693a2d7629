package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"trainerdesk/internal/domain/program"
	"trainerdesk/internal/domain/session"
)

var fixedTime = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedID() string { return "test-id-001" }

var nzdt = time.FixedZone("NZDT", 13*3600)

// mockProgramStoreForBooking implements ProgramStoreForBooking for testing.
type mockProgramStoreForBooking struct {
	programs map[string]program.Program
}

// GetByID implements ProgramStoreForBooking.
// PRE: id is non-empty
// POST: returns program or error
func (m *mockProgramStoreForBooking) GetByID(_ context.Context, id string) (program.Program, error) {
	p, ok := m.programs[id]
	if !ok {
		return program.Program{}, errors.New("not found")
	}
	return p, nil
}

// mockSessionStore implements SessionStoreForBooking and SessionStoreForSeed for testing.
type mockSessionStore struct {
	saved []session.Session
	err   error
}

// Save implements SessionStoreForBooking.
func (m *mockSessionStore) Save(_ context.Context, s session.Session) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, s)
	return nil
}

func bookingDeps(sessions *mockSessionStore) BookSessionDeps {
	return BookSessionDeps{
		ProgramStore: &mockProgramStoreForBooking{programs: map[string]program.Program{
			"p-active": {ID: "p-active", TrainerID: "t1", ClientID: "c1", Name: "Puppy", Status: program.StatusActive},
			"p-paused": {ID: "p-paused", TrainerID: "t1", ClientID: "c1", Name: "Old", Status: program.StatusPaused},
			"p-other":  {ID: "p-other", TrainerID: "t2", ClientID: "c9", Name: "Theirs", Status: program.StatusActive},
		}},
		SessionStore: sessions,
		GenerateID:   fixedID,
		Now:          fixedNow,
		Location:     nzdt,
	}
}

// TestExecuteBookSession_Valid tests booking from a grid cell.
func TestExecuteBookSession_Valid(t *testing.T) {
	sessions := &mockSessionStore{}
	s, err := ExecuteBookSession(context.Background(), BookSessionInput{
		TrainerID:       "t1",
		ProgramID:       "p-active",
		Date:            "2026-10-21",
		Hour:            14,
		DurationMinutes: 45,
		Notes:           "  bring treats  ",
	}, bookingDeps(sessions))
	if err != nil {
		t.Fatalf("ExecuteBookSession: %v", err)
	}
	want := time.Date(2026, 10, 21, 14, 0, 0, 0, nzdt)
	if !s.SessionDate.Equal(want) {
		t.Errorf("SessionDate = %v, want %v", s.SessionDate, want)
	}
	if s.ID != "test-id-001" || s.Notes != "bring treats" || s.Duration() != 45*time.Minute {
		t.Errorf("session = %+v", s)
	}
	if len(sessions.saved) != 1 {
		t.Errorf("saved = %d, want 1", len(sessions.saved))
	}
}

// TestExecuteBookSession_Rejects tests each rejected input.
func TestExecuteBookSession_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input BookSessionInput
		want  error
	}{
		{"bad date", BookSessionInput{TrainerID: "t1", ProgramID: "p-active", Date: "21/10/2026", Hour: 9}, ErrInvalidBookingDate},
		{"hour too high", BookSessionInput{TrainerID: "t1", ProgramID: "p-active", Date: "2026-10-21", Hour: 24}, ErrInvalidBookingHour},
		{"negative hour", BookSessionInput{TrainerID: "t1", ProgramID: "p-active", Date: "2026-10-21", Hour: -1}, ErrInvalidBookingHour},
		{"other trainer", BookSessionInput{TrainerID: "t1", ProgramID: "p-other", Date: "2026-10-21", Hour: 9}, session.ErrProgramNotOwned},
		{"paused program", BookSessionInput{TrainerID: "t1", ProgramID: "p-paused", Date: "2026-10-21", Hour: 9}, ErrProgramNotBookable},
		{"bad duration", BookSessionInput{TrainerID: "t1", ProgramID: "p-active", Date: "2026-10-21", Hour: 9, DurationMinutes: 2000}, session.ErrInvalidDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &mockSessionStore{}
			_, err := ExecuteBookSession(context.Background(), tt.input, bookingDeps(sessions))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if len(sessions.saved) != 0 {
				t.Error("rejected booking was saved")
			}
		})
	}
}

// TestExecuteBookSession_UnknownProgram tests a missing program surfaces the store error.
func TestExecuteBookSession_UnknownProgram(t *testing.T) {
	_, err := ExecuteBookSession(context.Background(), BookSessionInput{
		TrainerID: "t1", ProgramID: "nope", Date: "2026-10-21", Hour: 9,
	}, bookingDeps(&mockSessionStore{}))
	if err == nil {
		t.Fatal("expected error for unknown program")
	}
}

// TestExecuteBookSession_StoreError tests a failed save is returned.
func TestExecuteBookSession_StoreError(t *testing.T) {
	_, err := ExecuteBookSession(context.Background(), BookSessionInput{
		TrainerID: "t1", ProgramID: "p-active", Date: "2026-10-21", Hour: 9,
	}, bookingDeps(&mockSessionStore{err: errors.New("disk full")}))
	if err == nil || err.Error() != "disk full" {
		t.Errorf("err = %v, want disk full", err)
	}
}
