package orchestrators

import (
	"context"
	"testing"
	"time"

	"trainerdesk/internal/domain/client"
	"trainerdesk/internal/domain/program"
)

// mockSeedClientStore implements ClientStoreForSeed for testing.
type mockSeedClientStore struct {
	saved []client.Client
}

// Save implements ClientStoreForSeed.
func (m *mockSeedClientStore) Save(_ context.Context, c client.Client) error {
	m.saved = append(m.saved, c)
	return nil
}

// mockSeedProgramStore implements ProgramStoreForSeed for testing.
type mockSeedProgramStore struct {
	saved []program.Program
}

// Save implements ProgramStoreForSeed.
func (m *mockSeedProgramStore) Save(_ context.Context, p program.Program) error {
	m.saved = append(m.saved, p)
	return nil
}

// ListByTrainer implements ProgramStoreForSeed.
func (m *mockSeedProgramStore) ListByTrainer(_ context.Context, trainerID string) ([]program.Program, error) {
	var out []program.Program
	for _, p := range m.saved {
		if p.TrainerID == trainerID {
			out = append(out, p)
		}
	}
	return out, nil
}

// TestExecuteSeedDevData tests demo data lands in the current week and is seeded once.
func TestExecuteSeedDevData(t *testing.T) {
	clients := &mockSeedClientStore{}
	programs := &mockSeedProgramStore{}
	sessions := &mockSessionStore{}
	deps := SeedDevDataDeps{
		ClientStore:  clients,
		ProgramStore: programs,
		SessionStore: sessions,
		Now:          fixedNow,
		Location:     nzdt,
	}

	if err := ExecuteSeedDevData(context.Background(), "dev-trainer", deps); err != nil {
		t.Fatalf("ExecuteSeedDevData: %v", err)
	}
	if len(clients.saved) != 3 || len(programs.saved) != 3 || len(sessions.saved) != 5 {
		t.Fatalf("seeded %d clients, %d programs, %d sessions", len(clients.saved), len(programs.saved), len(sessions.saved))
	}

	// fixedTime is Tuesday 20 October 01:00 NZDT; the week starts Sunday 18th.
	weekStart := time.Date(2026, 10, 18, 0, 0, 0, 0, nzdt)
	weekEnd := weekStart.AddDate(0, 0, 7)
	for _, s := range sessions.saved {
		if s.SessionDate.Before(weekStart) || !s.SessionDate.Before(weekEnd) {
			t.Errorf("session at %v outside the current week", s.SessionDate)
		}
		if err := s.Validate(); err != nil {
			t.Errorf("seeded invalid session: %v", err)
		}
	}
	for _, p := range programs.saved {
		if !p.Bookable() {
			t.Errorf("program %s not bookable", p.Name)
		}
	}

	if err := ExecuteSeedDevData(context.Background(), "dev-trainer", deps); err != nil {
		t.Fatalf("second ExecuteSeedDevData: %v", err)
	}
	if len(programs.saved) != 3 {
		t.Errorf("second run added programs: %d", len(programs.saved))
	}
}
