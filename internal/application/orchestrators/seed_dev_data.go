package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trainerdesk/internal/domain/client"
	"trainerdesk/internal/domain/program"
	"trainerdesk/internal/domain/session"
	"trainerdesk/internal/domain/timegrid"
)

// ClientStoreForSeed defines the store interface needed by SeedDevData.
type ClientStoreForSeed interface {
	Save(ctx context.Context, c client.Client) error
}

// ProgramStoreForSeed defines the store interface needed by SeedDevData.
type ProgramStoreForSeed interface {
	Save(ctx context.Context, p program.Program) error
	ListByTrainer(ctx context.Context, trainerID string) ([]program.Program, error)
}

// SessionStoreForSeed defines the store interface needed by SeedDevData.
type SessionStoreForSeed interface {
	Save(ctx context.Context, s session.Session) error
}

// SeedDevDataDeps holds dependencies for SeedDevData.
type SeedDevDataDeps struct {
	ClientStore  ClientStoreForSeed
	ProgramStore ProgramStoreForSeed
	SessionStore SessionStoreForSeed
	Now          func() time.Time
	Location     *time.Location
}

type seedClient struct {
	name, dog, program string
	// sessions as (weekday, hour, minutes)
	slots [][3]int
}

var devClients = []seedClient{
	{name: "Sam Carter", dog: "Biscuit", program: "Puppy foundations", slots: [][3]int{{1, 10, 60}, {3, 14, 45}}},
	{name: "Aroha Ngata", dog: "Miro", program: "Reactivity rehab", slots: [][3]int{{2, 16, 90}, {4, 9, 0}}},
	{name: "Priya Shah", dog: "", program: "Loose-lead walking", slots: [][3]int{{5, 11, 60}}},
}

// ExecuteSeedDevData creates demo clients, programs and sessions for the
// current week when the trainer has no programs yet.
// PRE: only called outside production
// POST: idempotent; does nothing once the trainer has a program
func ExecuteSeedDevData(ctx context.Context, trainerID string, deps SeedDevDataDeps) error {
	existing, err := deps.ProgramStore.ListByTrainer(ctx, trainerID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil // Already seeded
	}

	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	now := deps.Now().In(loc)
	weekStart := timegrid.WeekStart(now)

	created := 0
	for _, sc := range devClients {
		c := client.Client{
			ID:             uuid.New().String(),
			TrainerID:      trainerID,
			FullName:       sc.name,
			PrimaryDogName: sc.dog,
			CreatedAt:      now,
		}
		if err := deps.ClientStore.Save(ctx, c); err != nil {
			return err
		}
		p := program.Program{
			ID:        uuid.New().String(),
			TrainerID: trainerID,
			ClientID:  c.ID,
			Name:      sc.program,
			Status:    program.StatusActive,
			CreatedAt: now,
		}
		if err := deps.ProgramStore.Save(ctx, p); err != nil {
			return err
		}
		for _, slot := range sc.slots {
			day := weekStart.AddDate(0, 0, slot[0])
			s := session.Session{
				ID:              uuid.New().String(),
				ProgramID:       p.ID,
				SessionDate:     time.Date(day.Year(), day.Month(), day.Day(), slot[1], 0, 0, 0, loc),
				DurationMinutes: slot[2],
				CreatedAt:       now,
			}
			if err := deps.SessionStore.Save(ctx, s); err != nil {
				return err
			}
			created++
		}
	}

	slog.Info("seed_event", "event", "dev_data_seeded", "trainer_id", trainerID, "clients", len(devClients), "sessions", created)
	return nil
}
