package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"trainerdesk/internal/domain/program"
	"trainerdesk/internal/domain/session"
)

// Booking errors
var (
	ErrInvalidBookingDate = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidBookingHour = errors.New("hour must be between 0 and 23")
	ErrProgramNotBookable = errors.New("program is not active")
)

// ProgramStoreForBooking defines the store interface needed by BookSession.
type ProgramStoreForBooking interface {
	GetByID(ctx context.Context, id string) (program.Program, error)
}

// SessionStoreForBooking defines the store interface needed by BookSession.
type SessionStoreForBooking interface {
	Save(ctx context.Context, s session.Session) error
}

// BookSessionInput carries input for the book session orchestrator.
type BookSessionInput struct {
	TrainerID       string
	ProgramID       string
	Date            string // YYYY-MM-DD, from the grid cell
	Hour            int
	DurationMinutes int // 0 stores no duration
	Notes           string
}

// BookSessionDeps holds dependencies for BookSession.
type BookSessionDeps struct {
	ProgramStore ProgramStoreForBooking
	SessionStore SessionStoreForBooking
	GenerateID   func() string
	Now          func() time.Time
	Location     *time.Location
}

// ExecuteBookSession records a session for one of the trainer's programs at
// date + hour:00 in the display location.
// PRE: input.TrainerID is the authenticated trainer
// POST: the session is stored, or an error names the rejected field
// INVARIANT: a trainer can only book into programs they own
func ExecuteBookSession(ctx context.Context, input BookSessionInput, deps BookSessionDeps) (session.Session, error) {
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(input.Date), loc)
	if err != nil {
		return session.Session{}, ErrInvalidBookingDate
	}
	if input.Hour < 0 || input.Hour > 23 {
		return session.Session{}, ErrInvalidBookingHour
	}

	p, err := deps.ProgramStore.GetByID(ctx, input.ProgramID)
	if err != nil {
		return session.Session{}, fmt.Errorf("load program: %w", err)
	}
	if p.TrainerID != input.TrainerID {
		return session.Session{}, session.ErrProgramNotOwned
	}
	if !p.Bookable() {
		return session.Session{}, ErrProgramNotBookable
	}

	s := session.Session{
		ID:              deps.GenerateID(),
		ProgramID:       p.ID,
		SessionDate:     time.Date(day.Year(), day.Month(), day.Day(), input.Hour, 0, 0, 0, loc),
		DurationMinutes: input.DurationMinutes,
		Notes:           strings.TrimSpace(input.Notes),
		CreatedAt:       deps.Now(),
	}
	if err := s.Validate(); err != nil {
		return session.Session{}, err
	}
	if err := deps.SessionStore.Save(ctx, s); err != nil {
		return session.Session{}, err
	}

	slog.Info("session_event", "event", "session_booked", "session_id", s.ID, "program_id", p.ID, "trainer_id", input.TrainerID, "session_date", s.SessionDate)
	return s, nil
}
