package session

import (
	"errors"
	"strings"
	"time"
)

// DefaultDuration applies to sessions stored without an explicit duration.
const DefaultDuration = time.Hour

// MaxDurationMinutes bounds a single session to one day.
const MaxDurationMinutes = 24 * 60

// Domain errors
var (
	ErrEmptyProgramID  = errors.New("program ID cannot be empty")
	ErrMissingDate     = errors.New("session date is required")
	ErrInvalidDuration = errors.New("duration must be between 0 and 1440 minutes")
	ErrMissingClient   = errors.New("session row has no client name")
	ErrEmptySessionID  = errors.New("session ID cannot be empty")
	ErrProgramNotOwned = errors.New("program does not belong to this trainer")
)

// Session is a booked training session within a program.
type Session struct {
	ID              string
	ProgramID       string
	SessionDate     time.Time
	DurationMinutes int // 0 means not recorded
	Notes           string
	CreatedAt       time.Time
}

// Validate checks if the Session has valid data.
// PRE: Session struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Session) Validate() error {
	if strings.TrimSpace(s.ProgramID) == "" {
		return ErrEmptyProgramID
	}
	if s.SessionDate.IsZero() {
		return ErrMissingDate
	}
	if s.DurationMinutes < 0 || s.DurationMinutes > MaxDurationMinutes {
		return ErrInvalidDuration
	}
	return nil
}

// Duration returns the recorded duration, or DefaultDuration when none was stored.
func (s *Session) Duration() time.Duration {
	if s.DurationMinutes <= 0 {
		return DefaultDuration
	}
	return time.Duration(s.DurationMinutes) * time.Minute
}

// Booked is a session joined through its program to the client, the shape the
// agenda consumes.
type Booked struct {
	Session
	ProgramName    string
	ClientFullName string
	PrimaryDogName string
}

// Validate checks the joined row is complete enough to display.
// PRE: Booked struct is populated from a joined query
// POST: Returns nil if valid, error otherwise
func (b *Booked) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return ErrEmptySessionID
	}
	if err := b.Session.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(b.ClientFullName) == "" {
		return ErrMissingClient
	}
	return nil
}
