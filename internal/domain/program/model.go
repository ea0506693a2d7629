package program

import (
	"errors"
	"strings"
	"time"
)

// Program status constants
const (
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
)

// ValidStatuses contains all valid program statuses.
var ValidStatuses = []string{StatusActive, StatusPaused, StatusCompleted}

// Domain errors
var (
	ErrEmptyName      = errors.New("program name cannot be empty")
	ErrEmptyClientID  = errors.New("program must belong to a client")
	ErrEmptyTrainerID = errors.New("trainer ID cannot be empty")
	ErrInvalidStatus  = errors.New("program status must be 'active', 'paused' or 'completed'")
)

// Program is a training plan for one client's dog, made up of sessions.
type Program struct {
	ID        string
	TrainerID string
	ClientID  string
	Name      string
	Status    string
	CreatedAt time.Time
}

// Validate checks if the Program has valid data.
// PRE: Program struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Program) Validate() error {
	if strings.TrimSpace(p.TrainerID) == "" {
		return ErrEmptyTrainerID
	}
	if strings.TrimSpace(p.ClientID) == "" {
		return ErrEmptyClientID
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if !isValidStatus(p.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// Bookable reports whether new sessions may be added to the program.
func (p *Program) Bookable() bool {
	return p.Status == StatusActive
}

func isValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}
