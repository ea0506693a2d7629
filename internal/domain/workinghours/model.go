package workinghours

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Default window offered by the settings form when nothing has been saved.
const (
	DefaultWorkStart = "09:00"
	DefaultWorkEnd   = "17:00"
)

// DefaultWorkDays is Monday to Friday (0 = Sunday).
var DefaultWorkDays = []int{1, 2, 3, 4, 5}

// Domain errors
var (
	ErrNotFound          = errors.New("working hours not configured")
	ErrEmptyTrainerID    = errors.New("trainer ID cannot be empty")
	ErrInvalidDay        = errors.New("work day must be between 0 (Sunday) and 6 (Saturday)")
	ErrDuplicateDay      = errors.New("work day listed more than once")
	ErrInvalidTime       = errors.New("time must be in HH:MM format")
	ErrStartNotBeforeEnd = errors.New("work start must be before work end")
)

// Config is a trainer's weekly availability window.
// Days outside WorkDays are unavailable at every hour.
type Config struct {
	TrainerID string
	WorkDays  []int  // weekday indices, 0 = Sunday
	WorkStart string // HH:MM, inclusive
	WorkEnd   string // HH:MM, exclusive
	UpdatedAt time.Time
}

// Validate checks if the Config has valid data.
// PRE: Config struct is populated
// POST: Returns nil if valid, error otherwise
// INVARIANT: WorkStart < WorkEnd
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TrainerID) == "" {
		return ErrEmptyTrainerID
	}
	seen := make(map[int]bool, len(c.WorkDays))
	for _, d := range c.WorkDays {
		if d < 0 || d > 6 {
			return ErrInvalidDay
		}
		if seen[d] {
			return ErrDuplicateDay
		}
		seen[d] = true
	}
	start, err := ParseClock(c.WorkStart)
	if err != nil {
		return err
	}
	end, err := ParseClock(c.WorkEnd)
	if err != nil {
		return err
	}
	if start >= end {
		return ErrStartNotBeforeEnd
	}
	return nil
}

// StartHour returns WorkStart as fractional hours.
func (c *Config) StartHour() (float64, error) {
	return ParseClock(c.WorkStart)
}

// EndHour returns WorkEnd as fractional hours.
func (c *Config) EndHour() (float64, error) {
	return ParseClock(c.WorkEnd)
}

// HasDay reports whether day is a work day.
func (c *Config) HasDay(day int) bool {
	for _, d := range c.WorkDays {
		if d == day {
			return true
		}
	}
	return false
}

// ParseClock converts "HH:MM" to fractional hours. "24:00" is accepted as end of day.
// PRE: none
// POST: Returns hours in [0, 24] or ErrInvalidTime
func ParseClock(s string) (float64, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidTime)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || len(hh) == 0 || len(hh) > 2 {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidTime)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidTime)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidTime)
	}
	return float64(h) + float64(m)/60, nil
}
