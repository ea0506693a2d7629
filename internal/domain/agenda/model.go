package agenda

import (
	"errors"
	"time"
)

// Kind distinguishes booked sessions from events pulled from a personal calendar.
type Kind string

// Item kinds
const (
	KindInternal Kind = "internal"
	KindExternal Kind = "external"
)

// Domain errors
var (
	ErrEmptyID        = errors.New("agenda item ID cannot be empty")
	ErrInvalidKind    = errors.New("agenda item kind must be 'internal' or 'external'")
	ErrMissingStart   = errors.New("agenda item start time is required")
	ErrMissingLink    = errors.New("internal agenda item must link to its program")
	ErrUnexpectedLink = errors.New("external agenda item cannot carry a program link")
)

// Item is one entry of the merged agenda. Items are built per fetch and never
// persisted or mutated after construction.
type Item struct {
	ID       string
	Kind     Kind
	Title    string
	Subtitle string
	Notes    string // markdown
	Start    time.Time
	End      time.Time
	Link     string // program deep link, internal only
	AllDay   bool
	// Inverted is set when the source reported an end before its start;
	// End has been clamped to Start.
	Inverted bool
}

// Validate checks if the Item has valid data.
// PRE: Item struct is populated
// POST: Returns nil if valid, error otherwise
// INVARIANT: End >= Start; Link present iff Kind == KindInternal
func (i *Item) Validate() error {
	if i.ID == "" {
		return ErrEmptyID
	}
	if i.Start.IsZero() {
		return ErrMissingStart
	}
	switch i.Kind {
	case KindInternal:
		if i.Link == "" {
			return ErrMissingLink
		}
	case KindExternal:
		if i.Link != "" {
			return ErrUnexpectedLink
		}
	default:
		return ErrInvalidKind
	}
	return nil
}

// IsInternal reports whether the item is a booked session.
func (i Item) IsInternal() bool {
	return i.Kind == KindInternal
}

// Duration returns End - Start.
func (i Item) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// clampEnd enforces End >= Start, marking the item when it had to.
func (i *Item) clampEnd() {
	if i.End.Before(i.Start) {
		i.End = i.Start
		i.Inverted = true
	}
}

// Filter holds the user's visible-kind toggles.
type Filter struct {
	ShowInternal bool
	ShowExternal bool
}

// ShowAll returns a Filter with both kinds visible.
func ShowAll() Filter {
	return Filter{ShowInternal: true, ShowExternal: true}
}

// Allows reports whether items of kind k are visible.
func (f Filter) Allows(k Kind) bool {
	switch k {
	case KindInternal:
		return f.ShowInternal
	case KindExternal:
		return f.ShowExternal
	}
	return false
}
