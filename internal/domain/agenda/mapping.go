package agenda

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"trainerdesk/internal/domain/session"
)

// ErrInvalidEventTime is returned when an external event has neither a
// date-time nor a date, or either fails to parse.
var ErrInvalidEventTime = errors.New("external event time is missing or malformed")

// EventTime mirrors the provider's {dateTime | date} pair. All-day events
// carry only Date.
type EventTime struct {
	DateTime string // RFC 3339
	Date     string // YYYY-MM-DD
}

// ExternalEvent is the provider-neutral shape of an upcoming calendar event.
type ExternalEvent struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Start       EventTime
	End         EventTime
}

// ProgramLink returns the deep link for a program page.
func ProgramLink(programID string) string {
	return "/programs/" + programID
}

// FromBooked maps a joined session row to an internal Item.
// PRE: none
// POST: Returns an Item with Kind internal and a program Link, or the row's validation error
func FromBooked(b session.Booked) (Item, error) {
	if err := b.Validate(); err != nil {
		return Item{}, fmt.Errorf("session %q: %w", b.ID, err)
	}
	title := b.ClientFullName
	if dog := strings.TrimSpace(b.PrimaryDogName); dog != "" {
		title = title + " & " + dog
	}
	it := Item{
		ID:       b.ID,
		Kind:     KindInternal,
		Title:    title,
		Subtitle: b.ProgramName,
		Notes:    b.Notes,
		Start:    b.SessionDate,
		End:      b.SessionDate.Add(b.Duration()),
		Link:     ProgramLink(b.ProgramID),
	}
	return it, nil
}

// FromExternal maps a provider event to an external Item, reading date-only
// values as local midnight in loc. An end before the start is clamped and
// the Item marked Inverted rather than rejected.
// PRE: loc is the display location
// POST: Returns an Item with Kind external and no Link, or ErrInvalidEventTime
func FromExternal(ev ExternalEvent, loc *time.Location) (Item, error) {
	if strings.TrimSpace(ev.ID) == "" {
		return Item{}, ErrEmptyID
	}
	if loc == nil {
		loc = time.Local
	}
	start, allDay, err := parseEventTime(ev.Start, loc)
	if err != nil {
		return Item{}, fmt.Errorf("event %q start: %w", ev.ID, err)
	}
	end, _, err := parseEventTime(ev.End, loc)
	if err != nil {
		if ev.End != (EventTime{}) {
			return Item{}, fmt.Errorf("event %q end: %w", ev.ID, err)
		}
		end = start
		if allDay {
			end = start.AddDate(0, 0, 1)
		}
	}
	title := strings.TrimSpace(ev.Summary)
	if title == "" {
		title = "(no title)"
	}
	it := Item{
		ID:       ev.ID,
		Kind:     KindExternal,
		Title:    title,
		Subtitle: ev.Location,
		Notes:    ev.Description,
		Start:    start,
		End:      end,
		AllDay:   allDay,
	}
	it.clampEnd()
	return it, nil
}

func parseEventTime(et EventTime, loc *time.Location) (time.Time, bool, error) {
	if et.DateTime != "" {
		t, err := time.Parse(time.RFC3339, et.DateTime)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%w: %v", ErrInvalidEventTime, err)
		}
		return t.In(loc), false, nil
	}
	if et.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", et.Date, loc)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%w: %v", ErrInvalidEventTime, err)
		}
		return t, true, nil
	}
	return time.Time{}, false, ErrInvalidEventTime
}
