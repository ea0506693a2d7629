package calendar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"trainerdesk/internal/domain/agenda"
	"trainerdesk/internal/domain/connection"
)

// Defaults for ICS feeds.
const (
	DefaultICSHorizon      = 60 * 24 * time.Hour
	maxICSBodyBytes        = 10 << 20
	maxOccurrencesPerEvent = 500
	icsDateLayout          = "20060102"
	icsDateTimeLayout      = "20060102T150405"
	icsDateTimeUTCLayout   = "20060102T150405Z"
)

// ICSProvider reads an ICS subscription URL and expands recurring events
// over [from, from+horizon].
type ICSProvider struct {
	client  *http.Client
	horizon time.Duration
	loc     *time.Location
}

// NewICSProvider creates an ICS feed adapter. Floating times are read in loc.
func NewICSProvider(client *http.Client, horizon time.Duration, loc *time.Location) *ICSProvider {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if horizon <= 0 {
		horizon = DefaultICSHorizon
	}
	if loc == nil {
		loc = time.Local
	}
	return &ICSProvider{client: client, horizon: horizon, loc: loc}
}

// Upcoming fetches the feed and returns events ending at or after from.
// PRE: conn.Provider == ics and conn.FeedURL is http(s)
// POST: 401/403 map to ErrReconnectRequired; recurring events yield one event per occurrence
func (p *ICSProvider) Upcoming(ctx context.Context, conn connection.Connection, from time.Time) ([]agenda.ExternalEvent, error) {
	body, err := p.fetch(ctx, conn)
	if err != nil {
		return nil, err
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ics parse: %w", err)
	}

	parsed := make([]icsEvent, 0)
	for _, ve := range cal.Events() {
		ev, err := p.parseVEvent(ve)
		if err != nil {
			slog.Warn("ics_event_skipped", "error", err)
			continue
		}
		parsed = append(parsed, ev)
	}
	return expandICS(parsed, from, from.Add(p.horizon)), nil
}

func (p *ICSProvider) fetch(ctx context.Context, conn connection.Connection) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, conn.FeedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ics request: %w", err)
	}
	req.Header.Set("Accept", "text/calendar")
	if conn.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+conn.AccessToken)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ics fetch: %w", err)
	}
	defer resp.Body.Close()

	if isAuthStatus(resp.StatusCode) {
		return nil, fmt.Errorf("ics feed returned %d: %w", resp.StatusCode, ErrReconnectRequired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ics feed returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxICSBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("ics read: %w", err)
	}
	if len(body) == 0 {
		return nil, errors.New("ics feed returned an empty body")
	}
	return body, nil
}

// icsEvent is one VEVENT before recurrence expansion.
type icsEvent struct {
	uid, summary, description, location string

	start, end time.Time
	allDay     bool

	rrule      string
	exdates    []time.Time
	recurrence *time.Time // RECURRENCE-ID of an overridden instance
}

func (p *ICSProvider) parseVEvent(ve *ical.VEvent) (icsEvent, error) {
	var ev icsEvent
	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return ev, errors.New("VEVENT missing UID")
	}
	ev.uid = uid.Value
	if prop := ve.GetProperty(ical.ComponentPropertySummary); prop != nil {
		ev.summary = prop.Value
	}
	if prop := ve.GetProperty(ical.ComponentPropertyDescription); prop != nil {
		ev.description = prop.Value
	}
	if prop := ve.GetProperty(ical.ComponentPropertyLocation); prop != nil {
		ev.location = prop.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return ev, fmt.Errorf("VEVENT %s missing DTSTART", ev.uid)
	}
	ev.allDay = !strings.Contains(dtStart.Value, "T")

	var err error
	ev.start, err = p.propTime(dtStart)
	if err != nil {
		return ev, fmt.Errorf("VEVENT %s DTSTART: %w", ev.uid, err)
	}
	if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
		ev.end, err = p.propTime(dtEnd)
		if err != nil {
			return ev, fmt.Errorf("VEVENT %s DTEND: %w", ev.uid, err)
		}
	} else if ev.allDay {
		ev.end = ev.start.AddDate(0, 0, 1)
	} else {
		ev.end = ev.start
	}

	if prop := ve.GetProperty(ical.ComponentPropertyRrule); prop != nil {
		ev.rrule = prop.Value
	}
	for _, prop := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(prop.Value, ",") {
			if t, err := p.parseICSTime(strings.TrimSpace(part), tzidOf(prop)); err == nil {
				ev.exdates = append(ev.exdates, t)
			}
		}
	}
	if prop := ve.GetProperty("RECURRENCE-ID"); prop != nil {
		if t, err := p.parseICSTime(prop.Value, tzidOf(prop)); err == nil {
			ev.recurrence = &t
		}
	}
	return ev, nil
}

func (p *ICSProvider) propTime(prop *ical.IANAProperty) (time.Time, error) {
	return p.parseICSTime(prop.Value, tzidOf(prop))
}

func tzidOf(prop *ical.IANAProperty) string {
	if prop.ICalParameters == nil {
		return ""
	}
	if v, ok := prop.ICalParameters["TZID"]; ok && len(v) > 0 {
		return v[0]
	}
	return ""
}

// parseICSTime reads DATE, floating DATE-TIME, TZID DATE-TIME and UTC forms.
func (p *ICSProvider) parseICSTime(v, tzid string) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse(icsDateTimeUTCLayout, v)
	case strings.Contains(v, "T"):
		loc := p.loc
		if tzid != "" {
			if l, err := time.LoadLocation(tzid); err == nil {
				loc = l
			}
		}
		return time.ParseInLocation(icsDateTimeLayout, v, loc)
	default:
		return time.ParseInLocation(icsDateLayout, v, p.loc)
	}
}

// expandICS turns parsed VEVENTs into provider-neutral events overlapping
// [rangeStart, rangeEnd]. Occurrences of recurring events get the id
// UID@<RFC 3339 start>; overridden instances replace their original slot.
func expandICS(events []icsEvent, rangeStart, rangeEnd time.Time) []agenda.ExternalEvent {
	overridden := make(map[string]bool)
	for _, ev := range events {
		if ev.recurrence != nil {
			overridden[occurrenceID(ev.uid, *ev.recurrence)] = true
		}
	}

	out := make([]agenda.ExternalEvent, 0, len(events))
	for _, ev := range events {
		switch {
		case ev.recurrence != nil:
			if overlaps(ev.start, ev.end, rangeStart, rangeEnd) {
				out = append(out, ev.toExternal(occurrenceID(ev.uid, *ev.recurrence), ev.start, ev.end))
			}
		case ev.rrule == "":
			if overlaps(ev.start, ev.end, rangeStart, rangeEnd) {
				out = append(out, ev.toExternal(ev.uid, ev.start, ev.end))
			}
		default:
			out = append(out, expandRecurring(ev, overridden, rangeStart, rangeEnd)...)
		}
	}
	return out
}

func expandRecurring(ev icsEvent, overridden map[string]bool, rangeStart, rangeEnd time.Time) []agenda.ExternalEvent {
	rule, err := rrule.StrToRRule(ev.rrule)
	if err != nil {
		slog.Warn("ics_rrule_invalid", "uid", ev.uid, "rrule", ev.rrule, "error", err)
		return nil
	}
	rule.DTStart(ev.start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range ev.exdates {
		set.ExDate(ex.In(ev.start.Location()))
	}

	dur := ev.end.Sub(ev.start)
	// Widen the window by one duration so an occurrence that started before
	// rangeStart but is still running is included.
	starts := set.Between(rangeStart.Add(-dur).In(ev.start.Location()), rangeEnd.In(ev.start.Location()), true)
	if len(starts) > maxOccurrencesPerEvent {
		slog.Warn("ics_occurrences_truncated", "uid", ev.uid, "count", len(starts))
		starts = starts[:maxOccurrencesPerEvent]
	}

	out := make([]agenda.ExternalEvent, 0, len(starts))
	for _, s := range starts {
		id := occurrenceID(ev.uid, s)
		if overridden[id] {
			continue
		}
		e := s.Add(dur)
		if !overlaps(s, e, rangeStart, rangeEnd) {
			continue
		}
		out = append(out, ev.toExternal(id, s, e))
	}
	return out
}

func (ev icsEvent) toExternal(id string, start, end time.Time) agenda.ExternalEvent {
	out := agenda.ExternalEvent{
		ID:          id,
		Summary:     ev.summary,
		Description: ev.description,
		Location:    ev.location,
	}
	if ev.allDay {
		out.Start = agenda.EventTime{Date: start.Format("2006-01-02")}
		out.End = agenda.EventTime{Date: end.Format("2006-01-02")}
	} else {
		out.Start = agenda.EventTime{DateTime: start.Format(time.RFC3339)}
		out.End = agenda.EventTime{DateTime: end.Format(time.RFC3339)}
	}
	return out
}

func occurrenceID(uid string, start time.Time) string {
	return uid + "@" + start.UTC().Format(time.RFC3339)
}

// overlaps reports whether [s, e] touches [rs, re]. Zero-length events at
// rangeStart count as upcoming.
func overlaps(s, e, rs, re time.Time) bool {
	if e.Before(s) {
		e = s
	}
	return !e.Before(rs) && !s.After(re)
}
