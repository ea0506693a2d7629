package projections

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"trainerdesk/internal/adapters/calendar"
	"trainerdesk/internal/domain/agenda"
	"trainerdesk/internal/domain/connection"
	"trainerdesk/internal/domain/session"
	"trainerdesk/internal/domain/timegrid"
	"trainerdesk/internal/observability/metrics"
)

var tracer = otel.Tracer("trainerdesk.internal.application.projections")

// Banner messages shown when the external calendar cannot be read.
const (
	BannerReconnect = "Your external calendar needs to be reconnected. Showing booked sessions only."
	BannerExternal  = "Couldn't load your external calendar. Showing booked sessions only."
)

// DefaultSessionLimit caps internal sessions per agenda build.
const DefaultSessionLimit = 100

// AgendaSessionStore defines the store interface needed by this projection.
type AgendaSessionStore interface {
	ListUpcoming(ctx context.Context, trainerID string, from time.Time, limit int) ([]session.Booked, error)
}

// AgendaConnectionStore defines the store interface needed by this projection.
type AgendaConnectionStore interface {
	Get(ctx context.Context, trainerID string) (connection.Connection, error)
}

// AgendaCalendar reads upcoming events from the trainer's external calendar.
type AgendaCalendar interface {
	Upcoming(ctx context.Context, conn connection.Connection, from time.Time) ([]agenda.ExternalEvent, error)
}

// GetAgendaDeps holds dependencies for the projection.
type GetAgendaDeps struct {
	SessionStore    AgendaSessionStore
	ConnectionStore AgendaConnectionStore
	Calendar        AgendaCalendar
	Metrics         *metrics.AgendaMetrics
	Location        *time.Location // display location; nil means time.Local
	SessionLimit    int
}

// GetAgendaQuery identifies the trainer, the displayed week and the visible kinds.
type GetAgendaQuery struct {
	TrainerID    string
	Anchor       time.Time // any instant inside the displayed week
	Now          time.Time
	ShowInternal bool
	ShowExternal bool
}

// Filter returns the query's kind toggles.
func (q GetAgendaQuery) Filter() agenda.Filter {
	return agenda.Filter{ShowInternal: q.ShowInternal, ShowExternal: q.ShowExternal}
}

// AgendaResult is one merged, filtered and grouped agenda.
type AgendaResult struct {
	WeekStart time.Time
	Days      []time.Time
	Now       time.Time
	Filter    agenda.Filter
	Items     []agenda.Item // filtered, ascending by start
	Groups    []agenda.DayGroup

	// ExternalConnected is true when the trainer has a calendar connection.
	ExternalConnected bool
	// Banner is non-empty when external events could not be read.
	Banner            string
	ReconnectRequired bool

	// Counts before filtering.
	InternalCount int
	ExternalCount int
}

// externalOutcome is what the external goroutine hands back. It never fails
// the group.
type externalOutcome struct {
	items     []agenda.Item
	connected bool
	banner    string
	reconnect bool
}

// QueryGetAgenda builds the trainer's agenda for the week containing Anchor.
// Internal sessions and external events are fetched concurrently, merged,
// de-duplicated, sorted, filtered and grouped by day.
// PRE: q.TrainerID is non-empty
// POST: on success, Items is sorted ascending by Start with unique (ID, Kind)
// POST: an internal fetch failure returns an error and no partial result
// INVARIANT: an external failure never fails the query; it sets Banner
func QueryGetAgenda(ctx context.Context, q GetAgendaQuery, deps GetAgendaDeps) (AgendaResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "agenda.build")
	defer span.End()

	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(loc)
	anchor := q.Anchor
	if anchor.IsZero() {
		anchor = now
	}
	weekStart := timegrid.WeekStart(anchor.In(loc))

	span.SetAttributes(
		attribute.String("trainerdesk.trainer_id", q.TrainerID),
		attribute.String("trainerdesk.week_start", timegrid.DayKey(weekStart)),
		attribute.Bool("trainerdesk.show_internal", q.ShowInternal),
		attribute.Bool("trainerdesk.show_external", q.ShowExternal),
	)

	var internal []agenda.Item
	var ext externalOutcome

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := fetchInternal(gctx, q.TrainerID, weekStart, loc, deps)
		if err != nil {
			return err
		}
		internal = items
		return nil
	})
	g.Go(func() error {
		ext = fetchExternal(gctx, q.TrainerID, now, loc, deps)
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "internal sessions unavailable")
		deps.Metrics.ObserveBuild("error", time.Since(start).Seconds())
		return AgendaResult{}, err
	}

	merged := agenda.Merge(internal, ext.items)
	filter := q.Filter()
	visible := agenda.Apply(merged, filter)

	res := AgendaResult{
		WeekStart:         weekStart,
		Days:              timegrid.WeekDays(weekStart),
		Now:               now,
		Filter:            filter,
		Items:             visible,
		Groups:            agenda.GroupByDay(visible, loc),
		ExternalConnected: ext.connected,
		Banner:            ext.banner,
		ReconnectRequired: ext.reconnect,
	}
	for _, it := range merged {
		if it.IsInternal() {
			res.InternalCount++
		} else {
			res.ExternalCount++
		}
	}

	deps.Metrics.ObserveItems(string(agenda.KindInternal), res.InternalCount)
	deps.Metrics.ObserveItems(string(agenda.KindExternal), res.ExternalCount)
	deps.Metrics.ObserveBuild("ok", time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int("trainerdesk.items.internal", res.InternalCount),
		attribute.Int("trainerdesk.items.external", res.ExternalCount),
	)
	return res, nil
}

func fetchInternal(ctx context.Context, trainerID string, weekStart time.Time, loc *time.Location, deps GetAgendaDeps) ([]agenda.Item, error) {
	limit := deps.SessionLimit
	if limit <= 0 {
		limit = DefaultSessionLimit
	}
	rows, err := deps.SessionStore.ListUpcoming(ctx, trainerID, weekStart, limit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming sessions: %w", err)
	}
	items := make([]agenda.Item, 0, len(rows))
	for _, row := range rows {
		it, err := agenda.FromBooked(row)
		if err != nil {
			slog.Warn("agenda_row_rejected", "session_id", row.ID, "error", err)
			continue
		}
		it.Start = it.Start.In(loc)
		it.End = it.End.In(loc)
		items = append(items, it)
	}
	return items, nil
}

func fetchExternal(ctx context.Context, trainerID string, now time.Time, loc *time.Location, deps GetAgendaDeps) externalOutcome {
	if deps.ConnectionStore == nil || deps.Calendar == nil {
		return externalOutcome{}
	}
	conn, err := deps.ConnectionStore.Get(ctx, trainerID)
	if errors.Is(err, connection.ErrNotFound) {
		deps.Metrics.ObserveExternalFetch("", "not_connected")
		return externalOutcome{}
	}
	if err != nil {
		slog.Error("external_calendar_failed", "trainer_id", trainerID, "stage", "connection", "error", err)
		deps.Metrics.ObserveExternalFetch("", "error")
		return externalOutcome{banner: BannerExternal}
	}

	events, err := deps.Calendar.Upcoming(ctx, conn, now)
	if err != nil {
		out := externalOutcome{connected: true, banner: BannerExternal}
		outcome := "error"
		if errors.Is(err, calendar.ErrReconnectRequired) {
			out.banner = BannerReconnect
			out.reconnect = true
			outcome = "reconnect"
		}
		slog.Warn("external_calendar_failed",
			"trainer_id", trainerID,
			"provider", conn.Provider,
			"reconnect_required", out.reconnect,
			"error", err,
		)
		deps.Metrics.ObserveExternalFetch(conn.Provider, outcome)
		return out
	}
	deps.Metrics.ObserveExternalFetch(conn.Provider, "ok")

	items := make([]agenda.Item, 0, len(events))
	for _, ev := range events {
		it, err := agenda.FromExternal(ev, loc)
		if err != nil {
			slog.Warn("agenda_row_rejected", "event_id", ev.ID, "provider", conn.Provider, "error", err)
			continue
		}
		if it.Inverted {
			slog.Warn("agenda_item_inverted", "event_id", it.ID, "provider", conn.Provider, "start", it.Start)
			deps.Metrics.IncInverted()
		}
		items = append(items, it)
	}
	return externalOutcome{items: items, connected: true}
}
