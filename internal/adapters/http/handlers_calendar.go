package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"trainerdesk/internal/application/calendarview"
	"trainerdesk/internal/application/notify"
	"trainerdesk/internal/application/projections"
	"trainerdesk/internal/domain/agenda"
	"trainerdesk/internal/domain/timegrid"
	"trainerdesk/internal/domain/workinghours"
)

// notificationKeyExternal groups banner notifications so a reload refreshes
// the existing one instead of stacking duplicates.
const notificationKeyExternal = "external_calendar"

// loadAgenda is the calendar view's Loader.
func loadAgenda(ctx context.Context, q projections.GetAgendaQuery) (projections.AgendaResult, error) {
	return projections.QueryGetAgenda(ctx, q, projections.GetAgendaDeps{
		SessionStore:    stores.SessionStore,
		ConnectionStore: stores.ConnectionStore,
		Calendar:        calendarSource,
		Metrics:         agendaMetrics,
		Location:        displayLoc,
		SessionLimit:    sessionLimit,
	})
}

// agendaParams are the query parameters shared by the page and the JSON API.
type agendaParams struct {
	Anchor time.Time
	Filter agenda.Filter
}

// parseAgendaParams reads week=YYYY-MM-DD, internal=0|1 and external=0|1.
// A missing week means the current week; missing toggles mean visible.
func parseAgendaParams(r *http.Request, current time.Time) (agendaParams, bool) {
	q := r.URL.Query()
	p := agendaParams{Anchor: current, Filter: agenda.ShowAll()}
	if v := q.Get("week"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, displayLoc)
		if err != nil {
			return p, false
		}
		p.Anchor = d
	}
	var ok bool
	if p.Filter.ShowInternal, ok = parseToggle(q.Get("internal")); !ok {
		return p, false
	}
	if p.Filter.ShowExternal, ok = parseToggle(q.Get("external")); !ok {
		return p, false
	}
	return p, true
}

func parseToggle(v string) (bool, bool) {
	switch v {
	case "", "1", "true":
		return true, true
	case "0", "false":
		return false, true
	}
	return false, false
}

func toggleValue(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// calendarPage is the data for calendar.html.
type calendarPage struct {
	View          string // grid or list
	State         calendarview.State
	Grid          calendarview.WeekGrid
	List          calendarview.ListView
	Result        projections.AgendaResult
	Notifications []notify.Notification
	Filter        agenda.Filter
	WeekKey       string
	Internal      string
	External      string
	Gen           uint64
}

// handleCalendarPage renders the week grid and list for GET /calendar.
// ?nav=prev|next|today moves relative to ?week.
func handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := trainerID(r)
	current := now()

	params, ok := parseAgendaParams(r, current)
	if !ok {
		http.Error(w, "invalid week or filter", http.StatusBadRequest)
		return
	}
	mode := r.URL.Query().Get("view")
	if mode != "list" {
		mode = "grid"
	}

	view := calendarview.NewView(id, params.Anchor, params.Filter, loadAgenda,
		calendarview.WithClock(now),
		calendarview.WithMetrics(agendaMetrics),
	)
	var load calendarview.Load
	switch dir := calendarview.Direction(r.URL.Query().Get("nav")); dir {
	case calendarview.NavPrev, calendarview.NavNext, calendarview.NavToday:
		load = view.Navigate(dir)
	case "":
		load = view.Refresh()
	default:
		http.Error(w, "invalid nav", http.StatusBadRequest)
		return
	}
	view.Run(ctx, load)
	snap := view.Snapshot()

	svc := notifierFor(r)
	page := calendarPage{
		View:     mode,
		State:    snap.State,
		Result:   snap.Result,
		Filter:   snap.Filter,
		WeekKey:  timegrid.DayKey(timegrid.WeekStart(snap.Anchor)),
		Internal: toggleValue(snap.Filter.ShowInternal),
		External: toggleValue(snap.Filter.ShowExternal),
		Gen:      snap.Gen,
	}

	if snap.State == calendarview.StateError {
		page.Notifications = svc.List(id)
		renderTemplate(w, r, http.StatusInternalServerError, "calendar.html", page)
		return
	}

	if snap.Result.Banner != "" {
		if _, err := svc.Create(id, notify.LevelWarning, notificationKeyExternal, snap.Result.Banner); err != nil {
			internalError(w, err)
			return
		}
	}
	page.Notifications = svc.List(id)

	cfg := projections.QueryGetWorkingHours(ctx, id, projections.GetWorkingHoursDeps{
		WorkingHoursStore: stores.WorkingHoursStore,
	})
	page.Grid = calendarview.BuildWeekGrid(snap.Result, workinghours.NewMask(cfg), geometry, current, viewportHeight)
	page.List = calendarview.BuildListView(snap.Result, current)

	renderTemplate(w, r, http.StatusOK, "calendar.html", page)
}

// agendaItemJSON is one agenda item in the JSON API.
type agendaItemJSON struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Notes    string `json:"notes,omitempty"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Link     string `json:"link,omitempty"`
	AllDay   bool   `json:"all_day"`
	Inverted bool   `json:"inverted,omitempty"`
}

type dayGroupJSON struct {
	Date    string   `json:"date"`
	Label   string   `json:"label"`
	ItemIDs []string `json:"item_ids"`
}

type agendaJSON struct {
	Gen               uint64           `json:"gen"`
	WeekStart         string           `json:"week_start"`
	Days              []string         `json:"days"`
	Items             []agendaItemJSON `json:"items"`
	Groups            []dayGroupJSON   `json:"groups"`
	Banner            string           `json:"banner,omitempty"`
	ReconnectRequired bool             `json:"reconnect_required"`
	ExternalConnected bool             `json:"external_connected"`
	InternalCount     int              `json:"internal_count"`
	ExternalCount     int              `json:"external_count"`
}

// handleAgendaAPI serves GET /api/agenda. The caller's gen is echoed so a
// client holding a newer generation can discard this response.
func handleAgendaAPI(w http.ResponseWriter, r *http.Request) {
	current := now()
	params, ok := parseAgendaParams(r, current)
	if !ok {
		http.Error(w, "invalid week or filter", http.StatusBadRequest)
		return
	}
	var gen uint64
	if v := r.URL.Query().Get("gen"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid gen", http.StatusBadRequest)
			return
		}
		gen = n
	}

	res, err := loadAgenda(r.Context(), projections.GetAgendaQuery{
		TrainerID:    trainerID(r),
		Anchor:       params.Anchor,
		Now:          current,
		ShowInternal: params.Filter.ShowInternal,
		ShowExternal: params.Filter.ShowExternal,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAgendaJSON(gen, res, current))
}

func toAgendaJSON(gen uint64, res projections.AgendaResult, current time.Time) agendaJSON {
	out := agendaJSON{
		Gen:               gen,
		WeekStart:         timegrid.DayKey(res.WeekStart),
		Items:             make([]agendaItemJSON, 0, len(res.Items)),
		Groups:            make([]dayGroupJSON, 0, len(res.Groups)),
		Banner:            res.Banner,
		ReconnectRequired: res.ReconnectRequired,
		ExternalConnected: res.ExternalConnected,
		InternalCount:     res.InternalCount,
		ExternalCount:     res.ExternalCount,
	}
	for _, d := range res.Days {
		out.Days = append(out.Days, timegrid.DayKey(d))
	}
	for _, it := range res.Items {
		j := agendaItemJSON{
			ID:       it.ID,
			Kind:     string(it.Kind),
			Title:    it.Title,
			Subtitle: it.Subtitle,
			Notes:    it.Notes,
			Start:    it.Start.Format(time.RFC3339),
			End:      it.End.Format(time.RFC3339),
			Link:     it.Link,
			AllDay:   it.AllDay,
			Inverted: it.Inverted,
		}
		out.Items = append(out.Items, j)
	}
	for _, g := range res.Groups {
		dg := dayGroupJSON{Date: g.Key, Label: calendarview.DayLabel(g.Date, current), ItemIDs: make([]string, 0, len(g.Items))}
		for _, it := range g.Items {
			dg.ItemIDs = append(dg.ItemIDs, it.ID)
		}
		out.Groups = append(out.Groups, dg)
	}
	return out
}

// cssPx formats a pixel length for inline styles.
func cssPx(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

func jsNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
