package calendarview

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"trainerdesk/internal/application/projections"
	"trainerdesk/internal/domain/agenda"
	"trainerdesk/internal/domain/timegrid"
	"trainerdesk/internal/observability/metrics"
)

// State is the lifecycle of the calendar view.
type State string

// View states
const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Direction moves the displayed week.
type Direction string

// Navigation directions
const (
	NavPrev  Direction = "prev"
	NavNext  Direction = "next"
	NavToday Direction = "today"
)

// Loader runs one agenda build.
type Loader func(ctx context.Context, q projections.GetAgendaQuery) (projections.AgendaResult, error)

// Load is a started load: the query to run and the generation it belongs to.
type Load struct {
	Gen   uint64
	Query projections.GetAgendaQuery
}

// Snapshot is a consistent copy of the view's state.
type Snapshot struct {
	State  State
	Gen    uint64
	Anchor time.Time
	Filter agenda.Filter
	Result projections.AgendaResult
	Err    error
}

// View owns the calendar's displayed week, filter and last result. Each
// transition to loading takes a new generation; a completion is applied only
// when its generation is still the latest, so a late result for an older week
// or filter never overwrites a newer one.
type View struct {
	mu        sync.Mutex
	gen       uint64
	state     State
	anchor    time.Time
	filter    agenda.Filter
	result    projections.AgendaResult
	err       error
	trainerID string

	load    Loader
	now     func() time.Time
	metrics *metrics.AgendaMetrics
}

// ViewOption configures a View.
type ViewOption func(*View)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ViewOption {
	return func(v *View) { v.now = now }
}

// WithMetrics records dropped stale results.
func WithMetrics(m *metrics.AgendaMetrics) ViewOption {
	return func(v *View) { v.metrics = m }
}

// NewView creates a view in the loading state for the week containing anchor.
// PRE: load is non-nil
// POST: State() == StateLoading, no load started yet
func NewView(trainerID string, anchor time.Time, filter agenda.Filter, load Loader, opts ...ViewOption) *View {
	v := &View{
		state:     StateLoading,
		anchor:    anchor,
		filter:    filter,
		trainerID: trainerID,
		load:      load,
		now:       time.Now,
	}
	for _, o := range opts {
		o(v)
	}
	if v.anchor.IsZero() {
		v.anchor = v.now()
	}
	return v
}

// Refresh re-runs the load for the current week and filter.
func (v *View) Refresh() Load {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.beginLocked()
}

// Navigate moves one week back, one week forward or to the current week.
func (v *View) Navigate(dir Direction) Load {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch dir {
	case NavPrev:
		v.anchor = timegrid.WeekStart(v.anchor).AddDate(0, 0, -timegrid.DaysPerWeek)
	case NavNext:
		v.anchor = timegrid.WeekStart(v.anchor).AddDate(0, 0, timegrid.DaysPerWeek)
	case NavToday:
		v.anchor = v.now().In(v.anchor.Location())
	}
	return v.beginLocked()
}

// SetFilter changes the visible kinds and reloads.
func (v *View) SetFilter(f agenda.Filter) Load {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = f
	return v.beginLocked()
}

func (v *View) beginLocked() Load {
	v.gen++
	v.state = StateLoading
	return Load{
		Gen: v.gen,
		Query: projections.GetAgendaQuery{
			TrainerID:    v.trainerID,
			Anchor:       v.anchor,
			Now:          v.now(),
			ShowInternal: v.filter.ShowInternal,
			ShowExternal: v.filter.ShowExternal,
		},
	}
}

// Complete applies the outcome of the load tagged gen.
// PRE: gen came from Refresh, Navigate or SetFilter on this view
// POST: returns false and leaves state untouched when a newer load has started
// INVARIANT: an error clears the previous result
func (v *View) Complete(gen uint64, res projections.AgendaResult, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		slog.Info("agenda_stale_result_dropped", "trainer_id", v.trainerID, "gen", gen, "latest", v.gen)
		v.metrics.IncStaleDropped()
		return false
	}
	if err != nil {
		v.state = StateError
		v.err = err
		v.result = projections.AgendaResult{}
		return true
	}
	v.state = StateReady
	v.err = nil
	v.result = res
	return true
}

// Run executes l with the view's loader and applies the outcome.
// Returns whether the outcome was applied.
func (v *View) Run(ctx context.Context, l Load) bool {
	res, err := v.load(ctx, l.Query)
	return v.Complete(l.Gen, res, err)
}

// Latest reports whether gen is the most recent generation.
func (v *View) Latest(gen uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return gen == v.gen
}

// State returns the current state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Snapshot returns a copy of the view's state.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Snapshot{
		State:  v.state,
		Gen:    v.gen,
		Anchor: v.anchor,
		Filter: v.filter,
		Result: v.result,
		Err:    v.err,
	}
}
