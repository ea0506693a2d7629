package timegrid

import (
	"errors"
	"time"
)

// Reference scale used by the week grid.
const (
	DefaultHourHeight = 60.0
	DefaultMinHeight  = 20.0
	HoursPerDay       = 24
	DaysPerWeek       = 7
)

// Domain errors
var (
	ErrInvalidRange      = errors.New("grid range start must be before range end")
	ErrInvalidHourHeight = errors.New("hour height must be positive")
)

// Geometry maps a time of day to a vertical pixel offset within a grid
// spanning [RangeStartHour, RangeEndHour) at HourHeight pixels per hour.
type Geometry struct {
	RangeStartHour float64
	RangeEndHour   float64
	HourHeight     float64
	MinHeight      float64
}

// Default returns the full-day grid at the reference scale.
func Default() Geometry {
	return Geometry{
		RangeStartHour: 0,
		RangeEndHour:   HoursPerDay,
		HourHeight:     DefaultHourHeight,
		MinHeight:      DefaultMinHeight,
	}
}

// WithHourHeight returns a full-day grid with the given scale.
// Non-positive heights fall back to the reference scale.
func WithHourHeight(hourHeight float64) Geometry {
	g := Default()
	if hourHeight > 0 {
		g.HourHeight = hourHeight
		g.MinHeight = DefaultMinHeight * hourHeight / DefaultHourHeight
	}
	return g
}

// Validate checks if the Geometry has valid data.
// PRE: Geometry struct is populated
// POST: Returns nil if valid, error otherwise
func (g Geometry) Validate() error {
	if g.RangeStartHour >= g.RangeEndHour {
		return ErrInvalidRange
	}
	if g.HourHeight <= 0 {
		return ErrInvalidHourHeight
	}
	return nil
}

// HourOfDay returns hours + minutes/60 (+ seconds/3600) for t in its own location.
func HourOfDay(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}

// OffsetFor returns the vertical offset of t from the top of the grid.
// PRE: none
// POST: offset == (HourOfDay(t) - RangeStartHour) * HourHeight
func (g Geometry) OffsetFor(t time.Time) float64 {
	return (HourOfDay(t) - g.RangeStartHour) * g.HourHeight
}

// HeightFor returns the rendered height of an event spanning [start, end].
// Never panics. An end earlier than start degenerates to MinHeight.
// PRE: start and end are in the same location
// POST: result >= MinHeight
func (g Geometry) HeightFor(start, end time.Time) float64 {
	h := (endHourOfDay(start, end) - HourOfDay(start)) * g.HourHeight
	if h < g.MinHeight {
		return g.MinHeight
	}
	return h
}

// endHourOfDay treats an end landing on the next day as hour 24 or later,
// so an event running to (or past) midnight keeps its height on the start column.
func endHourOfDay(start, end time.Time) float64 {
	h := HourOfDay(end)
	if end.After(start) && !sameDate(start, end) {
		days := dayDiff(start, end)
		h += float64(days * HoursPerDay)
	}
	return h
}

// TimeAt is the inverse of OffsetFor: it returns the time on day's date that
// sits at offset pixels from the top, clamped to the grid range and truncated
// to the minute.
// PRE: day carries the display location
// POST: OffsetFor(result) <= offset for offsets inside the grid
func (g Geometry) TimeAt(day time.Time, offset float64) time.Time {
	hour := g.RangeStartHour
	if g.HourHeight > 0 {
		hour += offset / g.HourHeight
	}
	if hour < g.RangeStartHour {
		hour = g.RangeStartHour
	}
	if hour > g.RangeEndHour {
		hour = g.RangeEndHour
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, int(hour*60), 0, 0, day.Location())
}

// HourTop returns the offset of the top edge of grid hour h.
// POST: HourTop(h) == (h - RangeStartHour) * HourHeight on every date, DST days included
func (g Geometry) HourTop(h int) float64 {
	return (float64(h) - g.RangeStartHour) * g.HourHeight
}

// AtHour returns wall-clock hour h on day's date in day's location. On a DST
// day this is not StartOfDay(day) + h hours.
func AtHour(day time.Time, h int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, h, 0, 0, 0, day.Location())
}

// GridHeight returns the full pixel height of one day column.
func (g Geometry) GridHeight() float64 {
	return (g.RangeEndHour - g.RangeStartHour) * g.HourHeight
}

// StartOfDay returns local midnight of t's date in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekStart returns the most recent Sunday at or before anchor, at local midnight.
// PRE: anchor carries the display location
// POST: result.Weekday() == time.Sunday, result <= anchor
func WeekStart(anchor time.Time) time.Time {
	day := StartOfDay(anchor)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// WeekDays returns the seven dates of the week beginning at weekStart.
func WeekDays(weekStart time.Time) []time.Time {
	days := make([]time.Time, DaysPerWeek)
	for i := range days {
		days[i] = weekStart.AddDate(0, 0, i)
	}
	return days
}

// DayKey formats t's calendar date as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func dayDiff(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / HoursPerDay)
}
