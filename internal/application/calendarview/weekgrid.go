package calendarview

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"trainerdesk/internal/application/projections"
	"trainerdesk/internal/domain/agenda"
	"trainerdesk/internal/domain/timegrid"
	"trainerdesk/internal/domain/workinghours"
)

// Cell is one hour slot of a day column.
type Cell struct {
	Hour      int
	Top       float64
	Available bool
	Occupied  bool

	// BookURL raises the booking intent for an unoccupied cell; empty when occupied.
	BookURL string
}

// Block is an agenda item positioned inside its day column.
type Block struct {
	ID        string
	Kind      agenda.Kind
	Title     string
	Subtitle  string
	TimeLabel string
	Link      string // internal only
	Top       float64
	Height    float64
	Muted     bool // external, read-only
	AllDay    bool
}

// Column is one date of the displayed week.
type Column struct {
	Date    time.Time
	Key     string // YYYY-MM-DD
	Label   string // "Mon 19"
	Weekday int
	IsToday bool
	Cells   []Cell
	Blocks  []Block
	// AllDay items sit in the strip above the hours and never occupy a cell.
	AllDay  []Block
}

// WeekGrid is the layout model of the 7 x 24 calendar grid.
type WeekGrid struct {
	WeekStart  time.Time
	Title      string
	HourHeight float64
	GridHeight float64
	HourLabels []string
	Columns    []Column
	HasAllDay  bool

	// HasNow is true when today falls inside the displayed week; NowOffset is
	// then the indicator's position on today's column.
	HasNow    bool
	NowOffset float64
	// ScrollTop centres the current time in the viewport, never negative.
	ScrollTop float64

	PrevWeek string
	NextWeek string
	ThisWeek string
}

// BookingURL returns the booking intent link for date at hour.
func BookingURL(date time.Time, hour int) string {
	q := url.Values{}
	q.Set("date", timegrid.DayKey(date))
	q.Set("hour", strconv.Itoa(hour))
	return "/sessions/new?" + q.Encode()
}

// BuildWeekGrid lays out res for the week grid. Cells are shaded by mask and
// items are positioned with geo in the week's location.
// PRE: res.WeekStart is a local Sunday midnight; geo is valid
// POST: len(Columns) == 7, each with one cell per grid hour; only today's column is marked
func BuildWeekGrid(res projections.AgendaResult, mask workinghours.Mask, geo timegrid.Geometry, now time.Time, viewportHeight float64) WeekGrid {
	loc := res.WeekStart.Location()
	now = now.In(loc)
	days := res.Days
	if len(days) != timegrid.DaysPerWeek {
		days = timegrid.WeekDays(res.WeekStart)
	}

	firstHour := int(geo.RangeStartHour)
	lastHour := int(geo.RangeEndHour)

	grid := WeekGrid{
		WeekStart:  res.WeekStart,
		Title:      WeekTitle(res.WeekStart),
		HourHeight: geo.HourHeight,
		GridHeight: geo.GridHeight(),
		Columns:    make([]Column, 0, len(days)),
		PrevWeek:   timegrid.DayKey(res.WeekStart.AddDate(0, 0, -timegrid.DaysPerWeek)),
		NextWeek:   timegrid.DayKey(res.WeekStart.AddDate(0, 0, timegrid.DaysPerWeek)),
		ThisWeek:   timegrid.DayKey(timegrid.WeekStart(now)),
	}
	for h := firstHour; h < lastHour; h++ {
		grid.HourLabels = append(grid.HourLabels, fmt.Sprintf("%02d:00", h))
	}

	for _, day := range days {
		col := Column{
			Date:    day,
			Key:     timegrid.DayKey(day),
			Label:   day.Format("Mon 2"),
			Weekday: int(day.Weekday()),
			IsToday: timegrid.DayKey(day) == timegrid.DayKey(now),
		}
		for h := firstHour; h < lastHour; h++ {
			cell := Cell{
				Hour:      h,
				Top:       geo.HourTop(h),
				Available: mask.IsAvailable(col.Weekday, float64(h)),
				Occupied:  occupied(res.Items, timegrid.AtHour(day, h), timegrid.AtHour(day, h+1)),
			}
			if !cell.Occupied {
				cell.BookURL = BookingURL(day, h)
			}
			col.Cells = append(col.Cells, cell)
		}
		for _, it := range agenda.OnDate(res.Items, day) {
			if it.AllDay {
				col.AllDay = append(col.AllDay, blockFor(it, geo, loc))
				grid.HasAllDay = true
				continue
			}
			col.Blocks = append(col.Blocks, blockFor(it, geo, loc))
		}
		if col.IsToday {
			grid.HasNow = true
			grid.NowOffset = geo.OffsetFor(now)
		}
		grid.Columns = append(grid.Columns, col)
	}

	grid.ScrollTop = ScrollTop(geo.OffsetFor(now), viewportHeight)
	return grid
}

// ScrollTop returns the scroll offset that centres nowOffset in a viewport
// of the given height, or 0 when that would be negative.
func ScrollTop(nowOffset, viewportHeight float64) float64 {
	top := nowOffset - viewportHeight/2
	if top < 0 {
		return 0
	}
	return top
}

// occupied reports whether any timed item overlaps [from, to). Zero-length
// items occupy the hour they start in. All-day items never occupy a cell.
func occupied(items []agenda.Item, from, to time.Time) bool {
	for _, it := range items {
		if it.AllDay {
			continue
		}
		if it.Start.Equal(it.End) {
			if !it.Start.Before(from) && it.Start.Before(to) {
				return true
			}
			continue
		}
		if it.Start.Before(to) && it.End.After(from) {
			return true
		}
	}
	return false
}

func blockFor(it agenda.Item, geo timegrid.Geometry, loc *time.Location) Block {
	start, end := it.Start.In(loc), it.End.In(loc)
	return Block{
		ID:        it.ID,
		Kind:      it.Kind,
		Title:     it.Title,
		Subtitle:  it.Subtitle,
		TimeLabel: timeRange(it, loc),
		Link:      it.Link,
		Top:       geo.OffsetFor(start),
		Height:    geo.HeightFor(start, end),
		Muted:     !it.IsInternal(),
		AllDay:    it.AllDay,
	}
}

func timeRange(it agenda.Item, loc *time.Location) string {
	if it.AllDay {
		return "All day"
	}
	return it.Start.In(loc).Format("15:04") + "–" + it.End.In(loc).Format("15:04")
}

// WeekTitle labels the week starting at weekStart, e.g. "18–24 October 2026"
// or "27 September – 3 October 2026".
func WeekTitle(weekStart time.Time) string {
	end := weekStart.AddDate(0, 0, timegrid.DaysPerWeek-1)
	switch {
	case weekStart.Year() != end.Year():
		return weekStart.Format("2 January 2006") + " – " + end.Format("2 January 2006")
	case weekStart.Month() != end.Month():
		return weekStart.Format("2 January") + " – " + end.Format("2 January 2006")
	default:
		return weekStart.Format("2") + "–" + end.Format("2 January 2006")
	}
}
