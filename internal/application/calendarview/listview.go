package calendarview

import (
	"time"

	"trainerdesk/internal/application/projections"
	"trainerdesk/internal/domain/agenda"
	"trainerdesk/internal/domain/timegrid"
)

// ListItem is one row of the mobile agenda list.
type ListItem struct {
	ID         string
	Kind       agenda.Kind
	Title      string
	Subtitle   string
	StartLabel string
	EndLabel   string
	AllDay     bool
	Notes      string // markdown, rendered by the template
	Link       string
}

// ListSection is one day header with its items.
type ListSection struct {
	Key     string
	Label   string
	IsToday bool
	Items   []ListItem
}

// ListView is the layout model of the agenda list.
type ListView struct {
	Sections []ListSection
	Empty    bool
}

// BuildListView turns the grouped agenda into labelled day sections.
// PRE: res.Groups ascend by date with items ascending by start
// POST: one section per group, in the same order
func BuildListView(res projections.AgendaResult, now time.Time) ListView {
	loc := res.WeekStart.Location()
	if res.WeekStart.IsZero() {
		loc = now.Location()
	}
	now = now.In(loc)

	view := ListView{Empty: len(res.Groups) == 0}
	for _, g := range res.Groups {
		sec := ListSection{
			Key:     g.Key,
			Label:   DayLabel(g.Date, now),
			IsToday: g.Key == timegrid.DayKey(now),
			Items:   make([]ListItem, 0, len(g.Items)),
		}
		for _, it := range g.Items {
			li := ListItem{
				ID:       it.ID,
				Kind:     it.Kind,
				Title:    it.Title,
				Subtitle: it.Subtitle,
				AllDay:   it.AllDay,
				Notes:    it.Notes,
				Link:     it.Link,
			}
			if !it.AllDay {
				li.StartLabel = it.Start.In(loc).Format("15:04")
				li.EndLabel = it.End.In(loc).Format("15:04")
			}
			sec.Items = append(sec.Items, li)
		}
		view.Sections = append(view.Sections, sec)
	}
	return view
}

// DayLabel returns "Today", "Tomorrow" or e.g. "Monday, 19 October" for day
// relative to now's date.
func DayLabel(day, now time.Time) string {
	day = day.In(now.Location())
	switch timegrid.DayKey(day) {
	case timegrid.DayKey(now):
		return "Today"
	case timegrid.DayKey(timegrid.StartOfDay(now).AddDate(0, 0, 1)):
		return "Tomorrow"
	}
	return day.Format("Monday, 2 January")
}
