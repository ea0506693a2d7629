package calendarview

import (
	"testing"
	"time"
	_ "time/tzdata"

	"trainerdesk/internal/application/projections"
	"trainerdesk/internal/domain/agenda"
	"trainerdesk/internal/domain/timegrid"
	"trainerdesk/internal/domain/workinghours"
)

var loc = time.FixedZone("NZDT", 13*3600)

// Week of Sunday 18 October 2026; now is Wednesday 21st at 08:30.
var (
	weekStart = time.Date(2026, 10, 18, 0, 0, 0, 0, loc)
	now       = time.Date(2026, 10, 21, 8, 30, 0, 0, loc)
)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 10, day, hour, minute, 0, 0, loc)
}

func internalItem(id string, start time.Time, d time.Duration) agenda.Item {
	return agenda.Item{ID: id, Kind: agenda.KindInternal, Title: "Sam & Biscuit", Start: start, End: start.Add(d), Link: "/programs/p1"}
}

func externalItem(id string, start time.Time, d time.Duration) agenda.Item {
	return agenda.Item{ID: id, Kind: agenda.KindExternal, Title: "Vet", Start: start, End: start.Add(d)}
}

func resultOf(items ...agenda.Item) projections.AgendaResult {
	agenda.Sort(items)
	return projections.AgendaResult{
		WeekStart: weekStart,
		Days:      timegrid.WeekDays(weekStart),
		Now:       now,
		Filter:    agenda.ShowAll(),
		Items:     items,
		Groups:    agenda.GroupByDay(items, loc),
	}
}

func TestBuildWeekGrid_PlacesSessionsInTheirColumns(t *testing.T) {
	res := resultOf(
		internalItem("s-mon", at(19, 10, 0), time.Hour),
		internalItem("s-wed", at(21, 14, 0), time.Hour),
	)
	geo := timegrid.Default()
	grid := BuildWeekGrid(res, workinghours.Mask{}, geo, now, 600)

	if len(grid.Columns) != 7 {
		t.Fatalf("columns = %d, want 7", len(grid.Columns))
	}
	if grid.Columns[0].Weekday != 0 || grid.Columns[6].Weekday != 6 {
		t.Errorf("columns run %d..%d, want Sun..Sat", grid.Columns[0].Weekday, grid.Columns[6].Weekday)
	}
	mon, wed := grid.Columns[1], grid.Columns[3]
	if len(mon.Blocks) != 1 || len(wed.Blocks) != 1 {
		t.Fatalf("blocks mon=%d wed=%d, want 1 each", len(mon.Blocks), len(wed.Blocks))
	}
	if mon.Blocks[0].Top != 10*geo.HourHeight {
		t.Errorf("monday top = %v, want %v", mon.Blocks[0].Top, 10*geo.HourHeight)
	}
	if wed.Blocks[0].Top != 14*geo.HourHeight {
		t.Errorf("wednesday top = %v, want %v", wed.Blocks[0].Top, 14*geo.HourHeight)
	}
	if mon.Blocks[0].Height != geo.HourHeight {
		t.Errorf("height = %v, want %v", mon.Blocks[0].Height, geo.HourHeight)
	}
	if mon.Blocks[0].Muted || mon.Blocks[0].Link == "" {
		t.Errorf("internal block = %+v, want linked and not muted", mon.Blocks[0])
	}
	for i, col := range grid.Columns {
		if i != 1 && i != 3 && len(col.Blocks) != 0 {
			t.Errorf("column %d has %d blocks, want 0", i, len(col.Blocks))
		}
	}
	if grid.HasAllDay {
		t.Error("HasAllDay = true with no all-day items")
	}
}

func TestBuildWeekGrid_ShadesOutsideWorkingHours(t *testing.T) {
	cfg := &workinghours.Config{TrainerID: "t1", WorkDays: []int{1, 2, 3, 4, 5}, WorkStart: "09:00", WorkEnd: "17:00"}
	grid := BuildWeekGrid(resultOf(), workinghours.NewMask(cfg), timegrid.Default(), now, 600)

	sat, mon := grid.Columns[6], grid.Columns[1]
	for _, c := range sat.Cells {
		if c.Available {
			t.Errorf("saturday %02d:00 available, want unavailable", c.Hour)
		}
	}
	tests := []struct {
		hour int
		want bool
	}{
		{8, false},
		{9, true},
		{16, true},
		{17, false},
	}
	for _, tt := range tests {
		if got := mon.Cells[tt.hour].Available; got != tt.want {
			t.Errorf("monday %02d:00 available = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestBuildWeekGrid_UnconfiguredMaskIsOpen(t *testing.T) {
	grid := BuildWeekGrid(resultOf(), workinghours.NewMask(nil), timegrid.Default(), now, 600)
	for _, col := range grid.Columns {
		for _, c := range col.Cells {
			if !c.Available {
				t.Fatalf("%s %02d:00 unavailable with no config", col.Key, c.Hour)
			}
		}
	}
}

func TestBuildWeekGrid_OccupiedCellsAndBookingLinks(t *testing.T) {
	res := resultOf(
		internalItem("s1", at(19, 10, 30), 90*time.Minute),
		externalItem("e1", at(20, 7, 0), 0),
	)
	grid := BuildWeekGrid(res, workinghours.Mask{}, timegrid.Default(), now, 600)

	mon := grid.Columns[1]
	for _, h := range []int{10, 11} {
		if !mon.Cells[h].Occupied || mon.Cells[h].BookURL != "" {
			t.Errorf("monday %02d:00 = %+v, want occupied without booking link", h, mon.Cells[h])
		}
	}
	if mon.Cells[12].Occupied {
		t.Error("monday 12:00 occupied, want free")
	}
	if got, want := mon.Cells[12].BookURL, "/sessions/new?date=2026-10-19&hour=12"; got != want {
		t.Errorf("BookURL = %q, want %q", got, want)
	}
	tue := grid.Columns[2]
	if !tue.Cells[7].Occupied {
		t.Error("zero-length event does not occupy its hour")
	}
	if tue.Blocks[0].Height != timegrid.Default().MinHeight || !tue.Blocks[0].Muted {
		t.Errorf("external block = %+v, want muted at min height", tue.Blocks[0])
	}
}

func TestBuildWeekGrid_NowIndicator(t *testing.T) {
	geo := timegrid.Default()
	grid := BuildWeekGrid(resultOf(), workinghours.Mask{}, geo, now, 600)

	if !grid.HasNow {
		t.Fatal("HasNow = false for the current week")
	}
	for i, col := range grid.Columns {
		if col.IsToday != (i == 3) {
			t.Errorf("column %d IsToday = %v", i, col.IsToday)
		}
	}
	if grid.NowOffset != 8.5*geo.HourHeight {
		t.Errorf("NowOffset = %v, want %v", grid.NowOffset, 8.5*geo.HourHeight)
	}
	if grid.ScrollTop != 8.5*geo.HourHeight-300 {
		t.Errorf("ScrollTop = %v, want %v", grid.ScrollTop, 8.5*geo.HourHeight-300)
	}

	nextWeek := resultOf()
	nextWeek.WeekStart = weekStart.AddDate(0, 0, 7)
	nextWeek.Days = timegrid.WeekDays(nextWeek.WeekStart)
	other := BuildWeekGrid(nextWeek, workinghours.Mask{}, geo, now, 600)
	if other.HasNow {
		t.Error("HasNow = true for a week not containing today")
	}
	if other.ThisWeek != "2026-10-18" || other.PrevWeek != "2026-10-18" || other.NextWeek != "2026-11-01" {
		t.Errorf("nav = %s / %s / %s", other.PrevWeek, other.ThisWeek, other.NextWeek)
	}
}

func TestScrollTop(t *testing.T) {
	tests := []struct {
		offset, viewport, want float64
	}{
		{600, 400, 400},
		{100, 400, 0},
		{200, 400, 0},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := ScrollTop(tt.offset, tt.viewport); got != tt.want {
			t.Errorf("ScrollTop(%v, %v) = %v, want %v", tt.offset, tt.viewport, got, tt.want)
		}
	}
}

func TestWeekTitle(t *testing.T) {
	tests := []struct {
		start time.Time
		want  string
	}{
		{time.Date(2026, 10, 18, 0, 0, 0, 0, loc), "18–24 October 2026"},
		{time.Date(2026, 9, 27, 0, 0, 0, 0, loc), "27 September – 3 October 2026"},
		{time.Date(2026, 12, 27, 0, 0, 0, 0, loc), "27 December 2026 – 2 January 2027"},
	}
	for _, tt := range tests {
		if got := WeekTitle(tt.start); got != tt.want {
			t.Errorf("WeekTitle(%s) = %q, want %q", tt.start.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestBuildWeekGrid_DaylightSavingDays(t *testing.T) {
	auckland, err := time.LoadLocation("Pacific/Auckland")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	tests := []struct {
		name      string
		weekStart time.Time
	}{
		{"clocks go forward", time.Date(2026, 9, 27, 0, 0, 0, 0, auckland)},
		{"clocks go back", time.Date(2026, 4, 5, 0, 0, 0, 0, auckland)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, m, d := tt.weekStart.Date()
			session := internalItem("s-dst", time.Date(y, m, d, 9, 0, 0, 0, auckland), time.Hour)
			items := []agenda.Item{session}
			res := projections.AgendaResult{
				WeekStart: tt.weekStart,
				Days:      timegrid.WeekDays(tt.weekStart),
				Now:       now.In(auckland),
				Filter:    agenda.ShowAll(),
				Items:     items,
				Groups:    agenda.GroupByDay(items, auckland),
			}
			geo := timegrid.Default()
			grid := BuildWeekGrid(res, workinghours.Mask{}, geo, now, 600)

			sun := grid.Columns[0]
			if len(sun.Cells) != 24 {
				t.Fatalf("cells = %d, want 24", len(sun.Cells))
			}
			for _, c := range sun.Cells {
				if want := float64(c.Hour) * geo.HourHeight; c.Top != want {
					t.Errorf("hour %d: Top = %v, want %v", c.Hour, c.Top, want)
				}
			}
			if c := sun.Cells[9]; !c.Occupied || c.BookURL != "" {
				t.Errorf("09:00 cell = %+v, want occupied without booking link", c)
			}
			for _, h := range []int{8, 10} {
				if c := sun.Cells[h]; c.Occupied || c.BookURL == "" {
					t.Errorf("%02d:00 cell = %+v, want free with booking link", h, c)
				}
			}
			if len(sun.Blocks) != 1 || sun.Blocks[0].Top != 9*geo.HourHeight || sun.Blocks[0].Height != geo.HourHeight {
				t.Errorf("blocks = %+v, want one at 09:00 one hour tall", sun.Blocks)
			}
		})
	}
}

func TestBuildWeekGrid_AllDayItemsLeaveCellsBookable(t *testing.T) {
	holiday := agenda.Item{
		ID:     "e-holiday",
		Kind:   agenda.KindExternal,
		Title:  "Labour Day",
		Start:  at(20, 0, 0),
		End:    at(21, 0, 0),
		AllDay: true,
	}
	res := resultOf(holiday, internalItem("s1", at(20, 10, 0), time.Hour))
	grid := BuildWeekGrid(res, workinghours.Mask{}, timegrid.Default(), now, 600)

	if !grid.HasAllDay {
		t.Fatal("HasAllDay = false")
	}
	tue := grid.Columns[2]
	if len(tue.AllDay) != 1 || tue.AllDay[0].ID != "e-holiday" || tue.AllDay[0].TimeLabel != "All day" {
		t.Fatalf("all-day strip = %+v", tue.AllDay)
	}
	if len(tue.Blocks) != 1 || tue.Blocks[0].ID != "s1" {
		t.Errorf("timed blocks = %+v, want only s1", tue.Blocks)
	}
	for _, c := range tue.Cells {
		wantOccupied := c.Hour == 10
		if c.Occupied != wantOccupied || (c.BookURL == "") != wantOccupied {
			t.Errorf("tuesday %02d:00 = %+v, occupied want %v", c.Hour, c, wantOccupied)
		}
	}
}
