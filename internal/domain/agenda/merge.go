package agenda

import (
	"sort"
	"time"
)

type itemKey struct {
	id   string
	kind Kind
}

// Merge concatenates batches, drops repeated (ID, Kind) pairs and sorts the
// result ascending by Start. Inputs are not modified.
// PRE: none
// POST: result is de-duplicated and sorted; identical inputs give identical output
func Merge(batches ...[]Item) []Item {
	n := 0
	for _, b := range batches {
		n += len(b)
	}
	all := make([]Item, 0, n)
	for _, b := range batches {
		all = append(all, b...)
	}
	all = Dedupe(all)
	Sort(all)
	return all
}

// Dedupe keeps the first occurrence of each (ID, Kind) pair, preserving order.
func Dedupe(items []Item) []Item {
	seen := make(map[itemKey]struct{}, len(items))
	out := items[:0:0]
	for _, it := range items {
		k := itemKey{id: it.ID, kind: it.Kind}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Sort orders items by Start; equal starts fall back to kind (internal first)
// and then ID so the order never depends on input arrangement.
func Sort(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if a.Kind != b.Kind {
			return a.Kind == KindInternal
		}
		return a.ID < b.ID
	})
}

// Apply returns the items whose kind the filter allows, order preserved.
// Filtering happens after merge and never triggers a fetch.
func Apply(items []Item, f Filter) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if f.Allows(it.Kind) {
			out = append(out, it)
		}
	}
	return out
}

// DayGroup holds the items starting on one calendar date.
type DayGroup struct {
	Key   string // YYYY-MM-DD
	Date  time.Time
	Items []Item
}

// GroupByDay buckets sorted items by their start date in loc.
// PRE: items sorted ascending by Start
// POST: every item appears in exactly one group; groups ascend by Key and
// concatenating their Items reproduces the input
func GroupByDay(items []Item, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.Local
	}
	var groups []DayGroup
	index := make(map[string]int)
	for _, it := range items {
		local := it.Start.In(loc)
		key := local.Format("2006-01-02")
		i, ok := index[key]
		if !ok {
			y, m, d := local.Date()
			groups = append(groups, DayGroup{Key: key, Date: time.Date(y, m, d, 0, 0, 0, 0, loc)})
			i = len(groups) - 1
			index[key] = i
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// OnDate returns the items starting on the calendar date of day in day's location.
// Used by the week grid to place items in their column.
func OnDate(items []Item, day time.Time) []Item {
	y, m, d := day.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	var out []Item
	for _, it := range items {
		start := it.Start.In(day.Location())
		if !start.Before(dayStart) && start.Before(dayEnd) {
			out = append(out, it)
		}
	}
	return out
}
