// Package view resolves a view window (type plus anchor date) into the
// concrete grid of days a calendar renders.
package view

import (
	"fmt"
	"time"

	"github.com/okian/calgrid/internal/domain/model"
)

// Type is the kind of calendar view.
type Type string

// Supported view types.
const (
	Day   Type = "day"
	Week  Type = "week"
	Month Type = "month"
	Year  Type = "year"
)

const (
	daysPerWeek = 7
	// maxDaysCount bounds custom day/week lengths.
	maxDaysCount = 366
)

// Valid reports whether t is a supported view type.
func (t Type) Valid() bool {
	switch t {
	case Day, Week, Month, Year:
		return true
	}
	return false
}

// Timed reports whether the view renders an hour grid per day.
func (t Type) Timed() bool {
	return t == Day || t == Week
}

// Window describes what the caller wants to see.
type Window struct {
	Type   Type   `json:"viewType"`
	Anchor string `json:"anchorDate"`
	// DaysCount overrides the length of day and week views. Nil keeps the
	// default of 1 (day) or 7 (week).
	DaysCount *int `json:"daysCount,omitempty"`
}

// Row is a horizontal band of consecutive grid days. Month and year grids
// have one row per week; day and week grids have a single row.
type Row struct {
	Index int       `json:"index"`
	First int       `json:"first"` // offset of the row's first day in Grid.Days
	Len   int       `json:"len"`
	Start time.Time `json:"start"`
}

// Grid is a resolved window: the ordered visible days and their rows.
type Grid struct {
	Type  Type        `json:"viewType"`
	Start time.Time   `json:"start"`
	End   time.Time   `json:"end"` // inclusive
	Days  []time.Time `json:"days"`
	Rows  []Row       `json:"rows"`
}

// Resolve turns w into a Grid. firstDay is the weekday weeks start on
// (0 = Sunday ... 6 = Saturday).
func Resolve(w Window, firstDay int) (Grid, error) {
	if !w.Type.Valid() {
		return Grid{}, fmt.Errorf("%w: unknown view type %q", ErrInvalidWindow, w.Type)
	}
	if firstDay < 0 || firstDay > 6 {
		return Grid{}, fmt.Errorf("%w: first day of week %d out of range 0-6", ErrInvalidWindow, firstDay)
	}
	if w.DaysCount != nil && (*w.DaysCount <= 0 || *w.DaysCount > maxDaysCount) {
		return Grid{}, fmt.Errorf("%w: days count %d out of range 1-%d", ErrInvalidWindow, *w.DaysCount, maxDaysCount)
	}
	anchor, err := model.ParseDate(w.Anchor)
	if err != nil {
		return Grid{}, fmt.Errorf("%w: anchor %q", ErrInvalidWindow, w.Anchor)
	}

	var start time.Time
	var n int
	switch w.Type {
	case Day:
		start, n = anchor, daysOr(w.DaysCount, 1)
	case Week:
		start, n = StartOfWeek(anchor, firstDay), daysOr(w.DaysCount, daysPerWeek)
	case Month:
		first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
		last := first.AddDate(0, 1, -1)
		start = StartOfWeek(first, firstDay)
		n = model.DaysBetween(start, StartOfWeek(last, firstDay)) + daysPerWeek
	case Year:
		first := time.Date(anchor.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		last := time.Date(anchor.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
		start = StartOfWeek(first, firstDay)
		n = model.DaysBetween(start, StartOfWeek(last, firstDay)) + daysPerWeek
	}

	g := Grid{Type: w.Type, Start: start, End: start.AddDate(0, 0, n-1)}
	g.Days = make([]time.Time, n)
	for i := range g.Days {
		g.Days[i] = start.AddDate(0, 0, i)
	}

	rowLen := n
	if !w.Type.Timed() {
		rowLen = daysPerWeek
	}
	for first := 0; first < n; first += rowLen {
		l := min(rowLen, n-first)
		g.Rows = append(g.Rows, Row{Index: len(g.Rows), First: first, Len: l, Start: g.Days[first]})
	}
	return g, nil
}

func daysOr(n *int, def int) int {
	if n == nil {
		return def
	}
	return *n
}

// StartOfWeek returns the latest date on or before t that falls on firstDay.
func StartOfWeek(t time.Time, firstDay int) time.Time {
	t = model.Truncate(t)
	offset := (int(t.Weekday()) - firstDay + daysPerWeek) % daysPerWeek
	return t.AddDate(0, 0, -offset)
}

// IndexOf returns the offset of date t in g.Days, clamped to the grid, and
// whether t lies inside the grid.
func (g Grid) IndexOf(t time.Time) (int, bool) {
	i := model.DaysBetween(g.Start, t)
	switch {
	case i < 0:
		return 0, false
	case i >= len(g.Days):
		return len(g.Days) - 1, false
	}
	return i, true
}

// Contains reports whether [from, to] intersects the grid.
func (g Grid) Contains(from, to time.Time) bool {
	return !to.Before(g.Start) && !from.After(g.End)
}

// RowOf returns the row holding the day at offset i.
func (g Grid) RowOf(i int) Row {
	for _, r := range g.Rows {
		if i >= r.First && i < r.First+r.Len {
			return r
		}
	}
	return g.Rows[len(g.Rows)-1]
}
