// Package layout arranges calendar events on a view grid.
//
// The engine is a pure function of its configuration, the events and the
// view window: it holds no state between calls, performs no I/O and is safe
// for concurrent use. Single-day events in day and week views are grouped
// into transitive overlap clusters and given side-by-side columns with pixel
// geometry on the hour grid. All other events become bars stacked in rows
// across the days they span.
package layout

import (
	"fmt"
	"sort"
	"time"

	"github.com/okian/calgrid/internal/domain/model"
	"github.com/okian/calgrid/internal/domain/timeofday"
	"github.com/okian/calgrid/internal/domain/view"
)

// Engine computes layouts. The zero value is not usable; use New.
type Engine struct {
	hourHeight        float64
	minEventHeight    float64
	minEventHeightSet bool
	firstDayOfWeek    int
	timeFormat        timeofday.Format
}

// New creates an Engine with configuration options.
func New(opts ...Option) *Engine {
	e := &Engine{
		hourHeight:     DefaultHourHeight,
		firstDayOfWeek: DefaultFirstDayOfWeek,
		timeFormat:     timeofday.Format24,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cluster is a maximal set of same-day timed events whose intervals overlap
// transitively.
type Cluster struct {
	ID           int      `json:"id"`
	Date         string   `json:"date"`
	DayIndex     int      `json:"dayIndex"`
	Width        int      `json:"width"`
	TotalColumns int      `json:"totalColumns"`
	EventIDs     []string `json:"eventIds"`
}

// DaySummary sizes one day column.
type DaySummary struct {
	Date         string `json:"date"`
	Index        int    `json:"index"`
	TotalColumns int    `json:"totalColumns"`
	ClusterCount int    `json:"clusterCount"`
}

// RowSummary sizes one grid row's bar area.
type RowSummary struct {
	Index    int    `json:"index"`
	Start    string `json:"start"`
	End      string `json:"end"`
	RowCount int    `json:"rowCount"`
}

// Result is the arrangement of one set of events on one view window.
type Result struct {
	Grid     view.Grid               `json:"grid"`
	Events   []model.PositionedEvent `json:"events"`
	Clusters []Cluster               `json:"clusters"`
	Days     []DaySummary            `json:"days"`
	Rows     []RowSummary            `json:"rows"`
	Skipped  []model.Skip            `json:"skipped"`
}

// normalized is a validated event with parsed fields.
type normalized struct {
	ev    model.Event
	from  time.Time
	to    time.Time
	start timeofday.Minutes
	end   timeofday.Minutes
}

// Validate checks the engine configuration.
func (e *Engine) Validate() error {
	switch {
	case e.hourHeight <= 0:
		return fmt.Errorf("%w: hour height must be positive, got %v", ErrInvalidConfiguration, e.hourHeight)
	case e.minHeight() <= 0:
		return fmt.Errorf("%w: minimum event height must be positive, got %v", ErrInvalidConfiguration, e.minHeight())
	case e.firstDayOfWeek < 0 || e.firstDayOfWeek > 6:
		return fmt.Errorf("%w: first day of week %d out of range 0-6", ErrInvalidConfiguration, e.firstDayOfWeek)
	case !e.timeFormat.Valid():
		return fmt.Errorf("%w: unknown time format %q", ErrInvalidConfiguration, e.timeFormat)
	}
	return nil
}

// Grid validates the configuration and resolves w into the grid Layout
// would use.
func (e *Engine) Grid(w view.Window) (view.Grid, error) {
	if err := e.Validate(); err != nil {
		return view.Grid{}, err
	}
	grid, err := view.Resolve(w, e.firstDayOfWeek)
	if err != nil {
		return view.Grid{}, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return grid, nil
}

// Layout arranges events on the window. Events that cannot be placed are
// reported in Result.Skipped; only configuration problems return an error.
func (e *Engine) Layout(events []model.Event, w view.Window) (Result, error) {
	grid, err := e.Grid(w)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Grid:     grid,
		Events:   []model.PositionedEvent{},
		Clusters: []Cluster{},
		Skipped:  []model.Skip{},
	}

	type candidate struct {
		pos int
		n   normalized
	}
	reasons := make([]model.SkipReason, len(events))
	cands := make([]candidate, 0, len(events))
	for i, ev := range events {
		n, reason := normalize(ev)
		if reason == "" && !grid.Contains(n.from, n.to) {
			reason = model.SkipOutsideWindow
		}
		if reason != "" {
			reasons[i] = reason
			continue
		}
		cands = append(cands, candidate{pos: i, n: n})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i].n, cands[j].n
		if !a.from.Equal(b.from) {
			return a.from.Before(b.from)
		}
		if a.start != b.start {
			return a.start < b.start
		}
		if !a.to.Equal(b.to) {
			return a.to.Before(b.to)
		}
		if a.end != b.end {
			return a.end < b.end
		}
		return a.ev.ID < b.ev.ID
	})

	// The first occurrence of an id in canonical order wins.
	seen := make(map[string]struct{}, len(cands))
	valid := make([]normalized, 0, len(cands))
	for _, c := range cands {
		if _, dup := seen[c.n.ev.ID]; dup {
			reasons[c.pos] = model.SkipDuplicateID
			continue
		}
		seen[c.n.ev.ID] = struct{}{}
		valid = append(valid, c.n)
	}
	for i, reason := range reasons {
		if reason != "" {
			res.Skipped = append(res.Skipped, model.Skip{ID: events[i].ID, Reason: reason})
		}
	}

	timed := make(map[int][]timedItem)
	var bars []barItem
	for i, n := range valid {
		p := model.PositionedEvent{Event: n.ev}
		first, _ := grid.IndexOf(n.from)
		if grid.Type.Timed() && !n.ev.MultiDay() {
			p.Timed = true
			p.Date = model.FormatDate(n.from)
			p.DayIndex = first
			p.Top, p.Height = e.verticalGeometry(n.start, n.end)
			p.TimeText = timeofday.Range(n.start, n.end, e.timeFormat)
			p.DurationText = timeofday.Duration(n.start, n.end)
			timed[first] = append(timed[first], timedItem{pos: i, id: n.ev.ID, start: n.start, end: n.end})
		} else {
			last, _ := grid.IndexOf(n.to)
			p.DayIndex = first
			p.TimeText = e.spanText(n)
			span := timeofday.Minutes(model.DaysBetween(n.from, n.to) * timeofday.MinutesPerDay)
			p.DurationText = timeofday.Duration(n.start, n.end+span)
			bars = append(bars, barItem{pos: i, id: n.ev.ID, from: n.from, to: n.to, first: first, last: last})
		}
		res.Events = append(res.Events, p)
	}

	res.Days = make([]DaySummary, len(grid.Days))
	for d, day := range grid.Days {
		sum := DaySummary{Date: model.FormatDate(day), Index: d}
		items := timed[d]
		groups, cols := arrange(items)
		for _, g := range groups {
			c := Cluster{
				ID:           len(res.Clusters) + 1,
				Date:         sum.Date,
				DayIndex:     d,
				Width:        g.width,
				TotalColumns: g.columns,
			}
			for _, m := range g.members {
				it := items[m]
				p := &res.Events[it.pos]
				p.Cluster = c.ID
				p.Column = cols[m]
				p.TotalColumns = g.columns
				p.LeftOffsetPercent, p.RightOffsetPercent = horizontalGeometry(cols[m], g.columns)
				c.EventIDs = append(c.EventIDs, it.id)
			}
			res.Clusters = append(res.Clusters, c)
			sum.TotalColumns = max(sum.TotalColumns, g.columns)
		}
		sum.ClusterCount = len(groups)
		res.Days[d] = sum
	}

	counts := packBars(grid, bars, res.Events)
	res.Rows = make([]RowSummary, len(grid.Rows))
	for i, r := range grid.Rows {
		res.Rows[i] = RowSummary{
			Index:    r.Index,
			Start:    model.FormatDate(grid.Days[r.First]),
			End:      model.FormatDate(grid.Days[r.First+r.Len-1]),
			RowCount: counts[i],
		}
	}
	return res, nil
}

// normalize parses and checks ev, returning a skip reason when it cannot be
// laid out.
func normalize(ev model.Event) (normalized, model.SkipReason) {
	n := normalized{ev: ev}
	if ev.ID == "" {
		return n, model.SkipMissingID
	}
	var err error
	if n.from, err = model.ParseDate(ev.StartDate); err != nil {
		return n, model.SkipInvalidDateFormat
	}
	if n.to, err = model.ParseDate(ev.EndDate); err != nil {
		return n, model.SkipInvalidDateFormat
	}
	if n.start, err = timeofday.Parse(ev.StartTime); err != nil {
		return n, model.SkipInvalidTimeFormat
	}
	if n.end, err = timeofday.ParseEnd(ev.EndTime); err != nil {
		return n, model.SkipInvalidTimeFormat
	}
	if n.to.Before(n.from) {
		return n, model.SkipInvalidDateRange
	}
	if !ev.MultiDay() && n.end < n.start {
		return n, model.SkipInvalidTimeRange
	}
	return n, ""
}

func (e *Engine) spanText(n normalized) string {
	start := timeofday.Display(n.start, e.timeFormat)
	end := timeofday.Display(n.end, e.timeFormat)
	if !n.ev.MultiDay() {
		return start + " - " + end
	}
	return n.ev.StartDate + " " + start + " - " + n.ev.EndDate + " " + end
}
