package testevents

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/okian/calgrid/internal/domain/layout"
	"github.com/okian/calgrid/internal/domain/model"
	"github.com/okian/calgrid/internal/domain/timeofday"
	"github.com/okian/calgrid/pkg/logger"
)

const (
	percentEpsilon   = 1e-6
	maxLoggedIssues  = 20
	percentageFactor = 100.0
)

// windowLayout is a layout together with the anchor date it was requested for.
type windowLayout struct {
	Anchor string
	Result layout.Result
}

// retrieveLayouts fetches one week layout per configured week.
func retrieveLayouts(ctx context.Context, cfg *Config, stats *Stats) ([]windowLayout, error) {
	anchor, err := model.ParseDate(cfg.Anchor)
	if err != nil {
		return nil, fmt.Errorf("anchor %q: %w", cfg.Anchor, err)
	}
	logger.Get().Info(ctx, "retrieving layouts", logger.Int("weeks", cfg.Weeks))

	client := newHTTPClient(cfg.Timeout)
	out := make([]windowLayout, cfg.Weeks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i := range out {
		date := model.FormatDate(anchor.AddDate(0, 0, 7*i))
		g.Go(func() error {
			res, err := fetchLayout(gctx, client, cfg.BaseURL, date)
			if err != nil {
				return err
			}
			out[i] = windowLayout{Anchor: date, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.LayoutsRetrieved = len(out)
	for _, w := range out {
		stats.EventsPositioned += len(w.Result.Events)
		stats.EventsSkipped += len(w.Result.Skipped)
	}
	return out, nil
}

// verifyResults checks every retrieved layout and that every seeded
// non-repeating event shows up in the windows it falls into.
func verifyResults(ctx context.Context, events []Event, layouts []windowLayout, stats *Stats) error {
	logger.Get().Info(ctx, "verifying layouts", logger.Int("layouts", len(layouts)))

	var issues []Violation
	for _, w := range layouts {
		issues = append(issues, verifyLayout(w.Anchor, w.Result)...)
		issues = append(issues, missingEvents(w.Anchor, w.Result, events)...)
	}
	stats.Violations = len(issues)

	for i, v := range issues {
		if i == maxLoggedIssues {
			logger.Get().Warn(ctx, "further violations omitted", logger.Int("remaining", len(issues)-i))
			break
		}
		logger.Get().Warn(ctx, "layout violation",
			logger.String("window", v.Window),
			logger.String("id", v.EventID),
			logger.String("message", v.Message))
	}

	if len(issues) > 0 {
		return fmt.Errorf("%d layout violations found", len(issues))
	}
	logger.Get().Info(ctx, "layouts verified")
	return nil
}

// verifyLayout checks the column, geometry and bar-stacking invariants of res.
func verifyLayout(window string, res layout.Result) []Violation {
	var out []Violation
	report := func(id, format string, args ...any) {
		out = append(out, Violation{Window: window, EventID: id, Message: fmt.Sprintf(format, args...)})
	}

	clusters := make(map[int]layout.Cluster, len(res.Clusters))
	for _, c := range res.Clusters {
		clusters[c.ID] = c
		if c.Width > c.TotalColumns {
			report(fmt.Sprintf("cluster-%d", c.ID), "width %d exceeds %d columns", c.Width, c.TotalColumns)
		}
	}

	type slot struct{ gridRow, row int }
	byCluster := make(map[int][]model.PositionedEvent)
	segments := make(map[slot][]model.BarSegment)
	owners := make(map[slot][]string)

	for _, p := range res.Events {
		if !p.Timed {
			if len(p.Bars) == 0 {
				report(p.ID, "bar event without segments")
			}
			for _, s := range p.Bars {
				if msg := checkSegment(res, s); msg != "" {
					report(p.ID, "%s", msg)
					continue
				}
				k := slot{s.GridRow, s.Row}
				for j, o := range segments[k] {
					if s.StartIndex <= o.EndIndex && o.StartIndex <= s.EndIndex {
						report(p.ID, "bar row %d in grid row %d collides with %s", s.Row, s.GridRow, owners[k][j])
					}
				}
				segments[k] = append(segments[k], s)
				owners[k] = append(owners[k], p.ID)
			}
			continue
		}

		c, ok := clusters[p.Cluster]
		switch {
		case !ok:
			report(p.ID, "unknown cluster %d", p.Cluster)
			continue
		case p.TotalColumns != c.TotalColumns:
			report(p.ID, "total columns %d differ from cluster's %d", p.TotalColumns, c.TotalColumns)
		case p.Column < 0 || p.Column >= p.TotalColumns:
			report(p.ID, "column %d outside [0, %d)", p.Column, p.TotalColumns)
		case p.Top < 0 || p.Height <= 0:
			report(p.ID, "bad vertical geometry top=%v height=%v", p.Top, p.Height)
		case len(p.Bars) > 0:
			report(p.ID, "timed event carries bar segments")
		}
		if p.TotalColumns > 0 {
			total := float64(p.TotalColumns)
			left := float64(p.Column) / total * percentageFactor
			right := percentageFactor - float64(p.Column+1)/total*percentageFactor
			if math.Abs(p.LeftOffsetPercent-left) > percentEpsilon || math.Abs(p.RightOffsetPercent-right) > percentEpsilon {
				report(p.ID, "offsets %v/%v, want %v/%v", p.LeftOffsetPercent, p.RightOffsetPercent, left, right)
			}
		}
		byCluster[p.Cluster] = append(byCluster[p.Cluster], p)
	}

	for _, members := range byCluster {
		for i := range members {
			for j := i + 1; j < len(members); j++ {
				a, b := members[i], members[j]
				if a.Column == b.Column && timesOverlap(a.Event, b.Event) {
					report(a.ID, "shares column %d with overlapping %s", a.Column, b.ID)
				}
			}
		}
	}
	return out
}

// checkSegment returns a description of what is wrong with s, or "".
func checkSegment(res layout.Result, s model.BarSegment) string {
	switch {
	case s.GridRow < 0 || s.GridRow >= len(res.Grid.Rows):
		return fmt.Sprintf("grid row %d out of range", s.GridRow)
	case s.StartIndex < 0 || s.StartIndex > s.EndIndex || s.EndIndex >= res.Grid.Rows[s.GridRow].Len:
		return fmt.Sprintf("segment [%d, %d] outside grid row %d", s.StartIndex, s.EndIndex, s.GridRow)
	case s.GridRow < len(res.Rows) && (s.Row < 0 || s.Row >= res.Rows[s.GridRow].RowCount):
		return fmt.Sprintf("bar row %d outside row count %d", s.Row, res.Rows[s.GridRow].RowCount)
	}
	return ""
}

// timesOverlap reports whether two same-day events share any minute.
func timesOverlap(a, b model.Event) bool {
	as, err1 := timeofday.Parse(a.StartTime)
	ae, err2 := timeofday.ParseEnd(a.EndTime)
	bs, err3 := timeofday.Parse(b.StartTime)
	be, err4 := timeofday.ParseEnd(b.EndTime)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return false
	}
	return as < be && bs < ae
}

// missingEvents lists seeded non-repeating events that fall inside the
// window of res but were not positioned.
func missingEvents(window string, res layout.Result, events []Event) []Violation {
	seen := make(map[string]bool, len(res.Events))
	for _, p := range res.Events {
		seen[p.ID] = true
	}

	var out []Violation
	for _, ev := range events {
		if ev.IsRepeating || seen[ev.ID] {
			continue
		}
		from, err1 := model.ParseDate(ev.StartDate)
		to, err2 := model.ParseDate(ev.EndDate)
		if err1 != nil || err2 != nil {
			continue
		}
		if !to.Before(res.Grid.Start) && !from.After(res.Grid.End) {
			out = append(out, Violation{Window: window, EventID: ev.ID, Message: "seeded event missing from layout"})
		}
	}
	return out
}
