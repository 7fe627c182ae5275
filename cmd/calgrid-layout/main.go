// Command calgrid-layout lays out events from a file without a running
// service and prints the result as JSON.
//
// Events are read from YAML (a list of events, as written by calgrid-seed),
// JSON, or an ICS calendar.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli"
	"gopkg.in/yaml.v3"

	"github.com/okian/calgrid/internal/adapters/ics"
	"github.com/okian/calgrid/internal/domain/layout"
	"github.com/okian/calgrid/internal/domain/model"
	"github.com/okian/calgrid/internal/domain/recurrence"
	"github.com/okian/calgrid/internal/domain/timeofday"
	"github.com/okian/calgrid/internal/domain/view"
)

const (
	appName             = "calgrid-layout"
	defaultMaxExpansion = 1000
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

// run parses args, computes the layout and writes it to out.
func run(args []string, out io.Writer) error {
	return newApp(out).Run(append([]string{appName}, args...))
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   appName,
		Usage:  "Lay out calendar events from a file and print the result as JSON",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "events",
				Usage: "Events file (.yaml, .yml, .json or .ics)",
			},
			&cli.StringFlag{
				Name:  "view",
				Usage: "View type: day, week, month or year",
				Value: string(view.Week),
			},
			&cli.StringFlag{
				Name:  "date",
				Usage: "Anchor date (YYYY-MM-DD)",
			},
			&cli.IntFlag{
				Name:  "days",
				Usage: "Days shown by day and week views (0 keeps the default)",
			},
			&cli.Float64Flag{
				Name:  "hour-height",
				Usage: "Pixel height of one hour",
				Value: layout.DefaultHourHeight,
			},
			&cli.IntFlag{
				Name:  "first-day",
				Usage: "First day of week, 0 (Sunday) to 6",
				Value: layout.DefaultFirstDayOfWeek,
			},
			&cli.StringFlag{
				Name:  "time-format",
				Usage: "Time display: 24 or 12",
				Value: string(timeofday.Format24),
			},
			&cli.StringFlag{
				Name:  "tz",
				Usage: "Zone ICS timestamps are converted into",
				Value: "UTC",
			},
			&cli.IntFlag{
				Name:  "max-expansion",
				Usage: "Occurrences generated per repeating event",
				Value: defaultMaxExpansion,
			},
		},
		Action: func(c *cli.Context) error {
			return layoutEvents(c, out)
		},
	}
}

func layoutEvents(c *cli.Context, out io.Writer) error {
	eventsFile, date := c.String("events"), c.String("date")
	if eventsFile == "" || date == "" {
		return errors.New("--events and --date are required")
	}

	tz := c.String("tz")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", tz, err)
	}
	events, err := loadEvents(eventsFile, loc)
	if err != nil {
		return err
	}

	win := view.Window{Type: view.Type(c.String("view")), Anchor: date}
	if days := c.Int("days"); days > 0 {
		win.DaysCount = &days
	}

	engine := layout.New(
		layout.WithHourHeight(c.Float64("hour-height")),
		layout.WithFirstDayOfWeek(c.Int("first-day")),
		layout.WithTimeFormat(timeofday.Format(c.String("time-format"))),
	)
	grid, err := engine.Grid(win)
	if err != nil {
		return err
	}

	expanded := recurrence.New(recurrence.WithMaxOccurrences(c.Int("max-expansion"))).Expand(events, grid.Start, grid.End)
	res, err := engine.Layout(expanded.Events, win)
	if err != nil {
		return err
	}
	res.Skipped = append(expanded.Skipped, res.Skipped...)
	if res.Skipped == nil {
		res.Skipped = []model.Skip{}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// loadEvents reads events from path, choosing the decoder by extension.
func loadEvents(path string, loc *time.Location) ([]model.Event, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".ics":
		src := ics.Source{ID: strings.TrimSuffix(filepath.Base(path), ext)}
		events, _, err := ics.Parse(src, body, loc)
		return events, err
	case ".json":
		var events []model.Event
		if err := json.Unmarshal(body, &events); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return events, nil
	case ".yaml", ".yml":
		var events []model.Event
		if err := yaml.Unmarshal(body, &events); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return events, nil
	default:
		return nil, fmt.Errorf("unsupported events file %q", path)
	}
}
