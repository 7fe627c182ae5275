// Package repository stores calendar events.
package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/okian/calgrid/internal/domain/model"
	"github.com/okian/calgrid/internal/domain/timeofday"
)

// Store provides read/write access to calendar events.
type Store interface {
	// Create stores a new event, assigning an id when it has none.
	// Returns ErrConflict if the id is taken.
	Create(ctx context.Context, ev model.Event) (model.Event, error)
	// Upsert stores ev, replacing any event with the same id.
	Upsert(ctx context.Context, ev model.Event) error
	// Update replaces an existing event. Returns ErrNotFound if unknown.
	Update(ctx context.Context, ev model.Event) (model.Event, error)
	// Get returns an event by id. Returns ErrNotFound if unknown.
	Get(ctx context.Context, id string) (model.Event, error)
	// Delete removes an event. Returns ErrNotFound if unknown.
	Delete(ctx context.Context, id string) error
	// List returns all events in start order.
	List(ctx context.Context) ([]model.Event, error)
	// InRange returns events whose dates overlap [from, to] plus repeating
	// events that start on or before to.
	InRange(ctx context.Context, from, to time.Time) ([]model.Event, error)
	// Count returns the number of stored events.
	Count(ctx context.Context) int
	Close() error
}

// Validate checks the invariants an event must satisfy to be stored.
func Validate(ev model.Event) error {
	from, err := model.ParseDate(ev.StartDate)
	if err != nil {
		return fmt.Errorf("%w: startDate %q", ErrInvalidEvent, ev.StartDate)
	}
	to, err := model.ParseDate(ev.EndDate)
	if err != nil {
		return fmt.Errorf("%w: endDate %q", ErrInvalidEvent, ev.EndDate)
	}
	start, err := timeofday.Parse(ev.StartTime)
	if err != nil {
		return fmt.Errorf("%w: startTime: %w", ErrInvalidEvent, err)
	}
	end, err := timeofday.ParseEnd(ev.EndTime)
	if err != nil {
		return fmt.Errorf("%w: endTime: %w", ErrInvalidEvent, err)
	}
	switch {
	case ev.Title == "":
		return fmt.Errorf("%w: missing title", ErrInvalidEvent)
	case to.Before(from):
		return fmt.Errorf("%w: endDate before startDate", ErrInvalidEvent)
	case !ev.MultiDay() && end <= start:
		return fmt.Errorf("%w: endTime must be after startTime", ErrInvalidEvent)
	case ev.IsRepeating && !ev.RepeatingType.Valid():
		return fmt.Errorf("%w: repeatingType %q", ErrInvalidEvent, ev.RepeatingType)
	case !ev.IsRepeating && ev.RepeatingType != "":
		return fmt.Errorf("%w: repeatingType set on a non-repeating event", ErrInvalidEvent)
	}
	return nil
}

// prepare validates ev and fills in a fresh id when missing.
func prepare(ev model.Event) (model.Event, error) {
	if err := Validate(ev); err != nil {
		return ev, err
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	return ev, nil
}

// overlaps reports whether ev belongs in an InRange answer.
func overlaps(ev model.Event, from, to time.Time) bool {
	start, err := model.ParseDate(ev.StartDate)
	if err != nil {
		return false
	}
	if ev.IsRepeating {
		return !start.After(to)
	}
	end, err := model.ParseDate(ev.EndDate)
	if err != nil {
		return false
	}
	return !end.Before(from) && !start.After(to)
}

// sortEvents orders events by start date, start time and id.
func sortEvents(events []model.Event) {
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.StartDate != b.StartDate {
			return a.StartDate < b.StartDate
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
}
