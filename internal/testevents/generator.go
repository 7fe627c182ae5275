package testevents

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/okian/calgrid/internal/domain/model"
	"github.com/okian/calgrid/pkg/logger"
)

const (
	quarter        = 15
	minutesPerDay  = 24 * 60
	quartersPerDay = minutesPerDay / quarter
	dayStartSlot   = 6 * 60 / quarter  // 06:00
	daySlots       = 14 * 60 / quarter // up to 19:45
	maxQuarters    = 16                // 4h
	maxSpanDays    = 4
)

// Shares out of kindTotal for each generated kind.
const (
	kindTimed     = 12
	kindMultiDay  = 3
	kindAllDay    = 2
	kindRepeating = 3
	kindTotal     = kindTimed + kindMultiDay + kindAllDay + kindRepeating
)

var (
	titles = []string{"Standup", "Planning", "Review", "1:1", "Lunch", "Design sync", "Interview", "Focus time", "Retro", "Demo"}
	colors = []string{"blue", "green", "red", "purple", "orange", "teal"}
)

// generateEvents creates cfg.NumEvents events spread over cfg.Weeks weeks
// starting at cfg.Anchor.
func generateEvents(ctx context.Context, cfg *Config, stats *Stats) ([]Event, error) {
	if cfg.NumEvents <= 0 {
		return nil, errors.New("number of events must be positive")
	}
	if cfg.Weeks <= 0 {
		return nil, errors.New("number of weeks must be positive")
	}
	anchor, err := model.ParseDate(cfg.Anchor)
	if err != nil {
		return nil, fmt.Errorf("anchor %q: %w", cfg.Anchor, err)
	}

	logger.Get().Info(ctx, "generating events",
		logger.Int("numEvents", cfg.NumEvents),
		logger.String("anchor", cfg.Anchor),
		logger.Int("weeks", cfg.Weeks),
		logger.Any("seed", cfg.Seed))

	r := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	days := cfg.Weeks * 7
	events := make([]Event, cfg.NumEvents)
	for i := range events {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during event generation: %w", err)
		}
		date := anchor.AddDate(0, 0, r.IntN(days))
		events[i] = generateSingleEvent(r, i, cfg.Seed, date)
	}

	stats.EventsGenerated = len(events)
	logger.Get().Info(ctx, "generated events successfully", logger.Int("count", len(events)))
	return events, nil
}

// generateSingleEvent creates event number index starting on date.
func generateSingleEvent(r *rand.Rand, index int, seed uint64, date time.Time) Event {
	ev := Event{
		ID:        fmt.Sprintf("seed-%d-%05d", seed, index),
		Title:     titles[r.IntN(len(titles))],
		Color:     colors[r.IntN(len(colors))],
		StartDate: model.FormatDate(date),
		EndDate:   model.FormatDate(date),
	}

	switch k := r.IntN(kindTotal); {
	case k < kindTimed:
		ev.StartTime, ev.EndTime = timedSlot(r)
	case k < kindTimed+kindMultiDay:
		ev.EndDate = model.FormatDate(date.AddDate(0, 0, 1+r.IntN(maxSpanDays)))
		ev.StartTime = clock(r.IntN(quartersPerDay) * quarter)
		ev.EndTime = clock(r.IntN(quartersPerDay) * quarter)
		ev.Title += " trip"
	case k < kindTimed+kindMultiDay+kindAllDay:
		ev.StartTime, ev.EndTime = "00:00", "24:00"
		ev.Title += " (all day)"
	default:
		ev.StartTime, ev.EndTime = timedSlot(r)
		ev.IsRepeating = true
		ev.RepeatingType = repeatingType(r)
	}
	return ev
}

// timedSlot picks a quarter-aligned daytime interval.
func timedSlot(r *rand.Rand) (string, string) {
	start := (dayStartSlot + r.IntN(daySlots)) * quarter
	end := min(start+(1+r.IntN(maxQuarters))*quarter, minutesPerDay)
	return clock(start), clock(end)
}

func repeatingType(r *rand.Rand) model.RepeatingType {
	switch n := r.IntN(6); {
	case n == 0:
		return model.RepeatDaily
	case n < 4:
		return model.RepeatWeekly
	default:
		return model.RepeatMonthly
	}
}

// clock renders minutes after midnight as HH:MM; 1440 renders as 24:00.
func clock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
