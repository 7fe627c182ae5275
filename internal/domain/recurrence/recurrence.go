// Package recurrence expands repeating events into the concrete
// occurrences that fall inside a date range.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/okian/calgrid/internal/domain/model"
)

const defaultMaxOccurrences = 1000

// ErrUnknownRepeatingType is returned for repeating events whose type is not
// daily, weekly or monthly.
var ErrUnknownRepeatingType = errors.New("unknown repeating type")

// Option applies a configuration option to the Expander.
type Option func(*Expander)

// WithMaxOccurrences caps the occurrences produced per repeating event.
func WithMaxOccurrences(n int) Option {
	return func(x *Expander) {
		if n > 0 {
			x.maxOccurrences = n
		}
	}
}

// Expander turns repeating events into single occurrences.
type Expander struct {
	maxOccurrences int
}

// New creates an Expander.
func New(opts ...Option) *Expander {
	x := &Expander{maxOccurrences: defaultMaxOccurrences}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Result holds the expanded events.
type Result struct {
	Events  []model.Event
	Skipped []model.Skip
	// Truncated lists repeating events that hit the occurrence cap.
	Truncated []string
}

// Expand returns every non-repeating event unchanged plus one occurrence per
// repetition of each repeating event that overlaps [from, to]. Occurrence
// ids are "<id>@<start date>". Repeating events with unparsable dates are
// passed through so the layout engine reports them.
func (x *Expander) Expand(events []model.Event, from, to time.Time) Result {
	var res Result
	from, to = model.Truncate(from), model.Truncate(to)
	for _, ev := range events {
		if !ev.IsRepeating {
			res.Events = append(res.Events, ev)
			continue
		}
		occ, truncated, err := x.expand(ev, from, to)
		switch {
		case errors.Is(err, ErrUnknownRepeatingType):
			res.Skipped = append(res.Skipped, model.Skip{ID: ev.ID, Reason: model.SkipInvalidRepeatingType})
			continue
		case err != nil:
			res.Events = append(res.Events, ev)
			continue
		}
		if truncated {
			res.Truncated = append(res.Truncated, ev.ID)
		}
		res.Events = append(res.Events, occ...)
	}
	return res
}

func (x *Expander) expand(ev model.Event, from, to time.Time) ([]model.Event, bool, error) {
	freq, err := frequency(ev.RepeatingType)
	if err != nil {
		return nil, false, err
	}
	start, err := model.ParseDate(ev.StartDate)
	if err != nil {
		return nil, false, err
	}
	end, err := model.ParseDate(ev.EndDate)
	if err != nil {
		return nil, false, err
	}
	span := max(model.DaysBetween(start, end), 0)

	r, err := rrule.NewRRule(rrule.ROption{Freq: freq, Dtstart: start})
	if err != nil {
		return nil, false, fmt.Errorf("build rule for %s: %w", ev.ID, err)
	}

	// An occurrence starting up to span days before from still reaches it.
	times := r.Between(from.AddDate(0, 0, -span), to, true)
	truncated := false
	if len(times) > x.maxOccurrences {
		times = times[:x.maxOccurrences]
		truncated = true
	}

	out := make([]model.Event, 0, len(times))
	for _, t := range times {
		o := ev
		o.StartDate = model.FormatDate(t)
		o.EndDate = model.FormatDate(t.AddDate(0, 0, span))
		o.ID = ev.ID + "@" + o.StartDate
		out = append(out, o)
	}
	return out, truncated, nil
}

func frequency(t model.RepeatingType) (rrule.Frequency, error) {
	switch t {
	case model.RepeatDaily:
		return rrule.DAILY, nil
	case model.RepeatWeekly:
		return rrule.WEEKLY, nil
	case model.RepeatMonthly:
		return rrule.MONTHLY, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRepeatingType, t)
}
