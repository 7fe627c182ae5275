// Package ics imports calendar events from iCalendar feeds.
package ics

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/okian/calgrid/internal/domain/model"
	"github.com/okian/calgrid/internal/domain/timeofday"
)

const (
	icsDateLayout = "20060102"
	untitled      = "(untitled)"
)

// Source is a single ICS subscription.
type Source struct {
	ID  string `yaml:"id" json:"id"`
	URL string `yaml:"url" json:"url"`
}

// Parse reads every VEVENT in body and converts it into an Event. Times are
// shown in loc (UTC when nil). Event ids are "<source id>:<UID>", with the
// RECURRENCE-ID appended for overridden instances. VEVENTs without UID or
// DTSTART are dropped and counted in the second return value.
func Parse(src Source, body []byte, loc *time.Location) ([]model.Event, int, error) {
	if loc == nil {
		loc = time.UTC
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: source %s: %w", ErrParse, src.ID, err)
	}

	events := make([]model.Event, 0)
	dropped := 0
	for _, ve := range cal.Events() {
		ev, ok := convert(src, ve, loc)
		if !ok {
			dropped++
			continue
		}
		events = append(events, ev)
	}
	return events, dropped, nil
}

func convert(src Source, ve *ical.VEvent, loc *time.Location) (model.Event, bool) {
	uid := propValue(ve, ical.ComponentPropertyUniqueId)
	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if uid == "" || dtStart == nil {
		return model.Event{}, false
	}

	ev := model.Event{
		ID:          src.ID + ":" + uid,
		Title:       propValue(ve, ical.ComponentPropertySummary),
		Location:    propValue(ve, ical.ComponentPropertyLocation),
		Description: propValue(ve, ical.ComponentPropertyDescription),
		Category:    src.ID,
	}
	if ev.Title == "" {
		ev.Title = untitled
	}
	if rid := propValue(ve, ical.ComponentProperty("RECURRENCE-ID")); rid != "" {
		ev.ID += "@" + rid
	}

	var ok bool
	if isDate(dtStart) {
		ok = allDay(ve, dtStart, &ev)
	} else {
		ok = timed(ve, loc, &ev)
	}
	if !ok {
		return model.Event{}, false
	}

	if rrule := propValue(ve, ical.ComponentPropertyRrule); rrule != "" {
		if t, ok := repeatingType(rrule); ok {
			ev.IsRepeating = true
			ev.RepeatingType = t
		}
	}
	return ev, true
}

// allDay maps a DATE event onto 00:00-24:00 with an inclusive end date.
func allDay(ve *ical.VEvent, dtStart *ical.IANAProperty, ev *model.Event) bool {
	start, err := time.Parse(icsDateLayout, strings.TrimSpace(dtStart.Value))
	if err != nil {
		return false
	}
	end := start
	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
		if t, err := time.Parse(icsDateLayout, strings.TrimSpace(p.Value)); err == nil && t.After(start) {
			end = t.AddDate(0, 0, -1)
		}
	}
	ev.StartDate, ev.EndDate = model.FormatDate(start), model.FormatDate(end)
	ev.StartTime, ev.EndTime = "00:00", "24:00"
	return true
}

func timed(ve *ical.VEvent, loc *time.Location, ev *model.Event) bool {
	start, err := ve.GetStartAt()
	if err != nil {
		return false
	}
	end, err := ve.GetEndAt()
	if err != nil || end.Before(start) {
		end = start
	}
	start, end = start.In(loc), end.In(loc)

	ev.StartDate = model.FormatDate(start)
	ev.StartTime = clock(start)
	ev.EndDate = model.FormatDate(end)
	ev.EndTime = clock(end)

	// An event ending exactly at the following midnight stays on its day.
	if clock(end) == "00:00" && model.DaysBetween(start, end) == 1 {
		ev.EndDate = ev.StartDate
		ev.EndTime = timeofday.Minutes(timeofday.MinutesPerDay).String()
	}
	return true
}

func clock(t time.Time) string {
	return timeofday.Minutes(t.Hour()*timeofday.MinutesPerHour + t.Minute()).String()
}

func isDate(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// repeatingType extracts FREQ from an RRULE value. Only daily, weekly and
// monthly rules are representable; others import as single events.
func repeatingType(rrule string) (model.RepeatingType, bool) {
	for _, part := range strings.Split(rrule, ";") {
		k, v, found := strings.Cut(part, "=")
		if !found || !strings.EqualFold(k, "FREQ") {
			continue
		}
		t := model.RepeatingType(strings.ToLower(v))
		return t, t.Valid()
	}
	return "", false
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return p.Value
	}
	return ""
}
