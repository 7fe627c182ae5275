// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// ErrInvalidDate reports a date that does not match DateLayout.
var ErrInvalidDate = errors.New("invalid date")

// RepeatingType selects how a repeating event recurs.
type RepeatingType string

// Supported repeating types.
const (
	RepeatDaily   RepeatingType = "daily"
	RepeatWeekly  RepeatingType = "weekly"
	RepeatMonthly RepeatingType = "monthly"
)

// Valid reports whether t is one of the supported repeating types.
func (t RepeatingType) Valid() bool {
	switch t {
	case RepeatDaily, RepeatWeekly, RepeatMonthly:
		return true
	}
	return false
}

// Event is a calendar entry as stored and edited by users.
// Dates are date-only and times are HH:MM on a 24-hour clock; the two are
// independent, so a multi-day event starts at StartTime on StartDate and
// ends at EndTime on EndDate.
type Event struct {
	ID            string        `json:"id" yaml:"id"`
	StartDate     string        `json:"startDate" yaml:"startDate"`
	EndDate       string        `json:"endDate" yaml:"endDate"`
	StartTime     string        `json:"startTime" yaml:"startTime"`
	EndTime       string        `json:"endTime" yaml:"endTime"`
	IsRepeating   bool          `json:"isRepeating" yaml:"isRepeating"`
	RepeatingType RepeatingType `json:"repeatingType,omitempty" yaml:"repeatingType,omitempty"`

	// Presentation only.
	Title       string `json:"title" yaml:"title"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Location    string `json:"location,omitempty" yaml:"location,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// MultiDay reports whether the event spans more than one calendar date.
func (e Event) MultiDay() bool {
	return e.StartDate != e.EndDate
}

// ParseDate parses a YYYY-MM-DD date into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Truncate returns midnight UTC of the calendar date t falls on.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Truncate(b).Sub(Truncate(a)).Hours() / 24)
}
