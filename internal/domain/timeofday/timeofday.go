// Package timeofday parses and formats HH:MM clock values.
package timeofday

import (
	"errors"
	"fmt"
	"strings"
)

// Clock geometry.
const (
	MinutesPerHour = 60
	HoursPerDay    = 24
	MinutesPerDay  = HoursPerDay * MinutesPerHour
)

// ErrInvalidTime is returned for strings that are not a valid HH:MM value.
var ErrInvalidTime = errors.New("invalid time of day")

// Minutes is a time of day expressed as minutes since midnight.
type Minutes int

// Hours returns m as fractional hours.
func (m Minutes) Hours() float64 {
	return float64(m) / MinutesPerHour
}

// Format selects 12- or 24-hour display.
type Format string

// Display formats.
const (
	Format24 Format = "24"
	Format12 Format = "12"
)

// Valid reports whether f is a known display format.
func (f Format) Valid() bool {
	return f == Format24 || f == Format12
}

// Parse parses a start-of-interval HH:MM value in 00:00..23:59.
func Parse(s string) (Minutes, error) {
	m, err := parse(s)
	if err != nil {
		return 0, err
	}
	if m >= MinutesPerDay {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return m, nil
}

// ParseEnd parses an end-of-interval HH:MM value; 24:00 is accepted and
// denotes the end of the day.
func ParseEnd(s string) (Minutes, error) {
	return parse(s)
}

func parse(s string) (Minutes, error) {
	s = strings.TrimSpace(s)
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, ok1 := twoDigits(s[0], s[1])
	m, ok2 := twoDigits(s[3], s[4])
	if !ok1 || !ok2 || m >= MinutesPerHour {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	total := Minutes(h*MinutesPerHour + m)
	if total > MinutesPerDay {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return total, nil
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// String renders m as HH:MM.
func (m Minutes) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/MinutesPerHour, int(m)%MinutesPerHour)
}

// Display renders m for humans in the given format. Unknown formats fall
// back to 24-hour display.
func Display(m Minutes, f Format) string {
	if f != Format12 {
		return m.String()
	}
	h := (int(m) / MinutesPerHour) % HoursPerDay
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, int(m)%MinutesPerHour, suffix)
}

// Range renders "start - end" in the given format.
func Range(start, end Minutes, f Format) string {
	return Display(start, f) + " - " + Display(end, f)
}

// Duration renders the length of [start, end) as e.g. "45m", "2h",
// "1h 30m" or "2d 4h". Non-positive lengths render as "0m".
func Duration(start, end Minutes) string {
	d := int(end - start)
	if d <= 0 {
		return "0m"
	}
	parts := make([]string, 0, 3)
	if days := d / MinutesPerDay; days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if h := d % MinutesPerDay / MinutesPerHour; h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	if m := d % MinutesPerHour; m > 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
	}
	return strings.Join(parts, " ")
}
