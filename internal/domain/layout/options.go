package layout

import "github.com/okian/calgrid/internal/domain/timeofday"

// Default engine configuration.
const (
	DefaultHourHeight     = 64.0
	DefaultFirstDayOfWeek = 1 // Monday
	// defaultMinEventMinutes is the visual floor for short and instantaneous
	// events, expressed in minutes of the hour grid.
	defaultMinEventMinutes = 15
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithHourHeight sets the pixel height of one hour in day and week views.
func WithHourHeight(h float64) Option {
	return func(e *Engine) {
		e.hourHeight = h
	}
}

// WithMinEventHeight sets the minimum rendered height of a timed event.
// When unset it tracks the hour height at 15 minutes.
func WithMinEventHeight(h float64) Option {
	return func(e *Engine) {
		e.minEventHeight = h
		e.minEventHeightSet = true
	}
}

// WithFirstDayOfWeek sets the weekday weeks start on, 0 (Sunday) to 6.
func WithFirstDayOfWeek(d int) Option {
	return func(e *Engine) {
		e.firstDayOfWeek = d
	}
}

// WithTimeFormat selects 12- or 24-hour display text. Geometry is unaffected.
func WithTimeFormat(f timeofday.Format) Option {
	return func(e *Engine) {
		e.timeFormat = f
	}
}
