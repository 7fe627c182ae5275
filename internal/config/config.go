// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Errors are wrapped with this package's sentinel kinds.
package config

// Store backends.
const (
	StoreMemory = "memory"
	StoreBolt   = "bolt"
)

// Log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// ICSSource is one ICS subscription to import events from.
type ICSSource struct {
	ID  string `koanf:"id"`
	URL string `koanf:"url"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Store selects the event store backend: memory or bolt.
	Store string `koanf:"store"`

	// BoltPath is the database file used when Store is bolt.
	BoltPath string `koanf:"bolt_path"`

	// HourHeight is the pixel height of one hour in day and week views.
	HourHeight float64 `koanf:"hour_height"`

	// MinEventHeight is the smallest rendered height of a timed event.
	MinEventHeight float64 `koanf:"min_event_height"`

	// FirstDayOfWeek is 0 (Sunday) to 6 (Saturday).
	FirstDayOfWeek int `koanf:"first_day_of_week"`

	// TimeFormat is "24" or "12".
	TimeFormat string `koanf:"time_format"`

	// Timezone is the IANA zone ICS timestamps are converted into.
	Timezone string `koanf:"timezone"`

	// MaxExpansion caps occurrences generated per repeating event.
	MaxExpansion int `koanf:"max_expansion"`

	// ICSSources are feeds imported on every sync.
	ICSSources []ICSSource `koanf:"ics_sources"`

	// ICSRefresh is the cron schedule of the ICS sync.
	ICSRefresh string `koanf:"ics_refresh"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      LogFormatText,
		Addr:           ":9080",
		Store:          StoreMemory,
		BoltPath:       "calgrid.db",
		HourHeight:     64,
		MinEventHeight: 16,
		FirstDayOfWeek: 1,
		TimeFormat:     "24",
		Timezone:       "UTC",
		MaxExpansion:   1000,
		ICSRefresh:     "*/15 * * * *",
	}
}
