package testevents

import (
	"time"

	"github.com/okian/calgrid/internal/domain/model"
)

// Config holds configuration for the seed-and-verify run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumEvents  int           // Number of events to generate
	Anchor     string        // First date events are generated on (YYYY-MM-DD)
	Weeks      int           // Number of weeks events spread over and layouts are checked for
	Seed       uint64        // Generator seed; the same seed yields the same events
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for events
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// Event is a generated calendar event.
type Event = model.Event

// Violation is a layout invariant broken by a served layout.
type Violation struct {
	Window  string `json:"window" yaml:"window"`
	EventID string `json:"eventId" yaml:"eventId"`
	Message string `json:"message" yaml:"message"`
}

func (v Violation) String() string {
	return v.Window + " " + v.EventID + ": " + v.Message
}

// Stats holds run statistics.
type Stats struct {
	EventsGenerated  int
	EventsSubmitted  int
	EventsSuccessful int
	EventsConflict   int
	EventsFailed     int
	LayoutsRetrieved int
	EventsPositioned int
	EventsSkipped    int
	Violations       int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
