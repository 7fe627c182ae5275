package model

// PositionedEvent is an Event together with its place in a rendered view.
// Timed events (single-day events in day and week views) carry geometry;
// everything else carries one bar segment per grid row it touches.
type PositionedEvent struct {
	Event

	Timed bool `json:"timed"`

	// Timed geometry.
	Date               string  `json:"date,omitempty"`
	DayIndex           int     `json:"dayIndex"`
	Cluster            int     `json:"cluster"`
	Top                float64 `json:"top"`
	Height             float64 `json:"height"`
	Column             int     `json:"column"`
	TotalColumns       int     `json:"totalColumns"`
	LeftOffsetPercent  float64 `json:"leftOffsetPercent"`
	RightOffsetPercent float64 `json:"rightOffsetPercent"`

	// Bar placement.
	Bars []BarSegment `json:"bars,omitempty"`

	TimeText     string `json:"timeText"`
	DurationText string `json:"durationText"`
}

// BarSegment places a slice of an all-day/multi-day bar inside one grid row.
// StartIndex and EndIndex are inclusive day offsets within that row.
type BarSegment struct {
	GridRow         int  `json:"gridRow"`
	StartIndex      int  `json:"startIndex"`
	EndIndex        int  `json:"endIndex"`
	Row             int  `json:"row"`
	ContinuesBefore bool `json:"continuesBefore"`
	ContinuesAfter  bool `json:"continuesAfter"`
}

// SkipReason explains why an event was left out of a layout.
type SkipReason string

// Skip reasons reported by the layout engine and the recurrence expander.
const (
	SkipMissingID            SkipReason = "missing-id"
	SkipDuplicateID          SkipReason = "duplicate-id"
	SkipInvalidDateFormat    SkipReason = "invalid-date-format"
	SkipInvalidTimeFormat    SkipReason = "invalid-time-format"
	SkipInvalidDateRange     SkipReason = "invalid-date-range"
	SkipInvalidTimeRange     SkipReason = "invalid-time-range"
	SkipOutsideWindow        SkipReason = "outside-window"
	SkipInvalidRepeatingType SkipReason = "invalid-repeating-type"
)

// Skip records an event that was excluded and why.
type Skip struct {
	ID     string     `json:"id"`
	Reason SkipReason `json:"reason"`
}
