package recorder

import "time"

// RenderEvent records one successfully written chart.
type RenderEvent struct {
	Time      time.Time
	Requested string // identifier as requested
	Symbol    string // ticker actually rendered
	Points    int
	Days      int
	Segments  int
	Labels    int
	Direction string // "up", "down" or "" without a badge
	LastClose float64
	RefClose  float64
	Path      string
	Duration  time.Duration
	Warning   string
}

// FailureEvent records a chart that could not be produced.
type FailureEvent struct {
	Time   time.Time
	Symbol string
	Stage  string // pipeline stage, or "collect" / "write"
	Error  string
}

// Recorder persists render history for analysis.
type Recorder interface {
	RecordRender(evt *RenderEvent) error
	RecordFailure(evt *FailureEvent) error
	Recent(limit int) ([]RenderEvent, error)
	Close() error
}
