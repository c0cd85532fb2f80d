package types

import "time"

// Event levels.
const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Event is one append-only audit record. RowNumber is the 1-based data row
// the event refers to, or 0 when the event is not row-scoped.
type Event struct {
	ExecutionID string
	Script      string
	Table       string
	Level       string
	RowNumber   int
	Action      string
	Details     string
	CreatedAt   time.Time
}
