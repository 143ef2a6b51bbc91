package calendar

import "time"

const (
	DefaultSummary     = "AI Appointment"
	DefaultDescription = "Booked via SamaySetu Gujarati AI Bot"
)

// Event is a provider-neutral calendar entry.
type Event struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// Span returns the event interval.
func (e Event) Span() Slot {
	return Slot{Start: e.Start, End: e.End}
}

// Interval is a busy period reported by a free/busy query.
type Interval = Slot
