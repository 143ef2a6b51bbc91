package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// IST is Indian Standard Time. It has no daylight saving.
var IST = time.FixedZone("IST", 5*60*60+30*60)

// TimeZoneName is the IANA zone tagged on every calendar write.
const TimeZoneName = "Asia/Kolkata"

// SlotDuration is the only bookable slot length.
const SlotDuration = 30 * time.Minute

// CivilLayout is the canonical civil rendering used in status strings and ledgers.
const CivilLayout = "2006-01-02T15:04:05"

var (
	ErrNotCivil    = errors.New("time carries a UTC offset; civil time expected")
	ErrInvalidTime = errors.New("invalid civil time")
	civilLayouts   = []string{CivilLayout, "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"}
	offsetLayouts  = []string{time.RFC3339, "2006-01-02T15:04Z07:00", "2006-01-02 15:04:05Z07:00"}
)

// ParseCivil interprets an ISO-8601 civil date-time as IST.
func ParseCivil(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidTime)
	}

	for _, layout := range civilLayouts {
		if t, err := time.ParseInLocation(layout, value, IST); err == nil {
			return t, nil
		}
	}

	for _, layout := range offsetLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrNotCivil, value)
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, value)
}

// FormatCivil renders t as civil IST time.
func FormatCivil(t time.Time) string {
	return t.In(IST).Format(CivilLayout)
}

// Slot is a half-open interval [Start, End).
type Slot struct {
	Start time.Time
	End   time.Time
}

// NewSlot anchors a fixed-length slot at start.
func NewSlot(start time.Time) Slot {
	start = start.In(IST)
	return Slot{Start: start, End: start.Add(SlotDuration)}
}

// Civil returns the slot start as civil time.
func (s Slot) Civil() string {
	return FormatCivil(s.Start)
}

// Overlaps reports whether two half-open intervals share any instant.
func (s Slot) Overlaps(other Slot) bool {
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

// Contains reports whether other lies entirely inside s.
func (s Slot) Contains(other Slot) bool {
	return !other.Start.Before(s.Start) && !other.End.After(s.End)
}
