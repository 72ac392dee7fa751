package booking

import (
	"time"

	"github.com/vridhi-nahata/ServeGo-Backend/models"
)

const clockLayout = "15:04"
const dateLayout = "2006-01-02"

// parseClock validates a "HH:MM" time-of-day string.
func parseClock(s string) (time.Time, error) {
	return time.Parse(clockLayout, s)
}

// validateSlot checks that both bounds parse and that from < to.
func validateSlot(slot models.TimeSlot) error {
	from, err := parseClock(slot.From)
	if err != nil {
		return NewValidationError("invalid 'from' time %q, expected HH:MM", slot.From)
	}
	to, err := parseClock(slot.To)
	if err != nil {
		return NewValidationError("invalid 'to' time %q, expected HH:MM", slot.To)
	}
	if !from.Before(to) {
		return NewValidationError("'from' time must be earlier than 'to' time")
	}
	return nil
}

// slotsOverlap reports whether [a.From,a.To) and [b.From,b.To) intersect.
// Zero-padded HH:MM strings order lexicographically the same as
// chronologically, so plain string comparison is exact. Touching endpoints
// (a.To == b.From) do not overlap.
func slotsOverlap(a, b models.TimeSlot) bool {
	return a.From < b.To && b.From < a.To
}

// parseDate validates a "YYYY-MM-DD" calendar date and normalizes it to UTC
// midnight for day-bounded storage and queries.
func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, NewValidationError("invalid date %q, expected YYYY-MM-DD", s)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
}
