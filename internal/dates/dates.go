// Package dates holds the pure calendar arithmetic behind deadline
// calculation. Everything here is deterministic: the same base date and
// offset always produce the same due date.
package dates

import (
	"time"

	"docketline/internal/domain"
)

const (
	UnitCalendarDays = "calendar_days"
	UnitBusinessDays = "business_days"
)

// DateLayout is the wire and storage format for civil dates.
const DateLayout = "2006-01-02"

// Offset is a rule's distance from its base date.
type Offset struct {
	Days int
	Unit string
}

// HolidaySet is a set of dates (in DateLayout form) skipped in addition to
// weekends when counting business days.
type HolidaySet map[string]struct{}

// NewHolidaySet parses and validates a list of DateLayout strings.
func NewHolidaySet(days []string) (HolidaySet, error) {
	set := make(HolidaySet, len(days))
	for _, d := range days {
		t, err := ParseDate(d)
		if err != nil {
			return nil, err
		}
		set[t.Format(DateLayout)] = struct{}{}
	}
	return set, nil
}

func (h HolidaySet) Contains(t time.Time) bool {
	if h == nil {
		return false
	}
	_, ok := h[t.Format(DateLayout)]
	return ok
}

// ParseDate parses a civil date, normalized to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, domain.ValidationError{Field: "date", Message: "must be a valid YYYY-MM-DD date"}
	}
	return t, nil
}

// FormatDate renders a time as a civil date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Truncate drops the time-of-day component, keeping the civil date in UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ComputeDueDate adds an offset to a base date. Calendar days are added
// directly; business days advance one day at a time, counting only weekdays
// that are not in the holiday set. A zero offset returns the base unchanged
// and a negative offset is invalid.
func ComputeDueDate(base time.Time, o Offset, holidays HolidaySet) (time.Time, error) {
	if o.Days < 0 {
		return time.Time{}, domain.ValidationError{Field: "offset_days", Message: "must not be negative"}
	}
	base = Truncate(base)
	switch o.Unit {
	case UnitCalendarDays:
		return base.AddDate(0, 0, o.Days), nil
	case UnitBusinessDays:
		due := base
		for added := 0; added < o.Days; {
			due = due.AddDate(0, 0, 1)
			if IsBusinessDay(due, holidays) {
				added++
			}
		}
		return due, nil
	default:
		return time.Time{}, domain.ValidationError{Field: "offset_unit", Message: "must be calendar_days or business_days"}
	}
}

// IsBusinessDay reports whether t is a weekday outside the holiday set.
func IsBusinessDay(t time.Time, holidays HolidaySet) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !holidays.Contains(t)
}
