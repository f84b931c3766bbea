package hos

import (
	"fmt"
	"time"

	"github.com/pkordes/hos-logbook/internal/domain"
)

// WindowMode selects how the trailing cycle window is measured.
type WindowMode string

const (
	// WindowRolling is exactly WindowDays x 24h ending at the evaluation time.
	WindowRolling WindowMode = "rolling"
	// WindowCalendar covers the current calendar day plus the WindowDays-1
	// preceding days, starting at midnight in the rules' time zone.
	WindowCalendar WindowMode = "calendar"
)

// ParseWindowMode converts s into a WindowMode.
func ParseWindowMode(s string) (WindowMode, error) {
	switch m := WindowMode(s); m {
	case WindowRolling, WindowCalendar:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown cycle window mode %q", domain.ErrValidation, s)
}

// DateOf returns the calendar date of t as seen in loc, expressed as midnight UTC.
func DateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayBounds returns [start, end) of the log day for date in loc.
// A log day is always 24 hours from local midnight, so daylight-saving
// transition days still total 24 hours.
func DayBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return start, start.Add(24 * time.Hour)
}

// DayStart is local midnight of the day containing t.
func DayStart(t time.Time, loc *time.Location) time.Time {
	start, _ := DayBounds(DateOf(t, loc), loc)
	return start
}

// CycleWindow returns the trailing window [from, at) over which cycle hours
// are summed.
func CycleWindow(rule domain.CycleRule, at time.Time, mode WindowMode, loc *time.Location) (time.Time, time.Time) {
	if mode == WindowCalendar {
		return DayStart(at, loc).AddDate(0, 0, -(rule.WindowDays - 1)), at
	}
	return at.Add(-time.Duration(rule.WindowDays) * 24 * time.Hour), at
}

// RemainingCycleHours is the cap minus hours used, floored at zero.
func RemainingCycleHours(rule domain.CycleRule, used float64) float64 {
	if left := rule.MaxHours - used; left > 0 {
		return left
	}
	return 0
}
