// Package hos holds the pure Hours-of-Service arithmetic: clipping duty-status
// intervals to a range, per-status hour totals, cycle windows, transition
// rules, rest-stop planning and the daily mileage chain.
//
// Nothing in this package touches storage or the wall clock. Services gather
// the inputs and call in here, which keeps every rule deterministic under test.
package hos

import (
	"sort"
	"time"

	"github.com/pkordes/hos-logbook/internal/domain"
)

// Hours maps each duty status to a fractional number of hours.
type Hours map[domain.DutyStatus]float64

// NewHours returns an Hours with every status present and zero.
func NewHours() Hours {
	h := make(Hours, len(domain.AllStatuses))
	for _, s := range domain.AllStatuses {
		h[s] = 0
	}
	return h
}

// Total is the sum over all statuses.
func (h Hours) Total() float64 {
	var sum float64
	for _, v := range h {
		sum += v
	}
	return sum
}

// CycleHours is driving plus on-duty time, the figure charged against a cycle cap.
func (h Hours) CycleHours() float64 {
	return h[domain.StatusDriving] + h[domain.StatusOnDuty]
}

// HoursBetween returns to-from in fractional hours (seconds / 3600).
func HoursBetween(from, to time.Time) float64 {
	return to.Sub(from).Seconds() / 3600.0
}

// Segment is a stored interval together with its bounds clipped to a query
// range. Interval is the raw record and is never modified.
type Segment struct {
	Interval domain.StatusInterval
	Start    time.Time
	End      time.Time
}

// Hours is the clipped length of the segment.
func (s Segment) Hours() float64 {
	return HoursBetween(s.Start, s.End)
}

// Clip returns iv truncated to [from, to). An open interval is treated as
// ending at to. ok is false when nothing of iv falls inside the range.
func Clip(iv domain.StatusInterval, from, to time.Time) (Segment, bool) {
	end := to
	if iv.End != nil && iv.End.Before(to) {
		end = *iv.End
	}
	start := iv.Start
	if start.Before(from) {
		start = from
	}
	if !end.After(start) {
		return Segment{}, false
	}
	return Segment{Interval: iv, Start: start, End: end}, true
}

// ClipAll clips every interval to [from, to) and returns the non-empty
// segments ordered by start time.
func ClipAll(intervals []domain.StatusInterval, from, to time.Time) []Segment {
	out := make([]Segment, 0, len(intervals))
	if !to.After(from) {
		return out
	}
	for _, iv := range intervals {
		if seg, ok := Clip(iv, from, to); ok {
			out = append(out, seg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// SumByStatus totals the clipped duration of intervals per status over
// [from, to). The result always carries all four statuses.
func SumByStatus(intervals []domain.StatusInterval, from, to time.Time) Hours {
	h := NewHours()
	for _, seg := range ClipAll(intervals, from, to) {
		h[seg.Interval.Status] += seg.Hours()
	}
	return h
}
