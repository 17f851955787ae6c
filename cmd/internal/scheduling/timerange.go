package scheduling

import "time"

// TimeRange is a half-open interval [start, end). The zero value is not a
// valid range; build one with NewTimeRange.
type TimeRange struct {
	start time.Time
	end   time.Time
}

func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if !start.Before(end) {
		return TimeRange{}, ErrInvalidRange
	}
	return TimeRange{start: start, end: end}, nil
}

func (r TimeRange) Start() time.Time { return r.start }

func (r TimeRange) End() time.Time { return r.end }

func (r TimeRange) Duration() time.Duration { return r.end.Sub(r.start) }

// Overlaps reports whether the two ranges share at least one instant.
// Ranges that only touch at an endpoint do not overlap.
func Overlaps(a, b TimeRange) bool {
	return a.start.Before(b.end) && b.start.Before(a.end)
}

// ShiftByDays moves both endpoints by n calendar days. Wall-clock times are
// kept, so the absolute duration may change across a DST transition in the
// range's location.
func (r TimeRange) ShiftByDays(n int) TimeRange {
	return TimeRange{
		start: r.start.AddDate(0, 0, n),
		end:   r.end.AddDate(0, 0, n),
	}
}

// civilDate drops the clock part of t, keeping the date as seen in t's own
// location.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
