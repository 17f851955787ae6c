package scheduling

import (
	"iter"
	"time"
)

const defaultMaxOccurrences = 366

// Expander materializes the concrete instances of a recurring seed.
type Expander struct {
	// MaxOccurrences caps the number of instances a single seed may produce,
	// seed included. If zero, defaultMaxOccurrences is used.
	MaxOccurrences int
}

func (e *Expander) maxOccurrences() int {
	if e == nil || e.MaxOccurrences <= 0 {
		return defaultMaxOccurrences
	}
	return e.MaxOccurrences
}

// Expand yields the seed, then for a daily rule one instance per following
// day until the instance's start date passes the RepeatUntil date. Every
// instance is a copy of the seed with a shifted range and no ID.
//
// Only daily rules are expanded. Any other frequency yields the seed alone.
func (e *Expander) Expand(seed Appointment) iter.Seq[Appointment] {
	return func(yield func(Appointment) bool) {
		if !yield(seed) {
			return
		}
		if !expandable(seed) {
			return
		}

		until := civilDate(seed.Recurrence.RepeatUntil)
		cur := seed.Range
		for range e.maxOccurrences() - 1 {
			cur = cur.ShiftByDays(1)
			if civilDate(cur.Start()).After(until) {
				return
			}

			inst := seed
			inst.ID = ""
			inst.Range = cur
			rec := *seed.Recurrence
			inst.Recurrence = &rec
			if !yield(inst) {
				return
			}
		}
	}
}

// Count returns how many instances Expand would yield for seed without the
// MaxOccurrences cap.
func (e *Expander) Count(seed Appointment) int {
	if !expandable(seed) {
		return 1
	}
	first := civilDate(seed.Range.Start())
	until := civilDate(seed.Recurrence.RepeatUntil)
	if until.Before(first) {
		return 1
	}
	// Both dates are UTC midnights, so the difference is a whole number of days.
	return int(until.Sub(first)/(24*time.Hour)) + 1
}

func expandable(seed Appointment) bool {
	return seed.IsRecurring &&
		seed.Recurrence != nil &&
		seed.Recurrence.Frequency == FrequencyDaily
}
