// Package occurrence expands task definitions into the calendar days they occur on.
package occurrence

import (
	"iter"
	"slices"
	"time"

	"task_tracker/internal/domain"
)

// Occurrences yields the days in the inclusive range [from, to] on which t occurs,
// in ascending order. The sequence can be ranged over any number of times.
func Occurrences(t *domain.Task, from, to time.Time) iter.Seq[time.Time] {
	from, to = Day(from), Day(to)
	return func(yield func(time.Time) bool) {
		if t == nil || from.After(to) {
			return
		}
		if t.Recurrence == domain.RecurrenceNone {
			d := t.StartDate
			if t.DueDate != nil {
				d = *t.DueDate
			}
			d = Day(d)
			if !d.Before(from) && !d.After(to) {
				yield(d)
			}
			return
		}

		lo, hi, ok := clip(t, from, to)
		if !ok {
			return
		}
		switch t.Recurrence {
		case domain.RecurrenceDaily:
			for d := lo; !d.After(hi); d = d.AddDate(0, 0, 1) {
				if !yield(d) {
					return
				}
			}
		case domain.RecurrenceWeekly:
			mask := weekdayMask(t.RecurrenceDays)
			if mask == 0 {
				return
			}
			for d := lo; !d.After(hi); d = d.AddDate(0, 0, 1) {
				if mask&(1<<uint(d.Weekday())) == 0 {
					continue
				}
				if !yield(d) {
					return
				}
			}
		case domain.RecurrenceMonthly:
			anchor := Day(t.StartDate).Day()
			for m := time.Date(lo.Year(), lo.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(hi); m = m.AddDate(0, 1, 0) {
				// no clamping: a month without the anchor day has no occurrence
				if anchor > DaysIn(m.Year(), m.Month()) {
					continue
				}
				d := time.Date(m.Year(), m.Month(), anchor, 0, 0, 0, 0, time.UTC)
				if d.Before(lo) || d.After(hi) {
					continue
				}
				if !yield(d) {
					return
				}
			}
		case domain.RecurrenceYearly:
			start := Day(t.StartDate)
			month, anchor := start.Month(), start.Day()
			for y := lo.Year(); y <= hi.Year(); y++ {
				if anchor > DaysIn(y, month) {
					continue
				}
				d := time.Date(y, month, anchor, 0, 0, 0, 0, time.UTC)
				if d.Before(lo) || d.After(hi) {
					continue
				}
				if !yield(d) {
					return
				}
			}
		}
	}
}

// Resolve collects Occurrences into a slice.
func Resolve(t *domain.Task, from, to time.Time) []time.Time {
	return slices.Collect(Occurrences(t, from, to))
}

// OccursOn reports whether t has an occurrence on day d.
func OccursOn(t *domain.Task, d time.Time) bool {
	for range Occurrences(t, d, d) {
		return true
	}
	return false
}

// clip intersects [from, to] with the task's own [startDate, endDate].
func clip(t *domain.Task, from, to time.Time) (lo, hi time.Time, ok bool) {
	lo, hi = from, to
	if start := Day(t.StartDate); start.After(lo) {
		lo = start
	}
	if t.EndDate != nil {
		if end := Day(*t.EndDate); end.Before(hi) {
			hi = end
		}
	}
	return lo, hi, !lo.After(hi)
}

// weekdayMask packs valid weekdays (0 = Sunday .. 6) into a bitmask; other values are ignored.
func weekdayMask(days []int) uint8 {
	var mask uint8
	for _, d := range days {
		if d < 0 || d > 6 {
			continue
		}
		mask |= 1 << uint(d)
	}
	return mask
}
