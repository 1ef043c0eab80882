// Package completion tracks which occurrences of a task are done.
//
// One-off tasks keep their state in Task.Status; recurring tasks keep one
// history record per completed calendar day.
package completion

import (
	"slices"
	"time"

	"task_tracker/internal/domain"
	"task_tracker/internal/occurrence"
)

// Index is a sorted set of the days present in a task's completion history.
type Index struct {
	days []time.Time
}

// NewIndex builds the index from history. Time of day is discarded; stamps
// are read in UTC whatever zone they carry.
func NewIndex(history []domain.CompletionRecord) *Index {
	days := make([]time.Time, 0, len(history))
	for _, rec := range history {
		days = append(days, occurrence.StampDay(rec.CompletedAt))
	}
	slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })
	days = slices.CompactFunc(days, func(a, b time.Time) bool { return a.Equal(b) })
	return &Index{days: days}
}

// Has reports whether day d has a completion record.
func (x *Index) Has(d time.Time) bool {
	if x == nil {
		return false
	}
	_, found := slices.BinarySearchFunc(x.days, occurrence.Day(d), func(e, t time.Time) int { return e.Compare(t) })
	return found
}

// CountIn returns how many indexed days fall in the inclusive range [from, to].
func (x *Index) CountIn(from, to time.Time) int {
	if x == nil {
		return 0
	}
	from, to = occurrence.Day(from), occurrence.Day(to)
	cmp := func(e, t time.Time) int { return e.Compare(t) }
	lo, _ := slices.BinarySearchFunc(x.days, from, cmp)
	hi, found := slices.BinarySearchFunc(x.days, to, cmp)
	if found {
		hi++
	}
	if hi < lo {
		return 0
	}
	return hi - lo
}

func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.days)
}

// Tracker answers completion questions for a single task. Build it once per
// task when checking many dates.
type Tracker struct {
	task  *domain.Task
	index *Index
}

func NewTracker(t *domain.Task) *Tracker {
	tr := &Tracker{task: t}
	if t.Recurrence.IsRecurring() {
		tr.index = NewIndex(t.CompletionHistory)
	}
	return tr
}

func (tr *Tracker) Task() *domain.Task { return tr.task }

func (tr *Tracker) IsCompleted(d time.Time) bool {
	if !tr.task.Recurrence.IsRecurring() {
		return tr.task.Status == domain.StatusCompleted
	}
	return tr.index.Has(d)
}

// IsCompleted reports whether the occurrence of t on day d is done.
// One-off tasks ignore d.
func IsCompleted(t *domain.Task, d time.Time) bool {
	return NewTracker(t).IsCompleted(d)
}

// SetCompleted marks the occurrence of t on day d as done (value=true) or not
// done. at is stored as the completion timestamp of new records. It reports
// whether t was modified.
func SetCompleted(t *domain.Task, d time.Time, actorID int64, value bool, at time.Time) bool {
	if !t.Recurrence.IsRecurring() {
		if !value {
			if t.Status == domain.StatusPending {
				return false
			}
			// история сохраняется как журнал
			t.Status = domain.StatusPending
			return true
		}
		if t.Status == domain.StatusCompleted {
			return false
		}
		t.Status = domain.StatusCompleted
		t.CompletionHistory = append(t.CompletionHistory, domain.CompletionRecord{CompletedAt: at, CompletedBy: actorID})
		return true
	}

	d = occurrence.Day(d)
	if value {
		if NewIndex(t.CompletionHistory).Has(d) {
			return false
		}
		// the record lands on the requested day, keeping the clock time of the toggle
		stamp := time.Date(d.Year(), d.Month(), d.Day(), at.Hour(), at.Minute(), at.Second(), 0, time.UTC)
		t.CompletionHistory = append(t.CompletionHistory, domain.CompletionRecord{CompletedAt: stamp, CompletedBy: actorID})
		return true
	}

	before := len(t.CompletionHistory)
	t.CompletionHistory = slices.DeleteFunc(t.CompletionHistory, func(rec domain.CompletionRecord) bool {
		return occurrence.StampDay(rec.CompletedAt).Equal(d)
	})
	return len(t.CompletionHistory) != before
}
