package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"task_tracker/internal/completion"
	"task_tracker/internal/domain"
	"task_tracker/internal/occurrence"
)

// Occurrence is one dated instance of a task with its completion state.
type Occurrence struct {
	Task      *domain.Task
	Date      time.Time
	Completed bool
}

// OccurrenceService answers "which occurrences fall in this window" for a user.
type OccurrenceService struct {
	tasks    TaskStore
	settings Settings
}

func NewOccurrenceService(tasks TaskStore, settings Settings) *OccurrenceService {
	return &OccurrenceService{tasks: tasks, settings: settings.normalized()}
}

// ListOccurrencesInRange returns the user's occurrences in the half-open
// window [start, end), sorted by priority (high first), task id and date.
func (s *OccurrenceService) ListOccurrencesInRange(ctx context.Context, userID int64, start, end time.Time) ([]Occurrence, error) {
	start, end = occurrence.Day(start), occurrence.Day(end)
	if end.Before(start) {
		return nil, domain.InvalidRange("end is before start")
	}
	if n := occurrence.SpanDays(start, end) - 1; n > s.settings.MaxRangeDays {
		return nil, domain.InvalidRange(fmt.Sprintf("range of %d days exceeds %d", n, s.settings.MaxRangeDays))
	}
	if end.Equal(start) {
		return []Occurrence{}, nil
	}

	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return Annotate(tasks, start, end), nil
}

// Today lists occurrences for the current day in the configured location.
func (s *OccurrenceService) Today(ctx context.Context, userID int64) ([]Occurrence, error) {
	return s.Day(ctx, userID, s.settings.Today())
}

func (s *OccurrenceService) Day(ctx context.Context, userID int64, d time.Time) ([]Occurrence, error) {
	d = occurrence.Day(d)
	return s.ListOccurrencesInRange(ctx, userID, d, d.AddDate(0, 0, 1))
}

// Week lists the 7 days starting on the Sunday on or before d; a zero d means this week.
func (s *OccurrenceService) Week(ctx context.Context, userID int64, d time.Time) ([]Occurrence, error) {
	if d.IsZero() {
		d = s.settings.Today()
	}
	start := occurrence.WeekStart(d)
	return s.ListOccurrencesInRange(ctx, userID, start, start.AddDate(0, 0, 7))
}

func (s *OccurrenceService) Month(ctx context.Context, userID int64, year, month int) ([]Occurrence, error) {
	first, last, err := occurrence.MonthBounds(year, month)
	if err != nil {
		return nil, err
	}
	return s.ListOccurrencesInRange(ctx, userID, first, last.AddDate(0, 0, 1))
}

// Between lists occurrences for the inclusive day range [from, to].
func (s *OccurrenceService) Between(ctx context.Context, userID int64, from, to time.Time) ([]Occurrence, error) {
	return s.ListOccurrencesInRange(ctx, userID, from, occurrence.Day(to).AddDate(0, 0, 1))
}

// Annotate expands already loaded tasks over [start, end) and marks each
// occurrence with its completion state. The result points into tasks.
func Annotate(tasks []domain.Task, start, end time.Time) []Occurrence {
	start, end = occurrence.Day(start), occurrence.Day(end)
	out := []Occurrence{}
	if !end.After(start) {
		return out
	}
	last := end.AddDate(0, 0, -1)
	for i := range tasks {
		t := &tasks[i]
		tr := completion.NewTracker(t)
		for d := range occurrence.Occurrences(t, start, last) {
			out = append(out, Occurrence{Task: t, Date: d, Completed: tr.IsCompleted(d)})
		}
	}
	SortOccurrences(out)
	return out
}

// SortOccurrences orders by priority descending, then task id, then date.
func SortOccurrences(items []Occurrence) {
	slices.SortStableFunc(items, func(a, b Occurrence) int {
		if c := cmp.Compare(b.Task.Priority.Rank(), a.Task.Priority.Rank()); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Task.ID, b.Task.ID); c != 0 {
			return c
		}
		return a.Date.Compare(b.Date)
	})
}

// newTrackers builds one completion tracker per task. Reports build them once
// and reuse them for every window.
func newTrackers(tasks []domain.Task) []*completion.Tracker {
	out := make([]*completion.Tracker, len(tasks))
	for i := range tasks {
		out[i] = completion.NewTracker(&tasks[i])
	}
	return out
}

// countCompleted returns completed and total occurrences over the inclusive range [from, to].
func countCompleted(trackers []*completion.Tracker, from, to time.Time) (completed, total int) {
	for _, tr := range trackers {
		for d := range occurrence.Occurrences(tr.Task(), from, to) {
			total++
			if tr.IsCompleted(d) {
				completed++
			}
		}
	}
	return completed, total
}
