package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"task_tracker/internal/completion"
	"task_tracker/internal/domain"
	"task_tracker/internal/occurrence"
)

const (
	maxTitleLen       = 120
	maxDescriptionLen = 1000
)

// TaskInput is a field patch: nil leaves a field unchanged. An empty
// DueDate or EndDate clears the date.
type TaskInput struct {
	Title          *string            `json:"title"`
	Description    *string            `json:"description"`
	Priority       *domain.Priority   `json:"priority"`
	Status         *domain.Status     `json:"status"`
	Recurrence     *domain.Recurrence `json:"recurrence"`
	StartDate      *string            `json:"startDate"`
	DueDate        *string            `json:"dueDate"`
	EndDate        *string            `json:"endDate"`
	RecurrenceDays *[]int             `json:"recurrenceDays"`
	Category       *string            `json:"category"`
}

// TaskService owns task writes: validation, ownership, completion toggles,
// cache invalidation and event publishing.
type TaskService struct {
	tasks     TaskStore
	analytics *AnalyticsService
	events    Publisher
	settings  Settings
}

// NewTaskService wires the service; analytics and events may be nil.
func NewTaskService(tasks TaskStore, analytics *AnalyticsService, events Publisher, settings Settings) *TaskService {
	if events == nil {
		events = nopPublisher{}
	}
	return &TaskService{tasks: tasks, analytics: analytics, events: events, settings: settings.normalized()}
}

// List returns the user's tasks ordered by due date (undated last), then priority.
func (s *TaskService) List(ctx context.Context, userID int64) ([]domain.Task, error) {
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	slices.SortStableFunc(tasks, func(a, b domain.Task) int {
		switch {
		case a.DueDate == nil && b.DueDate != nil:
			return 1
		case a.DueDate != nil && b.DueDate == nil:
			return -1
		case a.DueDate != nil && b.DueDate != nil:
			if c := a.DueDate.Compare(*b.DueDate); c != 0 {
				return c
			}
		}
		if c := cmp.Compare(b.Priority.Rank(), a.Priority.Rank()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, userID, id int64) (*domain.Task, error) {
	return s.owned(ctx, userID, id)
}

func (s *TaskService) Create(ctx context.Context, userID int64, in TaskInput) (*domain.Task, error) {
	t := &domain.Task{
		UserID:         userID,
		Priority:       s.settings.DefaultPriority,
		Status:         domain.StatusPending,
		Recurrence:     s.settings.DefaultRecurrence,
		StartDate:      s.settings.Today(),
		Category:       s.settings.DefaultCategory,
		RecurrenceDays: []int{},
	}
	if in.Title == nil {
		in.Title = new(string)
	}
	// новая задача всегда начинается в статусе pending
	in.Status = nil
	if err := applyInput(t, in); err != nil {
		return nil, err
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.afterWrite(ctx, userID, domain.TaskEvent{Type: domain.EventTaskCreated, TaskID: t.ID, Task: t})
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, userID, id int64, in TaskInput) (*domain.Task, error) {
	t, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := applyInput(t, in); err != nil {
		return nil, err
	}
	t.UpdatedAt = s.settings.Now().UTC()
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update task %d: %w", id, err)
	}
	s.afterWrite(ctx, userID, domain.TaskEvent{Type: domain.EventTaskUpdated, TaskID: t.ID, Task: t})
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	s.afterWrite(ctx, userID, domain.TaskEvent{Type: domain.EventTaskDeleted, TaskID: id})
	return nil
}

// Complete marks the occurrence on day d as done; a zero d means today.
func (s *TaskService) Complete(ctx context.Context, userID, id int64, d time.Time) (*domain.Task, error) {
	return s.setCompleted(ctx, userID, id, d, true)
}

// Uncomplete reverts Complete; a zero d means today.
func (s *TaskService) Uncomplete(ctx context.Context, userID, id int64, d time.Time) (*domain.Task, error) {
	return s.setCompleted(ctx, userID, id, d, false)
}

func (s *TaskService) setCompleted(ctx context.Context, userID, id int64, d time.Time, value bool) (*domain.Task, error) {
	if d.IsZero() {
		d = s.settings.Today()
	}
	d = occurrence.Day(d)

	t, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	now := s.settings.Now()
	// отметка хранит местное время пользователя, день читается по UTC
	stamp := occurrence.WallClock(now, s.settings.Location)
	if !completion.SetCompleted(t, d, userID, value, stamp) {
		return t, nil
	}
	t.UpdatedAt = now.UTC()
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("save completion of task %d: %w", id, err)
	}

	ev := domain.TaskEvent{Type: domain.EventTaskUncompleted, TaskID: t.ID, Date: occurrence.FormatDay(d), Task: t}
	if value {
		ev.Type = domain.EventTaskCompleted
	}
	s.afterWrite(ctx, userID, ev)
	return t, nil
}

// owned loads a task and checks that userID owns it.
func (s *TaskService) owned(ctx context.Context, userID, id int64) (*domain.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	if t.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return t, nil
}

func (s *TaskService) afterWrite(ctx context.Context, userID int64, ev domain.TaskEvent) {
	if s.analytics != nil {
		// кэш сам логирует ошибки, отчёт просто пересчитается
		_ = s.analytics.Invalidate(ctx, userID)
	}
	s.events.Publish(userID, ev)
}

// applyInput merges in into t and validates the result. t is left untouched on error.
func applyInput(t *domain.Task, in TaskInput) error {
	merged := *t
	var details []string

	if in.Title != nil {
		merged.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		merged.Description = strings.TrimSpace(*in.Description)
	}
	if in.Priority != nil {
		merged.Priority = *in.Priority
	}
	if in.Status != nil {
		merged.Status = *in.Status
	}
	if in.Recurrence != nil {
		merged.Recurrence = *in.Recurrence
	}
	if in.Category != nil {
		merged.Category = strings.TrimSpace(*in.Category)
	}
	if in.RecurrenceDays != nil {
		merged.RecurrenceDays = sanitizeWeekdays(*in.RecurrenceDays)
	}
	if in.StartDate != nil {
		d, err := occurrence.ParseDay(*in.StartDate)
		if err != nil {
			details = append(details, "startDate must be a date (YYYY-MM-DD)")
		} else {
			merged.StartDate = d
		}
	}
	if in.DueDate != nil {
		d, ok := optionalDay(*in.DueDate)
		if !ok {
			details = append(details, "dueDate must be a date (YYYY-MM-DD)")
		}
		merged.DueDate = d
	}
	if in.EndDate != nil {
		d, ok := optionalDay(*in.EndDate)
		if !ok {
			details = append(details, "endDate must be a date (YYYY-MM-DD)")
		}
		merged.EndDate = d
	}

	details = append(details, validateTask(&merged)...)
	if len(details) > 0 {
		return &domain.ValidationError{Details: details}
	}
	*t = merged
	return nil
}

func validateTask(t *domain.Task) []string {
	var details []string
	if t.Title == "" {
		details = append(details, "title is required")
	} else if utf8.RuneCountInString(t.Title) > maxTitleLen {
		details = append(details, fmt.Sprintf("title must be at most %d characters", maxTitleLen))
	}
	if utf8.RuneCountInString(t.Description) > maxDescriptionLen {
		details = append(details, fmt.Sprintf("description must be at most %d characters", maxDescriptionLen))
	}
	if !t.Priority.Valid() {
		details = append(details, "priority must be one of low, medium, high")
	}
	if !t.Status.Valid() {
		details = append(details, "status must be one of pending, completed")
	}
	if !t.Recurrence.Valid() {
		details = append(details, "recurrence must be one of none, daily, weekly, monthly, yearly")
	}
	if !domain.ValidCategory(t.Category) {
		details = append(details, "category must be one of "+strings.Join(domain.Categories, ", "))
	}
	if t.EndDate != nil && t.EndDate.Before(t.StartDate) {
		details = append(details, "endDate must not be before startDate")
	}
	return details
}

// optionalDay parses a date; an empty string clears it.
func optionalDay(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	d, err := occurrence.ParseDay(s)
	if err != nil {
		return nil, false
	}
	return &d, true
}

// sanitizeWeekdays keeps unique values in 0..6, sorted.
func sanitizeWeekdays(days []int) []int {
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d >= 0 && d <= 6 && !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	slices.Sort(out)
	return out
}
