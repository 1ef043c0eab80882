package handlers

import (
	"time"

	"task_tracker/internal/domain"
	"task_tracker/internal/occurrence"
	"task_tracker/internal/service"
)

// taskView is domain.Task with calendar days rendered as YYYY-MM-DD.
type taskView struct {
	ID                int64                     `json:"id"`
	UserID            int64                     `json:"userId"`
	Title             string                    `json:"title"`
	Description       string                    `json:"description"`
	Priority          domain.Priority           `json:"priority"`
	Status            domain.Status             `json:"status"`
	Recurrence        domain.Recurrence         `json:"recurrence"`
	StartDate         string                    `json:"startDate"`
	DueDate           *string                   `json:"dueDate"`
	EndDate           *string                   `json:"endDate"`
	RecurrenceDays    []int                     `json:"recurrenceDays"`
	Category          string                    `json:"category"`
	CompletionHistory []domain.CompletionRecord `json:"completionHistory"`
	CreatedAt         time.Time                 `json:"createdAt"`
	UpdatedAt         time.Time                 `json:"updatedAt"`
}

type occurrenceView struct {
	Task      taskView `json:"task"`
	Date      string   `json:"date"`
	Completed bool     `json:"completed"`
}

func newTaskView(t *domain.Task) taskView {
	days := t.RecurrenceDays
	if days == nil {
		days = []int{}
	}
	history := t.CompletionHistory
	if history == nil {
		history = []domain.CompletionRecord{}
	}
	return taskView{
		ID:                t.ID,
		UserID:            t.UserID,
		Title:             t.Title,
		Description:       t.Description,
		Priority:          t.Priority,
		Status:            t.Status,
		Recurrence:        t.Recurrence,
		StartDate:         occurrence.FormatDay(t.StartDate),
		DueDate:           dayString(t.DueDate),
		EndDate:           dayString(t.EndDate),
		RecurrenceDays:    days,
		Category:          t.Category,
		CompletionHistory: history,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func newTaskViews(tasks []domain.Task) []taskView {
	out := make([]taskView, 0, len(tasks))
	for i := range tasks {
		out = append(out, newTaskView(&tasks[i]))
	}
	return out
}

func newOccurrenceViews(items []service.Occurrence) []occurrenceView {
	out := make([]occurrenceView, 0, len(items))
	for _, it := range items {
		out = append(out, occurrenceView{
			Task:      newTaskView(it.Task),
			Date:      occurrence.FormatDay(it.Date),
			Completed: it.Completed,
		})
	}
	return out
}

func dayString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := occurrence.FormatDay(*t)
	return &s
}
