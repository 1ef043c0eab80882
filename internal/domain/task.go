package domain

import "time"

// Priority - важность задачи
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank orders priorities for sorting; unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func (p Priority) Valid() bool { return p.Rank() > 0 }

// Status is only meaningful for non-recurring tasks.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool { return s == StatusPending || s == StatusCompleted }

// Recurrence - правило повторения задачи
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
)

func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}

// IsRecurring reports whether completion is tracked per occurrence.
func (r Recurrence) IsRecurring() bool { return r != RecurrenceNone }

// Categories accepted on create/update.
var Categories = []string{"general", "work", "personal", "shopping"}

func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// CompletionRecord marks one completed occurrence (or one completion toggle of a one-off task).
type CompletionRecord struct {
	CompletedAt time.Time `db:"completed_at" json:"completedAt"`
	CompletedBy int64     `db:"completed_by" json:"completedBy"`
}

// Task - задача пользователя, разовая или повторяющаяся.
// StartDate, DueDate and EndDate hold calendar days (see occurrence.Day).
type Task struct {
	ID                int64              `db:"id" json:"id"`
	UserID            int64              `db:"user_id" json:"userId"`
	Title             string             `db:"title" json:"title"`
	Description       string             `db:"description" json:"description"`
	Priority          Priority           `db:"priority" json:"priority"`
	Status            Status             `db:"status" json:"status"`
	Recurrence        Recurrence         `db:"recurrence" json:"recurrence"`
	StartDate         time.Time          `db:"start_date" json:"startDate"`
	DueDate           *time.Time         `db:"due_date" json:"dueDate"`
	EndDate           *time.Time         `db:"end_date" json:"endDate"`
	RecurrenceDays    []int              `db:"recurrence_days" json:"recurrenceDays"`
	Category          string             `db:"category" json:"category"`
	CompletionHistory []CompletionRecord `json:"completionHistory"`
	CreatedAt         time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time          `db:"updated_at" json:"updatedAt"`
}

// HasCompletions is the per-task notion of "completed" used by aggregate statistics.
func (t *Task) HasCompletions() bool {
	if t.Recurrence.IsRecurring() {
		return len(t.CompletionHistory) > 0
	}
	return t.Status == StatusCompleted
}
