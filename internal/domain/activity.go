package domain

import "time"

// ActivityEntry is one row of a user's activity log, written for every task event.
type ActivityEntry struct {
	ID        int64          `db:"id" json:"id"`
	UserID    int64          `db:"user_id" json:"userId"`
	TaskID    int64          `db:"task_id" json:"taskId"`
	Action    string         `db:"action" json:"action"`
	Date      string         `db:"occurrence_date" json:"date,omitempty"`
	Details   map[string]any `db:"details" json:"details"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 500
)
