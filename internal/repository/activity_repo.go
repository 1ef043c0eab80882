package repository

import (
	"context"
	"encoding/json"

	"task_tracker/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActivityRepository handles activity log database operations
type ActivityRepository struct {
	db *pgxpool.Pool
}

func NewActivityRepository(db *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create inserts a new entry and fills ID and CreatedAt
func (r *ActivityRepository) Create(ctx context.Context, e *domain.ActivityEntry) error {
	detailsJSON, err := json.Marshal(e.Details)
	if err != nil || e.Details == nil {
		detailsJSON = []byte("{}")
	}

	return r.db.QueryRow(ctx, `
		INSERT INTO activity_log (user_id, task_id, action, occurrence_date, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, e.UserID, e.TaskID, e.Action, e.Date, detailsJSON).Scan(&e.ID, &e.CreatedAt)
}

// ListByUser returns the newest entries first
func (r *ActivityRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.ActivityEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, task_id, action, occurrence_date, details, created_at
		FROM activity_log
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivity(rows)
}

func scanActivity(rows pgx.Rows) ([]domain.ActivityEntry, error) {
	out := []domain.ActivityEntry{}
	for rows.Next() {
		var e domain.ActivityEntry
		var detailsJSON []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.TaskID, &e.Action, &e.Date, &detailsJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(detailsJSON, &e.Details); err != nil {
			e.Details = make(map[string]any)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
