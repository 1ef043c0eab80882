package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"task_tracker/internal/domain"
	"task_tracker/internal/occurrence"
)

const taskColumns = `id, user_id, title, description, priority, status, recurrence,
	start_date, due_date, end_date, recurrence_days, category, created_at, updated_at`

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Task, error) {
	rows, err := r.db.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return res, nil
	}

	ids := make([]int64, len(res))
	byID := make(map[int64]*domain.Task, len(res))
	for i := range res {
		ids[i] = res[i].ID
		byID[res[i].ID] = &res[i]
	}

	crows, err := r.db.Query(ctx,
		`SELECT task_id, completed_at, completed_by
		 FROM task_completions
		 WHERE task_id = ANY($1)
		 ORDER BY completed_at, id`, ids)
	if err != nil {
		return nil, err
	}
	defer crows.Close()

	for crows.Next() {
		var taskID int64
		var rec domain.CompletionRecord
		if err := crows.Scan(&taskID, &rec.CompletedAt, &rec.CompletedBy); err != nil {
			return nil, err
		}
		rec.CompletedAt = rec.CompletedAt.UTC()
		if t := byID[taskID]; t != nil {
			t.CompletionHistory = append(t.CompletionHistory, rec)
		}
	}
	return res, crows.Err()
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	t, err := scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT completed_at, completed_by FROM task_completions WHERE task_id = $1 ORDER BY completed_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rec domain.CompletionRecord
		if err := rows.Scan(&rec.CompletedAt, &rec.CompletedBy); err != nil {
			return nil, err
		}
		// pgx отдаёт timestamptz в time.Local
		rec.CompletedAt = rec.CompletedAt.UTC()
		t.CompletionHistory = append(t.CompletionHistory, rec)
	}
	return t, rows.Err()
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO tasks (user_id, title, description, priority, status, recurrence,
		                    start_date, due_date, end_date, recurrence_days, category)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		t.UserID, t.Title, t.Description, t.Priority, t.Status, t.Recurrence,
		t.StartDate, t.DueDate, t.EndDate, weekdays(t.RecurrenceDays), t.Category,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return err
	}
	if err := writeHistory(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update rewrites the task row and its whole completion history in one transaction.
func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`UPDATE tasks
		 SET title = $2, description = $3, priority = $4, status = $5, recurrence = $6,
		     start_date = $7, due_date = $8, end_date = $9, recurrence_days = $10, category = $11,
		     updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		t.ID, t.Title, t.Description, t.Priority, t.Status, t.Recurrence,
		t.StartDate, t.DueDate, t.EndDate, weekdays(t.RecurrenceDays), t.Category,
	).Scan(&t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM task_completions WHERE task_id = $1`, t.ID); err != nil {
		return err
	}
	if err := writeHistory(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Delete removes the task; completions go with it (ON DELETE CASCADE).
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func writeHistory(ctx context.Context, tx pgx.Tx, t *domain.Task) error {
	if len(t.CompletionHistory) == 0 {
		return nil
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"task_completions"},
		[]string{"task_id", "completed_at", "completed_by", "completed_on"},
		pgx.CopyFromSlice(len(t.CompletionHistory), func(i int) ([]any, error) {
			rec := t.CompletionHistory[i]
			return []any{t.ID, rec.CompletedAt, rec.CompletedBy, occurrence.StampDay(rec.CompletedAt)}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("write completions: %w", err)
	}
	return nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	if err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.Priority,
		&t.Status,
		&t.Recurrence,
		&t.StartDate,
		&t.DueDate,
		&t.EndDate,
		&t.RecurrenceDays,
		&t.Category,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

// weekdays never returns nil: the column is NOT NULL.
func weekdays(days []int) []int {
	if days == nil {
		return []int{}
	}
	return days
}
