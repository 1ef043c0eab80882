package repository

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"task_tracker/internal/domain"
)

type SQLiteActivityStore struct {
	db *gorm.DB
}

func NewSQLiteActivityStore(db *gorm.DB) *SQLiteActivityStore {
	return &SQLiteActivityStore{db: db}
}

func (s *SQLiteActivityStore) Create(ctx context.Context, e *domain.ActivityEntry) error {
	details, err := json.Marshal(e.Details)
	if err != nil || e.Details == nil {
		details = []byte("{}")
	}
	row := sqliteActivity{
		UserID:         e.UserID,
		TaskID:         e.TaskID,
		Action:         e.Action,
		OccurrenceDate: e.Date,
		Details:        string(details),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	e.ID, e.CreatedAt = row.ID, row.CreatedAt
	return nil
}

func (s *SQLiteActivityStore) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.ActivityEntry, error) {
	var rows []sqliteActivity
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.ActivityEntry, 0, len(rows))
	for _, r := range rows {
		e := domain.ActivityEntry{
			ID:        r.ID,
			UserID:    r.UserID,
			TaskID:    r.TaskID,
			Action:    r.Action,
			Date:      r.OccurrenceDate,
			CreatedAt: r.CreatedAt,
		}
		if err := json.Unmarshal([]byte(r.Details), &e.Details); err != nil || e.Details == nil {
			e.Details = map[string]any{}
		}
		out = append(out, e)
	}
	return out, nil
}
