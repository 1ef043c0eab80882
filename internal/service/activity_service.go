package service

import (
	"context"
	"time"

	"task_tracker/internal/domain"
	"task_tracker/internal/logger"
)

// ActivityStore persists the activity log.
type ActivityStore interface {
	Create(ctx context.Context, e *domain.ActivityEntry) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]domain.ActivityEntry, error)
}

// ActivityService records task events into the activity log and forwards them
// to the next publisher (the websocket hub).
type ActivityService struct {
	store   ActivityStore
	next    Publisher
	timeout time.Duration
}

func NewActivityService(store ActivityStore, next Publisher) *ActivityService {
	if next == nil {
		next = nopPublisher{}
	}
	return &ActivityService{store: store, next: next, timeout: 3 * time.Second}
}

// Publish implements Publisher. A failed write is logged; the event still goes out.
func (s *ActivityService) Publish(userID int64, ev domain.TaskEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	entry := &domain.ActivityEntry{
		UserID:  userID,
		TaskID:  ev.TaskID,
		Action:  ev.Type,
		Date:    ev.Date,
		Details: map[string]any{},
	}
	if ev.Task != nil {
		entry.Details["title"] = ev.Task.Title
		entry.Details["recurrence"] = string(ev.Task.Recurrence)
	}
	if err := s.store.Create(ctx, entry); err != nil {
		logger.Error("failed to write activity log", "error", err, "action", ev.Type, "user_id", userID)
	}

	s.next.Publish(userID, ev)
}

// Recent returns the newest entries; limit <= 0 means the default, capped at MaxActivityLimit.
func (s *ActivityService) Recent(ctx context.Context, userID int64, limit int) ([]domain.ActivityEntry, error) {
	if limit <= 0 {
		limit = domain.DefaultActivityLimit
	}
	limit = min(limit, domain.MaxActivityLimit)
	return s.store.ListByUser(ctx, userID, limit)
}
