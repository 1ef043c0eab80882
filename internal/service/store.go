package service

import (
	"context"

	"task_tracker/internal/domain"
)

// TaskStore persists tasks together with their completion history.
// Implementations return domain.ErrNotFound for unknown ids.
type TaskStore interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.Task, error)
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	// Create fills ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, t *domain.Task) error
	// Update writes every field and replaces the stored history with t's.
	Update(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id int64) error
}

// UserStore returns domain.ErrNotFound for unknown users and domain.ErrConflict
// for duplicate usernames or emails.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByTgID(ctx context.Context, tgID int64) (*domain.User, error)
	UpsertTelegram(ctx context.Context, tgID int64, username, firstName string) (*domain.User, error)
	ListLinked(ctx context.Context) ([]domain.User, error)
}

// Publisher delivers task events to the owner's live connections.
type Publisher interface {
	Publish(userID int64, ev domain.TaskEvent)
}

// Cache stores analytics results. A miss is (false, nil).
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	InvalidateUser(ctx context.Context, userID int64) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(int64, domain.TaskEvent) {}
