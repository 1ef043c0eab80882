package service

import (
	"context"
	"errors"
	"slices"
	"testing"

	"task_tracker/internal/domain"
)

type memActivityStore struct {
	entries []domain.ActivityEntry
	fail    error
}

func (s *memActivityStore) Create(_ context.Context, e *domain.ActivityEntry) error {
	if s.fail != nil {
		return s.fail
	}
	e.ID = int64(len(s.entries) + 1)
	s.entries = append(s.entries, *e)
	return nil
}

func (s *memActivityStore) ListByUser(_ context.Context, userID int64, limit int) ([]domain.ActivityEntry, error) {
	var out []domain.ActivityEntry
	for _, e := range slices.Backward(s.entries) {
		if e.UserID == userID && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestActivityRecordsTaskEvents(t *testing.T) {
	store := &memActivityStore{}
	next := &recordingPublisher{}
	activity := NewActivityService(store, next)
	ctx := context.Background()

	svc := NewTaskService(newMemTaskStore(), nil, activity, fixedSettings("2024-06-05"))
	task, err := svc.Create(ctx, 1, TaskInput{Title: ptr("read"), Recurrence: ptr(domain.RecurrenceDaily)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Complete(ctx, 1, task.ID, mustDay("2024-06-04")); err != nil {
		t.Fatal(err)
	}

	if got := next.types(); !slices.Equal(got, []string{domain.EventTaskCreated, domain.EventTaskCompleted}) {
		t.Fatalf("forwarded = %v", got)
	}

	recent, err := activity.Recent(ctx, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].Action != domain.EventTaskCompleted || recent[0].Date != "2024-06-04" {
		t.Fatalf("recent = %+v", recent)
	}
	if recent[1].Details["title"] != "read" || recent[1].Details["recurrence"] != "daily" {
		t.Fatalf("details = %v", recent[1].Details)
	}
	if other, _ := activity.Recent(ctx, 2, 10); len(other) != 0 {
		t.Fatalf("other user sees %d entries", len(other))
	}
}

func TestActivityStoreFailureStillPublishes(t *testing.T) {
	next := &recordingPublisher{}
	activity := NewActivityService(&memActivityStore{fail: errors.New("disk full")}, next)

	activity.Publish(1, domain.TaskEvent{Type: domain.EventTaskDeleted, TaskID: 4})

	if got := next.types(); !slices.Equal(got, []string{domain.EventTaskDeleted}) {
		t.Fatalf("forwarded = %v", got)
	}
}
