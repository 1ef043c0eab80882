package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"task_tracker/internal/domain"
	"task_tracker/internal/occurrence"
)

func TestListOccurrencesOrdering(t *testing.T) {
	store := newMemTaskStore(
		domain.Task{ID: 1, UserID: 1, Title: "low daily", Priority: domain.PriorityLow, Recurrence: domain.RecurrenceDaily, StartDate: mustDay("2024-01-01")},
		domain.Task{ID: 2, UserID: 1, Title: "high daily", Priority: domain.PriorityHigh, Recurrence: domain.RecurrenceDaily, StartDate: mustDay("2024-01-01")},
		domain.Task{ID: 3, UserID: 1, Title: "medium once", Priority: domain.PriorityMedium, Recurrence: domain.RecurrenceNone, StartDate: mustDay("2024-06-02")},
		domain.Task{ID: 4, UserID: 1, Title: "high once", Priority: domain.PriorityHigh, Recurrence: domain.RecurrenceNone, StartDate: mustDay("2024-06-01"), Status: domain.StatusCompleted},
		domain.Task{ID: 5, UserID: 2, Title: "someone else", Priority: domain.PriorityHigh, Recurrence: domain.RecurrenceDaily, StartDate: mustDay("2024-01-01")},
	)
	svc := NewOccurrenceService(store, fixedSettings("2024-06-01"))

	got, err := svc.ListOccurrencesInRange(context.Background(), 1, mustDay("2024-06-01"), mustDay("2024-06-03"))
	if err != nil {
		t.Fatal(err)
	}

	type row struct {
		id        int64
		date      string
		completed bool
	}
	want := []row{
		{2, "2024-06-01", false},
		{2, "2024-06-02", false},
		{4, "2024-06-01", true},
		{3, "2024-06-02", false},
		{1, "2024-06-01", false},
		{1, "2024-06-02", false},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences; want %d", len(got), len(want))
	}
	for i, w := range want {
		g := row{got[i].Task.ID, occurrence.FormatDay(got[i].Date), got[i].Completed}
		if g != w {
			t.Fatalf("item %d = %+v; want %+v", i, g, w)
		}
	}
}

func TestOccurrenceSpecialisations(t *testing.T) {
	store := newMemTaskStore(
		domain.Task{ID: 1, UserID: 1, Priority: domain.PriorityMedium, Recurrence: domain.RecurrenceDaily, StartDate: mustDay("2024-01-01"),
			CompletionHistory: []domain.CompletionRecord{{CompletedAt: mustDay("2024-06-05").Add(18 * time.Hour), CompletedBy: 1}}},
		domain.Task{ID: 2, UserID: 1, Priority: domain.PriorityMedium, Recurrence: domain.RecurrenceMonthly, StartDate: mustDay("2024-01-31")},
	)
	svc := NewOccurrenceService(store, fixedSettings("2024-06-05"))
	ctx := context.Background()

	today, err := svc.Today(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(today) != 1 || !today[0].Completed || occurrence.FormatDay(today[0].Date) != "2024-06-05" {
		t.Fatalf("Today = %+v", today)
	}

	// wednesday normalises to sunday 2024-06-02
	week, err := svc.Week(ctx, 1, mustDay("2024-06-05"))
	if err != nil {
		t.Fatal(err)
	}
	if len(week) != 7 || occurrence.FormatDay(week[0].Date) != "2024-06-02" || occurrence.FormatDay(week[6].Date) != "2024-06-08" {
		t.Fatalf("Week = %d items starting %s", len(week), occurrence.FormatDay(week[0].Date))
	}

	feb, err := svc.Month(ctx, 1, 2024, 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range feb {
		if o.Task.ID == 2 {
			t.Fatalf("monthly task anchored on the 31st occurs in February: %s", occurrence.FormatDay(o.Date))
		}
	}
	if len(feb) != 29 {
		t.Fatalf("February has %d occurrences; want 29", len(feb))
	}

	mar, err := svc.Month(ctx, 1, 2024, 3)
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, o := range mar {
		if o.Task.ID == 2 {
			found = occurrence.FormatDay(o.Date) == "2024-03-31"
		}
	}
	if !found {
		t.Fatal("monthly task missing on 2024-03-31")
	}
}

func TestOccurrenceRangeErrors(t *testing.T) {
	svc := NewOccurrenceService(newMemTaskStore(), fixedSettings("2024-06-01"))
	ctx := context.Background()

	if _, err := svc.Month(ctx, 1, 2024, 13); !errors.Is(err, domain.ErrInvalidRange) {
		t.Fatalf("month 13: err = %v", err)
	}
	if _, err := svc.ListOccurrencesInRange(ctx, 1, mustDay("2024-06-02"), mustDay("2024-06-01")); !errors.Is(err, domain.ErrInvalidRange) {
		t.Fatalf("inverted: err = %v", err)
	}
	if _, err := svc.Between(ctx, 1, mustDay("2020-01-01"), mustDay("2024-01-01")); !errors.Is(err, domain.ErrInvalidRange) {
		t.Fatalf("too long: err = %v", err)
	}
	got, err := svc.ListOccurrencesInRange(ctx, 1, mustDay("2024-06-01"), mustDay("2024-06-01"))
	if err != nil || len(got) != 0 {
		t.Fatalf("zero-length window = %v, %v", got, err)
	}
}
