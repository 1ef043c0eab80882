package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"task_tracker/internal/domain"
)

func rec(day string, hour int) domain.CompletionRecord {
	return domain.CompletionRecord{CompletedAt: mustDay(day).Add(time.Duration(hour) * time.Hour), CompletedBy: 1}
}

func TestPercent(t *testing.T) {
	cases := []struct{ c, t, want int }{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13}, // 12.5 rounds up
		{5, 5, 100},
	}
	for _, tc := range cases {
		if got := percent(tc.c, tc.t); got != tc.want {
			t.Fatalf("percent(%d, %d) = %d; want %d", tc.c, tc.t, got, tc.want)
		}
	}
}

func TestDailyProductivityWithoutTasks(t *testing.T) {
	svc := NewAnalyticsService(newMemTaskStore(), nil, fixedSettings("2024-06-15"))
	got, err := svc.DailyProductivity(context.Background(), 1, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 7 {
		t.Fatalf("got %d points; want 7", len(got))
	}
	if got[0].Date != "2024-06-09" || got[6].Date != "2024-06-15" {
		t.Fatalf("series spans %s..%s; want 2024-06-09..2024-06-15", got[0].Date, got[6].Date)
	}
	if got[6].DisplayDate != "Jun 15" {
		t.Fatalf("displayDate = %q", got[6].DisplayDate)
	}
	for _, p := range got {
		if p.Completion != 0 {
			t.Fatalf("%s: completion %d; want 0", p.Date, p.Completion)
		}
	}
}

func TestDailyProductivity(t *testing.T) {
	store := newMemTaskStore(
		domain.Task{ID: 1, UserID: 1, Priority: domain.PriorityHigh, Recurrence: domain.RecurrenceDaily, StartDate: mustDay("2024-06-01"),
			CompletionHistory: []domain.CompletionRecord{rec("2024-06-13", 9), rec("2024-06-14", 21)}},
		domain.Task{ID: 2, UserID: 1, Priority: domain.PriorityLow, Recurrence: domain.RecurrenceWeekly, RecurrenceDays: []int{5}, StartDate: mustDay("2024-06-01")},
	)
	svc := NewAnalyticsService(store, nil, fixedSettings("2024-06-15"))
	got, err := svc.DailyProductivity(context.Background(), 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	// 06-13 thu: 1/1, 06-14 fri: 1/2, 06-15 sat: 0/1
	want := []int{100, 50, 0}
	for i, p := range got {
		if p.Completion != want[i] {
			t.Fatalf("%s: completion %d; want %d", p.Date, p.Completion, want[i])
		}
	}
}

func TestWeeklyAndMonthlyWindows(t *testing.T) {
	store := newMemTaskStore(
		domain.Task{ID: 1, UserID: 1, Priority: domain.PriorityMedium, Recurrence: domain.RecurrenceDaily, StartDate: mustDay("2024-06-09"),
			CompletionHistory: []domain.CompletionRecord{rec("2024-06-09", 8), rec("2024-06-10", 8)}},
	)
	svc := NewAnalyticsService(store, nil, fixedSettings("2024-06-15"))
	ctx := context.Background()

	weeks, err := svc.WeeklyProductivity(ctx, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(weeks) != 2 {
		t.Fatalf("got %d weeks", len(weeks))
	}
	if w := weeks[0]; w.Week != "Week 1" || w.StartDate != "2024-06-02" || w.EndDate != "2024-06-08" || w.Completion != 0 {
		t.Fatalf("older week = %+v", w)
	}
	// 2 of 7 days done
	if w := weeks[1]; w.Week != "Week 0" || w.StartDate != "2024-06-09" || w.EndDate != "2024-06-15" || w.Completion != 29 {
		t.Fatalf("current week = %+v", w)
	}

	months, err := svc.MonthlyProductivity(ctx, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	labels := []string{"Apr 24", "May 24", "Jun 24"}
	for i, m := range months {
		if m.Month != labels[i] {
			t.Fatalf("month %d label %q; want %q", i, m.Month, labels[i])
		}
	}
	if months[0].StartDate != "2024-04-01" || months[0].EndDate != "2024-04-30" {
		t.Fatalf("april bounds %s..%s", months[0].StartDate, months[0].EndDate)
	}
	// june: daily from the 9th to the 30th is 22 occurrences, 2 done
	if months[2].Completion != 9 {
		t.Fatalf("june completion %d; want 9", months[2].Completion)
	}
}

func TestTaskStatistics(t *testing.T) {
	store := newMemTaskStore(
		domain.Task{ID: 1, UserID: 1, Priority: domain.PriorityHigh, Recurrence: domain.RecurrenceNone, Status: domain.StatusCompleted, StartDate: mustDay("2024-06-01")},
		domain.Task{ID: 2, UserID: 1, Priority: domain.PriorityLow, Recurrence: domain.RecurrenceNone, Status: domain.StatusPending, StartDate: mustDay("2024-06-01")},
		domain.Task{ID: 3, UserID: 1, Priority: domain.PriorityLow, Recurrence: domain.RecurrenceDaily, Status: domain.StatusPending, StartDate: mustDay("2024-06-01")},
	)
	svc := NewAnalyticsService(store, nil, fixedSettings("2024-06-15"))
	st, err := svc.TaskStatistics(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalTasks != 3 || st.CompletedTasks != 1 || st.PendingTasks != 2 || st.CompletionPercentage != 33 {
		t.Fatalf("stats = %+v", st)
	}
	if st.ByPriority != (PriorityCounts{Low: 2, High: 1}) || st.ByStatus != (StatusCounts{Completed: 1, Pending: 2}) {
		t.Fatalf("breakdown = %+v / %+v", st.ByPriority, st.ByStatus)
	}

	// a recurring task with any history counts as completed
	store.tasks[3] = domain.Task{ID: 3, UserID: 1, Priority: domain.PriorityLow, Recurrence: domain.RecurrenceDaily, StartDate: mustDay("2024-06-01"),
		CompletionHistory: []domain.CompletionRecord{rec("2024-06-02", 8)}}
	st, _ = svc.TaskStatistics(context.Background(), 1)
	if st.CompletedTasks != 2 || st.CompletionPercentage != 67 {
		t.Fatalf("stats after history = %+v", st)
	}
}

func TestCompletionHistory(t *testing.T) {
	store := newMemTaskStore(
		domain.Task{ID: 1, UserID: 1, Recurrence: domain.RecurrenceDaily, StartDate: mustDay("2024-01-01"),
			CompletionHistory: []domain.CompletionRecord{rec("2024-06-13", 1), rec("2024-06-15", 23), rec("2024-05-01", 8)}},
		domain.Task{ID: 2, UserID: 1, Recurrence: domain.RecurrenceNone, Status: domain.StatusCompleted, StartDate: mustDay("2024-06-13"),
			CompletionHistory: []domain.CompletionRecord{rec("2024-06-13", 12)}},
	)
	svc := NewAnalyticsService(store, nil, fixedSettings("2024-06-15"))
	got, err := svc.CompletionHistory(context.Background(), 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	want := []HistoryPoint{
		{Date: "2024-06-12", TasksCompleted: 0, DisplayDate: "Jun 12"},
		{Date: "2024-06-13", TasksCompleted: 2, DisplayDate: "Jun 13"},
		{Date: "2024-06-14", TasksCompleted: 0, DisplayDate: "Jun 14"},
		{Date: "2024-06-15", TasksCompleted: 1, DisplayDate: "Jun 15"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d points; want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("point %d = %+v; want %+v", i, got[i], want[i])
		}
	}
}

func TestDashboardOverviewShape(t *testing.T) {
	svc := NewAnalyticsService(newMemTaskStore(), nil, fixedSettings("2024-06-15"))
	d, err := svc.DashboardOverview(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.DailyTrends) != 7 || len(d.WeeklyTrends) != 4 || len(d.MonthlyTrends) != 12 || len(d.CompletionHistory) != 30 {
		t.Fatalf("dashboard sizes %d/%d/%d/%d", len(d.DailyTrends), len(d.WeeklyTrends), len(d.MonthlyTrends), len(d.CompletionHistory))
	}
	if d.MonthlyTrends[0].Month != "Jul 23" {
		t.Fatalf("first month %q; want Jul 23", d.MonthlyTrends[0].Month)
	}
}

func TestAnalyticsWindowBounds(t *testing.T) {
	svc := NewAnalyticsService(newMemTaskStore(), nil, fixedSettings("2024-06-15"))
	ctx := context.Background()
	checks := map[string]error{}
	_, checks["days 0"] = svc.DailyProductivity(ctx, 1, 0)
	_, checks["days 367"] = svc.DailyProductivity(ctx, 1, MaxDays+1)
	_, checks["weeks 105"] = svc.WeeklyProductivity(ctx, 1, MaxWeeks+1)
	_, checks["months -1"] = svc.MonthlyProductivity(ctx, 1, -1)
	_, checks["history 0"] = svc.CompletionHistory(ctx, 1, 0)
	for name, err := range checks {
		if !errors.Is(err, domain.ErrInvalidRange) {
			t.Fatalf("%s: err = %v; want ErrInvalidRange", name, err)
		}
	}
}

func TestAnalyticsCacheInvalidatedByWrites(t *testing.T) {
	store := newMemTaskStore(
		domain.Task{ID: 1, UserID: 1, Title: "water plants", Priority: domain.PriorityMedium, Status: domain.StatusPending,
			Recurrence: domain.RecurrenceDaily, Category: "general", StartDate: mustDay("2024-06-01")},
	)
	cache := newMemCache()
	settings := fixedSettings("2024-06-15")
	analytics := NewAnalyticsService(store, cache, settings)
	tasks := NewTaskService(store, analytics, nil, settings)
	ctx := context.Background()

	first, err := analytics.DailyProductivity(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if first[0].Completion != 0 {
		t.Fatalf("completion %d; want 0", first[0].Completion)
	}
	if _, err := analytics.DailyProductivity(ctx, 1, 1); err != nil {
		t.Fatal(err)
	}
	if store.lists != 1 || cache.hits != 1 {
		t.Fatalf("lists=%d hits=%d; want a cache hit on the second call", store.lists, cache.hits)
	}

	if _, err := tasks.Complete(ctx, 1, 1, time.Time{}); err != nil {
		t.Fatal(err)
	}
	if cache.drops == 0 {
		t.Fatal("completion did not invalidate cached analytics")
	}
	after, err := analytics.DailyProductivity(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if after[0].Completion != 100 {
		t.Fatalf("completion after write %d; want 100", after[0].Completion)
	}
}

// gatedTaskStore blocks ListByUser until release is closed and honours cancellation.
type gatedTaskStore struct {
	*memTaskStore
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newGatedTaskStore(inner *memTaskStore) *gatedTaskStore {
	return &gatedTaskStore{memTaskStore: inner, started: make(chan struct{}), release: make(chan struct{})}
}

func (s *gatedTaskStore) ListByUser(ctx context.Context, userID int64) ([]domain.Task, error) {
	s.once.Do(func() { close(s.started) })
	<-s.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.memTaskStore.ListByUser(ctx, userID)
}

func dailyTaskStore() *memTaskStore {
	return newMemTaskStore(domain.Task{ID: 1, UserID: 1, Title: "journal", Priority: domain.PriorityMedium, Status: domain.StatusPending,
		Recurrence: domain.RecurrenceDaily, Category: "personal", StartDate: mustDay("2024-06-01")})
}

func TestAnalyticsSharedLoadSurvivesCancelledCaller(t *testing.T) {
	store := newGatedTaskStore(dailyTaskStore())
	analytics := NewAnalyticsService(store, nil, fixedSettings("2024-06-15"))

	ctx, cancel := context.WithCancel(context.Background())
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, _ = analytics.DailyProductivity(ctx, 1, 7)
	}()
	<-store.started

	type result struct {
		points []DailyPoint
		err    error
	}
	second := make(chan result, 1)
	go func() {
		p, err := analytics.DailyProductivity(context.Background(), 1, 7)
		second <- result{p, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	<-firstDone
	close(store.release)

	r := <-second
	if r.err != nil {
		t.Fatalf("waiting caller failed with the first caller's cancellation: %v", r.err)
	}
	if len(r.points) != 7 {
		t.Fatalf("points = %+v", r.points)
	}
}

func TestAnalyticsNotCachedAcrossInvalidation(t *testing.T) {
	store := newGatedTaskStore(dailyTaskStore())
	cache := newMemCache()
	analytics := NewAnalyticsService(store, cache, fixedSettings("2024-06-15"))
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := analytics.DailyProductivity(ctx, 1, 7)
		done <- err
	}()
	<-store.started

	if err := analytics.Invalidate(ctx, 1); err != nil {
		t.Fatal(err)
	}
	close(store.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()
	if len(cache.data) != 0 {
		t.Fatalf("report loaded before a write was cached: %v", cache.data)
	}
}

func TestReportsMatchAnnotatedOccurrences(t *testing.T) {
	tasks := []domain.Task{
		{ID: 1, Recurrence: domain.RecurrenceDaily, StartDate: mustDay("2024-05-01"),
			CompletionHistory: []domain.CompletionRecord{rec("2024-06-10", 8), rec("2024-06-12", 20), rec("2024-05-30", 9)}},
		{ID: 2, Recurrence: domain.RecurrenceWeekly, RecurrenceDays: []int{1, 4}, StartDate: mustDay("2024-05-01"),
			CompletionHistory: []domain.CompletionRecord{rec("2024-06-10", 7)}},
	}
	today := mustDay("2024-06-15")

	var want []int
	for i := 13; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		c, total := 0, 0
		for _, o := range Annotate(tasks, d, d.AddDate(0, 0, 1)) {
			total++
			if o.Completed {
				c++
			}
		}
		want = append(want, percent(c, total))
	}
	for i, p := range dailyProductivity(tasks, today, 14) {
		if p.Completion != want[i] {
			t.Fatalf("day %s: completion %d; want %d", p.Date, p.Completion, want[i])
		}
	}
}
