package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"task_tracker/internal/domain"
	"task_tracker/internal/occurrence"
)

// Window defaults and bounds for analytics series.
const (
	DefaultDays   = 30
	DefaultWeeks  = 12
	DefaultMonths = 12

	MaxDays   = 366
	MaxWeeks  = 104
	MaxMonths = 120
)

const reportLoadTimeout = 30 * time.Second

const (
	displayDayLayout = "Jan 2"
	monthLabelLayout = "Jan 06"
)

type DailyPoint struct {
	Date        string `json:"date"`
	Completion  int    `json:"completion"`
	DisplayDate string `json:"displayDate"`
}

type WeeklyPoint struct {
	Week       string `json:"week"`
	Completion int    `json:"completion"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}

type MonthlyPoint struct {
	Month      string `json:"month"`
	Completion int    `json:"completion"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}

type HistoryPoint struct {
	Date           string `json:"date"`
	TasksCompleted int    `json:"tasksCompleted"`
	DisplayDate    string `json:"displayDate"`
}

type PriorityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

type StatusCounts struct {
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// Statistics counts tasks, not occurrences.
type Statistics struct {
	TotalTasks           int            `json:"totalTasks"`
	CompletedTasks       int            `json:"completedTasks"`
	PendingTasks         int            `json:"pendingTasks"`
	CompletionPercentage int            `json:"completionPercentage"`
	ByPriority           PriorityCounts `json:"byPriority"`
	ByStatus             StatusCounts   `json:"byStatus"`
}

type Dashboard struct {
	Statistics        Statistics     `json:"statistics"`
	DailyTrends       []DailyPoint   `json:"dailyTrends"`
	WeeklyTrends      []WeeklyPoint  `json:"weeklyTrends"`
	MonthlyTrends     []MonthlyPoint `json:"monthlyTrends"`
	CompletionHistory []HistoryPoint `json:"completionHistory"`
}

// AnalyticsService builds productivity series over trailing windows ending today.
type AnalyticsService struct {
	tasks    TaskStore
	cache    Cache
	group    singleflight.Group
	settings Settings

	// gens counts invalidations per user; a report computed across one is not cached
	mu   sync.Mutex
	gens map[int64]uint64
}

// NewAnalyticsService creates the service; cache may be nil.
func NewAnalyticsService(tasks TaskStore, cache Cache, settings Settings) *AnalyticsService {
	return &AnalyticsService{tasks: tasks, cache: cache, settings: settings.normalized(), gens: map[int64]uint64{}}
}

func (s *AnalyticsService) DailyProductivity(ctx context.Context, userID int64, days int) ([]DailyPoint, error) {
	if err := checkWindow("days", days, MaxDays); err != nil {
		return nil, err
	}
	return cached(ctx, s, userID, "daily", days, func(tasks []domain.Task, today time.Time) []DailyPoint {
		return dailyProductivity(tasks, today, days)
	})
}

func (s *AnalyticsService) WeeklyProductivity(ctx context.Context, userID int64, weeks int) ([]WeeklyPoint, error) {
	if err := checkWindow("weeks", weeks, MaxWeeks); err != nil {
		return nil, err
	}
	return cached(ctx, s, userID, "weekly", weeks, func(tasks []domain.Task, today time.Time) []WeeklyPoint {
		return weeklyProductivity(tasks, today, weeks)
	})
}

func (s *AnalyticsService) MonthlyProductivity(ctx context.Context, userID int64, months int) ([]MonthlyPoint, error) {
	if err := checkWindow("months", months, MaxMonths); err != nil {
		return nil, err
	}
	return cached(ctx, s, userID, "monthly", months, func(tasks []domain.Task, today time.Time) []MonthlyPoint {
		return monthlyProductivity(tasks, today, months)
	})
}

func (s *AnalyticsService) TaskStatistics(ctx context.Context, userID int64) (Statistics, error) {
	return cached(ctx, s, userID, "statistics", 0, func(tasks []domain.Task, _ time.Time) Statistics {
		return taskStatistics(tasks)
	})
}

func (s *AnalyticsService) CompletionHistory(ctx context.Context, userID int64, days int) ([]HistoryPoint, error) {
	if err := checkWindow("days", days, MaxDays); err != nil {
		return nil, err
	}
	return cached(ctx, s, userID, "history", days, func(tasks []domain.Task, today time.Time) []HistoryPoint {
		return completionHistory(tasks, today, days)
	})
}

// DashboardOverview combines the other reports over a single task load.
func (s *AnalyticsService) DashboardOverview(ctx context.Context, userID int64) (Dashboard, error) {
	return cached(ctx, s, userID, "dashboard", 0, func(tasks []domain.Task, today time.Time) Dashboard {
		return Dashboard{
			Statistics:        taskStatistics(tasks),
			DailyTrends:       dailyProductivity(tasks, today, 7),
			WeeklyTrends:      weeklyProductivity(tasks, today, 4),
			MonthlyTrends:     monthlyProductivity(tasks, today, 12),
			CompletionHistory: completionHistory(tasks, today, 30),
		}
	})
}

// Invalidate drops the cached reports of a user.
func (s *AnalyticsService) Invalidate(ctx context.Context, userID int64) error {
	s.mu.Lock()
	s.gens[userID]++
	s.mu.Unlock()
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateUser(ctx, userID)
}

func (s *AnalyticsService) generation(userID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[userID]
}

// cached loads the user's tasks once per key (coalescing concurrent callers)
// and stores the computed report. Cache failures degrade to a recompute.
// The load runs detached from the first caller's cancellation, since other
// callers may be waiting on it.
func cached[T any](ctx context.Context, s *AnalyticsService, userID int64, kind string, param int, compute func([]domain.Task, time.Time) T) (T, error) {
	today := s.settings.Today()
	key := fmt.Sprintf("analytics:%d:%s:%d:%s", userID, kind, param, occurrence.FormatDay(today))

	var out T
	if s.cache != nil {
		if ok, err := s.cache.Get(ctx, key, &out); err == nil && ok {
			return out, nil
		}
	}

	gen := s.generation(userID)
	// callers after a write do not join a load that started before it
	flight := fmt.Sprintf("%s#%d", key, gen)
	ch := s.group.DoChan(flight, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportLoadTimeout)
		defer cancel()
		tasks, err := s.tasks.ListByUser(loadCtx, userID)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		res := compute(tasks, today)
		if s.cache != nil && s.generation(userID) == gen {
			_ = s.cache.Set(loadCtx, key, res)
			// запись пришла между проверкой и Set
			if s.generation(userID) != gen {
				_ = s.cache.InvalidateUser(loadCtx, userID)
			}
		}
		return res, nil
	})

	select {
	case <-ctx.Done():
		return out, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return out, r.Err
		}
		return r.Val.(T), nil
	}
}

func checkWindow(name string, n, limit int) error {
	if n < 1 || n > limit {
		return domain.InvalidRange(fmt.Sprintf("%s must be between 1 and %d", name, limit))
	}
	return nil
}

// percent rounds 100*c/t half up; 0 when t is 0.
func percent(c, t int) int {
	if t <= 0 {
		return 0
	}
	return (200*c + t) / (2 * t)
}

func dailyProductivity(tasks []domain.Task, today time.Time, days int) []DailyPoint {
	trackers := newTrackers(tasks)
	out := make([]DailyPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		c, t := countCompleted(trackers, d, d)
		out = append(out, DailyPoint{
			Date:        occurrence.FormatDay(d),
			Completion:  percent(c, t),
			DisplayDate: d.Format(displayDayLayout),
		})
	}
	return out
}

// weeklyProductivity uses non-overlapping 7-day windows, the newest ending today.
func weeklyProductivity(tasks []domain.Task, today time.Time, weeks int) []WeeklyPoint {
	trackers := newTrackers(tasks)
	out := make([]WeeklyPoint, 0, weeks)
	for i := weeks - 1; i >= 0; i-- {
		end := today.AddDate(0, 0, -7*i)
		start := end.AddDate(0, 0, -6)
		c, t := countCompleted(trackers, start, end)
		out = append(out, WeeklyPoint{
			Week:       fmt.Sprintf("Week %d", i),
			Completion: percent(c, t),
			StartDate:  occurrence.FormatDay(start),
			EndDate:    occurrence.FormatDay(end),
		})
	}
	return out
}

// monthlyProductivity uses whole calendar months, the newest being the current one.
func monthlyProductivity(tasks []domain.Task, today time.Time, months int) []MonthlyPoint {
	trackers := newTrackers(tasks)
	out := make([]MonthlyPoint, 0, months)
	current := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := months - 1; i >= 0; i-- {
		start := current.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, -1)
		c, t := countCompleted(trackers, start, end)
		out = append(out, MonthlyPoint{
			Month:      start.Format(monthLabelLayout),
			Completion: percent(c, t),
			StartDate:  occurrence.FormatDay(start),
			EndDate:    occurrence.FormatDay(end),
		})
	}
	return out
}

func taskStatistics(tasks []domain.Task) Statistics {
	var st Statistics
	st.TotalTasks = len(tasks)
	for i := range tasks {
		t := &tasks[i]
		if t.HasCompletions() {
			st.CompletedTasks++
		}
		switch t.Priority {
		case domain.PriorityLow:
			st.ByPriority.Low++
		case domain.PriorityMedium:
			st.ByPriority.Medium++
		case domain.PriorityHigh:
			st.ByPriority.High++
		}
	}
	st.PendingTasks = st.TotalTasks - st.CompletedTasks
	st.CompletionPercentage = percent(st.CompletedTasks, st.TotalTasks)
	st.ByStatus = StatusCounts{Completed: st.CompletedTasks, Pending: st.PendingTasks}
	return st
}

// completionHistory counts history records per day, across all tasks, over the last days days.
func completionHistory(tasks []domain.Task, today time.Time, days int) []HistoryPoint {
	first := today.AddDate(0, 0, -(days - 1))
	counts := make([]int, days)
	for i := range tasks {
		for _, rec := range tasks[i].CompletionHistory {
			d := occurrence.StampDay(rec.CompletedAt)
			if d.Before(first) || d.After(today) {
				continue
			}
			counts[occurrence.SpanDays(first, d)-1]++
		}
	}

	out := make([]HistoryPoint, 0, days)
	for i, n := range counts {
		d := first.AddDate(0, 0, i)
		out = append(out, HistoryPoint{
			Date:           occurrence.FormatDay(d),
			TasksCompleted: n,
			DisplayDate:    d.Format(displayDayLayout),
		})
	}
	return out
}
