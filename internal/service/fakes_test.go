package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"task_tracker/internal/domain"
)

// memTaskStore keeps deep copies so services cannot mutate stored state by accident.
type memTaskStore struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]domain.Task
	lists  int
	saves  int
}

func newMemTaskStore(tasks ...domain.Task) *memTaskStore {
	s := &memTaskStore{tasks: map[int64]domain.Task{}}
	for _, t := range tasks {
		if t.ID > s.nextID {
			s.nextID = t.ID
		}
		s.tasks[t.ID] = clone(t)
	}
	return s
}

func clone(t domain.Task) domain.Task {
	t.CompletionHistory = append([]domain.CompletionRecord(nil), t.CompletionHistory...)
	t.RecurrenceDays = append([]int(nil), t.RecurrenceDays...)
	return t
}

func (s *memTaskStore) ListByUser(_ context.Context, userID int64) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	var out []domain.Task
	for id := int64(1); id <= s.nextID; id++ {
		if t, ok := s.tasks[id]; ok && t.UserID == userID {
			out = append(out, clone(t))
		}
	}
	return out, nil
}

func (s *memTaskStore) GetByID(_ context.Context, id int64) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := clone(t)
	return &c, nil
}

func (s *memTaskStore) Create(_ context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.ID = s.nextID
	t.CreatedAt = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	t.UpdatedAt = t.CreatedAt
	s.tasks[t.ID] = clone(*t)
	return nil
}

func (s *memTaskStore) Update(_ context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; !ok {
		return domain.ErrNotFound
	}
	s.saves++
	s.tasks[t.ID] = clone(*t)
	return nil
}

func (s *memTaskStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

type memUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[int64]*domain.User{}}
}

func (s *memUserStore) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username || (existing.Email != nil && u.Email != nil && *existing.Email == *u.Email) {
			return domain.ErrConflict
		}
	}
	s.nextID++
	u.ID = s.nextID
	c := *u
	s.users[u.ID] = &c
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, domain.ErrNotFound
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email != nil && *u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memUserStore) GetByTgID(_ context.Context, tgID int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.TgID != nil && *u.TgID == tgID {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memUserStore) UpsertTelegram(ctx context.Context, tgID int64, username, firstName string) (*domain.User, error) {
	if u, err := s.GetByTgID(ctx, tgID); err == nil {
		return u, nil
	}
	id := tgID
	u := &domain.User{TgID: &id, Username: username, FirstName: firstName}
	if err := s.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *memUserStore) ListLinked(_ context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.User
	for _, u := range s.users {
		if u.TgID != nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

// memCache stores JSON like the Redis cache does.
type memCache struct {
	mu    sync.Mutex
	data  map[string][]byte
	hits  int
	drops int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dst)
}

func (c *memCache) Set(_ context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *memCache) InvalidateUser(_ context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := "analytics:" + strconv.FormatInt(userID, 10) + ":"
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
			c.drops++
		}
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.TaskEvent
}

func (p *recordingPublisher) Publish(_ int64, ev domain.TaskEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

// fixedSettings pins "today" to the given day.
func fixedSettings(today string) Settings {
	d, err := time.Parse("2006-01-02", today)
	if err != nil {
		panic(err)
	}
	s := DefaultSettings()
	s.Now = func() time.Time { return d.Add(10 * time.Hour) }
	return s
}

func mustDay(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func dayPtr(s string) *time.Time {
	d := mustDay(s)
	return &d
}

func ptr[T any](v T) *T { return &v }
