package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"task_tracker/internal/config"
	"task_tracker/internal/db"
	"task_tracker/internal/domain"
	"task_tracker/internal/logger"
	"task_tracker/internal/repository"
	"task_tracker/internal/service"
)

// Создаёт тестового пользователя с набором задач и печатает JWT.
func main() {
	username := flag.String("username", "testuser", "username")
	email := flag.String("email", "test@example.com", "email")
	password := flag.String("password", "secret123", "password")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", "error", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	var (
		tasks service.TaskStore
		users service.UserStore
	)
	if cfg.StoreDriver == "sqlite" {
		gdb, err := repository.NewSQLite(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("open sqlite", "error", err)
		}
		tasks, users = repository.NewSQLiteTaskStore(gdb), repository.NewSQLiteUserStore(gdb)
	} else {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database", "error", err)
		}
		defer pool.Close()
		tasks, users = repository.NewTaskRepository(pool), repository.NewUserRepository(pool)
	}

	tokens, err := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL.Duration())
	if err != nil {
		logger.Fatal("jwt", "error", err)
	}
	userService := service.NewUserService(users, tokens, "")

	session, err := userService.Register(ctx, service.RegisterInput{Username: *username, Email: *email, Password: *password})
	switch {
	case errors.Is(err, domain.ErrConflict):
		session, err = userService.Login(ctx, *email, *password)
		if err != nil {
			logger.Fatal("user exists but login failed", "error", err)
		}
		logger.Info("user already exists", "id", session.User.ID)
	case err != nil:
		logger.Fatal("register", "error", err)
	default:
		logger.Info("user created", "id", session.User.ID)
		seedTasks(ctx, service.NewTaskService(tasks, nil, nil, service.DefaultSettings()), session.User.ID)
	}

	fmt.Fprintln(os.Stdout, session.Token)
}

func seedTasks(ctx context.Context, ts *service.TaskService, userID int64) {
	str := func(s string) *string { return &s }
	pr := func(p domain.Priority) *domain.Priority { return &p }
	rec := func(r domain.Recurrence) *domain.Recurrence { return &r }
	today := time.Now().UTC().Format("2006-01-02")

	seed := []service.TaskInput{
		{Title: str("Утренняя зарядка"), Priority: pr(domain.PriorityHigh), Recurrence: rec(domain.RecurrenceDaily), Category: str("personal")},
		{Title: str("Спортзал"), Recurrence: rec(domain.RecurrenceWeekly), RecurrenceDays: &[]int{1, 3, 5}, Category: str("personal")},
		{Title: str("Отчёт за месяц"), Priority: pr(domain.PriorityHigh), Recurrence: rec(domain.RecurrenceMonthly), Category: str("work")},
		{Title: str("Купить продукты"), Priority: pr(domain.PriorityLow), DueDate: str(today), Category: str("shopping")},
	}
	for _, in := range seed {
		t, err := ts.Create(ctx, userID, in)
		if err != nil {
			logger.Error("seed task", "title", *in.Title, "error", err)
			continue
		}
		logger.Info("task created", "id", t.ID, "title", t.Title)
	}
}
