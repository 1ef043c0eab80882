package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task_tracker/internal/bot"
	"task_tracker/internal/cache"
	"task_tracker/internal/config"
	"task_tracker/internal/db"
	"task_tracker/internal/domain"
	httpServer "task_tracker/internal/http"
	"task_tracker/internal/http/handlers"
	"task_tracker/internal/http/middleware"
	"task_tracker/internal/logger"
	"task_tracker/internal/migrations"
	"task_tracker/internal/repository"
	"task_tracker/internal/service"
	"task_tracker/internal/ws"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", "error", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// хранилище: postgres или sqlite
	var (
		tasks    service.TaskStore
		users    service.UserStore
		activity service.ActivityStore
		checks   = map[string]handlers.Check{}
	)
	switch cfg.StoreDriver {
	case "sqlite":
		gdb, err := repository.NewSQLite(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("open sqlite", "path", cfg.SQLitePath, "error", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			logger.Fatal("sqlite handle", "error", err)
		}
		defer sqlDB.Close()
		tasks, users = repository.NewSQLiteTaskStore(gdb), repository.NewSQLiteUserStore(gdb)
		activity = repository.NewSQLiteActivityStore(gdb)
		checks["database"] = sqlDB.PingContext
		logger.Info("using sqlite store", "path", cfg.SQLitePath)
	default:
		if err := migrations.Up(cfg.DatabaseURL); err != nil {
			logger.Fatal("migrations", "error", err)
		}
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database", "error", err)
		}
		defer pool.Close()
		tasks, users = repository.NewTaskRepository(pool), repository.NewUserRepository(pool)
		activity = repository.NewActivityRepository(pool)
		checks["database"] = pool.Ping
	}

	// Redis опционален: без него нет кэша аналитики и rate limit пропускает всё
	var rdb *redis.Client
	redisOpts := cache.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB, URL: cfg.Redis.URL}
	if redisOpts.Enabled() {
		rdb, err = cache.NewRedis(ctx, redisOpts)
		if err != nil {
			logger.Warn("redis unavailable, cache and rate limit disabled", "error", err)
			rdb = nil
		} else {
			defer rdb.Close()
			checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		}
	}

	settings := settingsFrom(cfg)
	var analyticsCache service.Cache
	if rdb != nil {
		analyticsCache = cache.NewAnalyticsCache(rdb, cfg.CacheTTL.Duration())
	}

	tokens, err := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL.Duration())
	if err != nil {
		logger.Fatal("jwt", "error", err)
	}

	hub := ws.NewHub()
	defer hub.Close()

	// события: activity log -> websocket hub
	events := service.NewActivityService(activity, hub)
	occurrences := service.NewOccurrenceService(tasks, settings)
	analytics := service.NewAnalyticsService(tasks, analyticsCache, settings)
	taskService := service.NewTaskService(tasks, analytics, events, settings)
	userService := service.NewUserService(users, tokens, cfg.BotToken)

	r := httpServer.NewRouter(httpServer.RouterConfig{
		Handler:        handlers.NewHandler(taskService, occurrences, analytics, userService, events),
		Health:         handlers.NewHealthHandler(cfg.Version, checks),
		Hub:            hub,
		RateLimiter:    middleware.NewRateLimiter(rdb),
		AllowedOrigin:  cfg.AllowedOrigin,
		APIRateLimit:   cfg.APIRateLimit,
		APIRateWindow:  cfg.APIRateWindow.Duration(),
		AuthRateLimit:  cfg.AuthRateLimit,
		AuthRateWindow: cfg.APIRateWindow.Duration(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Telegram бот и ежедневный дайджест
	var scheduler *bot.Scheduler
	if cfg.BotToken != "" {
		digest, err := bot.NewDigestBot(cfg.BotToken, users, occurrences)
		if err != nil {
			logger.Error("bot disabled", "error", err)
		} else {
			go digest.Run(ctx)

			hour, minute, _ := cfg.DigestClock()
			scheduler = bot.NewScheduler(settings.Location)
			id, err := scheduler.ScheduleDaily(hour, minute, func() {
				jobCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
				defer cancel()
				if err := digest.SendDigest(jobCtx); err != nil {
					logger.Error("digest failed", "error", err)
				}
			})
			if err != nil {
				logger.Fatal("schedule digest", "error", err)
			}
			scheduler.Start()
			logger.Info("digest scheduled", "at", cfg.DigestTime, "next", scheduler.Next(id))
		}
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "store", cfg.StoreDriver, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	// cron останавливаем до закрытия хранилища (defer'ы ниже по стеку)
	if scheduler != nil {
		scheduler.Stop()
	}

	logger.Info("server exited")
}

func settingsFrom(cfg *config.Config) service.Settings {
	s := service.DefaultSettings()
	s.Location = cfg.Location()
	if p := domain.Priority(cfg.DefaultPriority); p.Valid() {
		s.DefaultPriority = p
	} else {
		logger.Warn("unknown DEFAULT_PRIORITY, using medium", "value", cfg.DefaultPriority)
	}
	if domain.ValidCategory(cfg.DefaultCategory) {
		s.DefaultCategory = cfg.DefaultCategory
	} else {
		logger.Warn("unknown DEFAULT_CATEGORY, using general", "value", cfg.DefaultCategory)
	}
	return s
}
