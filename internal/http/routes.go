package http

import (
	"time"

	"task_tracker/internal/http/handlers"
	"task_tracker/internal/http/middleware"
	"task_tracker/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries everything the router needs besides the handlers.
type RouterConfig struct {
	Handler     *handlers.Handler
	Health      *handlers.HealthHandler
	Hub         *ws.Hub
	RateLimiter *middleware.RateLimiter

	AllowedOrigin  string
	APIRateLimit   int
	APIRateWindow  time.Duration
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(), middleware.Metrics())
	r.Use(cors.New(corsConfig(cfg.AllowedOrigin)))
	RegisterRoutes(r, cfg)
	return r
}

func corsConfig(origin string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if origin == "" || origin == "*" {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = []string{origin}
	}
	return c
}

func RegisterRoutes(r *gin.Engine, cfg RouterConfig) {
	h := cfg.Handler

	// Health checks (no rate limiting)
	r.GET("/health", cfg.Health.Health)
	r.GET("/healthz", cfg.Health.Liveness)
	r.GET("/readyz", cfg.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/api/v1")
	registerAPIRoutes(v1, h, cfg)

	// Legacy /api routes (same handlers for older clients)
	api := r.Group("/api")
	api.GET("/health", cfg.Health.Health)
	registerAPIRoutes(api, h, cfg)

	// Live feed of task changes
	r.GET("/ws", ws.HandleWS(cfg.Hub, h.Users, cfg.AllowedOrigin))
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, cfg RouterConfig) {
	rl := cfg.RateLimiter
	authRL := rl.Limit("auth", cfg.AuthRateLimit, cfg.AuthRateWindow)

	// Auth
	auth := api.Group("/auth")
	{
		auth.POST("/register", authRL, h.Register)
		auth.POST("/login", authRL, h.Login)
		auth.POST("/telegram", authRL, h.TelegramAuth)
		auth.GET("/me", middleware.JWT(h.Users), h.Me)
	}

	// всё ниже требует токен
	private := api.Group("")
	private.Use(middleware.JWT(h.Users), rl.Limit("api", cfg.APIRateLimit, cfg.APIRateWindow))

	tasks := private.Group("/tasks")
	{
		tasks.GET("", h.ListTasks)
		tasks.POST("", h.CreateTask)
		tasks.GET("/:id", h.GetTask)
		tasks.PUT("/:id", h.UpdateTask)
		tasks.PATCH("/:id", h.UpdateTask)
		tasks.DELETE("/:id", h.DeleteTask)
		tasks.PATCH("/:id/complete", h.CompleteTask)
		tasks.PATCH("/:id/uncomplete", h.UncompleteTask)
	}

	occ := private.Group("/occurrences")
	{
		occ.GET("", h.RangeOccurrences)
		occ.GET("/today", h.TodayOccurrences)
		occ.GET("/daily/:date", h.DailyOccurrences)
		occ.GET("/weekly/:date", h.WeeklyOccurrences)
		occ.GET("/monthly/:year/:month", h.MonthlyOccurrences)
	}

	an := private.Group("/analytics")
	{
		an.GET("/daily", h.DailyProductivity)
		an.GET("/daily/:days", h.DailyProductivity)
		an.GET("/weekly", h.WeeklyProductivity)
		an.GET("/weekly/:weeks", h.WeeklyProductivity)
		an.GET("/monthly", h.MonthlyProductivity)
		an.GET("/monthly/:months", h.MonthlyProductivity)
		an.GET("/statistics", h.TaskStatistics)
		an.GET("/history", h.CompletionHistory)
		an.GET("/history/:days", h.CompletionHistory)
		an.GET("/dashboard/overview", h.DashboardOverview)
	}

	private.GET("/activity", h.RecentActivity)
}
