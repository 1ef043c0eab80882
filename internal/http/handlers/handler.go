package handlers

import (
	"task_tracker/internal/http/middleware"
	"task_tracker/internal/service"
)

type Handler struct {
	Tasks       *service.TaskService
	Occurrences *service.OccurrenceService
	Analytics   *service.AnalyticsService
	Users       *service.UserService
	Activity    *service.ActivityService
}

func NewHandler(tasks *service.TaskService, occurrences *service.OccurrenceService, analytics *service.AnalyticsService, users *service.UserService, activity *service.ActivityService) *Handler {
	return &Handler{Tasks: tasks, Occurrences: occurrences, Analytics: analytics, Users: users, Activity: activity}
}

// getUserID извлекает user_id из контекста Gin
func getUserID(c interface{ Get(any) (any, bool) }) (int64, bool) {
	uidVal, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
