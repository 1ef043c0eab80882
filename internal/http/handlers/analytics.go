package handlers

import (
	"net/http"
	"strconv"

	"task_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// windowParam reads a window length; missing or non-numeric falls back to def.
// Out-of-bound numbers are passed through and rejected by the service.
func windowParam(c *gin.Context, name string, def int) int {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return def
	}
	return n
}

func (h *Handler) DailyProductivity(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	res, err := h.Analytics.DailyProductivity(c.Request.Context(), userID, windowParam(c, "days", service.DefaultDays))
	respond(c, res, err)
}

func (h *Handler) WeeklyProductivity(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	res, err := h.Analytics.WeeklyProductivity(c.Request.Context(), userID, windowParam(c, "weeks", service.DefaultWeeks))
	respond(c, res, err)
}

func (h *Handler) MonthlyProductivity(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	res, err := h.Analytics.MonthlyProductivity(c.Request.Context(), userID, windowParam(c, "months", service.DefaultMonths))
	respond(c, res, err)
}

func (h *Handler) TaskStatistics(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	res, err := h.Analytics.TaskStatistics(c.Request.Context(), userID)
	respond(c, res, err)
}

func (h *Handler) CompletionHistory(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	res, err := h.Analytics.CompletionHistory(c.Request.Context(), userID, windowParam(c, "days", service.DefaultDays))
	respond(c, res, err)
}

func (h *Handler) DashboardOverview(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	res, err := h.Analytics.DashboardOverview(c.Request.Context(), userID)
	respond(c, res, err)
}

func respond(c *gin.Context, body any, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}
