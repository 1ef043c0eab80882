package handlers

import (
	"net/http"
	"strconv"

	"task_tracker/internal/domain"
	"task_tracker/internal/occurrence"
	"task_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) TodayOccurrences(c *gin.Context) {
	h.occurrences(c, func(userID int64) ([]service.Occurrence, error) {
		return h.Occurrences.Today(c.Request.Context(), userID)
	})
}

func (h *Handler) DailyOccurrences(c *gin.Context) {
	d, err := occurrence.ParseDay(c.Param("date"))
	if err != nil {
		respondError(c, domain.InvalidRange("date must be YYYY-MM-DD"))
		return
	}
	h.occurrences(c, func(userID int64) ([]service.Occurrence, error) {
		return h.Occurrences.Day(c.Request.Context(), userID, d)
	})
}

func (h *Handler) WeeklyOccurrences(c *gin.Context) {
	d, err := occurrence.ParseDay(c.Param("date"))
	if err != nil {
		respondError(c, domain.InvalidRange("date must be YYYY-MM-DD"))
		return
	}
	h.occurrences(c, func(userID int64) ([]service.Occurrence, error) {
		return h.Occurrences.Week(c.Request.Context(), userID, d)
	})
}

func (h *Handler) MonthlyOccurrences(c *gin.Context) {
	year, errY := strconv.Atoi(c.Param("year"))
	month, errM := strconv.Atoi(c.Param("month"))
	if errY != nil || errM != nil {
		respondError(c, domain.InvalidRange("year and month must be numbers"))
		return
	}
	h.occurrences(c, func(userID int64) ([]service.Occurrence, error) {
		return h.Occurrences.Month(c.Request.Context(), userID, year, month)
	})
}

// RangeOccurrences serves ?from=&to=, both days inclusive.
func (h *Handler) RangeOccurrences(c *gin.Context) {
	from, errF := occurrence.ParseDay(c.Query("from"))
	to, errT := occurrence.ParseDay(c.Query("to"))
	if errF != nil || errT != nil {
		respondError(c, domain.InvalidRange("from and to must be YYYY-MM-DD"))
		return
	}
	h.occurrences(c, func(userID int64) ([]service.Occurrence, error) {
		return h.Occurrences.Between(c.Request.Context(), userID, from, to)
	})
}

func (h *Handler) occurrences(c *gin.Context, load func(userID int64) ([]service.Occurrence, error)) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	items, err := load(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": newOccurrenceViews(items)})
}
