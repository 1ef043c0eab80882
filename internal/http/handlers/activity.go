package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// RecentActivity returns the activity log, newest first (?limit=, default 50).
func (h *Handler) RecentActivity(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.Activity.Recent(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}
