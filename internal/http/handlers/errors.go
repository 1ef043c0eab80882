package handlers

import (
	"errors"
	"net/http"

	"task_tracker/internal/domain"
	"task_tracker/internal/http/middleware"
	"task_tracker/internal/logger"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors to status codes; anything unknown is a logged 500.
func respondError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrValidation.Error(), "details": verr.Details})
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	default:
		logger.Error("request failed",
			"path", c.FullPath(),
			"request_id", c.GetString(middleware.RequestIDKey),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
