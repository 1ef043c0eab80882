package handlers

import (
	"net/http"
	"strconv"
	"time"

	"task_tracker/internal/domain"
	"task_tracker/internal/occurrence"
	"task_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListTasks(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	tasks, err := h.Tasks.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": newTaskViews(tasks)})
}

func (h *Handler) GetTask(c *gin.Context) {
	userID, id, ok := taskParams(c)
	if !ok {
		return
	}
	task, err := h.Tasks.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": newTaskView(task)})
}

func (h *Handler) CreateTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	var req service.TaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad request")
		return
	}

	task, err := h.Tasks.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": newTaskView(task)})
}

// UpdateTask serves both PUT and PATCH: absent fields stay as they are.
func (h *Handler) UpdateTask(c *gin.Context) {
	userID, id, ok := taskParams(c)
	if !ok {
		return
	}

	var req service.TaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad request")
		return
	}

	task, err := h.Tasks.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": newTaskView(task)})
}

func (h *Handler) DeleteTask(c *gin.Context) {
	userID, id, ok := taskParams(c)
	if !ok {
		return
	}
	if err := h.Tasks.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) CompleteTask(c *gin.Context) {
	h.toggleTask(c, true)
}

func (h *Handler) UncompleteTask(c *gin.Context) {
	h.toggleTask(c, false)
}

// toggleTask reads ?date=YYYY-MM-DD; without it the occurrence is today's.
func (h *Handler) toggleTask(c *gin.Context, value bool) {
	userID, id, ok := taskParams(c)
	if !ok {
		return
	}

	var day time.Time
	if raw := c.Query("date"); raw != "" {
		d, err := occurrence.ParseDay(raw)
		if err != nil {
			respondError(c, domain.InvalidRange("date must be YYYY-MM-DD"))
			return
		}
		day = d
	}

	ctx := c.Request.Context()
	var (
		task *domain.Task
		err  error
	)
	if value {
		task, err = h.Tasks.Complete(ctx, userID, id, day)
	} else {
		task, err = h.Tasks.Uncomplete(ctx, userID, id, day)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": newTaskView(task)})
}

func taskParams(c *gin.Context) (userID, id int64, ok bool) {
	userID, ok = getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return 0, 0, false
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, 0, false
	}
	return userID, id, true
}
