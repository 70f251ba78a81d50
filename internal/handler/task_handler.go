package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dayflow/backend/internal/middleware"
	"dayflow/backend/internal/service"
)

type TaskHandler struct {
	taskService *service.TaskService
}

type taskRequest struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DurationMinutes int        `json:"durationMinutes"`
	Priority        int        `json:"priority"`
	EnergyLevel     *string    `json:"energyLevel"`
	PreferredTime   *string    `json:"preferredTime"`
	DueDate         *time.Time `json:"dueDate"`
	StartDate       *time.Time `json:"startDate"`
	IsRecurring     bool       `json:"isRecurring"`
	RecurrenceRule  string     `json:"recurrenceRule"`
	IsAutoScheduled *bool      `json:"isAutoScheduled"`
	ScheduleLocked  bool       `json:"scheduleLocked"`
	Status          string     `json:"status"`
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (r taskRequest) toInput() service.TaskInput {
	autoScheduled := true
	if r.IsAutoScheduled != nil {
		autoScheduled = *r.IsAutoScheduled
	}
	return service.TaskInput{
		Title:           r.Title,
		Description:     r.Description,
		DurationMinutes: r.DurationMinutes,
		Priority:        r.Priority,
		EnergyLevel:     r.EnergyLevel,
		PreferredTime:   r.PreferredTime,
		DueDate:         r.DueDate,
		StartDate:       r.StartDate,
		IsRecurring:     r.IsRecurring,
		RecurrenceRule:  r.RecurrenceRule,
		IsAutoScheduled: autoScheduled,
		ScheduleLocked:  r.ScheduleLocked,
		Status:          r.Status,
	}
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	userID := middleware.UserID(c)
	task, apiErr := h.taskService.Create(c.Request.Context(), userID, req.toInput())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

func (h *TaskHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	tasks, apiErr := h.taskService.List(c.Request.Context(), userID, c.Query("status"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TaskHandler) Get(c *gin.Context) {
	userID := middleware.UserID(c)
	task, apiErr := h.taskService.Get(c.Request.Context(), userID, c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) Update(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	userID := middleware.UserID(c)
	task, apiErr := h.taskService.Update(c.Request.Context(), userID, c.Param("id"), req.toInput())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) Complete(c *gin.Context) {
	userID := middleware.UserID(c)
	task, apiErr := h.taskService.Complete(c.Request.Context(), userID, c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) Delete(c *gin.Context) {
	userID := middleware.UserID(c)
	if apiErr := h.taskService.Delete(c.Request.Context(), userID, c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}
