package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dayflow/backend/internal/middleware"
	"dayflow/backend/internal/service"
)

type ScheduleHandler struct {
	scheduleService *service.ScheduleService
}

func NewScheduleHandler(scheduleService *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

func (h *ScheduleHandler) Run(c *gin.Context) {
	userID := middleware.UserID(c)
	run, apiErr := h.scheduleService.RescheduleAll(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": run})
}

func (h *ScheduleHandler) Report(c *gin.Context) {
	userID := middleware.UserID(c)
	report, apiErr := h.scheduleService.Report(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}
