package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dayflow/backend/internal/middleware"
	"dayflow/backend/internal/service"
)

type CalendarHandler struct {
	calendarService *service.CalendarService
}

type eventRequest struct {
	Title     string    `json:"title"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Source    string    `json:"source"`
}

func NewCalendarHandler(calendarService *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

func (h *CalendarHandler) Create(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	userID := middleware.UserID(c)
	event, apiErr := h.calendarService.Create(c.Request.Context(), userID, service.EventInput{
		Title:     req.Title,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Source:    req.Source,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event": event})
}

func (h *CalendarHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	events, apiErr := h.calendarService.List(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *CalendarHandler) Delete(c *gin.Context) {
	userID := middleware.UserID(c)
	if apiErr := h.calendarService.Delete(c.Request.Context(), userID, c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}
