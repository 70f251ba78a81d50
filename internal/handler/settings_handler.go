package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dayflow/backend/internal/middleware"
	"dayflow/backend/internal/service"
)

type SettingsHandler struct {
	settingsService *service.SettingsService
}

type settingsRequest struct {
	WorkDays            []int `json:"workDays"`
	WorkHourStart       int   `json:"workHourStart"`
	WorkHourEnd         int   `json:"workHourEnd"`
	BufferMinutes       int   `json:"bufferMinutes"`
	MaxConsecutiveHours int   `json:"maxConsecutiveHours"`
	MinBreakMinutes     int   `json:"minBreakMinutes"`
	EnforceBreaks       bool  `json:"enforceBreaks"`
}

func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	userID := middleware.UserID(c)
	settings, apiErr := h.settingsService.Get(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	userID := middleware.UserID(c)
	settings, apiErr := h.settingsService.Update(c.Request.Context(), userID, service.SettingsInput{
		WorkDays:            req.WorkDays,
		WorkHourStart:       req.WorkHourStart,
		WorkHourEnd:         req.WorkHourEnd,
		BufferMinutes:       req.BufferMinutes,
		MaxConsecutiveHours: req.MaxConsecutiveHours,
		MinBreakMinutes:     req.MinBreakMinutes,
		EnforceBreaks:       req.EnforceBreaks,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}
