package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "dayflow/backend/internal/errors"
	"dayflow/backend/internal/model"
	"dayflow/backend/internal/repository"
)

type CalendarService struct {
	calendarRepo *repository.CalendarRepository
}

func NewCalendarService(calendarRepo *repository.CalendarRepository) *CalendarService {
	return &CalendarService{calendarRepo: calendarRepo}
}

type EventInput struct {
	Title     string
	StartTime time.Time
	EndTime   time.Time
	Source    string
}

func (s *CalendarService) Create(ctx context.Context, userID string, input EventInput) (*model.CalendarEvent, *apperrors.APIError) {
	if input.Title == "" {
		return nil, apperrors.BadRequest("invalid_title", "title is required")
	}
	if !input.EndTime.After(input.StartTime) {
		return nil, apperrors.BadRequest("invalid_interval", "end time must be after start time")
	}

	now := time.Now().UTC()
	event := model.CalendarEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     input.Title,
		StartTime: input.StartTime.UTC(),
		EndTime:   input.EndTime.UTC(),
		Source:    input.Source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if event.Source == "" {
		event.Source = model.EventSourceManual
	}

	if err := s.calendarRepo.Create(ctx, &event); err != nil {
		return nil, apperrors.Internal("failed to create calendar event")
	}
	return &event, nil
}

func (s *CalendarService) List(ctx context.Context, userID string) ([]model.CalendarEvent, *apperrors.APIError) {
	events, err := s.calendarRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list calendar events")
	}
	if events == nil {
		events = []model.CalendarEvent{}
	}
	return events, nil
}

func (s *CalendarService) Delete(ctx context.Context, userID, id string) *apperrors.APIError {
	err := s.calendarRepo.Delete(ctx, userID, id)
	if err == repository.ErrNotFound {
		return apperrors.NotFound("event_not_found", "calendar event not found")
	}
	if err != nil {
		return apperrors.Internal("failed to delete calendar event")
	}
	return nil
}
