package service

import (
	"context"
	"time"

	apperrors "dayflow/backend/internal/errors"
	"dayflow/backend/internal/model"
	"dayflow/backend/internal/repository"
)

type SettingsService struct {
	settingsRepo *repository.SettingsRepository
}

func NewSettingsService(settingsRepo *repository.SettingsRepository) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo}
}

type SettingsInput struct {
	WorkDays            []int
	WorkHourStart       int
	WorkHourEnd         int
	BufferMinutes       int
	MaxConsecutiveHours int
	MinBreakMinutes     int
	EnforceBreaks       bool
}

func (s *SettingsService) Get(ctx context.Context, userID string) (*model.AutoScheduleSettings, *apperrors.APIError) {
	settings, err := s.settingsRepo.Get(ctx, userID)
	if err == repository.ErrNotFound {
		// Settings are created with defaults on first access.
		if createErr := s.settingsRepo.CreateDefaults(ctx, userID); createErr != nil {
			return nil, apperrors.Internal("failed to initialize schedule settings")
		}
		settings, err = s.settingsRepo.Get(ctx, userID)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get schedule settings")
	}
	return settings, nil
}

func (s *SettingsService) Update(ctx context.Context, userID string, input SettingsInput) (*model.AutoScheduleSettings, *apperrors.APIError) {
	settings, apiErr := s.Get(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	settings.WorkDays = input.WorkDays
	settings.WorkHourStart = input.WorkHourStart
	settings.WorkHourEnd = input.WorkHourEnd
	settings.BufferMinutes = input.BufferMinutes
	settings.MaxConsecutiveHours = input.MaxConsecutiveHours
	settings.MinBreakMinutes = input.MinBreakMinutes
	settings.EnforceBreaks = input.EnforceBreaks
	settings.UpdatedAt = time.Now().UTC()

	if err := settings.Validate(); err != nil {
		return nil, apperrors.BadRequest("invalid_settings", err.Error())
	}

	if err := s.settingsRepo.Update(ctx, settings); err != nil {
		return nil, apperrors.Internal("failed to update schedule settings")
	}
	return settings, nil
}
