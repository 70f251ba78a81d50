package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dayflow/backend/internal/model"
)

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// CreateDefaults seeds a user's scheduling policy on first access.
func (r *SettingsRepository) CreateDefaults(ctx context.Context, userID string) error {
	settings := model.DefaultAutoScheduleSettings(userID)
	now := formatTime(time.Now().UTC())
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO auto_schedule_settings (
			user_id, work_days, work_hour_start, work_hour_end, buffer_minutes,
			max_consecutive_hours, min_break_minutes, enforce_breaks, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settings.UserID,
		encodeWorkDays(settings.WorkDays),
		settings.WorkHourStart,
		settings.WorkHourEnd,
		settings.BufferMinutes,
		settings.MaxConsecutiveHours,
		settings.MinBreakMinutes,
		settings.EnforceBreaks,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("create default settings: %w", err)
	}
	return nil
}

func (r *SettingsRepository) Get(ctx context.Context, userID string) (*model.AutoScheduleSettings, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT user_id, work_days, work_hour_start, work_hour_end, buffer_minutes,
		        max_consecutive_hours, min_break_minutes, enforce_breaks, created_at, updated_at
		 FROM auto_schedule_settings WHERE user_id = ?`,
		userID,
	)

	var settings model.AutoScheduleSettings
	var workDays string
	var createdAt, updatedAt string
	err := row.Scan(
		&settings.UserID,
		&workDays,
		&settings.WorkHourStart,
		&settings.WorkHourEnd,
		&settings.BufferMinutes,
		&settings.MaxConsecutiveHours,
		&settings.MinBreakMinutes,
		&settings.EnforceBreaks,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}

	if settings.WorkDays, err = decodeWorkDays(workDays); err != nil {
		return nil, fmt.Errorf("parse settings work_days: %w", err)
	}
	if settings.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse settings created_at: %w", err)
	}
	if settings.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse settings updated_at: %w", err)
	}
	return &settings, nil
}

func (r *SettingsRepository) Update(ctx context.Context, settings *model.AutoScheduleSettings) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE auto_schedule_settings
		 SET work_days = ?,
		     work_hour_start = ?,
		     work_hour_end = ?,
		     buffer_minutes = ?,
		     max_consecutive_hours = ?,
		     min_break_minutes = ?,
		     enforce_breaks = ?,
		     updated_at = ?
		 WHERE user_id = ?`,
		encodeWorkDays(settings.WorkDays),
		settings.WorkHourStart,
		settings.WorkHourEnd,
		settings.BufferMinutes,
		settings.MaxConsecutiveHours,
		settings.MinBreakMinutes,
		settings.EnforceBreaks,
		formatTime(settings.UpdatedAt),
		settings.UserID,
	)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update settings rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func encodeWorkDays(days []int) string {
	parts := make([]string, len(days))
	for i, day := range days {
		parts[i] = strconv.Itoa(day)
	}
	return strings.Join(parts, ",")
}

func decodeWorkDays(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	days := make([]int, 0, len(parts))
	for _, part := range parts {
		day, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}
