package repository

import (
	"context"
	"database/sql"
	"fmt"

	"dayflow/backend/internal/model"
)

type CalendarRepository struct {
	db *sql.DB
}

func NewCalendarRepository(db *sql.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

func (r *CalendarRepository) Create(ctx context.Context, event *model.CalendarEvent) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO calendar_events (id, user_id, title, start_time, end_time, source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.UserID,
		event.Title,
		formatTime(event.StartTime),
		formatTime(event.EndTime),
		event.Source,
		formatTime(event.CreatedAt),
		formatTime(event.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create calendar event: %w", err)
	}
	return nil
}

func (r *CalendarRepository) ListByUser(ctx context.Context, userID string) ([]model.CalendarEvent, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, title, start_time, end_time, source, created_at, updated_at
		 FROM calendar_events
		 WHERE user_id = ?
		 ORDER BY start_time ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	defer rows.Close()

	var events []model.CalendarEvent
	for rows.Next() {
		event, scanErr := scanCalendarEvent(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calendar events: %w", err)
	}
	return events, nil
}

func (r *CalendarRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete calendar event rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCalendarEvent(s scanner) (*model.CalendarEvent, error) {
	var event model.CalendarEvent
	var startTime, endTime, createdAt, updatedAt string
	err := s.Scan(
		&event.ID,
		&event.UserID,
		&event.Title,
		&startTime,
		&endTime,
		&event.Source,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan calendar event: %w", err)
	}

	if event.StartTime, err = parseTime(startTime); err != nil {
		return nil, fmt.Errorf("parse event start_time: %w", err)
	}
	if event.EndTime, err = parseTime(endTime); err != nil {
		return nil, fmt.Errorf("parse event end_time: %w", err)
	}
	if event.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse event created_at: %w", err)
	}
	if event.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse event updated_at: %w", err)
	}
	return &event, nil
}
