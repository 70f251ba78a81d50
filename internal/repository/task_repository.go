package repository

import (
	"context"
	"database/sql"
	"fmt"

	"dayflow/backend/internal/model"
)

const taskColumns = `id, user_id, title, description, duration_minutes, priority,
	energy_level, preferred_time, due_date, start_date, is_recurring, recurrence_rule,
	is_auto_scheduled, schedule_locked, scheduled_start, scheduled_end, schedule_score,
	last_scheduled, status, created_at, updated_at`

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.DurationMinutes,
		task.Priority,
		nullableString(task.EnergyLevel),
		nullableString(task.PreferredTime),
		nullableTime(task.DueDate),
		nullableTime(task.StartDate),
		task.IsRecurring,
		task.RecurrenceRule,
		task.IsAutoScheduled,
		task.ScheduleLocked,
		nullableTime(task.ScheduledStart),
		nullableTime(task.ScheduledEnd),
		nullableFloat(task.ScheduleScore),
		nullableTime(task.LastScheduled),
		task.Status,
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, userID, id string) (*model.Task, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`,
		id,
		userID,
	)
	return scanTask(row)
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID, status string) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	return r.queryTasks(ctx, query, args...)
}

// ListSchedulable returns the tasks eligible for automatic placement:
// auto-scheduled, not locked, and not completed or in progress.
func (r *TaskRepository) ListSchedulable(ctx context.Context, userID string) ([]model.Task, error) {
	return r.queryTasks(
		ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE user_id = ?
		   AND is_auto_scheduled = 1
		   AND schedule_locked = 0
		   AND status NOT IN (?, ?)
		 ORDER BY created_at ASC, id ASC`,
		userID,
		model.StatusCompleted,
		model.StatusInProgress,
	)
}

// ListLocked returns tasks whose placement is fixed; the engine treats
// their intervals as busy time.
func (r *TaskRepository) ListLocked(ctx context.Context, userID string) ([]model.Task, error) {
	return r.queryTasks(
		ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE user_id = ?
		   AND schedule_locked = 1
		   AND scheduled_start IS NOT NULL
		   AND scheduled_end IS NOT NULL
		 ORDER BY scheduled_start ASC, id ASC`,
		userID,
	)
}

func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE tasks
		 SET title = ?,
		     description = ?,
		     duration_minutes = ?,
		     priority = ?,
		     energy_level = ?,
		     preferred_time = ?,
		     due_date = ?,
		     start_date = ?,
		     is_recurring = ?,
		     recurrence_rule = ?,
		     is_auto_scheduled = ?,
		     schedule_locked = ?,
		     scheduled_start = ?,
		     scheduled_end = ?,
		     schedule_score = ?,
		     last_scheduled = ?,
		     status = ?,
		     updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		task.Title,
		task.Description,
		task.DurationMinutes,
		task.Priority,
		nullableString(task.EnergyLevel),
		nullableString(task.PreferredTime),
		nullableTime(task.DueDate),
		nullableTime(task.StartDate),
		task.IsRecurring,
		task.RecurrenceRule,
		task.IsAutoScheduled,
		task.ScheduleLocked,
		nullableTime(task.ScheduledStart),
		nullableTime(task.ScheduledEnd),
		nullableFloat(task.ScheduleScore),
		nullableTime(task.LastScheduled),
		task.Status,
		formatTime(task.UpdatedAt),
		task.ID,
		task.UserID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearPlacementsTx nulls the scheduling fields of every eligible task
// before a full reschedule run. Locked and completed tasks keep theirs.
func (r *TaskRepository) ClearPlacementsTx(ctx context.Context, tx *sql.Tx, userID string) error {
	_, err := tx.ExecContext(
		ctx,
		`UPDATE tasks
		 SET scheduled_start = NULL,
		     scheduled_end = NULL,
		     schedule_score = NULL
		 WHERE user_id = ?
		   AND is_auto_scheduled = 1
		   AND schedule_locked = 0
		   AND status NOT IN (?, ?)`,
		userID,
		model.StatusCompleted,
		model.StatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("clear placements: %w", err)
	}
	return nil
}

// SavePlacementTx persists only the scheduling fields the engine owns.
func (r *TaskRepository) SavePlacementTx(ctx context.Context, tx *sql.Tx, task *model.Task) error {
	_, err := tx.ExecContext(
		ctx,
		`UPDATE tasks
		 SET scheduled_start = ?,
		     scheduled_end = ?,
		     schedule_score = ?,
		     last_scheduled = ?,
		     updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		nullableTime(task.ScheduledStart),
		nullableTime(task.ScheduledEnd),
		nullableFloat(task.ScheduleScore),
		nullableTime(task.LastScheduled),
		formatTime(task.UpdatedAt),
		task.ID,
		task.UserID,
	)
	if err != nil {
		return fmt.Errorf("save placement: %w", err)
	}
	return nil
}

// ListUserIDsWithSchedulableTasks feeds the nightly rollover: every user
// who currently has at least one task eligible for placement.
func (r *TaskRepository) ListUserIDsWithSchedulableTasks(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT DISTINCT user_id FROM tasks
		 WHERE is_auto_scheduled = 1
		   AND schedule_locked = 0
		   AND status NOT IN (?, ?)
		 ORDER BY user_id ASC`,
		model.StatusCompleted,
		model.StatusInProgress,
	)
	if err != nil {
		return nil, fmt.Errorf("list users with schedulable tasks: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user ids: %w", err)
	}
	return userIDs, nil
}

func (r *TaskRepository) queryTasks(ctx context.Context, query string, args ...interface{}) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullableFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(s scanner) (*model.Task, error) {
	var task model.Task
	var energyLevel, preferredTime sql.NullString
	var dueDate, startDate, scheduledStart, scheduledEnd, lastScheduled sql.NullString
	var scheduleScore sql.NullFloat64
	var createdAt, updatedAt string

	err := s.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.DurationMinutes,
		&task.Priority,
		&energyLevel,
		&preferredTime,
		&dueDate,
		&startDate,
		&task.IsRecurring,
		&task.RecurrenceRule,
		&task.IsAutoScheduled,
		&task.ScheduleLocked,
		&scheduledStart,
		&scheduledEnd,
		&scheduleScore,
		&lastScheduled,
		&task.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	if energyLevel.Valid {
		value := energyLevel.String
		task.EnergyLevel = &value
	}
	if preferredTime.Valid {
		value := preferredTime.String
		task.PreferredTime = &value
	}
	if scheduleScore.Valid {
		value := scheduleScore.Float64
		task.ScheduleScore = &value
	}

	if task.DueDate, err = parseNullableTime(dueDate); err != nil {
		return nil, fmt.Errorf("parse task due_date: %w", err)
	}
	if task.StartDate, err = parseNullableTime(startDate); err != nil {
		return nil, fmt.Errorf("parse task start_date: %w", err)
	}
	if task.ScheduledStart, err = parseNullableTime(scheduledStart); err != nil {
		return nil, fmt.Errorf("parse task scheduled_start: %w", err)
	}
	if task.ScheduledEnd, err = parseNullableTime(scheduledEnd); err != nil {
		return nil, fmt.Errorf("parse task scheduled_end: %w", err)
	}
	if task.LastScheduled, err = parseNullableTime(lastScheduled); err != nil {
		return nil, fmt.Errorf("parse task last_scheduled: %w", err)
	}

	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse task created_at: %w", err)
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse task updated_at: %w", err)
	}
	return &task, nil
}
