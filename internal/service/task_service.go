package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "dayflow/backend/internal/errors"
	"dayflow/backend/internal/model"
	"dayflow/backend/internal/repository"
)

type TaskService struct {
	taskRepo *repository.TaskRepository
}

func NewTaskService(taskRepo *repository.TaskRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo}
}

type TaskInput struct {
	Title           string
	Description     string
	DurationMinutes int
	Priority        int
	EnergyLevel     *string
	PreferredTime   *string
	DueDate         *time.Time
	StartDate       *time.Time
	IsRecurring     bool
	RecurrenceRule  string
	IsAutoScheduled bool
	ScheduleLocked  bool
	Status          string
}

func (s *TaskService) Create(ctx context.Context, userID string, input TaskInput) (*model.Task, *apperrors.APIError) {
	if apiErr := validateTaskInput(input); apiErr != nil {
		return nil, apiErr
	}

	now := time.Now().UTC()
	task := model.Task{
		ID:              uuid.NewString(),
		UserID:          userID,
		Title:           input.Title,
		Description:     input.Description,
		DurationMinutes: input.DurationMinutes,
		Priority:        input.Priority,
		EnergyLevel:     input.EnergyLevel,
		PreferredTime:   input.PreferredTime,
		DueDate:         input.DueDate,
		StartDate:       input.StartDate,
		IsRecurring:     input.IsRecurring,
		RecurrenceRule:  input.RecurrenceRule,
		IsAutoScheduled: input.IsAutoScheduled,
		ScheduleLocked:  input.ScheduleLocked,
		Status:          input.Status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if task.Status == "" {
		task.Status = model.StatusPending
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, apperrors.Internal("failed to create task")
	}
	return &task, nil
}

func (s *TaskService) List(ctx context.Context, userID, status string) ([]model.Task, *apperrors.APIError) {
	if status != "" && !model.IsValidStatus(status) {
		return nil, apperrors.BadRequest("invalid_status", "status must be one of pending, in_progress, completed")
	}
	tasks, err := s.taskRepo.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, apperrors.Internal("failed to list tasks")
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, userID, id string) (*model.Task, *apperrors.APIError) {
	task, err := s.taskRepo.GetByID(ctx, userID, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get task")
	}
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, userID, id string, input TaskInput) (*model.Task, *apperrors.APIError) {
	if apiErr := validateTaskInput(input); apiErr != nil {
		return nil, apiErr
	}

	task, apiErr := s.Get(ctx, userID, id)
	if apiErr != nil {
		return nil, apiErr
	}

	task.Title = input.Title
	task.Description = input.Description
	task.DurationMinutes = input.DurationMinutes
	task.Priority = input.Priority
	task.EnergyLevel = input.EnergyLevel
	task.PreferredTime = input.PreferredTime
	task.DueDate = input.DueDate
	task.StartDate = input.StartDate
	task.IsRecurring = input.IsRecurring
	task.RecurrenceRule = input.RecurrenceRule
	task.IsAutoScheduled = input.IsAutoScheduled
	task.ScheduleLocked = input.ScheduleLocked
	if input.Status != "" {
		task.Status = input.Status
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("task_not_found", "task not found")
		}
		return nil, apperrors.Internal("failed to update task")
	}
	return task, nil
}

// Complete marks a task done and drops it from the timeline.
func (s *TaskService) Complete(ctx context.Context, userID, id string) (*model.Task, *apperrors.APIError) {
	task, apiErr := s.Get(ctx, userID, id)
	if apiErr != nil {
		return nil, apiErr
	}

	task.Status = model.StatusCompleted
	task.ScheduledStart = nil
	task.ScheduledEnd = nil
	task.ScheduleScore = nil
	task.UpdatedAt = time.Now().UTC()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, apperrors.Internal("failed to complete task")
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, id string) *apperrors.APIError {
	err := s.taskRepo.Delete(ctx, userID, id)
	if err == repository.ErrNotFound {
		return apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		return apperrors.Internal("failed to delete task")
	}
	return nil
}

func validateTaskInput(input TaskInput) *apperrors.APIError {
	if input.Title == "" {
		return apperrors.BadRequest("invalid_title", "title is required")
	}
	if input.DurationMinutes <= 0 {
		return apperrors.BadRequest("invalid_duration", "duration must be positive minutes")
	}
	if input.EnergyLevel != nil && !model.IsValidEnergyLevel(*input.EnergyLevel) {
		return apperrors.BadRequest("invalid_energy_level", "energy level must be one of low, medium, high")
	}
	if input.PreferredTime != nil && !model.IsValidPreferredTime(*input.PreferredTime) {
		return apperrors.BadRequest("invalid_preferred_time", "preferred time must be one of morning, afternoon, evening")
	}
	if input.Status != "" && !model.IsValidStatus(input.Status) {
		return apperrors.BadRequest("invalid_status", "status must be one of pending, in_progress, completed")
	}
	if input.DueDate != nil && input.StartDate != nil && input.DueDate.Before(*input.StartDate) {
		return apperrors.BadRequest("invalid_dates", "due date must not precede start date")
	}
	return nil
}
