package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "dayflow/backend/internal/errors"
	"dayflow/backend/internal/model"
	"dayflow/backend/internal/repository"
	"dayflow/backend/internal/scheduler"
)

// ScheduleService orchestrates a full reschedule: it resolves the policy,
// gathers candidate and locked tasks plus calendar busy time, clears stale
// placements, runs the engine and break enforcement, and persists the
// resulting placements. The read-clear-place-write sequence is serialized
// per user; a second reschedule for the same user waits for the first.
type ScheduleService struct {
	taskRepo     *repository.TaskRepository
	settingsRepo *repository.SettingsRepository
	calendarRepo *repository.CalendarRepository
	logger       zerolog.Logger

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

func NewScheduleService(
	taskRepo *repository.TaskRepository,
	settingsRepo *repository.SettingsRepository,
	calendarRepo *repository.CalendarRepository,
	logger zerolog.Logger,
) *ScheduleService {
	return &ScheduleService{
		taskRepo:     taskRepo,
		settingsRepo: settingsRepo,
		calendarRepo: calendarRepo,
		logger:       logger,
		userLocks:    make(map[string]*sync.Mutex),
	}
}

// ScheduleRunView is the outcome of a reschedule handed back for display.
type ScheduleRunView struct {
	Tasks           []model.Task                `json:"tasks"`
	Unplaced        []string                    `json:"unplaced"`
	Violations      []scheduler.BreakViolation  `json:"violations"`
	Suggestions     []scheduler.BreakSuggestion `json:"suggestions"`
	ComplianceScore int                         `json:"complianceScore"`
	RanAt           time.Time                   `json:"ranAt"`
}

// ScheduleReportView is a read-only audit of the current schedule.
type ScheduleReportView struct {
	Violations      []scheduler.BreakViolation  `json:"violations"`
	Suggestions     []scheduler.BreakSuggestion `json:"suggestions"`
	ComplianceScore int                         `json:"complianceScore"`
}

// RescheduleAll re-places every eligible task for the user starting from
// the current time.
func (s *ScheduleService) RescheduleAll(ctx context.Context, userID string) (*ScheduleRunView, *apperrors.APIError) {
	return s.RescheduleFrom(ctx, userID, time.Now().UTC())
}

// RescheduleFrom is RescheduleAll with an explicit run time, so callers
// (and tests) can pin the scan origin.
func (s *ScheduleService) RescheduleFrom(ctx context.Context, userID string, now time.Time) (*ScheduleRunView, *apperrors.APIError) {
	unlock := s.lockUser(userID)
	defer unlock()

	settings, err := s.settingsRepo.Get(ctx, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.BadRequest("settings_not_found", "schedule settings are missing")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load schedule settings")
	}
	if err := settings.Validate(); err != nil {
		return nil, apperrors.BadRequest("invalid_settings", err.Error())
	}

	candidates, err := s.taskRepo.ListSchedulable(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to load tasks")
	}
	locked, err := s.taskRepo.ListLocked(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to load locked tasks")
	}
	busy, apiErr := s.busyIntervals(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	engine := scheduler.NewEngine(now)
	result, err := engine.ScheduleTasks(candidates, locked, *settings, busy)
	if err != nil {
		return nil, apperrors.BadRequest("schedule_failed", err.Error())
	}

	tasks := result.Tasks
	if settings.EnforceBreaks {
		// Break enforcement shifts tasks forward without re-checking
		// calendar busy time; collisions it introduces show up on the
		// next reschedule.
		tasks = scheduler.EnforceBreaks(tasks, *settings)
	}

	if apiErr := s.persistPlacements(ctx, userID, tasks, now); apiErr != nil {
		return nil, apiErr
	}

	violations := scheduler.ValidateScheduleBreaks(tasks, *settings)
	suggestions := scheduler.SuggestBreaks(violations, *settings)
	compliance := scheduler.BreakComplianceScore(tasks, *settings)

	s.logger.Info().
		Str("user_id", userID).
		Int("tasks", len(tasks)).
		Int("unplaced", len(result.Unplaced)).
		Int("violations", len(violations)).
		Int("compliance", compliance).
		Msg("reschedule complete")

	if result.Unplaced == nil {
		result.Unplaced = []string{}
	}
	return &ScheduleRunView{
		Tasks:           tasks,
		Unplaced:        result.Unplaced,
		Violations:      violations,
		Suggestions:     suggestions,
		ComplianceScore: compliance,
		RanAt:           now,
	}, nil
}

// Report audits the persisted schedule without touching it.
func (s *ScheduleService) Report(ctx context.Context, userID string) (*ScheduleReportView, *apperrors.APIError) {
	settings, err := s.settingsRepo.Get(ctx, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.BadRequest("settings_not_found", "schedule settings are missing")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load schedule settings")
	}

	tasks, err := s.taskRepo.ListByUser(ctx, userID, "")
	if err != nil {
		return nil, apperrors.Internal("failed to load tasks")
	}

	violations := scheduler.ValidateScheduleBreaks(tasks, *settings)
	return &ScheduleReportView{
		Violations:      violations,
		Suggestions:     scheduler.SuggestBreaks(violations, *settings),
		ComplianceScore: scheduler.BreakComplianceScore(tasks, *settings),
	}, nil
}

func (s *ScheduleService) busyIntervals(ctx context.Context, userID string) ([]scheduler.Interval, *apperrors.APIError) {
	events, err := s.calendarRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to load calendar events")
	}
	busy := make([]scheduler.Interval, 0, len(events))
	for _, event := range events {
		busy = append(busy, scheduler.Interval{Start: event.StartTime, End: event.EndTime})
	}
	return busy, nil
}

// persistPlacements writes the run's outcome in one transaction: stale
// placements are cleared first so a task that lost its slot does not keep
// a phantom interval.
func (s *ScheduleService) persistPlacements(ctx context.Context, userID string, tasks []model.Task, now time.Time) *apperrors.APIError {
	tx, err := s.taskRepo.BeginTx(ctx)
	if err != nil {
		return apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	if err := s.taskRepo.ClearPlacementsTx(ctx, tx, userID); err != nil {
		return apperrors.Internal("failed to clear stale placements")
	}

	for i := range tasks {
		task := &tasks[i]
		if !task.IsScheduled() {
			continue
		}
		task.UpdatedAt = now
		if err := s.taskRepo.SavePlacementTx(ctx, tx, task); err != nil {
			return apperrors.Internal("failed to save placement")
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Internal("failed to commit placements")
	}
	return nil
}

func (s *ScheduleService) lockUser(userID string) func() {
	s.mu.Lock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
