package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"dayflow/backend/internal/repository"
	"dayflow/backend/internal/service"
)

// Rollover re-runs the scheduler for every user that still has
// schedulable tasks, so yesterday's unfinished work lands on fresh slots.
type Rollover struct {
	taskRepo        *repository.TaskRepository
	scheduleService *service.ScheduleService
	logger          zerolog.Logger
	cron            *cron.Cron
}

func NewRollover(taskRepo *repository.TaskRepository, scheduleService *service.ScheduleService, logger zerolog.Logger) *Rollover {
	return &Rollover{
		taskRepo:        taskRepo,
		scheduleService: scheduleService,
		logger:          logger,
	}
}

func (r *Rollover) Start(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, r.runOnce); err != nil {
		return err
	}
	c.Start()
	r.cron = c
	r.logger.Info().Str("spec", spec).Msg("rollover job started")
	return nil
}

func (r *Rollover) Stop() {
	if r.cron == nil {
		return
	}
	ctx := r.cron.Stop()
	<-ctx.Done()
}

func (r *Rollover) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	userIDs, err := r.taskRepo.ListUserIDsWithSchedulableTasks(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("rollover: list users failed")
		return
	}

	rescheduled := 0
	for _, userID := range userIDs {
		if _, apiErr := r.scheduleService.RescheduleAll(ctx, userID); apiErr != nil {
			r.logger.Error().
				Str("user_id", userID).
				Str("code", apiErr.Code).
				Msg("rollover: reschedule failed")
			continue
		}
		rescheduled++
	}

	r.logger.Info().
		Int("users", len(userIDs)).
		Int("rescheduled", rescheduled).
		Msg("rollover run complete")
}
