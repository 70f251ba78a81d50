package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"dayflow/backend/internal/config"
	"dayflow/backend/internal/db"
	"dayflow/backend/internal/handler"
	"dayflow/backend/internal/jobs"
	"dayflow/backend/internal/repository"
	"dayflow/backend/internal/router"
	"dayflow/backend/internal/service"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg := config.Load()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	userRepo := repository.NewUserRepository(database)
	taskRepo := repository.NewTaskRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)
	calendarRepo := repository.NewCalendarRepository(database)

	authService := service.NewAuthService(userRepo, settingsRepo, cfg.JWTSecret, cfg.TokenTTL)
	taskService := service.NewTaskService(taskRepo)
	settingsService := service.NewSettingsService(settingsRepo)
	calendarService := service.NewCalendarService(calendarRepo)
	scheduleService := service.NewScheduleService(taskRepo, settingsRepo, calendarRepo, logger)

	authHandler := handler.NewAuthHandler(authService)
	taskHandler := handler.NewTaskHandler(taskService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	calendarHandler := handler.NewCalendarHandler(calendarService)

	if cfg.RolloverEnabled {
		rollover := jobs.NewRollover(taskRepo, scheduleService, logger)
		if err := rollover.Start(cfg.RolloverSpec); err != nil {
			logger.Fatal().Err(err).Msg("start rollover job")
		}
		defer rollover.Stop()
	}

	engine := router.New(
		authService,
		authHandler,
		taskHandler,
		settingsHandler,
		scheduleHandler,
		calendarHandler,
		cfg.CORSOrigins,
	)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("backend listening")
		errCh <- engine.Run(":" + cfg.Port)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatal().Err(err).Msg("run server")
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}
}
