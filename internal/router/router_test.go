package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"dayflow/backend/internal/db"
	"dayflow/backend/internal/handler"
	"dayflow/backend/internal/repository"
	"dayflow/backend/internal/router"
	"dayflow/backend/internal/service"
)

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type taskView struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"durationMinutes"`
	ScheduledStart  *time.Time `json:"scheduledStart"`
	ScheduledEnd    *time.Time `json:"scheduledEnd"`
	ScheduleLocked  bool       `json:"scheduleLocked"`
	Status          string     `json:"status"`
}

type taskEnvelope struct {
	Task taskView `json:"task"`
}

type tasksEnvelope struct {
	Tasks []taskView `json:"tasks"`
}

type scheduleEnvelope struct {
	Schedule struct {
		Tasks    []taskView `json:"tasks"`
		Unplaced []string   `json:"unplaced"`
		Violations []struct {
			Type     string `json:"type"`
			Severity string `json:"severity"`
		} `json:"violations"`
		ComplianceScore int `json:"complianceScore"`
	} `json:"schedule"`
}

type reportEnvelope struct {
	Report struct {
		Violations []struct {
			Type string `json:"type"`
		} `json:"violations"`
		Suggestions []struct {
			Type string `json:"type"`
		} `json:"suggestions"`
		ComplianceScore int `json:"complianceScore"`
	} `json:"report"`
}

type settingsEnvelope struct {
	Settings struct {
		WorkDays        []int `json:"workDays"`
		WorkHourStart   int   `json:"workHourStart"`
		WorkHourEnd     int   `json:"workHourEnd"`
		MinBreakMinutes int   `json:"minBreakMinutes"`
		EnforceBreaks   bool  `json:"enforceBreaks"`
	} `json:"settings"`
}

func TestScheduleRunEndToEnd(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "planner@example.com", "123456")

	// Default settings are created on registration.
	status, settingsRaw := requestJSON(t, engine, http.MethodGet, "/api/schedule/settings", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for settings, got %d", status)
	}
	var settings settingsEnvelope
	if err := json.Unmarshal(settingsRaw, &settings); err != nil {
		t.Fatalf("unmarshal settings: %v", err)
	}
	if settings.Settings.WorkHourStart != 9 || settings.Settings.WorkHourEnd != 17 {
		t.Fatalf("unexpected default work hours: %d-%d", settings.Settings.WorkHourStart, settings.Settings.WorkHourEnd)
	}

	for i := 0; i < 3; i++ {
		createTask(t, engine, user.Token, map[string]interface{}{
			"title":           fmt.Sprintf("task %d", i+1),
			"durationMinutes": 60,
			"priority":        3,
		})
	}

	status, runRaw := requestJSON(t, engine, http.MethodPost, "/api/schedule/run", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for schedule run, got %d: %s", status, string(runRaw))
	}
	var run scheduleEnvelope
	if err := json.Unmarshal(runRaw, &run); err != nil {
		t.Fatalf("unmarshal schedule run: %v", err)
	}
	if len(run.Schedule.Unplaced) != 0 {
		t.Fatalf("expected all tasks placed, unplaced: %v", run.Schedule.Unplaced)
	}
	if len(run.Schedule.Tasks) != 3 {
		t.Fatalf("expected 3 tasks in run result, got %d", len(run.Schedule.Tasks))
	}
	for _, task := range run.Schedule.Tasks {
		if task.ScheduledStart == nil || task.ScheduledEnd == nil {
			t.Fatalf("task %s missing placement", task.ID)
		}
		if hour := task.ScheduledStart.Hour(); hour < 9 || hour >= 17 {
			t.Fatalf("task %s placed outside work hours at %v", task.ID, task.ScheduledStart)
		}
		if wd := int(task.ScheduledStart.Weekday()); wd == 0 || wd == 6 {
			t.Fatalf("task %s placed on weekend: %v", task.ID, task.ScheduledStart)
		}
	}
	if run.Schedule.ComplianceScore < 0 || run.Schedule.ComplianceScore > 100 {
		t.Fatalf("compliance score out of range: %d", run.Schedule.ComplianceScore)
	}

	// Placements must be persisted and visible through the task list.
	status, listRaw := requestJSON(t, engine, http.MethodGet, "/api/tasks", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for task list, got %d", status)
	}
	var list tasksEnvelope
	if err := json.Unmarshal(listRaw, &list); err != nil {
		t.Fatalf("unmarshal task list: %v", err)
	}
	placed := 0
	for _, task := range list.Tasks {
		if task.ScheduledStart != nil {
			placed++
		}
	}
	if placed != 3 {
		t.Fatalf("expected 3 persisted placements, got %d", placed)
	}

	status, reportRaw := requestJSON(t, engine, http.MethodGet, "/api/schedule/report", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for report, got %d", status)
	}
	var report reportEnvelope
	if err := json.Unmarshal(reportRaw, &report); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if report.Report.ComplianceScore != run.Schedule.ComplianceScore {
		t.Fatalf("report score %d differs from run score %d", report.Report.ComplianceScore, run.Schedule.ComplianceScore)
	}
}

func TestScheduleRespectsLockedTasks(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "locked@example.com", "123456")

	locked := createTask(t, engine, user.Token, map[string]interface{}{
		"title":           "standup",
		"durationMinutes": 30,
		"priority":        5,
		"scheduleLocked":  true,
	})
	createTask(t, engine, user.Token, map[string]interface{}{
		"title":           "deep work",
		"durationMinutes": 90,
		"priority":        4,
	})

	status, runRaw := requestJSON(t, engine, http.MethodPost, "/api/schedule/run", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for schedule run, got %d: %s", status, string(runRaw))
	}

	status, getRaw := requestJSON(t, engine, http.MethodGet, "/api/tasks/"+locked.ID, user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for locked task, got %d", status)
	}
	var got taskEnvelope
	if err := json.Unmarshal(getRaw, &got); err != nil {
		t.Fatalf("unmarshal locked task: %v", err)
	}
	if got.Task.ScheduledStart != nil {
		t.Fatalf("locked task without a manual slot must stay unplaced, got %v", got.Task.ScheduledStart)
	}
}

func TestUserIsolation(t *testing.T) {
	engine := setupTestEngine(t)
	user1 := registerUser(t, engine, "alpha@example.com", "123456")
	user2 := registerUser(t, engine, "beta@example.com", "123456")

	created := createTask(t, engine, user1.Token, map[string]interface{}{
		"title":           "private task",
		"durationMinutes": 45,
		"priority":        2,
	})

	status, _ := requestJSON(t, engine, http.MethodGet, "/api/tasks/"+created.ID, user2.Token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for cross-user task access, got %d", status)
	}

	status, listRaw := requestJSON(t, engine, http.MethodGet, "/api/tasks", user2.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for user2 task list, got %d", status)
	}
	var list tasksEnvelope
	if err := json.Unmarshal(listRaw, &list); err != nil {
		t.Fatalf("unmarshal user2 tasks: %v", err)
	}
	if len(list.Tasks) != 0 {
		t.Fatalf("expected empty task list for user2, got %d", len(list.Tasks))
	}
}

func TestSettingsUpdateValidation(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "settings@example.com", "123456")

	status, _ := requestJSON(t, engine, http.MethodPut, "/api/schedule/settings", user.Token, map[string]interface{}{
		"workDays":            []int{1, 2, 3},
		"workHourStart":       18,
		"workHourEnd":         9,
		"bufferMinutes":       10,
		"maxConsecutiveHours": 4,
		"minBreakMinutes":     15,
		"enforceBreaks":       true,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted work hours, got %d", status)
	}

	status, body := requestJSON(t, engine, http.MethodPut, "/api/schedule/settings", user.Token, map[string]interface{}{
		"workDays":            []int{1, 2, 3, 4},
		"workHourStart":       8,
		"workHourEnd":         16,
		"bufferMinutes":       5,
		"maxConsecutiveHours": 3,
		"minBreakMinutes":     20,
		"enforceBreaks":       false,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 for valid settings update, got %d: %s", status, string(body))
	}
	var updated settingsEnvelope
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("unmarshal updated settings: %v", err)
	}
	if updated.Settings.WorkHourStart != 8 || updated.Settings.MinBreakMinutes != 20 {
		t.Fatalf("settings update not applied: %+v", updated.Settings)
	}
}

func TestCalendarEvents(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "calendar@example.com", "123456")

	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	status, createRaw := requestJSON(t, engine, http.MethodPost, "/api/calendar/events", user.Token, map[string]interface{}{
		"title":     "dentist",
		"startTime": start,
		"endTime":   start.Add(time.Hour),
		"source":    "manual",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 for event create, got %d: %s", status, string(createRaw))
	}

	var created struct {
		Event struct {
			ID string `json:"id"`
		} `json:"event"`
	}
	if err := json.Unmarshal(createRaw, &created); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}

	// End before start is rejected.
	status, _ = requestJSON(t, engine, http.MethodPost, "/api/calendar/events", user.Token, map[string]interface{}{
		"title":     "impossible",
		"startTime": start,
		"endTime":   start.Add(-time.Hour),
		"source":    "manual",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted event times, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/calendar/events/"+created.Event.ID, user.Token, nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 for event delete, got %d", status)
	}
}

func TestCORSPreflight(t *testing.T) {
	engine := setupTestEngine(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
}

func setupTestEngine(t *testing.T) http.Handler {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	if err := db.RunMigrations(database, migrationsDir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(database)
	taskRepo := repository.NewTaskRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)
	calendarRepo := repository.NewCalendarRepository(database)

	authService := service.NewAuthService(userRepo, settingsRepo, "test-secret", 24*time.Hour)
	taskService := service.NewTaskService(taskRepo)
	settingsService := service.NewSettingsService(settingsRepo)
	calendarService := service.NewCalendarService(calendarRepo)
	scheduleService := service.NewScheduleService(taskRepo, settingsRepo, calendarRepo, zerolog.Nop())

	authHandler := handler.NewAuthHandler(authService)
	taskHandler := handler.NewTaskHandler(taskService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	calendarHandler := handler.NewCalendarHandler(calendarService)

	return router.New(
		authService,
		authHandler,
		taskHandler,
		settingsHandler,
		scheduleHandler,
		calendarHandler,
		[]string{"http://localhost:5173"},
	)
}

func registerUser(t *testing.T, server http.Handler, email, password string) authResponse {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s failed with status %d: %s", email, status, string(body))
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal register response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("empty token for user %s", email)
	}
	return resp
}

func createTask(t *testing.T, server http.Handler, token string, body map[string]interface{}) taskView {
	t.Helper()
	status, raw := requestJSON(t, server, http.MethodPost, "/api/tasks", token, body)
	if status != http.StatusCreated {
		t.Fatalf("create task failed with status %d: %s", status, string(raw))
	}
	var resp taskEnvelope
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("unmarshal created task: %v", err)
	}
	if resp.Task.ID == "" {
		t.Fatal("created task has empty id")
	}
	return resp.Task
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
