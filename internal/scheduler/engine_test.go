package scheduler

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"dayflow/backend/internal/model"
)

// monday is a fixed Monday midnight so every test run sees the same week.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func testSettings() model.AutoScheduleSettings {
	settings := model.DefaultAutoScheduleSettings("user-1")
	settings.BufferMinutes = 10
	settings.MinBreakMinutes = 10
	settings.MaxConsecutiveHours = 3
	return settings
}

func autoTask(id string, durationMinutes int) model.Task {
	return model.Task{
		ID:              id,
		UserID:          "user-1",
		Title:           "task " + id,
		DurationMinutes: durationMinutes,
		Priority:        1,
		IsAutoScheduled: true,
		Status:          model.StatusPending,
	}
}

func mustSchedule(t *testing.T, engine *Engine, tasks, locked []model.Task, settings model.AutoScheduleSettings, busy []Interval) *Result {
	t.Helper()
	result, err := engine.ScheduleTasks(tasks, locked, settings, busy)
	if err != nil {
		t.Fatalf("schedule tasks: %v", err)
	}
	return result
}

func TestSchedulePlacesWithinWorkWindow(t *testing.T) {
	engine := NewEngine(monday)
	settings := testSettings()
	tasks := []model.Task{autoTask("a", 60), autoTask("b", 45), autoTask("c", 90)}

	result := mustSchedule(t, engine, tasks, nil, settings, nil)

	if len(result.Unplaced) != 0 {
		t.Fatalf("expected all tasks placed, unplaced: %v", result.Unplaced)
	}
	for _, task := range result.Tasks {
		if !task.IsScheduled() {
			t.Fatalf("task %s not scheduled", task.ID)
		}
		if got := task.ScheduledEnd.Sub(*task.ScheduledStart); got != task.Duration() {
			t.Fatalf("task %s interval %v does not match duration %v", task.ID, got, task.Duration())
		}
		if !settings.IsWorkDay(task.ScheduledStart.Weekday()) {
			t.Fatalf("task %s placed on non-work day %v", task.ID, task.ScheduledStart.Weekday())
		}
		if task.ScheduledStart.Hour() < settings.WorkHourStart {
			t.Fatalf("task %s starts before work hours: %v", task.ID, task.ScheduledStart)
		}
		dayEnd := task.ScheduledStart.Truncate(24 * time.Hour).Add(time.Duration(settings.WorkHourEnd) * time.Hour)
		if task.ScheduledEnd.After(dayEnd) {
			t.Fatalf("task %s ends after work hours: %v", task.ID, task.ScheduledEnd)
		}
		if task.ScheduleScore == nil {
			t.Fatalf("task %s has no schedule score", task.ID)
		}
		if task.LastScheduled == nil || !task.LastScheduled.Equal(monday) {
			t.Fatalf("task %s lastScheduled not stamped with the run time", task.ID)
		}
	}
}

func TestScheduleKeepsBufferBetweenPlacements(t *testing.T) {
	engine := NewEngine(monday)
	settings := testSettings()
	tasks := []model.Task{autoTask("a", 60), autoTask("b", 60), autoTask("c", 60)}

	result := mustSchedule(t, engine, tasks, nil, settings, nil)

	buffer := time.Duration(settings.BufferMinutes) * time.Minute
	placed := result.Tasks
	for i := range placed {
		for j := i + 1; j < len(placed); j++ {
			a := taskInterval(placed[i])
			b := taskInterval(placed[j])
			if a.Overlaps(b) {
				t.Fatalf("tasks %s and %s overlap", placed[i].ID, placed[j].ID)
			}
			if a.ClearanceFrom(b) < buffer {
				t.Fatalf("tasks %s and %s closer than buffer: %v", placed[i].ID, placed[j].ID, a.ClearanceFrom(b))
			}
		}
	}
}

func TestScheduleAvoidsLockedAndBusy(t *testing.T) {
	engine := NewEngine(monday)
	settings := testSettings()

	lockedStart := monday.Add(9 * time.Hour)
	lockedEnd := lockedStart.Add(time.Hour)
	lockedTask := autoTask("locked", 60)
	lockedTask.ScheduleLocked = true
	lockedTask.ScheduledStart = &lockedStart
	lockedTask.ScheduledEnd = &lockedEnd

	busy := []Interval{NewInterval(monday.Add(11*time.Hour), time.Hour)}
	tasks := []model.Task{autoTask("a", 60)}

	result := mustSchedule(t, engine, tasks, []model.Task{lockedTask}, settings, busy)

	placed := result.Tasks[0]
	if !placed.IsScheduled() {
		t.Fatal("expected task to be placed")
	}
	slot := taskInterval(placed)
	if slot.Overlaps(Interval{Start: lockedStart, End: lockedEnd}) {
		t.Fatalf("placement %v overlaps locked task", slot)
	}
	if slot.Overlaps(busy[0]) {
		t.Fatalf("placement %v overlaps busy interval", slot)
	}
	buffer := time.Duration(settings.BufferMinutes) * time.Minute
	if slot.ClearanceFrom(busy[0]) < buffer {
		t.Fatalf("placement %v too close to busy interval", slot)
	}

	// The locked task's interval is byte-identical before and after a run.
	if !lockedTask.ScheduledStart.Equal(lockedStart) || !lockedTask.ScheduledEnd.Equal(lockedEnd) {
		t.Fatal("locked task interval was rewritten")
	}
}

func TestScheduleLeavesLockedInputUnmodifiedInTaskList(t *testing.T) {
	engine := NewEngine(monday)
	settings := testSettings()

	lockedStart := monday.Add(10 * time.Hour)
	lockedEnd := lockedStart.Add(2 * time.Hour)
	lockedTask := autoTask("locked", 120)
	lockedTask.ScheduleLocked = true
	lockedTask.ScheduledStart = &lockedStart
	lockedTask.ScheduledEnd = &lockedEnd

	// Even when a locked task slips into the candidate list, the engine
	// must pass it through untouched.
	result := mustSchedule(t, engine, []model.Task{lockedTask, autoTask("a", 30)}, nil, settings, nil)

	passedThrough := result.Tasks[0]
	if !passedThrough.ScheduledStart.Equal(lockedStart) || !passedThrough.ScheduledEnd.Equal(lockedEnd) {
		t.Fatal("locked task in candidate list was rewritten")
	}
}

func TestScheduleDueDateRespectedAndUnplacedReported(t *testing.T) {
	engine := NewEngine(monday)
	settings := testSettings()

	due := monday.Add(10 * time.Hour) // 10:00 Monday
	urgent := autoTask("urgent", 60)
	urgent.DueDate = &due

	impossible := autoTask("impossible", 60)
	impossibleDue := monday.Add(9 * time.Hour).Add(30 * time.Minute) // cannot fit 60m by 9:30
	impossible.DueDate = &impossibleDue

	other := autoTask("other", 30)

	result := mustSchedule(t, engine, []model.Task{urgent, impossible, other}, nil, settings, nil)

	byID := map[string]model.Task{}
	for _, task := range result.Tasks {
		byID[task.ID] = task
	}

	if !byID["urgent"].IsScheduled() {
		t.Fatal("urgent task should be placed")
	}
	if byID["urgent"].ScheduledEnd.After(due) {
		t.Fatalf("urgent task ends %v after its due date %v", byID["urgent"].ScheduledEnd, due)
	}
	if byID["impossible"].IsScheduled() {
		t.Fatal("impossible task must stay unscheduled")
	}
	if len(result.Unplaced) != 1 || result.Unplaced[0] != "impossible" {
		t.Fatalf("expected only the impossible task unplaced, got %v", result.Unplaced)
	}
	// One unplaceable task must not abort the batch.
	if !byID["other"].IsScheduled() {
		t.Fatal("remaining task should still be placed")
	}
}

func TestScheduleClearsStalePlacementWhenUnplaceable(t *testing.T) {
	engine := NewEngine(monday)
	settings := testSettings()

	// The stale task carries last week's 09:00 slot but can no longer be
	// placed: its due date is already past when the run starts.
	staleStart := monday.AddDate(0, 0, -3).Add(9 * time.Hour)
	staleEnd := staleStart.Add(time.Hour)
	staleDue := staleStart.Add(2 * time.Hour)
	stale := autoTask("stale", 60)
	stale.ScheduledStart = &staleStart
	stale.ScheduledEnd = &staleEnd
	stale.DueDate = &staleDue

	fresh := autoTask("fresh", 60)

	result := mustSchedule(t, engine, []model.Task{stale, fresh}, nil, settings, nil)

	if len(result.Unplaced) != 1 || result.Unplaced[0] != "stale" {
		t.Fatalf("expected only the stale task unplaced, got %v", result.Unplaced)
	}

	byID := map[string]model.Task{}
	for _, task := range result.Tasks {
		byID[task.ID] = task
	}
	got := byID["stale"]
	if got.ScheduledStart != nil || got.ScheduledEnd != nil || got.ScheduleScore != nil {
		t.Fatalf("unplaced task kept its old interval: %v-%v", got.ScheduledStart, got.ScheduledEnd)
	}
	if !byID["fresh"].IsScheduled() {
		t.Fatal("fresh task should be placed")
	}
}

func TestScheduleReplacesStalePlacementWithCurrentSlot(t *testing.T) {
	engine := NewEngine(monday)
	settings := testSettings()

	// A candidate re-entering the run does not occupy its old slot; the new
	// placement stands on its own and other tasks may not collide with it.
	oldStart := monday.AddDate(0, 0, -7).Add(13 * time.Hour)
	oldEnd := oldStart.Add(time.Hour)
	carried := autoTask("carried", 60)
	carried.ScheduledStart = &oldStart
	carried.ScheduledEnd = &oldEnd

	other := autoTask("other", 60)

	result := mustSchedule(t, engine, []model.Task{carried, other}, nil, settings, nil)

	if len(result.Unplaced) != 0 {
		t.Fatalf("expected both tasks placed, unplaced: %v", result.Unplaced)
	}
	byID := map[string]model.Task{}
	for _, task := range result.Tasks {
		byID[task.ID] = task
	}
	placed := byID["carried"]
	if !placed.IsScheduled() {
		t.Fatal("carried task should be re-placed")
	}
	if !placed.ScheduledStart.After(monday) {
		t.Fatalf("carried task still holds its pre-run slot: %v", placed.ScheduledStart)
	}
	if taskInterval(placed).Overlaps(taskInterval(byID["other"])) {
		t.Fatal("placements overlap")
	}
}

func TestScheduleStartDateHonored(t *testing.T) {
	engine := NewEngine(monday)
	settings := testSettings()

	notBefore := monday.AddDate(0, 0, 1) // Tuesday
	task := autoTask("later", 60)
	task.StartDate = &notBefore

	result := mustSchedule(t, engine, []model.Task{task}, nil, settings, nil)

	placed := result.Tasks[0]
	if !placed.IsScheduled() {
		t.Fatal("expected task to be placed")
	}
	if placed.ScheduledStart.Before(notBefore) {
		t.Fatalf("task placed %v before its start date %v", placed.ScheduledStart, notBefore)
	}
}

func TestScheduleUrgentTasksWinEarlySlots(t *testing.T) {
	engine := NewEngine(monday)
	settings := testSettings()
	settings.BufferMinutes = 0

	// Only the 09:00 slot fits the urgent task before its due date. If the
	// relaxed task were placed first it would take that slot and the urgent
	// one would end up unplaced.
	due := monday.Add(10 * time.Hour)
	urgent := autoTask("urgent", 60)
	urgent.DueDate = &due
	relaxed := autoTask("relaxed", 60)

	result := mustSchedule(t, engine, []model.Task{relaxed, urgent}, nil, settings, nil)

	if len(result.Unplaced) != 0 {
		t.Fatalf("expected both tasks placed, unplaced: %v", result.Unplaced)
	}
	byID := map[string]model.Task{}
	for _, task := range result.Tasks {
		byID[task.ID] = task
	}
	if got := byID["urgent"].ScheduledStart; got.Hour() != 9 || got.Minute() != 0 {
		t.Fatalf("urgent task should hold the 09:00 slot, got %v", got)
	}
	if byID["urgent"].ScheduledEnd.After(due) {
		t.Fatalf("urgent task ends after its due date: %v", byID["urgent"].ScheduledEnd)
	}
	if taskInterval(byID["urgent"]).Overlaps(taskInterval(byID["relaxed"])) {
		t.Fatal("placements overlap")
	}
}

func TestSchedulePreferredTimeWins(t *testing.T) {
	engine := NewEngine(monday)
	settings := testSettings()

	pref := model.PreferAfternoon
	task := autoTask("pm", 60)
	task.PreferredTime = &pref

	result := mustSchedule(t, engine, []model.Task{task}, nil, settings, nil)

	placed := result.Tasks[0]
	if placed.ScheduledStart.Hour() < 12 {
		t.Fatalf("afternoon-preferring task placed at %v", placed.ScheduledStart)
	}
}

func TestScheduleHighEnergyPlacedEarly(t *testing.T) {
	engine := NewEngine(monday)
	settings := testSettings()

	level := model.EnergyHigh
	task := autoTask("deep-work", 60)
	task.EnergyLevel = &level

	result := mustSchedule(t, engine, []model.Task{task}, nil, settings, nil)

	placed := result.Tasks[0]
	if placed.ScheduledStart.Hour() != settings.WorkHourStart {
		t.Fatalf("high-energy task should take the first slot of the day, got %v", placed.ScheduledStart)
	}
}

func TestScheduleSkipsNonWorkDays(t *testing.T) {
	saturday := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	engine := NewEngine(saturday)
	settings := testSettings()

	result := mustSchedule(t, engine, []model.Task{autoTask("a", 60)}, nil, settings, nil)

	placed := result.Tasks[0]
	if !placed.IsScheduled() {
		t.Fatal("expected task to be placed")
	}
	if placed.ScheduledStart.Weekday() != time.Monday {
		t.Fatalf("expected placement to skip to Monday, got %v", placed.ScheduledStart.Weekday())
	}
}

func TestScheduleDeterministic(t *testing.T) {
	settings := testSettings()
	tasks := []model.Task{autoTask("a", 60), autoTask("b", 45), autoTask("c", 90)}
	busy := []Interval{NewInterval(monday.Add(10*time.Hour), time.Hour)}

	first := mustSchedule(t, NewEngine(monday), tasks, nil, settings, busy)
	second := mustSchedule(t, NewEngine(monday), tasks, nil, settings, busy)

	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical inputs must produce identical schedules")
	}
}

func TestScheduleRejectsInvalidSettings(t *testing.T) {
	engine := NewEngine(monday)
	settings := testSettings()
	settings.WorkHourStart = 18 // start after end

	_, err := engine.ScheduleTasks([]model.Task{autoTask("a", 60)}, nil, settings, nil)
	if err == nil {
		t.Fatal("expected error for invalid work hours")
	}
	if !strings.Contains(err.Error(), "invalid schedule settings") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScheduleRejectsNonPositiveDuration(t *testing.T) {
	engine := NewEngine(monday)
	broken := autoTask("broken", 0)

	_, err := engine.ScheduleTasks([]model.Task{broken}, nil, testSettings(), nil)
	if err == nil {
		t.Fatal("expected error for non-positive duration")
	}
}

func TestScheduleSkipsIneligibleTasks(t *testing.T) {
	engine := NewEngine(monday)
	done := autoTask("done", 60)
	done.Status = model.StatusCompleted
	manual := autoTask("manual", 60)
	manual.IsAutoScheduled = false

	result := mustSchedule(t, engine, []model.Task{done, manual}, nil, testSettings(), nil)

	for _, task := range result.Tasks {
		if task.IsScheduled() {
			t.Fatalf("ineligible task %s was scheduled", task.ID)
		}
	}
	if len(result.Unplaced) != 0 {
		t.Fatalf("ineligible tasks are not unplaced failures, got %v", result.Unplaced)
	}
}
