package scheduler

import (
	"fmt"
	"sort"
	"time"

	"dayflow/backend/internal/model"
)

const (
	DefaultGranularity = 15 * time.Minute
	DefaultHorizonDays = 14
)

// Engine places auto-scheduled tasks into free timeline intervals. It is a
// greedy forward scan, not an exact solver: tasks are placed one at a time
// in urgency order, the first day offering any feasible candidate wins, and
// the best-scoring candidate on that day is taken. Earlier starts win ties,
// so a run is fully deterministic for identical inputs.
type Engine struct {
	// Now is the earliest instant any task may be placed. The caller
	// supplies it so runs are reproducible.
	Now time.Time
	// Granularity is the candidate start-time step within a work day.
	Granularity time.Duration
	// HorizonDays bounds the forward scan for tasks without a due date.
	HorizonDays int
}

func NewEngine(now time.Time) *Engine {
	return &Engine{
		Now:         now,
		Granularity: DefaultGranularity,
		HorizonDays: DefaultHorizonDays,
	}
}

// Result is the outcome of one scheduling run.
type Result struct {
	// Tasks is the full input list, in input order. Scheduling fields are
	// populated for every task that found a slot and nulled for eligible
	// tasks that did not, so a stale placement cannot outlive the run.
	Tasks []model.Task
	// Unplaced holds the IDs of eligible tasks for which no feasible
	// interval exists. An unplaced task is a valid terminal state, not an
	// error; the caller is expected to surface it.
	Unplaced []string
}

// ScheduleTasks assigns intervals to every eligible task in tasks. Locked
// tasks and busy intervals are immovable inputs the engine routes around.
// The inputs are never mutated; the returned tasks are copies.
func (e *Engine) ScheduleTasks(
	tasks []model.Task,
	locked []model.Task,
	settings model.AutoScheduleSettings,
	busy []Interval,
) (*Result, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schedule settings: %w", err)
	}
	for _, task := range tasks {
		if task.SchedulingEligible() && task.DurationMinutes <= 0 {
			return nil, fmt.Errorf("task %s has non-positive duration %d", task.ID, task.DurationMinutes)
		}
	}

	occupied := make([]Interval, 0, len(busy)+len(locked)+len(tasks))
	occupied = append(occupied, busy...)
	for _, lt := range locked {
		if p, ok := PlacementOf(lt).(Locked); ok {
			occupied = append(occupied, p.Interval)
		}
	}

	ordered := make([]model.Task, len(tasks))
	copy(ordered, tasks)
	sortForPlacement(ordered)

	placements := make(map[string]AutoPlaced, len(ordered))
	result := &Result{Tasks: make([]model.Task, 0, len(tasks))}

	for _, task := range ordered {
		if !task.SchedulingEligible() {
			continue
		}
		slot, score, ok := e.findSlot(task, settings, occupied)
		if !ok {
			result.Unplaced = append(result.Unplaced, task.ID)
			continue
		}
		placements[task.ID] = AutoPlaced{Interval: slot, Score: score}
		occupied = append(occupied, slot)
	}

	now := e.Now
	for _, task := range tasks {
		if task.SchedulingEligible() {
			// A placement from an earlier run is void once a new run
			// starts; an unplaced task must not keep its old interval.
			task.ScheduledStart = nil
			task.ScheduledEnd = nil
			task.ScheduleScore = nil
		}
		if placed, ok := placements[task.ID]; ok {
			task = Apply(task, placed)
			last := now
			task.LastScheduled = &last
		}
		result.Tasks = append(result.Tasks, task)
	}
	return result, nil
}

// sortForPlacement orders tasks so urgent, high-priority, short tasks are
// placed first: ascending due date with nil last, then descending priority,
// then ascending duration. The trailing ID comparison keeps the order total.
func sortForPlacement(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch {
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.DurationMinutes != b.DurationMinutes {
			return a.DurationMinutes < b.DurationMinutes
		}
		return a.ID < b.ID
	})
}

// findSlot scans forward day by day for the highest-scoring feasible
// candidate. The first day with at least one feasible candidate is used;
// the engine never looks past it.
func (e *Engine) findSlot(
	task model.Task,
	settings model.AutoScheduleSettings,
	occupied []Interval,
) (Interval, float64, bool) {
	duration := task.Duration()
	buffer := time.Duration(settings.BufferMinutes) * time.Minute
	granularity := e.Granularity
	if granularity <= 0 {
		granularity = DefaultGranularity
	}
	horizon := e.HorizonDays
	if horizon <= 0 {
		horizon = DefaultHorizonDays
	}

	earliest := e.Now
	if task.StartDate != nil && task.StartDate.After(earliest) {
		earliest = *task.StartDate
	}

	firstDay := time.Date(earliest.Year(), earliest.Month(), earliest.Day(), 0, 0, 0, 0, earliest.Location())
	for d := 0; d < horizon; d++ {
		day := firstDay.AddDate(0, 0, d)
		if !settings.IsWorkDay(day.Weekday()) {
			continue
		}
		windowStart := day.Add(time.Duration(settings.WorkHourStart) * time.Hour)
		windowEnd := day.Add(time.Duration(settings.WorkHourEnd) * time.Hour)

		var best Interval
		bestScore := 0.0
		found := false
		for start := windowStart; !start.Add(duration).After(windowEnd); start = start.Add(granularity) {
			if start.Before(earliest) {
				continue
			}
			slot := NewInterval(start, duration)
			if task.DueDate != nil && slot.End.After(*task.DueDate) {
				// Later candidates only end later; this day is exhausted.
				break
			}
			if !fitsAround(slot, occupied, buffer) {
				continue
			}
			score := ScoreCandidate(slot, task, settings)
			if !found || score > bestScore {
				found = true
				best = slot
				bestScore = score
			}
		}
		if found {
			return best, bestScore, true
		}
		if task.DueDate != nil && !task.DueDate.After(windowEnd) {
			// Nothing before the due date can exist on later days either.
			break
		}
	}
	return Interval{}, 0, false
}

// fitsAround reports whether the slot avoids every occupied interval with
// at least the configured buffer of clearance.
func fitsAround(slot Interval, occupied []Interval, buffer time.Duration) bool {
	for _, occ := range occupied {
		if slot.Overlaps(occ) {
			return false
		}
		if slot.ClearanceFrom(occ) < buffer {
			return false
		}
	}
	return true
}
