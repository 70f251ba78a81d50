package scheduler

import (
	"time"

	"dayflow/backend/internal/model"
)

const (
	preferredTimeBonus = 30.0
	energyWeight       = 20.0
	urgencyWeight      = 25.0

	// urgencyWindow is how far ahead of the due date urgency pressure
	// starts to build. Candidates with more slack than this score zero
	// urgency.
	urgencyWindow = 7 * 24 * time.Hour
)

// ScoreCandidate rates a candidate slot for a task against the policy.
// Higher is better. The function is pure and deterministic: identical
// inputs always produce the identical score, which the engine's
// earliest-start tie-breaking relies on.
func ScoreCandidate(slot Interval, task model.Task, settings model.AutoScheduleSettings) float64 {
	score := 0.0

	if task.PreferredTime != nil && timeOfDay(slot.Start) == *task.PreferredTime {
		score += preferredTimeBonus
	}

	if task.EnergyLevel != nil {
		score += energyWeight * energyFit(*task.EnergyLevel, workDayPosition(slot.Start, settings))
	}

	if task.DueDate != nil {
		score += urgencyWeight * urgency(slot.End, *task.DueDate)
	}

	return score
}

func timeOfDay(t time.Time) string {
	switch hour := t.Hour(); {
	case hour < 12:
		return model.PreferMorning
	case hour < 17:
		return model.PreferAfternoon
	default:
		return model.PreferEvening
	}
}

// workDayPosition maps a start time to its relative position within the
// policy work window: 0 at workHourStart, 1 at workHourEnd.
func workDayPosition(t time.Time, settings model.AutoScheduleSettings) float64 {
	span := (settings.WorkHourEnd - settings.WorkHourStart) * 60
	if span <= 0 {
		return 0
	}
	elapsed := (t.Hour()-settings.WorkHourStart)*60 + t.Minute()
	pos := float64(elapsed) / float64(span)
	if pos < 0 {
		return 0
	}
	if pos > 1 {
		return 1
	}
	return pos
}

// energyFit rewards placements that match the task's energy profile:
// high-energy work early in the day, low-energy work late, medium work
// around the middle.
func energyFit(level string, pos float64) float64 {
	switch level {
	case model.EnergyHigh:
		return 1 - pos
	case model.EnergyLow:
		return pos
	default:
		distance := pos - 0.5
		if distance < 0 {
			distance = -distance
		}
		return 1 - 2*distance
	}
}

// urgency grows toward 1 as the slack between the candidate's end and the
// due date shrinks. Candidates past the due date are excluded by the engine
// before scoring, so slack is never negative here in practice.
func urgency(end, due time.Time) float64 {
	slack := due.Sub(end)
	if slack <= 0 {
		return 1
	}
	if slack >= urgencyWindow {
		return 0
	}
	return 1 - float64(slack)/float64(urgencyWindow)
}
