package scheduler

import "dayflow/backend/internal/model"

// Placement is the scheduling state of a task. Modeling it as a sealed type
// instead of a scattered boolean check means only an AutoPlaced value can
// ever be written back to a task: the engine has no way to rewrite a Locked
// interval.
type Placement interface {
	placement()
}

// Unscheduled marks a task with no interval on the timeline.
type Unscheduled struct{}

// Locked is an externally fixed interval. The engine treats it as busy time
// that other tasks must route around.
type Locked struct {
	Interval Interval
}

// AutoPlaced is an interval chosen by the engine, together with the score
// the winning candidate achieved.
type AutoPlaced struct {
	Interval Interval
	Score    float64
}

func (Unscheduled) placement() {}
func (Locked) placement()      {}
func (AutoPlaced) placement()  {}

// PlacementOf derives a task's placement from its persisted fields.
func PlacementOf(t model.Task) Placement {
	if !t.IsScheduled() {
		return Unscheduled{}
	}
	interval := Interval{Start: *t.ScheduledStart, End: *t.ScheduledEnd}
	if t.ScheduleLocked {
		return Locked{Interval: interval}
	}
	score := 0.0
	if t.ScheduleScore != nil {
		score = *t.ScheduleScore
	}
	return AutoPlaced{Interval: interval, Score: score}
}

// Apply writes an auto placement into the task's scheduling fields. Locked
// and Unscheduled placements leave the task untouched.
func Apply(t model.Task, p Placement) model.Task {
	placed, ok := p.(AutoPlaced)
	if !ok {
		return t
	}
	start := placed.Interval.Start
	end := placed.Interval.End
	score := placed.Score
	t.ScheduledStart = &start
	t.ScheduledEnd = &end
	t.ScheduleScore = &score
	return t
}
