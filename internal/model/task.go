package model

import "time"

const (
	EnergyLow    = "low"
	EnergyMedium = "medium"
	EnergyHigh   = "high"

	PreferMorning   = "morning"
	PreferAfternoon = "afternoon"
	PreferEvening   = "evening"

	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

type Task struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	DurationMinutes int        `json:"durationMinutes"`
	Priority        int        `json:"priority"`
	EnergyLevel     *string    `json:"energyLevel,omitempty"`
	PreferredTime   *string    `json:"preferredTime,omitempty"`
	DueDate         *time.Time `json:"dueDate,omitempty"`
	StartDate       *time.Time `json:"startDate,omitempty"`
	IsRecurring     bool       `json:"isRecurring"`
	RecurrenceRule  string     `json:"recurrenceRule,omitempty"`
	IsAutoScheduled bool       `json:"isAutoScheduled"`
	ScheduleLocked  bool       `json:"scheduleLocked"`
	ScheduledStart  *time.Time `json:"scheduledStart,omitempty"`
	ScheduledEnd    *time.Time `json:"scheduledEnd,omitempty"`
	ScheduleScore   *float64   `json:"scheduleScore,omitempty"`
	LastScheduled   *time.Time `json:"lastScheduled,omitempty"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Duration returns the task's planned working time.
func (t Task) Duration() time.Duration {
	return time.Duration(t.DurationMinutes) * time.Minute
}

// IsScheduled reports whether the task currently occupies a timeline interval.
func (t Task) IsScheduled() bool {
	return t.ScheduledStart != nil && t.ScheduledEnd != nil
}

// SchedulingEligible reports whether the auto-scheduler may place or move
// this task. Locked tasks keep their interval as immovable busy time and
// completed or in-progress work never goes back on the timeline.
func (t Task) SchedulingEligible() bool {
	if !t.IsAutoScheduled || t.ScheduleLocked {
		return false
	}
	return t.Status != StatusCompleted && t.Status != StatusInProgress
}

func IsValidEnergyLevel(level string) bool {
	return level == EnergyLow || level == EnergyMedium || level == EnergyHigh
}

func IsValidPreferredTime(pref string) bool {
	return pref == PreferMorning || pref == PreferAfternoon || pref == PreferEvening
}

func IsValidStatus(status string) bool {
	return status == StatusPending || status == StatusInProgress || status == StatusCompleted
}
