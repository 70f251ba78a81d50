package model

import (
	"fmt"
	"time"
)

const (
	DefaultWorkHourStart       = 9
	DefaultWorkHourEnd         = 17
	DefaultBufferMinutes       = 10
	DefaultMaxConsecutiveHours = 4
	DefaultMinBreakMinutes     = 15
)

// DefaultWorkDays is Monday through Friday, as time.Weekday ordinals.
func DefaultWorkDays() []int {
	return []int{1, 2, 3, 4, 5}
}

// AutoScheduleSettings is the per-user scheduling policy. The scheduling
// core treats it as read-only; it is mutated only through settings updates.
type AutoScheduleSettings struct {
	UserID              string    `json:"userId"`
	WorkDays            []int     `json:"workDays"`
	WorkHourStart       int       `json:"workHourStart"`
	WorkHourEnd         int       `json:"workHourEnd"`
	BufferMinutes       int       `json:"bufferMinutes"`
	MaxConsecutiveHours int       `json:"maxConsecutiveHours"`
	MinBreakMinutes     int       `json:"minBreakMinutes"`
	EnforceBreaks       bool      `json:"enforceBreaks"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func DefaultAutoScheduleSettings(userID string) AutoScheduleSettings {
	return AutoScheduleSettings{
		UserID:              userID,
		WorkDays:            DefaultWorkDays(),
		WorkHourStart:       DefaultWorkHourStart,
		WorkHourEnd:         DefaultWorkHourEnd,
		BufferMinutes:       DefaultBufferMinutes,
		MaxConsecutiveHours: DefaultMaxConsecutiveHours,
		MinBreakMinutes:     DefaultMinBreakMinutes,
		EnforceBreaks:       true,
	}
}

// Validate enforces the policy invariants. An invalid policy is a fatal
// input for the scheduling core, not a recoverable condition.
func (s *AutoScheduleSettings) Validate() error {
	if s.WorkHourStart < 0 || s.WorkHourEnd > 24 || s.WorkHourStart >= s.WorkHourEnd {
		return fmt.Errorf("work hours %d-%d are invalid", s.WorkHourStart, s.WorkHourEnd)
	}
	if len(s.WorkDays) == 0 {
		return fmt.Errorf("at least one work day is required")
	}
	for _, day := range s.WorkDays {
		if day < 0 || day > 6 {
			return fmt.Errorf("work day %d is not a weekday ordinal", day)
		}
	}
	if s.BufferMinutes < 0 {
		return fmt.Errorf("buffer minutes must not be negative")
	}
	if s.MaxConsecutiveHours <= 0 {
		return fmt.Errorf("max consecutive hours must be positive")
	}
	if s.MinBreakMinutes < 0 {
		return fmt.Errorf("min break duration must not be negative")
	}
	return nil
}

// IsWorkDay reports whether the policy allows scheduling on the given weekday.
func (s *AutoScheduleSettings) IsWorkDay(day time.Weekday) bool {
	for _, d := range s.WorkDays {
		if time.Weekday(d) == day {
			return true
		}
	}
	return false
}
