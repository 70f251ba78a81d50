package scheduler

import (
	"fmt"
	"math"
	"sort"
	"time"

	"dayflow/backend/internal/model"
)

const (
	ViolationInsufficientBreak = "insufficient_break"
	ViolationTooLongContinuous = "too_long_continuous"
	ViolationNoLunchBreak      = "no_lunch_break"

	SuggestionShortBreak = "short_break"
	SuggestionLongBreak  = "long_break"
	SuggestionLunch      = "lunch"

	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Lunch window bounds, in minutes from midnight, and the gap that counts
// as a lunch break within it.
const (
	lunchWindowStartMinute = 11*60 + 30
	lunchWindowEndMinute   = 13*60 + 30
	lunchBreakMinutes      = 30
)

// tightGap is the rule-1 threshold below which an insufficient break is
// considered high severity.
const tightGap = 5 * time.Minute

// BreakViolation is an audit finding. Violations are reports, never errors:
// an out-of-compliance schedule is a valid, if suboptimal, outcome.
type BreakViolation struct {
	Type        string    `json:"type"`
	TaskIDs     []string  `json:"taskIds"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	Suggestion  string    `json:"suggestion"`
}

// BreakSuggestion is a remediation derived from a violation.
type BreakSuggestion struct {
	Type            string    `json:"type"`
	SuggestedTime   time.Time `json:"suggestedTime"`
	DurationMinutes int       `json:"durationMinutes"`
	Reason          string    `json:"reason"`
	Priority        string    `json:"priority"`
}

// ValidateScheduleBreaks audits a placed timeline against the break policy.
// Only tasks with both scheduling fields set participate. Violations are
// emitted in rule order: insufficient gaps first, then excessive continuous
// work, then the missing lunch check. A task may appear in more than one
// violation; no deduplication happens across rules.
func ValidateScheduleBreaks(tasks []model.Task, settings model.AutoScheduleSettings) []BreakViolation {
	violations := []BreakViolation{}
	scheduled := scheduledAscending(tasks)
	if len(scheduled) == 0 {
		return violations
	}

	minBreak := time.Duration(settings.MinBreakMinutes) * time.Minute
	violations = append(violations, insufficientBreakViolations(scheduled, settings, minBreak)...)
	violations = append(violations, continuousWorkViolations(scheduled, settings, minBreak)...)
	if v, ok := lunchBreakViolation(scheduled); ok {
		violations = append(violations, v)
	}
	return violations
}

func insufficientBreakViolations(scheduled []model.Task, settings model.AutoScheduleSettings, minBreak time.Duration) []BreakViolation {
	var violations []BreakViolation
	for i := 0; i+1 < len(scheduled); i++ {
		current, next := scheduled[i], scheduled[i+1]
		gap := taskInterval(current).GapTo(taskInterval(next))
		if gap < 0 || gap >= minBreak {
			continue
		}
		severity := SeverityMedium
		if gap < tightGap {
			severity = SeverityHigh
		}
		violations = append(violations, BreakViolation{
			Type:      ViolationInsufficientBreak,
			TaskIDs:   []string{current.ID, next.ID},
			StartTime: *current.ScheduledEnd,
			EndTime:   *next.ScheduledStart,
			Description: fmt.Sprintf("only %d minutes between %q and %q",
				int(gap.Minutes()), current.Title, next.Title),
			Severity: severity,
			Suggestion: fmt.Sprintf("leave at least %d minutes between these tasks",
				settings.MinBreakMinutes),
		})
	}
	return violations
}

// continuousWorkViolations walks the timeline accumulating work blocks:
// chains of tasks whose separating gaps are all shorter than a real break.
// A block that exceeds the consecutive-work limit yields one violation
// covering every task in the block.
func continuousWorkViolations(scheduled []model.Task, settings model.AutoScheduleSettings, minBreak time.Duration) []BreakViolation {
	limit := time.Duration(settings.MaxConsecutiveHours) * time.Hour

	var violations []BreakViolation
	block := []model.Task{scheduled[0]}
	blockWork := taskInterval(scheduled[0]).Duration()

	closeBlock := func() {
		if blockWork <= limit {
			return
		}
		severity := SeverityMedium
		if float64(blockWork) > 1.5*float64(limit) {
			severity = SeverityHigh
		}
		ids := make([]string, len(block))
		for i, t := range block {
			ids[i] = t.ID
		}
		violations = append(violations, BreakViolation{
			Type:      ViolationTooLongContinuous,
			TaskIDs:   ids,
			StartTime: *block[0].ScheduledStart,
			EndTime:   *block[len(block)-1].ScheduledEnd,
			Description: fmt.Sprintf("%d minutes of continuous work across %d tasks exceeds the %d hour limit",
				int(blockWork.Minutes()), len(block), settings.MaxConsecutiveHours),
			Severity: severity,
			Suggestion: fmt.Sprintf("insert a break of at least %d minutes into this stretch",
				2*settings.MinBreakMinutes),
		})
	}

	for i := 1; i < len(scheduled); i++ {
		gap := taskInterval(scheduled[i-1]).GapTo(taskInterval(scheduled[i]))
		if gap >= minBreak {
			closeBlock()
			block = block[:0]
			blockWork = 0
		}
		block = append(block, scheduled[i])
		blockWork += taskInterval(scheduled[i]).Duration()
	}
	closeBlock()
	return violations
}

// lunchBreakViolation fires when two or more tasks start inside the lunch
// window and no adjacent pair among them leaves a lunch-sized gap. A single
// task spanning the whole window deliberately produces no violation.
func lunchBreakViolation(scheduled []model.Task) (BreakViolation, bool) {
	var lunch []model.Task
	for _, t := range scheduled {
		minute := t.ScheduledStart.Hour()*60 + t.ScheduledStart.Minute()
		if minute >= lunchWindowStartMinute && minute <= lunchWindowEndMinute {
			lunch = append(lunch, t)
		}
	}
	if len(lunch) < 2 {
		return BreakViolation{}, false
	}
	for i := 0; i+1 < len(lunch); i++ {
		gap := taskInterval(lunch[i]).GapTo(taskInterval(lunch[i+1]))
		if gap >= lunchBreakMinutes*time.Minute {
			return BreakViolation{}, false
		}
	}
	ids := make([]string, len(lunch))
	for i, t := range lunch {
		ids[i] = t.ID
	}
	return BreakViolation{
		Type:        ViolationNoLunchBreak,
		TaskIDs:     ids,
		StartTime:   *lunch[0].ScheduledStart,
		EndTime:     *lunch[len(lunch)-1].ScheduledEnd,
		Description: "no lunch break between 11:30 and 13:30",
		Severity:    SeverityMedium,
		Suggestion:  fmt.Sprintf("keep a %d minute gap free around midday", lunchBreakMinutes),
	}, true
}

// SuggestBreaks derives concrete remediations from audit findings.
func SuggestBreaks(violations []BreakViolation, settings model.AutoScheduleSettings) []BreakSuggestion {
	suggestions := make([]BreakSuggestion, 0, len(violations))
	for _, v := range violations {
		switch v.Type {
		case ViolationInsufficientBreak:
			suggestions = append(suggestions, BreakSuggestion{
				Type:            SuggestionShortBreak,
				SuggestedTime:   v.StartTime,
				DurationMinutes: settings.MinBreakMinutes,
				Reason:          v.Description,
				Priority:        v.Severity,
			})
		case ViolationTooLongContinuous:
			suggestions = append(suggestions, BreakSuggestion{
				Type:            SuggestionLongBreak,
				SuggestedTime:   v.EndTime,
				DurationMinutes: 2 * settings.MinBreakMinutes,
				Reason:          v.Description,
				Priority:        v.Severity,
			})
		case ViolationNoLunchBreak:
			noon := time.Date(v.StartTime.Year(), v.StartTime.Month(), v.StartTime.Day(),
				12, 0, 0, 0, v.StartTime.Location())
			suggestions = append(suggestions, BreakSuggestion{
				Type:            SuggestionLunch,
				SuggestedTime:   noon,
				DurationMinutes: lunchBreakMinutes,
				Reason:          v.Description,
				Priority:        v.Severity,
			})
		}
	}
	return suggestions
}

// EnforceBreaks reshapes a placed timeline so it satisfies the break policy.
// It is a single forward sweep: every task first absorbs the cumulative
// offset, then the gap to its successor is widened when it is shorter than a
// minimum break or when the running work block has hit the consecutive-work
// limit (which demands a double-length break). Tasks only ever move later
// and never reorder. Locked tasks are excluded entirely; their intervals
// were already routed around at placement time.
//
// Re-running the pass on its own output with the same policy is a no-op.
// Known limitation: shifted tasks are not re-checked against external busy
// intervals, so a large shift can land on calendar time the enforcer cannot
// see.
func EnforceBreaks(tasks []model.Task, settings model.AutoScheduleSettings) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)

	var movable []int
	for i, t := range out {
		if t.IsScheduled() && !t.ScheduleLocked {
			movable = append(movable, i)
		}
	}
	sort.SliceStable(movable, func(a, b int) bool {
		ta, tb := out[movable[a]], out[movable[b]]
		if !ta.ScheduledStart.Equal(*tb.ScheduledStart) {
			return ta.ScheduledStart.Before(*tb.ScheduledStart)
		}
		return ta.ID < tb.ID
	})

	minBreak := time.Duration(settings.MinBreakMinutes) * time.Minute
	limit := time.Duration(settings.MaxConsecutiveHours) * time.Hour

	var offset time.Duration
	var blockWork time.Duration
	for k, i := range movable {
		task := &out[i]
		if offset > 0 {
			shifted := taskInterval(*task).ShiftedBy(offset)
			task.ScheduledStart = &shifted.Start
			task.ScheduledEnd = &shifted.End
		}
		blockWork += taskInterval(*task).Duration()

		if k+1 == len(movable) {
			break
		}
		next := out[movable[k+1]]
		gap := next.ScheduledStart.Add(offset).Sub(*task.ScheduledEnd)

		var needed time.Duration
		if gap < minBreak {
			needed = minBreak - gap
		}
		if blockWork >= limit {
			if long := 2*minBreak - gap; long > needed {
				needed = long
			}
			blockWork = 0
		}
		if needed > 0 {
			offset += needed
			gap += needed
		}
		if gap >= minBreak {
			blockWork = 0
		}
	}
	return out
}

// BreakComplianceScore summarizes break-policy health as 0..100. Severities
// weigh 1/2/3 and are normalized against the worst case of one high-severity
// violation per scheduled task.
func BreakComplianceScore(tasks []model.Task, settings model.AutoScheduleSettings) int {
	if !settings.EnforceBreaks {
		return 100
	}
	scheduled := scheduledAscending(tasks)
	if len(scheduled) == 0 {
		return 100
	}

	penalty := 0
	for _, v := range ValidateScheduleBreaks(tasks, settings) {
		switch v.Severity {
		case SeverityHigh:
			penalty += 3
		case SeverityMedium:
			penalty += 2
		default:
			penalty++
		}
	}
	maxPenalty := 3 * len(scheduled)
	score := int(math.Round(100 * (1 - float64(penalty)/float64(maxPenalty))))
	if score < 0 {
		return 0
	}
	return score
}

func taskInterval(t model.Task) Interval {
	return Interval{Start: *t.ScheduledStart, End: *t.ScheduledEnd}
}

// scheduledAscending filters to tasks with both scheduling fields set and
// sorts them by start time.
func scheduledAscending(tasks []model.Task) []model.Task {
	var scheduled []model.Task
	for _, t := range tasks {
		if t.IsScheduled() {
			scheduled = append(scheduled, t)
		}
	}
	sort.SliceStable(scheduled, func(i, j int) bool {
		if !scheduled[i].ScheduledStart.Equal(*scheduled[j].ScheduledStart) {
			return scheduled[i].ScheduledStart.Before(*scheduled[j].ScheduledStart)
		}
		return scheduled[i].ID < scheduled[j].ID
	})
	return scheduled
}
