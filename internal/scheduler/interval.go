package scheduler

import "time"

// Interval is an immutable half-open [Start, End) time range. All scheduling
// arithmetic goes through value-returning methods so an interval can never be
// mutated in place and accidentally shared across loop iterations.
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start time.Time, duration time.Duration) Interval {
	return Interval{Start: start, End: start.Add(duration)}
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// GapTo returns the free time between the end of iv and the start of other.
// The result is negative when other starts before iv ends.
func (iv Interval) GapTo(other Interval) time.Duration {
	return other.Start.Sub(iv.End)
}

func (iv Interval) ShiftedBy(offset time.Duration) Interval {
	return Interval{Start: iv.Start.Add(offset), End: iv.End.Add(offset)}
}

func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// ClearanceFrom returns the gap between iv and other regardless of which
// comes first. Overlapping intervals yield a negative clearance.
func (iv Interval) ClearanceFrom(other Interval) time.Duration {
	if !iv.End.After(other.Start) {
		return iv.GapTo(other)
	}
	return other.GapTo(iv)
}
