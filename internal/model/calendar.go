package model

import "time"

const (
	EventSourceManual  = "manual"
	EventSourceGoogle  = "google"
	EventSourceOutlook = "outlook"
	EventSourceCalDAV  = "caldav"
)

// CalendarEvent is an externally-sourced commitment. The scheduler treats
// its [StartTime, EndTime) range as busy time it must not overlap. Feed
// synchronization materializes these rows; the scheduling core only reads
// already-resolved intervals.
type CalendarEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
