package model

import "time"

// Tracker names for the AppState singleton.
const (
	TrackerUnits   = "units"
	TrackerHotCars = "hotcars"
)

// AppState is the per-tracker singleton of persisted run metadata, so a
// restarted process resumes from where the previous one left off.
type AppState struct {
	Tracker               string `gorm:"primaryKey;size:16"`
	LastRunTime           *time.Time
	LastPostCursor        int64 `gorm:"not null;default:0"`
	LastMentionsCheckTime *time.Time
	LastSummaryTime       *time.Time
	UpdatedAt             time.Time
}
