package model

import "time"

// Unit kinds as reported by the authority's feed.
const (
	KindEscalator = "ESCALATOR"
	KindElevator  = "ELEVATOR"
)

// Unit represents a tracked escalator or elevator.
//
// The summary fields are a denormalized rollup over the unit's full status
// history, recomputed on a coarse timer.
type Unit struct {
	UnitID      string `gorm:"primaryKey;size:32"` // Authority ID, e.g. "A03N01"
	StationCode string `gorm:"size:8;index"`
	StationName string `gorm:"size:128"`
	Kind        string `gorm:"size:16;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	BreakCount        int        `json:"breakCount"`
	FixCount          int        `json:"fixCount"`
	BrokenTimeSeconds int64      `json:"brokenTimeSeconds"`
	Availability      float64    `json:"availability"`
	SummaryUpdatedAt  *time.Time `json:"summaryUpdatedAt"`
}

// UnitStatus is one record in a unit's append-only status history.
//
// EndTime is set exactly once, when the next status for the unit is
// appended; the chronologically last status for a unit always has a nil
// EndTime.
type UnitStatus struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement"`
	UnitID     string     `gorm:"size:32;not null;index:idx_unit_status_unit_time"`
	ObservedAt time.Time  `gorm:"not null;index:idx_unit_status_unit_time"`
	EndTime    *time.Time `json:"endTime"`
	Symptom    string     `gorm:"size:64;not null"`
	Category   string     `gorm:"size:16;not null"`
}

// KeyStatuses is the per-unit cached projection of notable points in the
// status history. It holds identifiers into unit_statuses, never embedded
// rows, and is recomputable from scratch from the history.
type KeyStatuses struct {
	UnitID                  string  `gorm:"primaryKey;size:32"`
	LastStatusID            uint64  `gorm:"not null"`
	LastSymptom             string  `gorm:"size:64;not null"`
	LastCategory            string  `gorm:"size:16;not null"`
	LastOperationalStatusID *uint64
	LastFixStatusID         *uint64
	UpdatedAt               time.Time
}
