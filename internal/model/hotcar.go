package model

import "time"

// SocialPost is a raw social post that produced a hot car report.
// The primary key is the post's external id, which makes duplicate
// ingestion a no-op.
type SocialPost struct {
	ID           int64  `gorm:"primaryKey"` // External post ID
	UserID       int64  `gorm:"not null;index"`
	Text         string `gorm:"not null"`
	PostedAt     time.Time
	Acknowledged bool `gorm:"not null;default:false"`
	CreatedAt    time.Time
}

// Reporter is a social account that has filed at least one report.
type Reporter struct {
	ID        int64  `gorm:"primaryKey"` // External user ID
	Handle    string `gorm:"size:64;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HotCarReport is a validated, structured claim that a rail car is
// overheated, extracted from a social post.
type HotCarReport struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	PostID     int64  `gorm:"uniqueIndex;not null"`
	CarNumber  int    `gorm:"not null;index:idx_hotcar_car_time"`
	Color      string `gorm:"size:16"` // Line color, or "NONE"
	UserID     int64  `gorm:"not null"`
	ReportedAt time.Time `gorm:"not null;index:idx_hotcar_car_time"`
	CreatedAt  time.Time
}
