package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"metro-status-backend/internal/model"
)

// InsertSocialPost stores a raw post. The post id is the primary key, so
// ingesting the same post twice is a no-op; returns false when the post
// was already present.
func (s *gormStore) InsertSocialPost(ctx context.Context, post *model.SocialPost) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(post)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert social post %d: %w", post.ID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore) UpsertReporter(ctx context.Context, reporter *model.Reporter) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"handle", "updated_at"}),
	}).Create(reporter).Error
}

func (s *gormStore) InsertHotCarReport(ctx context.Context, report *model.HotCarReport) error {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(report)
	if res.Error != nil {
		return fmt.Errorf("failed to insert hot car report for post %d: %w", report.PostID, res.Error)
	}
	return nil
}

func (s *gormStore) ReportsForCar(ctx context.Context, carNumber int) ([]model.HotCarReport, error) {
	var reports []model.HotCarReport
	err := s.db.WithContext(ctx).
		Where("car_number = ?", carNumber).
		Order("reported_at DESC").
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *gormStore) RecentReports(ctx context.Context, limit int) ([]model.HotCarReport, error) {
	var reports []model.HotCarReport
	err := s.db.WithContext(ctx).
		Order("reported_at DESC").
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *gormStore) UnacknowledgedPosts(ctx context.Context) ([]model.SocialPost, error) {
	var posts []model.SocialPost
	err := s.db.WithContext(ctx).
		Where("acknowledged = ?", false).
		Order("id ASC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// AcknowledgePost flips the acknowledged flag. Returns false if the post
// was already acknowledged, so a retried send never acknowledges twice.
func (s *gormStore) AcknowledgePost(ctx context.Context, postID int64) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&model.SocialPost{}).
		Where("id = ? AND acknowledged = ?", postID, false).
		Update("acknowledged", true)
	if res.Error != nil {
		return false, fmt.Errorf("failed to acknowledge post %d: %w", postID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore) GetReporter(ctx context.Context, userID int64) (*model.Reporter, error) {
	var reporter model.Reporter
	if err := s.db.WithContext(ctx).First(&reporter, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &reporter, nil
}
