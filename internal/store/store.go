package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"metro-status-backend/internal/model"
)

// Store defines the persistence contract for both trackers.
type Store interface {
	DB() *gorm.DB

	// Unit tracker
	GetUnit(ctx context.Context, unitID string) (*model.Unit, error)
	ListUnits(ctx context.Context) ([]model.Unit, error)
	EnsureUnit(ctx context.Context, unit model.Unit, firstSeen time.Time) (bool, error)
	UnitHistory(ctx context.Context, unitID string) ([]model.UnitStatus, error)
	StatusByID(ctx context.Context, id uint64) (*model.UnitStatus, error)
	RecentStatuses(ctx context.Context, limit int) ([]model.UnitStatus, error)
	KeyStatusSnapshot(ctx context.Context) (map[string]model.KeyStatuses, error)
	AppendStatus(ctx context.Context, unitID string, observedAt time.Time, symptom, category string) (*model.UnitStatus, error)
	RecomputeKeyStatuses(ctx context.Context, unitID string) error
	RecomputeSummaries(ctx context.Context, asOf time.Time) error

	// Hot car tracker
	InsertSocialPost(ctx context.Context, post *model.SocialPost) (bool, error)
	UpsertReporter(ctx context.Context, reporter *model.Reporter) error
	InsertHotCarReport(ctx context.Context, report *model.HotCarReport) error
	ReportsForCar(ctx context.Context, carNumber int) ([]model.HotCarReport, error)
	RecentReports(ctx context.Context, limit int) ([]model.HotCarReport, error)
	UnacknowledgedPosts(ctx context.Context) ([]model.SocialPost, error)
	AcknowledgePost(ctx context.Context, postID int64) (bool, error)
	GetReporter(ctx context.Context, userID int64) (*model.Reporter, error)

	// Run metadata
	GetAppState(ctx context.Context, tracker string) (*model.AppState, error)
	SaveAppState(ctx context.Context, state *model.AppState) error

	// Push
	SubscriptionsForUnit(ctx context.Context, unitID string) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) GetUnit(ctx context.Context, unitID string) (*model.Unit, error) {
	var unit model.Unit
	if err := s.db.WithContext(ctx).First(&unit, "unit_id = ?", unitID).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (s *gormStore) ListUnits(ctx context.Context) ([]model.Unit, error) {
	var units []model.Unit
	if err := s.db.WithContext(ctx).Order("unit_id").Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// EnsureUnit creates the unit on first sighting, together with a synthetic
// initial OPERATIONAL status and its key-statuses row, so that a brand new
// unit flows through the reconciler as a regular operational-to-outage
// transition. Returns true if the unit was created.
func (s *gormStore) EnsureUnit(ctx context.Context, unit model.Unit, firstSeen time.Time) (bool, error) {
	var existing model.Unit
	err := s.db.WithContext(ctx).First(&existing, "unit_id = ?", unit.UnitID).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to look up unit %s: %w", unit.UnitID, err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&unit).Error; err != nil {
			return fmt.Errorf("failed to create unit %s: %w", unit.UnitID, err)
		}

		initial := model.UnitStatus{
			UnitID:     unit.UnitID,
			ObservedAt: firstSeen,
			Symptom:    SymptomOperational,
			Category:   CategoryOperational,
		}
		if err := tx.Create(&initial).Error; err != nil {
			return fmt.Errorf("failed to create initial status for unit %s: %w", unit.UnitID, err)
		}

		keys := model.KeyStatuses{
			UnitID:                  unit.UnitID,
			LastStatusID:            initial.ID,
			LastSymptom:             initial.Symptom,
			LastCategory:            initial.Category,
			LastOperationalStatusID: &initial.ID,
		}
		if err := tx.Create(&keys).Error; err != nil {
			return fmt.Errorf("failed to create key statuses for unit %s: %w", unit.UnitID, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *gormStore) UnitHistory(ctx context.Context, unitID string) ([]model.UnitStatus, error) {
	var statuses []model.UnitStatus
	err := s.db.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Order("observed_at ASC, id ASC").
		Find(&statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

func (s *gormStore) StatusByID(ctx context.Context, id uint64) (*model.UnitStatus, error) {
	var status model.UnitStatus
	if err := s.db.WithContext(ctx).First(&status, id).Error; err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *gormStore) RecentStatuses(ctx context.Context, limit int) ([]model.UnitStatus, error) {
	var statuses []model.UnitStatus
	err := s.db.WithContext(ctx).
		Order("observed_at DESC, id DESC").
		Limit(limit).
		Find(&statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

// KeyStatusSnapshot loads the whole key-statuses projection in one query.
// The reconciler reads it once at the start of a tick and diffs against it.
func (s *gormStore) KeyStatusSnapshot(ctx context.Context) (map[string]model.KeyStatuses, error) {
	var rows []model.KeyStatuses
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	snapshot := make(map[string]model.KeyStatuses, len(rows))
	for _, row := range rows {
		snapshot[row.UnitID] = row
	}
	return snapshot, nil
}

// AppendStatus appends a new status to a unit's history and updates the
// key-statuses projection in one transaction.
//
// The previous status receives its end time here, which keeps at most one
// open status per unit, and an append repeating the current symptom is
// rejected with ErrDuplicateStatus.
func (s *gormStore) AppendStatus(ctx context.Context, unitID string, observedAt time.Time, symptom, category string) (*model.UnitStatus, error) {
	var created *model.UnitStatus

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var keys model.KeyStatuses
		if err := tx.First(&keys, "unit_id = ?", unitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownUnit
			}
			return fmt.Errorf("failed to load key statuses for unit %s: %w", unitID, err)
		}

		if keys.LastSymptom == symptom {
			return ErrDuplicateStatus
		}

		if err := tx.Model(&model.UnitStatus{}).
			Where("id = ?", keys.LastStatusID).
			Update("end_time", observedAt).Error; err != nil {
			return fmt.Errorf("failed to close status %d for unit %s: %w", keys.LastStatusID, unitID, err)
		}

		status := model.UnitStatus{
			UnitID:     unitID,
			ObservedAt: observedAt,
			Symptom:    symptom,
			Category:   category,
		}
		if err := tx.Create(&status).Error; err != nil {
			return fmt.Errorf("failed to create status for unit %s: %w", unitID, err)
		}

		prevCategory := keys.LastCategory
		keys.LastStatusID = status.ID
		keys.LastSymptom = status.Symptom
		keys.LastCategory = status.Category
		if status.Category == CategoryOperational {
			keys.LastOperationalStatusID = &status.ID
			if prevCategory == CategoryBroken {
				keys.LastFixStatusID = &status.ID
			}
		}
		if err := tx.Save(&keys).Error; err != nil {
			return fmt.Errorf("failed to update key statuses for unit %s: %w", unitID, err)
		}

		created = &status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RecomputeKeyStatuses rebuilds the projection for one unit from its full
// history. Repair path only; normal operation maintains the projection
// incrementally in AppendStatus.
func (s *gormStore) RecomputeKeyStatuses(ctx context.Context, unitID string) error {
	statuses, err := s.UnitHistory(ctx, unitID)
	if err != nil {
		return fmt.Errorf("failed to load history for unit %s: %w", unitID, err)
	}
	if len(statuses) == 0 {
		return fmt.Errorf("unit %s has no status history", unitID)
	}

	last := statuses[len(statuses)-1]
	keys := model.KeyStatuses{
		UnitID:       unitID,
		LastStatusID: last.ID,
		LastSymptom:  last.Symptom,
		LastCategory: last.Category,
	}

	for i := len(statuses) - 1; i >= 0; i-- {
		st := statuses[i]
		if st.Category != CategoryOperational {
			continue
		}
		if keys.LastOperationalStatusID == nil {
			id := st.ID
			keys.LastOperationalStatusID = &id
		}
		if keys.LastFixStatusID == nil && i > 0 && statuses[i-1].Category == CategoryBroken {
			id := st.ID
			keys.LastFixStatusID = &id
		}
		if keys.LastOperationalStatusID != nil && keys.LastFixStatusID != nil {
			break
		}
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "unit_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_status_id", "last_symptom", "last_category",
			"last_operational_status_id", "last_fix_status_id", "updated_at",
		}),
	}).Create(&keys).Error
}

func (s *gormStore) GetAppState(ctx context.Context, tracker string) (*model.AppState, error) {
	var state model.AppState
	err := s.db.WithContext(ctx).First(&state, "tracker = ?", tracker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		state = model.AppState{Tracker: tracker}
		if err := s.db.WithContext(ctx).Create(&state).Error; err != nil {
			return nil, fmt.Errorf("failed to initialize app state for %s: %w", tracker, err)
		}
		return &state, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *gormStore) SaveAppState(ctx context.Context, state *model.AppState) error {
	return s.db.WithContext(ctx).Save(state).Error
}

func (s *gormStore) SubscriptionsForUnit(ctx context.Context, unitID string) ([]model.PushSubscription, error) {
	var subscriptions []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_unit_mapping sm ON sm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sm.unit_unit_id = ?", unitID).
		Find(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
}
