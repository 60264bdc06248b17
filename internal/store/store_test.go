package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"metro-status-backend/internal/model"
)

// newTestStore opens an isolated in-memory database with the full schema.
// A single connection keeps every query on the same in-memory instance.
func newTestStore(t *testing.T) Store {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Unit{},
		&model.UnitStatus{},
		&model.KeyStatuses{},
		&model.SocialPost{},
		&model.Reporter{},
		&model.HotCarReport{},
		&model.AppState{},
		&model.PushSubscription{},
	))

	return NewGormStore(db)
}

func TestEnsureUnit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	firstSeen := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	unit := model.Unit{
		UnitID:      "A03N01",
		StationCode: "A03",
		StationName: "Dupont Circle",
		Kind:        model.KindEscalator,
	}

	created, err := s.EnsureUnit(ctx, unit, firstSeen)
	require.NoError(t, err)
	assert.True(t, created)

	// A second sighting is a no-op.
	created, err = s.EnsureUnit(ctx, unit, firstSeen.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, created)

	// The unit starts with a single synthetic operational status.
	history, err := s.UnitHistory(ctx, "A03N01")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, SymptomOperational, history[0].Symptom)
	assert.Equal(t, CategoryOperational, history[0].Category)
	assert.Nil(t, history[0].EndTime)

	snapshot, err := s.KeyStatusSnapshot(ctx)
	require.NoError(t, err)
	keys, ok := snapshot["A03N01"]
	require.True(t, ok)
	assert.Equal(t, history[0].ID, keys.LastStatusID)
	assert.Equal(t, CategoryOperational, keys.LastCategory)
	require.NotNil(t, keys.LastOperationalStatusID)
	assert.Equal(t, history[0].ID, *keys.LastOperationalStatusID)
	assert.Nil(t, keys.LastFixStatusID)
}

func TestAppendStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.AppendStatus(ctx, "GHOST", t0, "MINOR REPAIR", CategoryBroken)
	assert.ErrorIs(t, err, ErrUnknownUnit)

	_, err = s.EnsureUnit(ctx, model.Unit{UnitID: "C04W02", Kind: model.KindEscalator}, t0)
	require.NoError(t, err)

	t1 := t0.Add(30 * time.Minute)
	broken, err := s.AppendStatus(ctx, "C04W02", t1, "MINOR REPAIR", CategoryBroken)
	require.NoError(t, err)
	assert.Equal(t, "MINOR REPAIR", broken.Symptom)
	assert.Nil(t, broken.EndTime)

	// Appending the same symptom again repeats the current run.
	_, err = s.AppendStatus(ctx, "C04W02", t1.Add(time.Minute), "MINOR REPAIR", CategoryBroken)
	assert.ErrorIs(t, err, ErrDuplicateStatus)

	history, err := s.UnitHistory(ctx, "C04W02")
	require.NoError(t, err)
	require.Len(t, history, 2)

	// The previous status was closed at the append time.
	require.NotNil(t, history[0].EndTime)
	assert.WithinDuration(t, t1, *history[0].EndTime, time.Second)
	assert.Nil(t, history[1].EndTime)

	t2 := t1.Add(2 * time.Hour)
	fixed, err := s.AppendStatus(ctx, "C04W02", t2, SymptomOperational, CategoryOperational)
	require.NoError(t, err)

	snapshot, err := s.KeyStatusSnapshot(ctx)
	require.NoError(t, err)
	keys := snapshot["C04W02"]
	assert.Equal(t, fixed.ID, keys.LastStatusID)
	assert.Equal(t, SymptomOperational, keys.LastSymptom)
	require.NotNil(t, keys.LastOperationalStatusID)
	assert.Equal(t, fixed.ID, *keys.LastOperationalStatusID)

	// Operational after broken counts as a fix.
	require.NotNil(t, keys.LastFixStatusID)
	assert.Equal(t, fixed.ID, *keys.LastFixStatusID)

	// Operational after a non-broken outage does not.
	t3 := t2.Add(time.Hour)
	_, err = s.AppendStatus(ctx, "C04W02", t3, "TURNED OFF/WALKER", CategoryOff)
	require.NoError(t, err)
	t4 := t3.Add(time.Hour)
	on, err := s.AppendStatus(ctx, "C04W02", t4, SymptomOperational, CategoryOperational)
	require.NoError(t, err)

	snapshot, err = s.KeyStatusSnapshot(ctx)
	require.NoError(t, err)
	keys = snapshot["C04W02"]
	require.NotNil(t, keys.LastOperationalStatusID)
	assert.Equal(t, on.ID, *keys.LastOperationalStatusID)
	require.NotNil(t, keys.LastFixStatusID)
	assert.Equal(t, fixed.ID, *keys.LastFixStatusID)

	// Exactly one open status per unit, and it is the last one.
	history, err = s.UnitHistory(ctx, "C04W02")
	require.NoError(t, err)
	open := 0
	for i, st := range history {
		if st.EndTime == nil {
			open++
			assert.Equal(t, len(history)-1, i)
		}
	}
	assert.Equal(t, 1, open)
}

func TestRecomputeKeyStatuses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.EnsureUnit(ctx, model.Unit{UnitID: "B02S03", Kind: model.KindElevator}, t0)
	require.NoError(t, err)
	_, err = s.AppendStatus(ctx, "B02S03", t0.Add(time.Hour), "MAJOR REPAIR", CategoryBroken)
	require.NoError(t, err)
	_, err = s.AppendStatus(ctx, "B02S03", t0.Add(2*time.Hour), SymptomOperational, CategoryOperational)
	require.NoError(t, err)
	_, err = s.AppendStatus(ctx, "B02S03", t0.Add(3*time.Hour), "SAFETY INSPECTION", CategoryInspection)
	require.NoError(t, err)

	snapshot, err := s.KeyStatusSnapshot(ctx)
	require.NoError(t, err)
	incremental := snapshot["B02S03"]

	// Rebuilding from history must reproduce the incremental projection.
	require.NoError(t, s.RecomputeKeyStatuses(ctx, "B02S03"))

	snapshot, err = s.KeyStatusSnapshot(ctx)
	require.NoError(t, err)
	rebuilt := snapshot["B02S03"]

	assert.Equal(t, incremental.LastStatusID, rebuilt.LastStatusID)
	assert.Equal(t, incremental.LastSymptom, rebuilt.LastSymptom)
	assert.Equal(t, incremental.LastCategory, rebuilt.LastCategory)
	require.NotNil(t, rebuilt.LastOperationalStatusID)
	assert.Equal(t, *incremental.LastOperationalStatusID, *rebuilt.LastOperationalStatusID)
	require.NotNil(t, rebuilt.LastFixStatusID)
	assert.Equal(t, *incremental.LastFixStatusID, *rebuilt.LastFixStatusID)
}

func TestAppState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state, err := s.GetAppState(ctx, model.TrackerHotCars)
	require.NoError(t, err)
	assert.Nil(t, state.LastRunTime)
	assert.Equal(t, int64(0), state.LastPostCursor)

	now := time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC)
	state.LastRunTime = &now
	state.LastPostCursor = 123456789
	require.NoError(t, s.SaveAppState(ctx, state))

	reloaded, err := s.GetAppState(ctx, model.TrackerHotCars)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastRunTime)
	assert.WithinDuration(t, now, *reloaded.LastRunTime, time.Second)
	assert.Equal(t, int64(123456789), reloaded.LastPostCursor)

	// Trackers keep independent state rows.
	other, err := s.GetAppState(ctx, model.TrackerUnits)
	require.NoError(t, err)
	assert.Nil(t, other.LastRunTime)
}
