package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metro-status-backend/internal/model"
)

func TestInsertSocialPost_DuplicateIsNoOp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	post := model.SocialPost{
		ID:       900100,
		UserID:   42,
		Text:     "hot car 3123",
		PostedAt: time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC),
	}

	inserted, err := s.InsertSocialPost(ctx, &post)
	require.NoError(t, err)
	assert.True(t, inserted)

	again := model.SocialPost{ID: 900100, UserID: 42, Text: "edited text"}
	inserted, err = s.InsertSocialPost(ctx, &again)
	require.NoError(t, err)
	assert.False(t, inserted)

	// The original row is untouched.
	var stored model.SocialPost
	require.NoError(t, s.DB().First(&stored, "id = ?", int64(900100)).Error)
	assert.Equal(t, "hot car 3123", stored.Text)
}

func TestAcknowledgePost_FlipsExactlyOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	post := model.SocialPost{ID: 900200, UserID: 7, Text: "hot car 5042"}
	_, err := s.InsertSocialPost(ctx, &post)
	require.NoError(t, err)

	unacked, err := s.UnacknowledgedPosts(ctx)
	require.NoError(t, err)
	require.Len(t, unacked, 1)

	flipped, err := s.AcknowledgePost(ctx, 900200)
	require.NoError(t, err)
	assert.True(t, flipped)

	// A retried send must see the flag already set.
	flipped, err = s.AcknowledgePost(ctx, 900200)
	require.NoError(t, err)
	assert.False(t, flipped)

	unacked, err = s.UnacknowledgedPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, unacked)
}

func TestUpsertReporter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertReporter(ctx, &model.Reporter{ID: 42, Handle: "alice"}))
	require.NoError(t, s.UpsertReporter(ctx, &model.Reporter{ID: 42, Handle: "alice_renamed"}))

	reporter, err := s.GetReporter(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "alice_renamed", reporter.Handle)
}

func TestReportsForCar(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	reports := []model.HotCarReport{
		{PostID: 1, CarNumber: 3123, Color: "RED", UserID: 1, ReportedAt: base},
		{PostID: 2, CarNumber: 3123, Color: "NONE", UserID: 2, ReportedAt: base.Add(48 * time.Hour)},
		{PostID: 3, CarNumber: 5042, Color: "GREEN", UserID: 3, ReportedAt: base.Add(time.Hour)},
	}
	for i := range reports {
		require.NoError(t, s.InsertHotCarReport(ctx, &reports[i]))
	}

	got, err := s.ReportsForCar(ctx, 3123)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Newest first.
	assert.Equal(t, int64(2), got[0].PostID)
	assert.Equal(t, int64(1), got[1].PostID)

	recent, err := s.RecentReports(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(2), recent[0].PostID)
	assert.Equal(t, int64(3), recent[1].PostID)
}
