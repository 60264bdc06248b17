package hotcar

import (
	"context"
	"fmt"
	"time"

	"metro-status-backend/internal/social"
	"metro-status-backend/internal/store"
)

// Deduper suppresses repeat reports of the same car against a sliding
// window of prior reports. A chain of congratulatory replies must not
// re-trigger a notification for a car that was already reported.
type Deduper struct {
	store  store.Store
	window time.Duration
}

// NewDeduper creates a Deduper with the given window.
func NewDeduper(s store.Store, windowDays int) *Deduper {
	return &Deduper{store: s, window: time.Duration(windowDays) * 24 * time.Hour}
}

// IsDuplicate reports whether the post is a duplicate report of carNumber.
// A report is a duplicate if, strictly within the trailing window, the
// same reporter already reported the car, or a user mentioned or replied
// to in this post reported it at an earlier time. A report at exactly the
// window boundary is not a duplicate.
func (d *Deduper) IsDuplicate(ctx context.Context, post social.Post, carNumber int) (bool, error) {
	prior, err := d.store.ReportsForCar(ctx, carNumber)
	if err != nil {
		return false, fmt.Errorf("failed to load reports for car %d: %w", carNumber, err)
	}

	cutoff := post.PostedAt.Add(-d.window)

	mentioned := make(map[int64]struct{}, len(post.MentionUserIDs)+1)
	for _, id := range post.MentionUserIDs {
		mentioned[id] = struct{}{}
	}
	if post.InReplyToUserID != nil {
		mentioned[*post.InReplyToUserID] = struct{}{}
	}

	for _, rep := range prior {
		if rep.PostID == post.ID {
			continue
		}
		if !rep.ReportedAt.After(cutoff) {
			continue
		}
		if rep.UserID == post.UserID {
			return true, nil
		}
		if _, ok := mentioned[rep.UserID]; ok && rep.ReportedAt.Before(post.PostedAt) {
			return true, nil
		}
	}
	return false, nil
}
