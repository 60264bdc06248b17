package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"metro-status-backend/internal/model"
)

// UnitSummary is the rollup of a unit's full status history.
type UnitSummary struct {
	BreakCount        int
	FixCount          int
	BrokenTimeSeconds int64
	Availability      float64
}

// SummarizeHistory computes a unit's performance rollup from its ordered
// status history, up to asOf.
func SummarizeHistory(statuses []model.UnitStatus, asOf time.Time) UnitSummary {
	var summary UnitSummary
	if len(statuses) == 0 {
		summary.Availability = 1
		return summary
	}

	prevCategory := ""
	var downSeconds int64
	for _, st := range statuses {
		if st.Category == CategoryBroken && prevCategory != CategoryBroken {
			summary.BreakCount++
		}
		if st.Category == CategoryOperational && prevCategory == CategoryBroken {
			summary.FixCount++
		}
		if st.Category != CategoryOperational {
			end := asOf
			if st.EndTime != nil {
				end = *st.EndTime
			}
			if end.After(st.ObservedAt) {
				secs := int64(end.Sub(st.ObservedAt).Seconds())
				downSeconds += secs
				if st.Category == CategoryBroken {
					summary.BrokenTimeSeconds += secs
				}
			}
		}
		prevCategory = st.Category
	}

	total := int64(asOf.Sub(statuses[0].ObservedAt).Seconds())
	if total > 0 {
		summary.Availability = 1 - float64(downSeconds)/float64(total)
		if summary.Availability < 0 {
			summary.Availability = 0
		}
	} else {
		summary.Availability = 1
	}
	return summary
}

// RecomputeSummaries rebuilds the performance rollup for every unit. This
// runs in-line on the tick's coarse timer and may take a while; a failure
// on one unit does not stop the others.
func (s *gormStore) RecomputeSummaries(ctx context.Context, asOf time.Time) error {
	units, err := s.ListUnits(ctx)
	if err != nil {
		return fmt.Errorf("failed to list units for summary recompute: %w", err)
	}

	for i := range units {
		unit := &units[i]
		statuses, err := s.UnitHistory(ctx, unit.UnitID)
		if err != nil {
			log.Printf("Error loading history for unit %s during summary recompute: %v", unit.UnitID, err)
			continue
		}

		summary := SummarizeHistory(statuses, asOf)
		updates := map[string]any{
			"break_count":         summary.BreakCount,
			"fix_count":           summary.FixCount,
			"broken_time_seconds": summary.BrokenTimeSeconds,
			"availability":        summary.Availability,
			"summary_updated_at":  asOf,
		}
		if err := s.db.WithContext(ctx).Model(unit).Updates(updates).Error; err != nil {
			log.Printf("Error saving summary for unit %s: %v", unit.UnitID, err)
		}
	}
	return nil
}
