package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"metro-status-backend/internal/feed"
	"metro-status-backend/internal/model"
	"metro-status-backend/internal/store"
)

// ChangeRecord describes one unit whose status changed during a tick.
// LastFix and LastOperational are resolved from the key-statuses
// projection as it stood before the new status was appended.
type ChangeRecord struct {
	UnitID          string
	Unit            *model.Unit
	OldStatus       model.UnitStatus
	NewStatus       model.UnitStatus
	LastFix         *model.UnitStatus
	LastOperational *model.UnitStatus
}

// Reconciler diffs incident snapshots against the store's last-known unit
// state.
type Reconciler struct {
	store    store.Store
	symptoms *SymptomTable
}

// New creates a Reconciler.
func New(s store.Store, symptoms *SymptomTable) *Reconciler {
	return &Reconciler{store: s, symptoms: symptoms}
}

// Reconcile computes and persists the set of changed units for one tick.
//
// Each unit id is classified into exactly one of: newly out, back in
// service, or still out with a different symptom; all other units are
// unchanged and produce no record. A unit seen for the first time is
// created with a synthetic prior operational status, so it flows through
// as a regular new outage. Exactly one status is appended per changed unit.
//
// A symptom description missing from the classification table skips that
// unit for the tick; store failures abort the whole reconcile.
func (r *Reconciler) Reconcile(ctx context.Context, incidents []feed.Incident, now time.Time) ([]ChangeRecord, error) {
	snapshot, err := r.store.KeyStatusSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read key status snapshot: %w", err)
	}

	// First sightings: units on the incident list with no history at all.
	created := false
	for _, inc := range incidents {
		if _, known := snapshot[inc.UnitID]; known {
			continue
		}
		ok, err := r.store.EnsureUnit(ctx, model.Unit{
			UnitID:      inc.UnitID,
			StationCode: inc.StationCode,
			StationName: inc.StationName,
			Kind:        inc.UnitType,
		}, now)
		if err != nil {
			return nil, fmt.Errorf("failed to create unit %s: %w", inc.UnitID, err)
		}
		if ok {
			log.Printf("First sighting of unit %s (%s)", inc.UnitID, inc.SymptomDescription)
			created = true
		}
	}
	if created {
		if snapshot, err = r.store.KeyStatusSnapshot(ctx); err != nil {
			return nil, fmt.Errorf("failed to re-read key status snapshot: %w", err)
		}
	}

	incidentByUnit := make(map[string]feed.Incident, len(incidents))
	for _, inc := range incidents {
		incidentByUnit[inc.UnitID] = inc
	}

	var changed []string
	for unitID, keys := range snapshot {
		inc, onList := incidentByUnit[unitID]
		wasOperational := keys.LastCategory == store.CategoryOperational

		switch {
		case wasOperational && onList:
			changed = append(changed, unitID) // new outage
		case !wasOperational && !onList:
			changed = append(changed, unitID) // repaired
		case !wasOperational && onList && inc.SymptomDescription != keys.LastSymptom:
			changed = append(changed, unitID) // updated while out
		}
	}

	records := make([]ChangeRecord, 0, len(changed))
	for _, unitID := range changed {
		symptom := store.SymptomOperational
		if inc, ok := incidentByUnit[unitID]; ok {
			symptom = inc.SymptomDescription
		}

		category, ok := r.symptoms.Classify(symptom)
		if !ok {
			log.Printf("Error: unknown symptom %q for unit %s; skipping this tick", symptom, unitID)
			continue
		}

		rec, err := r.applyChange(ctx, unitID, snapshot[unitID], symptom, category, now)
		if err != nil {
			if errors.Is(err, store.ErrDuplicateStatus) {
				// Unchanged after all; nothing to record.
				continue
			}
			return nil, err
		}
		records = append(records, *rec)
	}

	return records, nil
}

func (r *Reconciler) applyChange(ctx context.Context, unitID string, keys model.KeyStatuses, symptom, category string, now time.Time) (*ChangeRecord, error) {
	unit, err := r.store.GetUnit(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unit %s: %w", unitID, err)
	}

	oldStatus, err := r.store.StatusByID(ctx, keys.LastStatusID)
	if err != nil {
		return nil, fmt.Errorf("failed to load last status for unit %s: %w", unitID, err)
	}

	var lastFix, lastOperational *model.UnitStatus
	if keys.LastFixStatusID != nil {
		if lastFix, err = r.store.StatusByID(ctx, *keys.LastFixStatusID); err != nil {
			return nil, fmt.Errorf("failed to load last fix status for unit %s: %w", unitID, err)
		}
	}
	if keys.LastOperationalStatusID != nil {
		if lastOperational, err = r.store.StatusByID(ctx, *keys.LastOperationalStatusID); err != nil {
			return nil, fmt.Errorf("failed to load last operational status for unit %s: %w", unitID, err)
		}
	}

	newStatus, err := r.store.AppendStatus(ctx, unitID, now, symptom, category)
	if err != nil {
		return nil, err
	}

	return &ChangeRecord{
		UnitID:          unitID,
		Unit:            unit,
		OldStatus:       *oldStatus,
		NewStatus:       *newStatus,
		LastFix:         lastFix,
		LastOperational: lastOperational,
	}, nil
}
