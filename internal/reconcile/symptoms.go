package reconcile

import (
	"metro-status-backend/config"
	"metro-status-backend/internal/store"
)

// SymptomTable maps feed symptom descriptions to categories. The mapping
// is configuration data so the two trackers (and future feeds) can carry
// different tables without code changes.
type SymptomTable struct {
	byDescription map[string]string
}

// NewSymptomTable builds the lookup from configuration.
func NewSymptomTable(cfg *config.UnitsConfig) *SymptomTable {
	byDescription := map[string]string{
		store.SymptomOperational: store.CategoryOperational,
	}
	for _, s := range cfg.BrokenSymptoms {
		byDescription[s] = store.CategoryBroken
	}
	for _, s := range cfg.InspectionSymptoms {
		byDescription[s] = store.CategoryInspection
	}
	for _, s := range cfg.OffSymptoms {
		byDescription[s] = store.CategoryOff
	}
	return &SymptomTable{byDescription: byDescription}
}

// Classify returns the category for a symptom description.
func (t *SymptomTable) Classify(description string) (string, bool) {
	category, ok := t.byDescription[description]
	return category, ok
}
