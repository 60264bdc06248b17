package store

import "errors"

// Symptom categories. The feed reports free-text symptom descriptions;
// configuration maps each description into one of these.
const (
	CategoryOperational = "ON"
	CategoryBroken      = "BROKEN"
	CategoryInspection  = "INSPECTION"
	CategoryOff         = "OFF"
)

// SymptomOperational is the implicit description for a unit absent from
// the incident feed.
const SymptomOperational = "OPERATIONAL"

var (
	// ErrUnknownUnit is returned when appending a status for a unit that
	// has never been seen.
	ErrUnknownUnit = errors.New("store: unknown unit")

	// ErrDuplicateStatus is returned when an append would repeat the
	// unit's current symptom. History is run-length compressed by
	// symptom, so such appends are rejected rather than repaired later.
	ErrDuplicateStatus = errors.New("store: status repeats current symptom")
)
