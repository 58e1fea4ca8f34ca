package store

import "errors"

// Sentinel errors. Services translate these into user-facing domain errors.
var (
	// ErrNotFound is returned when a record cannot be found by ID or index.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned when a create would violate a primary
	// key or unique index constraint.
	ErrAlreadyExists = errors.New("record already exists")
)
