// Package id provides UUIDv7 generation for all entities.
// UUIDv7 is time-ordered, so primary keys sort by creation time.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is a type alias for UUID, used across all entities.
type ID = uuid.UUID

// New generates a new UUIDv7.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	v, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return v, nil
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns zero-value UUID.
func Nil() ID {
	return uuid.Nil
}

// IsNil checks if ID is zero-value.
func IsNil(v ID) bool {
	return v == uuid.Nil
}
