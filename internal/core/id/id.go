// Package id provides the UUIDv7 identifiers used as primary keys.
package id

import (
	"github.com/google/uuid"
)

// ID is the primary key type of every entity.
type ID = uuid.UUID

// New returns a time-ordered UUIDv7, so ids sort roughly by creation.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse parses s.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse is Parse for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns the zero ID.
func Nil() ID {
	return uuid.Nil
}

// IsNil reports whether v is the zero ID.
func IsNil(v ID) bool {
	return v == uuid.Nil
}
