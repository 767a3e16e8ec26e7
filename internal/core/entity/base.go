// Package entity holds the fields and contracts shared by persisted entities.
package entity

import (
	"context"
	"time"

	"resido/internal/core/id"
)

// Validatable is implemented by entities that check their own invariants
// without touching the database.
type Validatable interface {
	Validate(ctx context.Context) error
}

// Base is embedded by every table-backed entity.
type Base struct {
	ID        id.ID     `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBase returns a Base with a fresh UUIDv7 and current timestamps.
func NewBase() Base {
	now := time.Now().UTC()
	return Base{
		ID:        id.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GetID returns the primary key.
func (b *Base) GetID() id.ID {
	return b.ID
}

// Touch bumps UpdatedAt.
func (b *Base) Touch() {
	b.UpdatedAt = time.Now().UTC()
}
