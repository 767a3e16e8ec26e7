package numerator

import (
	"context"
	"time"
)

// Generator issues sequential numbers.
type Generator interface {
	// GetNextNumber returns the next number for cfg in the period containing at.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, at time.Time) (string, error)

	// SetNextNumber moves the counter, used when importing existing records.
	SetNextNumber(ctx context.Context, cfg Config, at time.Time, value int64) error
}
