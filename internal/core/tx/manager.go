// Package tx declares the transaction contract domain services depend on.
// The PostgreSQL implementation lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs fn inside a transaction: an error rolls back, success commits.
// Nested calls join the transaction already carried by ctx.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds read-only transactions, used by listings that issue a
// page query and a count query that must agree with each other.
type ReadOnlyManager interface {
	Manager
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
