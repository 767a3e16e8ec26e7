package billing

import (
	"context"

	"resido/internal/core/id"
	"resido/internal/domain/filter"
)

// BillRepository persists bills.
type BillRepository interface {
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, billID id.ID) (*Bill, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, billID id.ID) (*Bill, error)
	// SaveSettlement stores paid_amount and status.
	SaveSettlement(ctx context.Context, b *Bill) error

	Find(ctx context.Context, q filter.Query) ([]*Bill, error)
	Count(ctx context.Context, q filter.Query) (int64, error)
}

// PaymentRepository persists payments.
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	ListByBill(ctx context.Context, billID id.ID) ([]*Payment, error)
}
