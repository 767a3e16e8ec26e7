package billing_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"resido/internal/core/id"
	"resido/internal/domain/billing"
	"resido/internal/infrastructure/storage/postgres"
)

var paymentCols = postgres.Columns[billing.Payment]()

// PaymentRepo implements billing.PaymentRepository.
type PaymentRepo struct {
	txm *postgres.TxManager
}

var _ billing.PaymentRepository = (*PaymentRepo)(nil)

// NewPaymentRepo creates the payment repository.
func NewPaymentRepo(txm *postgres.TxManager) *PaymentRepo {
	return &PaymentRepo{txm: txm}
}

// Create inserts a payment.
func (r *PaymentRepo) Create(ctx context.Context, p *billing.Payment) error {
	sql, args, err := postgres.Builder().Insert(TablePayments).SetMap(postgres.StructToMap(p)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// ListByBill returns the payments of a bill, oldest first.
func (r *PaymentRepo) ListByBill(ctx context.Context, billID id.ID) ([]*billing.Payment, error) {
	sql, args, err := postgres.Builder().
		Select(paymentCols...).
		From(TablePayments).
		Where(squirrel.Eq{"bill_id": billID}).
		OrderBy("paid_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := []*billing.Payment{}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return items, nil
}
