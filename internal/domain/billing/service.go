package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"resido/internal/core/apperror"
	appctx "resido/internal/core/context"
	"resido/internal/core/id"
	"resido/internal/core/numerator"
	"resido/internal/core/tx"
	"resido/internal/domain"
	"resido/internal/domain/filter"
	"resido/pkg/logger"
)

// NumberPrefix is the prefix of bill numbers, e.g. BILL-2026-00001.
const NumberPrefix = "BILL"

// Service issues bills and records payments.
type Service struct {
	bills     BillRepository
	payments  PaymentRepository
	compiler  *filter.Compiler
	numerator numerator.Generator
	numbering numerator.Config
	txManager tx.ReadOnlyManager
	now       func() time.Time
}

// NewService creates the billing service.
func NewService(
	bills BillRepository,
	payments PaymentRepository,
	compiler *filter.Compiler,
	gen numerator.Generator,
	txm tx.ReadOnlyManager,
) *Service {
	return &Service{
		bills:     bills,
		payments:  payments,
		compiler:  compiler,
		numerator: gen,
		numbering: numerator.DefaultConfig(NumberPrefix),
		txManager: txm,
		now:       time.Now,
	}
}

// ListBills returns the page of bills matching params.
// Residents only ever see their own bills, whatever resident_id they pass.
// Without a direction the earliest due bill comes first.
func (s *Service) ListBills(ctx context.Context, params filter.Params) (domain.ListResult[*Bill], error) {
	q, err := s.compiler.Compile(filter.KindBill, params, filter.RequestOptions(params, filter.WithDefaultDirection(filter.Asc))...)
	if err != nil {
		return domain.ListResult[*Bill]{}, err
	}
	if q, err = restrictToResident(ctx, q); err != nil {
		return domain.ListResult[*Bill]{}, err
	}

	logger.Debug(ctx, "bill listing compiled", "predicates", len(q.Predicates), "sort", q.Sort.String())

	var (
		items []*Bill
		total int64
	)
	err = s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		if items, err = s.bills.Find(ctx, q); err != nil {
			return err
		}
		total, err = s.bills.Count(ctx, q)
		return err
	})
	if err != nil {
		return domain.ListResult[*Bill]{}, err
	}
	return domain.NewListResult(items, total, q.Page), nil
}

func restrictToResident(ctx context.Context, q filter.Query) (filter.Query, error) {
	u := appctx.GetUser(ctx)
	if u == nil || u.Class != appctx.ClassResident {
		return q, nil
	}
	residentID, err := id.Parse(u.UserID)
	if err != nil {
		return q, apperror.NewUnauthorized("invalid principal")
	}

	kept := q.Predicates[:0:0]
	for _, p := range q.Predicates {
		if p.Field == "resident_id" && p.Relation == "" {
			continue
		}
		kept = append(kept, p)
	}
	q.Predicates = append(kept, filter.Predicate{Field: "resident_id", Operator: filter.Equal, Value: residentID})
	return q, nil
}

// CreateBill numbers and stores a new bill.
func (s *Service) CreateBill(ctx context.Context, b *Bill) error {
	b.normalize()
	if b.Status == "" {
		b.Status = StatusUnpaid
	}
	if err := b.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.GetNextNumber(ctx, s.numbering, nil, s.now())
		if err != nil {
			return fmt.Errorf("number bill: %w", err)
		}
		b.Number = number
		if err := s.bills.Create(ctx, b); err != nil {
			return fmt.Errorf("create bill: %w", err)
		}
		logger.Info(ctx, "bill issued", "number", b.Number, "resident_id", b.ResidentID.String(), "amount", b.Amount.String())
		return nil
	})
}

// GetBill loads a bill visible to the caller.
func (s *Service) GetBill(ctx context.Context, billID id.ID) (*Bill, error) {
	b, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// checkOwner hides other residents' bills behind NOT_FOUND.
func checkOwner(ctx context.Context, b *Bill) error {
	u := appctx.GetUser(ctx)
	if u != nil && u.Class == appctx.ClassResident && u.UserID != b.ResidentID.String() {
		return apperror.NewNotFound("bill", b.ID.String())
	}
	return nil
}

// PaymentInput is a payment request.
type PaymentInput struct {
	Amount decimal.Decimal
	Method Method
	PaidAt time.Time
}

// Pay records a payment and recomputes the bill status in one transaction.
func (s *Service) Pay(ctx context.Context, billID id.ID, in PaymentInput) (*Payment, *Bill, error) {
	in.Method = Method(strings.ToLower(strings.TrimSpace(string(in.Method))))
	if in.Method == "" {
		in.Method = MethodCard
	}
	if !in.Method.Valid() {
		return nil, nil, apperror.NewValidation("unknown payment method").
			WithDetail("field", "method").
			WithDetail("value", string(in.Method))
	}

	var (
		payment *Payment
		bill    *Bill
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.bills.GetForUpdate(ctx, billID)
		if err != nil {
			return err
		}
		if err := checkOwner(ctx, b); err != nil {
			return err
		}
		if err := b.ApplyPayment(in.Amount); err != nil {
			return err
		}

		now := s.now().UTC()
		p := &Payment{
			ID:        id.New(),
			BillID:    b.ID,
			Amount:    in.Amount,
			Method:    in.Method,
			PaidAt:    now,
			CreatedAt: now,
		}
		if !in.PaidAt.IsZero() {
			p.PaidAt = in.PaidAt.UTC()
		}
		if err := s.payments.Create(ctx, p); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		if err := s.bills.SaveSettlement(ctx, b); err != nil {
			return fmt.Errorf("settle bill: %w", err)
		}
		payment, bill = p, b
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "payment recorded",
		"bill", bill.Number,
		"amount", payment.Amount.String(),
		"status", string(bill.Status),
	)
	return payment, bill, nil
}

// Payments lists the payments of a bill visible to the caller.
func (s *Service) Payments(ctx context.Context, billID id.ID) ([]*Payment, error) {
	if _, err := s.GetBill(ctx, billID); err != nil {
		return nil, err
	}
	return s.payments.ListByBill(ctx, billID)
}
