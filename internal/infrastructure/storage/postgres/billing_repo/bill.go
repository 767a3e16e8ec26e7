// Package billing_repo persists bills and payments.
package billing_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resido/internal/core/apperror"
	"resido/internal/core/id"
	"resido/internal/domain/billing"
	"resido/internal/domain/filter"
	"resido/internal/infrastructure/storage/postgres"
)

const (
	TableBills     = "bills"
	TablePayments  = "payments"
	tableResidents = "residents"
)

var tracer = otel.Tracer("resido/billing_repo")

// Relations resolves the relation paths of billing.BillSpec.
var Relations = postgres.RelationGraph{
	TableBills: {
		billing.RelResident: {Table: tableResidents, LocalKey: "resident_id", ForeignKey: "id"},
	},
}

var billCols = postgres.Columns[billing.Bill]()

// BillRepo implements billing.BillRepository.
type BillRepo struct {
	txm     *postgres.TxManager
	planner *postgres.Planner
}

var _ billing.BillRepository = (*BillRepo)(nil)

// NewBillRepo creates the bill repository.
func NewBillRepo(txm *postgres.TxManager) *BillRepo {
	return &BillRepo{
		txm:     txm,
		planner: postgres.NewPlanner(TableBills, billCols, Relations),
	}
}

func (r *BillRepo) filtered(q filter.Query) (squirrel.SelectBuilder, error) {
	cols := make([]string, len(billCols))
	for i, c := range billCols {
		cols[i] = TableBills + "." + c
	}
	return r.planner.Where(postgres.Builder().Select(cols...).From(TableBills), q.Conditions())
}

func (r *BillRepo) findSQL(q filter.Query) (string, []any, error) {
	sb, err := r.filtered(q)
	if err != nil {
		return "", nil, err
	}
	if sb, err = r.planner.OrderBy(sb, q.Sort); err != nil {
		return "", nil, err
	}
	return r.planner.Page(sb, q.Page).ToSql()
}

func (r *BillRepo) countSQL(q filter.Query) (string, []any, error) {
	sb, err := r.filtered(q)
	if err != nil {
		return "", nil, err
	}
	return postgres.Builder().Select("COUNT(*)").FromSelect(sb, "sub").ToSql()
}

// Find returns the page of bills matching q.
func (r *BillRepo) Find(ctx context.Context, q filter.Query) ([]*billing.Bill, error) {
	ctx, span := tracer.Start(ctx, "find bills", trace.WithAttributes(
		attribute.Int("filter.predicates", len(q.Predicates)),
		attribute.String("filter.sort", q.Sort.String()),
	))
	defer span.End()

	sql, args, err := r.findSQL(q)
	if err != nil {
		return nil, fmt.Errorf("build bills query: %w", err)
	}
	var items []*billing.Bill
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("find bills: %w", err)
	}
	return items, nil
}

// Count returns the number of bills matching q.
func (r *BillRepo) Count(ctx context.Context, q filter.Query) (int64, error) {
	sql, args, err := r.countSQL(q)
	if err != nil {
		return 0, fmt.Errorf("build bills count: %w", err)
	}
	var total int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count bills: %w", err)
	}
	return total, nil
}

// Create inserts a bill.
func (r *BillRepo) Create(ctx context.Context, b *billing.Bill) error {
	sql, args, err := postgres.Builder().Insert(TableBills).SetMap(postgres.StructToMap(b)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		switch {
		case postgres.IsPgError(err, postgres.PgUniqueViolation):
			return apperror.NewDuplicate("bill", "number", b.Number).WithCause(err)
		case postgres.IsPgError(err, postgres.PgForeignKeyViolation):
			return apperror.NewValidation("resident does not exist").
				WithDetail("field", "residentId").
				WithCause(err)
		}
		return fmt.Errorf("insert bill: %w", err)
	}
	return nil
}

// GetByID loads one bill.
func (r *BillRepo) GetByID(ctx context.Context, billID id.ID) (*billing.Bill, error) {
	return r.get(ctx, billID, false)
}

// GetForUpdate loads one bill with a row lock.
func (r *BillRepo) GetForUpdate(ctx context.Context, billID id.ID) (*billing.Bill, error) {
	return r.get(ctx, billID, true)
}

func (r *BillRepo) get(ctx context.Context, billID id.ID, lock bool) (*billing.Bill, error) {
	sb := postgres.Builder().
		Select(billCols...).
		From(TableBills).
		Where(squirrel.Eq{"id": billID})
	if lock {
		sb = sb.Suffix("FOR UPDATE")
	}
	sql, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b billing.Bill
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("bill", billID.String())
		}
		return nil, fmt.Errorf("get bill: %w", err)
	}
	return &b, nil
}

// SaveSettlement stores the paid amount and status.
func (r *BillRepo) SaveSettlement(ctx context.Context, b *billing.Bill) error {
	sql, args, err := postgres.Builder().
		Update(TableBills).
		Set("paid_amount", b.PaidAmount).
		Set("status", string(b.Status)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": b.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("bill", b.ID.String())
	}
	return nil
}
