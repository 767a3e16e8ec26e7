// Package property_repo executes compiled filter plans against PostgreSQL
// and persists the property aggregates.
package property_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resido/internal/core/apperror"
	"resido/internal/core/id"
	"resido/internal/domain/filter"
	"resido/internal/infrastructure/storage/postgres"
)

var tracer = otel.Tracer("resido/property_repo")

// baseRepo provides the table CRUD and the filter-plan executor shared by the property tables.
type baseRepo[T any] struct {
	txm     *postgres.TxManager
	table   string
	cols    []string
	planner *postgres.Planner
	newFn   func() T
}

func newBaseRepo[T any](txm *postgres.TxManager, table string, cols []string, newFn func() T) *baseRepo[T] {
	return &baseRepo[T]{
		txm:     txm,
		table:   table,
		cols:    cols,
		planner: postgres.NewPlanner(table, cols, Relations),
		newFn:   newFn,
	}
}

func (r *baseRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

func (r *baseRepo[T]) qualifiedCols() []string {
	out := make([]string, len(r.cols))
	for i, c := range r.cols {
		out[i] = r.table + "." + c
	}
	return out
}

// filtered builds SELECT ... WHERE for the plan's predicates and search, without order or page.
func (r *baseRepo[T]) filtered(q filter.Query) (squirrel.SelectBuilder, error) {
	sb := postgres.Builder().Select(r.qualifiedCols()...).From(r.table)
	return r.planner.Where(sb, q.Conditions())
}

// findSQL renders the full page query of q.
func (r *baseRepo[T]) findSQL(q filter.Query) (string, []any, error) {
	sb, err := r.filtered(q)
	if err != nil {
		return "", nil, err
	}
	if sb, err = r.planner.OrderBy(sb, q.Sort); err != nil {
		return "", nil, err
	}
	return r.planner.Page(sb, q.Page).ToSql()
}

// countSQL renders the count of q's rows, ignoring sort and page.
func (r *baseRepo[T]) countSQL(q filter.Query) (string, []any, error) {
	sb, err := r.filtered(q)
	if err != nil {
		return "", nil, err
	}
	return postgres.Builder().Select("COUNT(*)").FromSelect(sb, "sub").ToSql()
}

// Find returns the rows matching q.
func (r *baseRepo[T]) Find(ctx context.Context, q filter.Query) ([]T, error) {
	ctx, span := tracer.Start(ctx, "find "+r.table, trace.WithAttributes(
		attribute.Int("filter.predicates", len(q.Predicates)),
		attribute.String("filter.sort", q.Sort.String()),
	))
	defer span.End()

	sql, args, err := r.findSQL(q)
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", r.table, err)
	}

	var items []T
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("find %s: %w", r.table, err)
	}
	return items, nil
}

// Count returns the number of rows matching q.
func (r *baseRepo[T]) Count(ctx context.Context, q filter.Query) (int64, error) {
	sql, args, err := r.countSQL(q)
	if err != nil {
		return 0, fmt.Errorf("build %s count: %w", r.table, err)
	}

	var total int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", r.table, err)
	}
	return total, nil
}

// Create inserts entity using its "db" tags.
func (r *baseRepo[T]) Create(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in %T", entity)
	}

	sql, args, err := postgres.Builder().Insert(r.table).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return r.mapWriteErr(err, "insert")
	}
	return nil
}

// GetByID loads one row.
func (r *baseRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	entity := r.newFn()

	sql, args, err := postgres.Builder().
		Select(r.cols...).
		From(r.table).
		Where(squirrel.Eq{"id": entityID}).
		Limit(1).
		ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.table, entityID.String())
		}
		return entity, fmt.Errorf("get %s: %w", r.table, err)
	}
	return entity, nil
}

// Update saves every column but id and created_at, stamping updated_at.
func (r *baseRepo[T]) Update(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity, "id", "created_at")
	entityID := postgres.StructToMap(entity)["id"]
	data["updated_at"] = time.Now().UTC()

	sql, args, err := postgres.Builder().
		Update(r.table).
		SetMap(data).
		Where(squirrel.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return r.mapWriteErr(err, "update")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.table, fmt.Sprint(entityID))
	}
	return nil
}

// Delete removes a row. Rows still referenced elsewhere yield a conflict.
func (r *baseRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	sql, args, err := postgres.Builder().
		Delete(r.table).
		Where(squirrel.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsPgError(err, postgres.PgForeignKeyViolation) {
			return apperror.NewConflict("the record is still referenced").
				WithDetail("entity", r.table).
				WithDetail("id", entityID.String()).
				WithCause(err)
		}
		return fmt.Errorf("delete %s: %w", r.table, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.table, entityID.String())
	}
	return nil
}

func (r *baseRepo[T]) mapWriteErr(err error, op string) error {
	switch {
	case postgres.IsPgError(err, postgres.PgUniqueViolation):
		field := strings.TrimPrefix(postgres.PgConstraint(err), r.table+"_")
		field = strings.TrimSuffix(field, "_key")
		return apperror.NewDuplicate(r.table, field, "").WithCause(err)
	case postgres.IsPgError(err, postgres.PgForeignKeyViolation):
		return apperror.NewValidation("referenced record does not exist").
			WithDetail("constraint", postgres.PgConstraint(err)).
			WithCause(err)
	}
	return fmt.Errorf("%s %s: %w", op, r.table, err)
}
