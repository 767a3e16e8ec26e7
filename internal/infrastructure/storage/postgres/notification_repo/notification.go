// Package notification_repo persists notifications and finds bills needing reminders.
package notification_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"resido/internal/core/id"
	"resido/internal/domain/notification"
	"resido/internal/infrastructure/storage/postgres"
)

const TableNotifications = "notifications"

var cols = postgres.Columns[notification.Notification]()

// Repo implements notification.Repository.
type Repo struct {
	txm *postgres.TxManager
}

var _ notification.Repository = (*Repo)(nil)

// NewRepo creates the notification repository.
func NewRepo(txm *postgres.TxManager) *Repo {
	return &Repo{txm: txm}
}

func dueBillsSQL(from, until time.Time) (string, []any, error) {
	return postgres.Builder().
		Select("b.id", "b.resident_id", "b.number", "b.amount", "b.paid_amount", "b.currency", "b.due_date").
		From("bills AS b").
		Where(squirrel.Eq{"b.status": []string{"unpaid", "partial"}}).
		Where(squirrel.GtOrEq{"b.due_date": from}).
		Where(squirrel.LtOrEq{"b.due_date": until}).
		Where(squirrel.Expr("NOT EXISTS (SELECT 1 FROM notifications AS n WHERE n.bill_id = b.id AND n.kind = ?)",
			string(notification.KindBillReminder))).
		OrderBy("b.due_date ASC", "b.id ASC").
		ToSql()
}

// DueBills implements notification.Repository.
func (r *Repo) DueBills(ctx context.Context, from, until time.Time) ([]notification.DueBill, error) {
	sql, args, err := dueBillsSQL(from, until)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []notification.DueBill
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("due bills: %w", err)
	}
	return out, nil
}

// CreateMany copies items into the table; it needs a transaction.
func (r *Repo) CreateMany(ctx context.Context, items []*notification.Notification) (int64, error) {
	rows := make([][]any, len(items))
	for i, n := range items {
		data := postgres.StructToMap(n)
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = data[c]
		}
		rows[i] = row
	}
	return r.txm.CopyRows(ctx, TableNotifications, cols, rows)
}

// Deliver implements notification.Repository.
func (r *Repo) Deliver(ctx context.Context, now time.Time) (int64, error) {
	sql, args, err := postgres.Builder().
		Update(TableNotifications).
		Set("sent_at", now).
		Where(squirrel.Eq{"sent_at": nil}).
		Where(squirrel.LtOrEq{"scheduled_for": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("deliver notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteReadBefore implements notification.Repository.
func (r *Repo) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	sql, args, err := postgres.Builder().
		Delete(TableNotifications).
		Where(squirrel.NotEq{"read_at": nil}).
		Where(squirrel.Lt{"read_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

func listSQL(residentID id.ID, unreadOnly bool, now time.Time) (string, []any, error) {
	sb := postgres.Builder().
		Select(cols...).
		From(TableNotifications).
		Where(squirrel.Eq{"resident_id": residentID}).
		Where(squirrel.LtOrEq{"scheduled_for": now})
	if unreadOnly {
		sb = sb.Where(squirrel.Eq{"read_at": nil})
	}
	return sb.OrderBy("scheduled_for DESC", "id DESC").Limit(200).ToSql()
}

// ListForResident implements notification.Repository.
func (r *Repo) ListForResident(ctx context.Context, residentID id.ID, unreadOnly bool, now time.Time) ([]*notification.Notification, error) {
	sql, args, err := listSQL(residentID, unreadOnly, now)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	items := []*notification.Notification{}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

// MarkRead implements notification.Repository. Already read notifications keep their first read time.
func (r *Repo) MarkRead(ctx context.Context, notificationID, residentID id.ID, at time.Time) (bool, error) {
	sql, args, err := postgres.Builder().
		Update(TableNotifications).
		Set("read_at", squirrel.Expr("COALESCE(read_at, ?)", at)).
		Where(squirrel.Eq{"id": notificationID, "resident_id": residentID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("mark read: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
