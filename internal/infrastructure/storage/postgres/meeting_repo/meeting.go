// Package meeting_repo persists meeting requests.
package meeting_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"resido/internal/core/apperror"
	"resido/internal/core/id"
	"resido/internal/domain/meeting"
	"resido/internal/infrastructure/storage/postgres"
)

const TableMeetings = "meeting_requests"

var cols = postgres.Columns[meeting.Request]()

// Repo implements meeting.Repository.
type Repo struct {
	txm *postgres.TxManager
}

var _ meeting.Repository = (*Repo)(nil)

// NewRepo creates the meeting repository.
func NewRepo(txm *postgres.TxManager) *Repo {
	return &Repo{txm: txm}
}

// Create inserts a request.
func (r *Repo) Create(ctx context.Context, req *meeting.Request) error {
	sql, args, err := postgres.Builder().Insert(TableMeetings).SetMap(postgres.StructToMap(req)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsPgError(err, postgres.PgForeignKeyViolation) {
			return apperror.NewValidation("resident does not exist").WithCause(err)
		}
		return fmt.Errorf("insert meeting request: %w", err)
	}
	return nil
}

// GetForUpdate loads a request and locks it.
func (r *Repo) GetForUpdate(ctx context.Context, requestID id.ID) (*meeting.Request, error) {
	sql, args, err := postgres.Builder().
		Select(cols...).
		From(TableMeetings).
		Where(squirrel.Eq{"id": requestID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var req meeting.Request
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &req, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("meeting request", requestID.String())
		}
		return nil, fmt.Errorf("get meeting request: %w", err)
	}
	return &req, nil
}

// SaveDecision stores the decision columns.
func (r *Repo) SaveDecision(ctx context.Context, req *meeting.Request) error {
	sql, args, err := postgres.Builder().
		Update(TableMeetings).
		Set("status", string(req.Status)).
		Set("decided_by", req.DecidedBy).
		Set("decided_at", req.DecidedAt).
		Set("note", req.Note).
		Set("updated_at", req.UpdatedAt).
		Where(squirrel.Eq{"id": req.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update meeting request: %w", err)
	}
	return nil
}

func listSQL(residentID *id.ID, status meeting.Status) (string, []any, error) {
	sb := postgres.Builder().Select(cols...).From(TableMeetings)
	if residentID != nil {
		sb = sb.Where(squirrel.Eq{"resident_id": *residentID})
	}
	if status != "" {
		sb = sb.Where(squirrel.Eq{"status": string(status)})
	}
	return sb.OrderBy("created_at DESC", "id DESC").ToSql()
}

// List returns requests newest first.
func (r *Repo) List(ctx context.Context, residentID *id.ID, status meeting.Status) ([]*meeting.Request, error) {
	sql, args, err := listSQL(residentID, status)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	items := []*meeting.Request{}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list meeting requests: %w", err)
	}
	return items, nil
}
