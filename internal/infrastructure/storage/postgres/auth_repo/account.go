// Package auth_repo provides PostgreSQL implementations for auth repositories.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"resido/internal/core/apperror"
	appctx "resido/internal/core/context"
	"resido/internal/core/id"
	"resido/internal/domain/auth"
	"resido/internal/infrastructure/storage/postgres"
)

// classTables maps each account class onto its table.
var classTables = map[appctx.Class]string{
	appctx.ClassUser:     "users",
	appctx.ClassAdmin:    "admins",
	appctx.ClassResident: "residents",
}

var accountCols = postgres.Columns[auth.Account]()

// AccountRepo implements auth.AccountRepository.
type AccountRepo struct {
	txm *postgres.TxManager
}

var _ auth.AccountRepository = (*AccountRepo)(nil)

// NewAccountRepo creates a new account repository.
func NewAccountRepo(txm *postgres.TxManager) *AccountRepo {
	return &AccountRepo{txm: txm}
}

func tableFor(class appctx.Class) (string, error) {
	table, ok := classTables[class]
	if !ok {
		return "", apperror.NewValidation("unknown account class").WithDetail("class", string(class))
	}
	return table, nil
}

// GetByEmail retrieves an active or inactive account by email.
func (r *AccountRepo) GetByEmail(ctx context.Context, class appctx.Class, email string) (*auth.Account, error) {
	return r.getOne(ctx, class, squirrel.Eq{"email": email}, email)
}

// GetByID retrieves an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, class appctx.Class, accountID id.ID) (*auth.Account, error) {
	return r.getOne(ctx, class, squirrel.Eq{"id": accountID}, accountID.String())
}

func (r *AccountRepo) getOne(ctx context.Context, class appctx.Class, where squirrel.Eq, key string) (*auth.Account, error) {
	table, err := tableFor(class)
	if err != nil {
		return nil, err
	}

	sql, args, err := postgres.Builder().
		Select(accountCols...).
		From(table).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var account auth.Account
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &account, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(string(class), key)
		}
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	account.Class = class
	return &account, nil
}

// SaveLoginState persists login counters.
func (r *AccountRepo) SaveLoginState(ctx context.Context, account *auth.Account) error {
	table, err := tableFor(account.Class)
	if err != nil {
		return err
	}

	sql, args, err := postgres.Builder().
		Update(table).
		Set("last_login_at", account.LastLoginAt).
		Set("failed_login_attempts", account.FailedLoginAttempts).
		Set("locked_until", account.LockedUntil).
		Where(squirrel.Eq{"id": account.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(string(account.Class), account.ID.String())
	}
	return nil
}

// Create inserts a user or administrator.
func (r *AccountRepo) Create(ctx context.Context, account *auth.Account) error {
	if account.Class == appctx.ClassResident {
		return apperror.NewValidation("residents are created with their home").WithDetail("class", string(account.Class))
	}
	table, err := tableFor(account.Class)
	if err != nil {
		return err
	}

	sql, args, err := postgres.Builder().
		Insert(table).
		SetMap(postgres.StructToMap(account)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsPgError(err, postgres.PgUniqueViolation) {
			return apperror.NewDuplicate(string(account.Class), "email", account.Email).WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}
