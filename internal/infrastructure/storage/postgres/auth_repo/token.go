package auth_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"resido/internal/core/apperror"
	appctx "resido/internal/core/context"
	"resido/internal/core/id"
	"resido/internal/domain/auth"
	"resido/internal/infrastructure/storage/postgres"
)

// TokenRepo implements auth.TokenRepository.
type TokenRepo struct {
	txm *postgres.TxManager
}

var _ auth.TokenRepository = (*TokenRepo)(nil)

// NewTokenRepo creates a new token repository.
func NewTokenRepo(txm *postgres.TxManager) *TokenRepo {
	return &TokenRepo{txm: txm}
}

// SaveRefreshToken saves a refresh token.
func (r *TokenRepo) SaveRefreshToken(ctx context.Context, token *auth.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, account_id, class, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.txm.GetQuerier(ctx).Exec(ctx, query,
		token.ID, token.AccountID, string(token.Class), token.TokenHash, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken retrieves refresh token by hash.
func (r *TokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	query := `
		SELECT id, account_id, class, token_hash, expires_at, created_at, revoked_at, revoked_reason
		FROM refresh_tokens WHERE token_hash = $1
	`
	var token auth.RefreshToken
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &token, query, tokenHash); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("token", "")
		}
		return nil, fmt.Errorf("query token: %w", err)
	}
	return &token, nil
}

// RevokeRefreshToken revokes a refresh token.
func (r *TokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	query := `UPDATE refresh_tokens SET revoked_at = now(), revoked_reason = $2 WHERE id = $1`
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, query, tokenID, reason); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// RevokeAllTokens revokes every live token of an account.
func (r *TokenRepo) RevokeAllTokens(ctx context.Context, class appctx.Class, accountID id.ID, reason string) error {
	query := `
		UPDATE refresh_tokens SET revoked_at = now(), revoked_reason = $3
		WHERE account_id = $1 AND class = $2 AND revoked_at IS NULL
	`
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, query, accountID, string(class), reason); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}
	return nil
}

// CleanupExpiredTokens removes expired tokens and those revoked over a week ago.
func (r *TokenRepo) CleanupExpiredTokens(ctx context.Context) (int, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < now() OR revoked_at < now() - INTERVAL '7 days'`
	result, err := r.txm.GetQuerier(ctx).Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("cleanup tokens: %w", err)
	}
	return int(result.RowsAffected()), nil
}
