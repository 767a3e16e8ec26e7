package auth

import (
	"context"

	appctx "resido/internal/core/context"
	"resido/internal/core/id"
)

// AccountRepository reads and updates login accounts of every class.
type AccountRepository interface {
	GetByEmail(ctx context.Context, class appctx.Class, email string) (*Account, error)
	GetByID(ctx context.Context, class appctx.Class, accountID id.ID) (*Account, error)

	// SaveLoginState persists the login counters, lock and last login time.
	SaveLoginState(ctx context.Context, account *Account) error

	// Create inserts a platform user or administrator. Residents are created
	// through the property domain since they belong to a home.
	Create(ctx context.Context, account *Account) error
}

// TokenRepository stores refresh tokens.
type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error
	RevokeAllTokens(ctx context.Context, class appctx.Class, accountID id.ID, reason string) error
	CleanupExpiredTokens(ctx context.Context) (int, error)
}
