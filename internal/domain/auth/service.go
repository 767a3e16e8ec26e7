package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"resido/internal/core/apperror"
	appctx "resido/internal/core/context"
	"resido/internal/core/id"
	"resido/internal/core/tx"
	"resido/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts   int
	LockDuration       time.Duration
	PasswordMinLength  int
	RefreshTokenExpiry time.Duration
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:   5,
		LockDuration:       15 * time.Minute,
		PasswordMinLength:  8,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	}
}

// Service authenticates accounts and issues tokens.
type Service struct {
	accounts   AccountRepository
	tokens     TokenRepository
	txManager  tx.Manager
	jwtService *JWTService
	config     ServiceConfig
}

// NewService creates a new auth service.
func NewService(
	accounts AccountRepository,
	tokens TokenRepository,
	txManager tx.Manager,
	jwtService *JWTService,
	config ServiceConfig,
) *Service {
	return &Service{
		accounts:   accounts,
		tokens:     tokens,
		txManager:  txManager,
		jwtService: jwtService,
		config:     config,
	}
}

// HashPassword returns the bcrypt hash stored for a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword validates the minimum length policy.
func (s *Service) CheckPassword(password string) error {
	if len(password) < s.config.PasswordMinLength {
		return apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}
	return nil
}

// CreateAccount registers a platform user or an administrator.
func (s *Service) CreateAccount(ctx context.Context, class appctx.Class, email, password, firstName, lastName string) (*Account, error) {
	if class != appctx.ClassUser && class != appctx.ClassAdmin {
		return nil, apperror.NewValidation("only users and administrators can be created here").
			WithDetail("field", "class")
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if err := s.CheckPassword(password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	account := &Account{
		ID:           id.New(),
		Class:        class,
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create %s: %w", class, err)
	}

	logger.Info(ctx, "account created", "account_id", account.ID, "class", string(class))
	return account, nil
}

// Login authenticates creds against the accounts of class.
func (s *Service) Login(ctx context.Context, class appctx.Class, creds Credentials) (*TokenPair, *Account, error) {
	if !class.Valid() {
		return nil, nil, apperror.NewValidation("unknown account class").WithDetail("class", string(class))
	}

	account, err := s.accounts.GetByEmail(ctx, class, normalizeEmail(creds.Email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	account.Class = class

	if err := account.CanLogin(); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(creds.Password)); err != nil {
		account.RecordFailedLogin(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.accounts.SaveLoginState(ctx, account); err != nil {
			logger.Warn(ctx, "failed to record failed login", "error", err)
		}
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	var pair *TokenPair
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if pair, err = s.generateTokenPair(ctx, account); err != nil {
			return err
		}
		account.RecordSuccessfulLogin()
		return s.accounts.SaveLoginState(ctx, account)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}

	logger.Info(ctx, "account logged in", "account_id", account.ID, "class", string(class))
	return pair, account, nil
}

// Refresh exchanges a refresh token for a new pair, revoking the old token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.tokens.GetRefreshToken(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid refresh token")
	}
	if !token.IsValid() {
		return nil, apperror.NewUnauthorized("refresh token expired or revoked")
	}

	account, err := s.accounts.GetByID(ctx, token.Class, token.AccountID)
	if err != nil {
		return nil, apperror.NewUnauthorized("account not found")
	}
	account.Class = token.Class
	if err := account.CanLogin(); err != nil {
		return nil, err
	}

	var pair *TokenPair
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.tokens.RevokeRefreshToken(ctx, token.ID, "refreshed"); err != nil {
			return err
		}
		var err error
		pair, err = s.generateTokenPair(ctx, account)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return pair, nil
}

// Logout revokes every refresh token of the current principal.
func (s *Service) Logout(ctx context.Context) error {
	principal, accountID, err := currentPrincipal(ctx)
	if err != nil {
		return err
	}
	return s.tokens.RevokeAllTokens(ctx, principal.Class, accountID, "logout")
}

// Me returns the account of the current principal.
func (s *Service) Me(ctx context.Context) (*Account, error) {
	principal, accountID, err := currentPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.GetByID(ctx, principal.Class, accountID)
	if err != nil {
		return nil, err
	}
	account.Class = principal.Class
	return account, nil
}

// CleanupTokens deletes expired and long-revoked refresh tokens.
func (s *Service) CleanupTokens(ctx context.Context) (int, error) {
	return s.tokens.CleanupExpiredTokens(ctx)
}

func currentPrincipal(ctx context.Context) (*appctx.UserContext, id.ID, error) {
	principal := appctx.GetUser(ctx)
	if principal == nil {
		return nil, id.Nil(), apperror.NewUnauthorized("authentication required")
	}
	accountID, err := id.Parse(principal.UserID)
	if err != nil {
		return nil, id.Nil(), apperror.NewUnauthorized("invalid principal")
	}
	return principal, accountID, nil
}

func (s *Service) generateTokenPair(ctx context.Context, account *Account) (*TokenPair, error) {
	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(account)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	raw, err := generateRandomToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := time.Now().UTC()
	refresh := &RefreshToken{
		ID:        id.New(),
		AccountID: account.ID,
		Class:     account.Class,
		TokenHash: hashToken(raw),
		ExpiresAt: now.Add(s.config.RefreshTokenExpiry),
		CreatedAt: now,
	}
	if err := s.tokens.SaveRefreshToken(ctx, refresh); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: raw,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
		Class:        account.Class,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func generateRandomToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
