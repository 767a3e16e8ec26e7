package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appctx "resido/internal/core/context"
	"resido/internal/core/id"
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

// DefaultJWTConfig returns a 15 minute HS256 configuration.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:         secret,
		Issuer:         "resido",
		AccessTokenTTL: 15 * time.Minute,
	}
}

// Claims are the access token claims.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string       `json:"uid"`
	Class     appctx.Class `json:"cls"`
	Email     string       `json:"email"`
}

// JWTService issues and validates access tokens.
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWT service.
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config}
}

// GenerateAccessToken signs a token for account.
func (s *JWTService) GenerateAccessToken(account *Account) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.AccessTokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.New().String(),
			Issuer:    s.config.Issuer,
			Subject:   account.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		AccountID: account.ID.String(),
		Class:     account.Class,
		Email:     account.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies tokenString and returns the principal it carries.
func (s *JWTService) ValidateToken(tokenString string) (*appctx.UserContext, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if !claims.Class.Valid() {
		return nil, fmt.Errorf("unknown account class %q", claims.Class)
	}

	return &appctx.UserContext{
		UserID:    claims.AccountID,
		Class:     claims.Class,
		Email:     claims.Email,
		SessionID: claims.ID,
	}, nil
}
