// Package dto provides data transfer objects for HTTP API.
package dto

import (
	"time"

	"resido/internal/domain/auth"
)

// LoginRequest for password login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r *LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{
		Email:    r.Email,
		Password: r.Password,
	}
}

// RefreshTokenRequest for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// TokenResponse represents token pair response.
type TokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
	Class        string    `json:"class"`
}

// FromTokenPair creates response from domain token pair.
func FromTokenPair(tp *auth.TokenPair) *TokenResponse {
	return &TokenResponse{
		AccessToken:  tp.AccessToken,
		RefreshToken: tp.RefreshToken,
		ExpiresAt:    tp.ExpiresAt,
		TokenType:    tp.TokenType,
		Class:        string(tp.Class),
	}
}

// AccountResponse represents the logged in account.
type AccountResponse struct {
	ID          string     `json:"id"`
	Class       string     `json:"class"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName,omitempty"`
	LastName    string     `json:"lastName,omitempty"`
	FullName    string     `json:"fullName"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// FromAccount creates response from domain account.
func FromAccount(a *auth.Account) *AccountResponse {
	return &AccountResponse{
		ID:          a.ID.String(),
		Class:       string(a.Class),
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		FullName:    a.FullName(),
		IsActive:    a.IsActive,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
	}
}

// LoginResponse includes tokens and account info.
type LoginResponse struct {
	Tokens  *TokenResponse   `json:"tokens"`
	Account *AccountResponse `json:"account"`
}
