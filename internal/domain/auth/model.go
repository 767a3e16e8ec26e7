// Package auth authenticates the three account classes: platform users,
// administrators and residents.
package auth

import (
	"time"

	"resido/internal/core/apperror"
	appctx "resido/internal/core/context"
	"resido/internal/core/id"
)

// Account is the login view shared by the users, admins and residents tables.
type Account struct {
	ID                  id.ID        `db:"id" json:"id"`
	Class               appctx.Class `db:"-" json:"class"`
	Email               string       `db:"email" json:"email"`
	PasswordHash        string       `db:"password_hash" json:"-"`
	FirstName           string       `db:"first_name" json:"firstName,omitempty"`
	LastName            string       `db:"last_name" json:"lastName,omitempty"`
	IsActive            bool         `db:"is_active" json:"isActive"`
	LastLoginAt         *time.Time   `db:"last_login_at" json:"lastLoginAt,omitempty"`
	FailedLoginAttempts int          `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time   `db:"locked_until" json:"-"`
	CreatedAt           time.Time    `db:"created_at" json:"createdAt"`
}

// IsLocked reports whether too many failed logins locked the account.
func (a *Account) IsLocked() bool {
	if a.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*a.LockedUntil)
}

// CanLogin checks the account is active and not locked.
func (a *Account) CanLogin() error {
	if !a.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	if a.IsLocked() {
		return apperror.NewForbidden("account is temporarily locked")
	}
	return nil
}

// RecordFailedLogin increments the failure counter and locks after maxAttempts.
func (a *Account) RecordFailedLogin(maxAttempts int, lockDuration time.Duration) {
	a.FailedLoginAttempts++
	if a.FailedLoginAttempts >= maxAttempts {
		until := time.Now().Add(lockDuration)
		a.LockedUntil = &until
	}
}

// RecordSuccessfulLogin resets the failure counter.
func (a *Account) RecordSuccessfulLogin() {
	a.FailedLoginAttempts = 0
	a.LockedUntil = nil
	now := time.Now()
	a.LastLoginAt = &now
}

// FullName returns the display name, falling back to the email.
func (a *Account) FullName() string {
	switch {
	case a.FirstName == "" && a.LastName == "":
		return a.Email
	case a.LastName == "":
		return a.FirstName
	case a.FirstName == "":
		return a.LastName
	}
	return a.FirstName + " " + a.LastName
}

// RefreshToken is a stored, hashed refresh token.
type RefreshToken struct {
	ID            id.ID        `db:"id"`
	AccountID     id.ID        `db:"account_id"`
	Class         appctx.Class `db:"class"`
	TokenHash     string       `db:"token_hash"`
	ExpiresAt     time.Time    `db:"expires_at"`
	CreatedAt     time.Time    `db:"created_at"`
	RevokedAt     *time.Time   `db:"revoked_at"`
	RevokedReason *string      `db:"revoked_reason"`
}

// IsValid reports whether the token is neither revoked nor expired.
func (t *RefreshToken) IsValid() bool {
	if t.RevokedAt != nil {
		return false
	}
	return time.Now().Before(t.ExpiresAt)
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	TokenType    string       `json:"tokenType"`
	Class        appctx.Class `json:"class"`
}

// Credentials for login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
