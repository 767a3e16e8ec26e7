// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// Class is the kind of account a principal authenticated as.
type Class string

const (
	ClassUser     Class = "user"
	ClassAdmin    Class = "admin"
	ClassResident Class = "resident"
)

// Valid reports whether c is one of the known account classes.
func (c Class) Valid() bool {
	switch c {
	case ClassUser, ClassAdmin, ClassResident:
		return true
	}
	return false
}

// UserContext contains authenticated principal information.
type UserContext struct {
	UserID    string
	Class     Class
	Email     string
	SessionID string
}

// IsAdmin reports whether the principal is an administrator.
func (u *UserContext) IsAdmin() bool {
	return u != nil && u.Class == ClassAdmin
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// GetClass returns the principal class from context or empty string.
func GetClass(ctx context.Context) Class {
	if u := GetUser(ctx); u != nil {
		return u.Class
	}
	return ""
}

// HasClass checks if the principal belongs to any of the given classes.
func HasClass(ctx context.Context, classes ...Class) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	for _, c := range classes {
		if u.Class == c {
			return true
		}
	}
	return false
}
