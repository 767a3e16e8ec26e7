package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"resido/internal/core/apperror"
	appctx "resido/internal/core/context"
)

// JWTValidator validates access tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth validates the bearer token and puts the principal into the request context.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		user, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), user))
		c.Set("user_id", user.UserID)
		c.Set("class", string(user.Class))
		c.Next()
	}
}

// RequireClass lets through principals of any of the given classes.
func RequireClass(classes ...appctx.Class) gin.HandlerFunc {
	names := make([]string, len(classes))
	for i, cl := range classes {
		names[i] = string(cl)
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if appctx.GetUser(ctx) == nil {
			abortUnauthorized(c, "authentication required")
			return
		}
		if !appctx.HasClass(ctx, classes...) {
			_ = c.Error(
				apperror.NewForbidden("insufficient permissions").
					WithDetail("required_class", names),
			)
			c.Abort()
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
