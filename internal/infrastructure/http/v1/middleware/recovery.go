// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"resido/internal/core/apperror"
	"resido/pkg/logger"
)

// Recovery turns a panic into a 500. It sits outside ErrorHandler, so it renders the body itself.
// The stack is logged, never returned to the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", err,
					"stack", string(debug.Stack()),
				)

				requestID := c.GetString(KeyRequestID)
				_ = c.Error(
					apperror.NewInternal(fmt.Errorf("panic: %v", err)).
						WithDetail("request_id", requestID),
				)
				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"code":    apperror.CodeInternal,
						"message": "Internal server error",
						"details": map[string]any{"request_id": requestID},
					})
					return
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
