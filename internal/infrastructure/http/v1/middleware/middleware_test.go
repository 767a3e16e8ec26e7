package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resido/internal/core/apperror"
	appctx "resido/internal/core/context"
	"resido/internal/infrastructure/http/v1/middleware"
	"resido/pkg/logger"
)

type stubValidator struct {
	user *appctx.UserContext
}

func (s stubValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return s.user, nil
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(
		middleware.Recovery(),
		middleware.Trace(),
		middleware.Logger(logger.NewNop()),
		middleware.ErrorHandler(),
	)
	r.GET("/x", handlers...)
	return r
}

func do(r http.Handler, header map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func ok(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"user": appctx.GetUserID(c.Request.Context())}) }

func TestAuth(t *testing.T) {
	v := stubValidator{user: &appctx.UserContext{UserID: "u-1", Class: appctx.ClassResident}}
	r := newEngine(middleware.Auth(v), ok)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
		{"scheme is case-insensitive", "bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := map[string]string{}
			if tt.header != "" {
				h["Authorization"] = tt.header
			}
			w, body := do(r, h)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "u-1", body["user"])
			} else {
				assert.Equal(t, apperror.CodeUnauthorized, body["code"])
			}
		})
	}
}

func TestRequireClass(t *testing.T) {
	v := stubValidator{user: &appctx.UserContext{UserID: "r-1", Class: appctx.ClassResident}}

	t.Run("forbidden class", func(t *testing.T) {
		r := newEngine(middleware.Auth(v), middleware.RequireClass(appctx.ClassAdmin), ok)
		w, body := do(r, map[string]string{"Authorization": "Bearer good"})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, apperror.CodeForbidden, body["code"])
	})

	t.Run("allowed class", func(t *testing.T) {
		r := newEngine(middleware.Auth(v), middleware.RequireClass(appctx.ClassAdmin, appctx.ClassResident), ok)
		w, _ := do(r, map[string]string{"Authorization": "Bearer good"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		r := newEngine(middleware.RequireClass(appctx.ClassAdmin), ok)
		w, _ := do(r, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRecovery(t *testing.T) {
	r := newEngine(func(c *gin.Context) { panic("boom") })

	w, body := do(r, map[string]string{middleware.HeaderRequestID: "req-7"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, body["code"])
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestErrorHandler_UnknownError(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		_ = c.Error(errors.New("db exploded"))
		c.Abort()
	})

	w, body := do(r, map[string]string{middleware.HeaderRequestID: "req-9"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, body["code"])
	assert.NotContains(t, w.Body.String(), "db exploded")
	details, _ := body["details"].(map[string]any)
	assert.Equal(t, "req-9", details["request_id"])
}

func TestTrace_Headers(t *testing.T) {
	r := newEngine(ok)

	w, _ := do(r, map[string]string{middleware.HeaderRequestID: "req-1"})
	assert.Equal(t, "req-1", w.Header().Get(middleware.HeaderRequestID))
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderTraceID))

	w, _ = do(r, nil)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
}
