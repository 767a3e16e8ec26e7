// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"resido/internal/core/apperror"
	appctx "resido/internal/core/context"
	"resido/internal/domain/auth"
	"resido/internal/infrastructure/http/v1/dto"
)

// AuthService is what AuthHandler needs from auth.Service.
type AuthService interface {
	Login(ctx context.Context, class appctx.Class, creds auth.Credentials) (*auth.TokenPair, *auth.Account, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*auth.Account, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service AuthService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Login handles POST /auth/:class/login
func (h *AuthHandler) Login(c *gin.Context) {
	class := appctx.Class(c.Param("class"))
	if !class.Valid() {
		h.Error(c, apperror.NewNotFound("account class", c.Param("class")))
		return
	}

	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, account, err := h.service.Login(c.Request.Context(), class, req.ToCredentials())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.LoginResponse{
		Tokens:  dto.FromTokenPair(tokens),
		Account: dto.FromAccount(account),
	})
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromTokenPair(tokens))
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context()); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	account, err := h.service.Me(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromAccount(account))
}
