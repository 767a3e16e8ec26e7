package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"resido/internal/core/apperror"
	"resido/internal/core/id"
	"resido/internal/domain/filter"
	"resido/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// ParseID reads the uuid path parameter key.
func (h *BaseHandler) ParseID(c *gin.Context, key string) (id.ID, bool) {
	raw := c.Param(key)
	v, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id").
			WithDetail("param", key).
			WithDetail("value", raw))
		return id.Nil(), false
	}
	return v, true
}

// FilterParams collects listing parameters from the query string, or from a
// JSON object body on POST search endpoints. On POST the query string still
// applies and the body wins on keys both carry.
func (h *BaseHandler) FilterParams(c *gin.Context) (filter.Params, bool) {
	query := filter.FromValues(c.Request.URL.Query())
	if c.Request.Method != http.MethodPost {
		return query, true
	}

	body := map[string]any{}
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		h.Error(c, apperror.NewValidation("search body must be a JSON object").WithDetail("error", err.Error()))
		return filter.Params{}, false
	}
	return query.Overlay(filter.FromMap(body)), true
}

// Error registers error on Gin context and aborts request.
// The JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Success sends success response.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: message})
}
