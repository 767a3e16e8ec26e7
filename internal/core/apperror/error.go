// Package apperror carries the errors the API renders as {code, message, details}.
// Anything that is not an AppError reaches clients as a bare 500.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// 500
	CodeInternal          = "INTERNAL_ERROR"
	CodeUnknownEntityKind = "UNKNOWN_ENTITY_KIND"

	// 400
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidFilterValue = "INVALID_FILTER_VALUE"
	CodeUnknownSortField   = "UNKNOWN_SORT_FIELD"

	// 422
	CodeBusinessRule = "BUSINESS_RULE_VIOLATION"
	CodeOverpayment  = "OVERPAYMENT"
	CodeBillSettled  = "BILL_ALREADY_PAID"

	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeDuplicate    = "DUPLICATE_ENTRY"
)

// AppError is a failure with a stable code and the HTTP status it maps to.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	Err        error          `json:"-"`
}

func newError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail sets details[key] and returns e for chaining.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause records the underlying error. It is logged, never rendered.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

func NewValidation(message string) *AppError {
	return newError(http.StatusBadRequest, CodeValidation, message)
}

// NewInvalidFilterValue is returned when a request value cannot be coerced
// to the type of the field it filters on.
func NewInvalidFilterValue(field, param string, value any, expected string) *AppError {
	return newError(http.StatusBadRequest, CodeInvalidFilterValue, fmt.Sprintf("invalid value for filter %q", param)).
		WithDetail("field", field).
		WithDetail("param", param).
		WithDetail("value", value).
		WithDetail("expected", expected)
}

// NewUnknownSortField rejects a sort field outside the allow-list.
func NewUnknownSortField(field string, allowed []string) *AppError {
	return newError(http.StatusBadRequest, CodeUnknownSortField, fmt.Sprintf("cannot sort by %q", field)).
		WithDetail("field", field).
		WithDetail("allowed", allowed)
}

// NewUnknownEntityKind signals a lookup of a kind that was never registered.
// That is a wiring mistake, so it maps to 500.
func NewUnknownEntityKind(kind any) *AppError {
	return newError(http.StatusInternalServerError, CodeUnknownEntityKind, fmt.Sprintf("entity kind %v is not registered", kind)).
		WithDetail("kind", fmt.Sprint(kind))
}

func NewNotFound(entity string, id any) *AppError {
	return newError(http.StatusNotFound, CodeNotFound, entity+" not found").
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewBusinessRule reports a request that is well-formed but not allowed in
// the current state, e.g. paying a settled bill.
func NewBusinessRule(code, message string) *AppError {
	return newError(http.StatusUnprocessableEntity, code, message)
}

// NewInternal hides err behind a generic message.
func NewInternal(err error) *AppError {
	return newError(http.StatusInternalServerError, CodeInternal, "Internal server error").WithCause(err)
}

func NewUnauthorized(message string) *AppError {
	return newError(http.StatusUnauthorized, CodeUnauthorized, message)
}

func NewForbidden(message string) *AppError {
	return newError(http.StatusForbidden, CodeForbidden, message)
}

func NewConflict(message string) *AppError {
	return newError(http.StatusConflict, CodeConflict, message)
}

// NewDuplicate reports a unique constraint hit on entity.field.
func NewDuplicate(entity, field, value string) *AppError {
	return newError(http.StatusConflict, CodeDuplicate, fmt.Sprintf("%s with this %s already exists", entity, field)).
		WithDetail("entity", entity).
		WithDetail("field", field).
		WithDetail("value", value)
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}
