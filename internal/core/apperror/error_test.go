package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resido/internal/core/apperror"
)

func TestAsAppError_Wrapped(t *testing.T) {
	err := fmt.Errorf("load bill: %w", apperror.NewNotFound("bill", "42"))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
	assert.Equal(t, "42", appErr.Details["id"])
	assert.True(t, apperror.IsNotFound(err))
	assert.False(t, apperror.HasCode(errors.New("plain"), apperror.CodeNotFound))
}

func TestInvalidFilterValue_Details(t *testing.T) {
	err := apperror.NewInvalidFilterValue("price", "min_price", "abc", "decimal")

	assert.Equal(t, apperror.CodeInvalidFilterValue, err.Code)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.Equal(t, map[string]any{
		"field":    "price",
		"param":    "min_price",
		"value":    "abc",
		"expected": "decimal",
	}, err.Details)
}

func TestInternal_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperror.NewInternal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error", err.Message)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestBusinessRule_Status(t *testing.T) {
	err := apperror.NewBusinessRule(apperror.CodeOverpayment, "payment exceeds the outstanding amount")
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.True(t, apperror.HasCode(err, apperror.CodeOverpayment))
}
