package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsAppError_ThroughWrapping(t *testing.T) {
	base := NewInsufficientStock("b-1", 10, 4)
	wrapped := fmt.Errorf("commit bill: %w", base)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Same(t, base, appErr)
	assert.True(t, IsInsufficientStock(wrapped))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(wrapped))
	assert.Equal(t, map[string]any{"inventory_id": "b-1", "requested": int64(10), "available": int64(4)}, appErr.Details)
}

func TestHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
	assert.False(t, IsAppError(errors.New("boom")))
}

func TestNewInternal_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error", err.Message)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestFieldValidation(t *testing.T) {
	err := NewFieldValidation("customer_mobile", "invalid mobile number")

	assert.True(t, IsValidation(err))
	assert.Equal(t, "customer_mobile", err.Field())
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.Equal(t, "", NewValidation("x").Field())
}

func TestIdempotencyErrorsShareCode(t *testing.T) {
	assert.True(t, HasCode(NewIdempotencyConflict("k"), CodeIdempotency))
	assert.True(t, HasCode(NewIdempotencyMismatch("k"), CodeIdempotency))
	assert.NotEqual(t, NewIdempotencyConflict("k").Message, NewIdempotencyMismatch("k").Message)
}
