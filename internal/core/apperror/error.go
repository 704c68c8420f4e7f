// Package apperror defines the errors ledger operations return to the API.
// The HTTP layer renders an *AppError as {code, message, details}; anything
// else is treated as an internal failure.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeInternal = "INTERNAL_ERROR"

	CodeValidation = "VALIDATION_ERROR"

	// 422: the request is well formed but the ledger refuses it.
	CodeBusinessRule      = "BUSINESS_RULE_VIOLATION"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"

	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"

	CodeConflict    = "CONFLICT"
	CodeDuplicate   = "DUPLICATE_ENTRY"
	CodeIdempotency = "IDEMPOTENCY_CONFLICT"
)

// AppError is a coded error with the HTTP status it maps to.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`

	// Err is logged, never rendered.
	Err error `json:"-"`
}

func newError(code string, status int, message string) *AppError {
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

// WithDetail adds a key to Details and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, 1)
	}
	e.Details[key] = value
	return e
}

// WithCause attaches the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// Field returns details.field of a validation error, or "".
func (e *AppError) Field() string {
	f, _ := e.Details["field"].(string)
	return f
}

func NewValidation(message string) *AppError {
	return newError(CodeValidation, http.StatusBadRequest, message)
}

// NewFieldValidation names the offending request field in details.field.
func NewFieldValidation(field, message string) *AppError {
	return NewValidation(message).WithDetail("field", field)
}

func NewNotFound(entity string, id any) *AppError {
	return newError(CodeNotFound, http.StatusNotFound, entity+" not found").
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewBusinessRule is a 422 with a caller-chosen code, e.g. BILL_ALREADY_PAID.
func NewBusinessRule(code, message string) *AppError {
	return newError(code, http.StatusUnprocessableEntity, message)
}

// NewInsufficientStock reports a deduction the batch cannot cover.
func NewInsufficientStock(batchID string, requested, available int64) *AppError {
	return newError(CodeInsufficientStock, http.StatusUnprocessableEntity, "Insufficient stock").
		WithDetail("inventory_id", batchID).
		WithDetail("requested", requested).
		WithDetail("available", available)
}

// NewInternal wraps an unexpected failure. The client only sees a generic message.
func NewInternal(err error) *AppError {
	return newError(CodeInternal, http.StatusInternalServerError, "Internal server error").WithCause(err)
}

func NewUnauthorized(message string) *AppError {
	return newError(CodeUnauthorized, http.StatusUnauthorized, message)
}

func NewForbidden(message string) *AppError {
	return newError(CodeForbidden, http.StatusForbidden, message)
}

// NewIdempotencyConflict: the key is still being processed by another request.
func NewIdempotencyConflict(key string) *AppError {
	return newError(CodeIdempotency, http.StatusConflict, "Operation already in progress or completed").
		WithDetail("idempotency_key", key)
}

// NewIdempotencyMismatch: the key was used before for a different actor,
// route or body.
func NewIdempotencyMismatch(key string) *AppError {
	return newError(CodeIdempotency, http.StatusConflict, "Idempotency key mismatch").
		WithDetail("idempotency_key", key)
}

func NewConflict(message string) *AppError {
	return newError(CodeConflict, http.StatusConflict, message)
}

func NewDuplicate(entity, field, value string) *AppError {
	return newError(CodeDuplicate, http.StatusConflict, fmt.Sprintf("%s with this %s already exists", entity, field)).
		WithDetail("entity", entity).
		WithDetail("field", field).
		WithDetail("value", value)
}

// --- Helpers ---

func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// AsAppError extracts the first *AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HTTPStatus maps any error to a status code; non-AppErrors are 500.
func HTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err carries the given AppError code.
func HasCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func IsNotFound(err error) bool          { return HasCode(err, CodeNotFound) }
func IsInsufficientStock(err error) bool { return HasCode(err, CodeInsufficientStock) }
func IsValidation(err error) bool        { return HasCode(err, CodeValidation) }
