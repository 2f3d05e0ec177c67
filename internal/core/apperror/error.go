// Package apperror defines the error type every layer returns to the HTTP
// boundary. middleware.ErrorHandler renders it as {code, message, details}.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeInternal = "INTERNAL_ERROR"
	CodeUpstream = "UPSTREAM_ERROR"

	CodeValidation = "VALIDATION_ERROR"
	CodeDuplicate  = "DUPLICATE_ENTRY"
	CodeOverReturn = "RETURN_EXCEEDS_ORDER"

	CodeBusinessRule           = "BUSINESS_RULE_VIOLATION"
	CodeOrderCancelled         = "ORDER_CANCELLED"
	CodeOrderHasReturns        = "ORDER_HAS_RETURNS"
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeRateLimited  = "RATE_LIMITED"

	CodeNotFound    = "NOT_FOUND"
	CodeConflict    = "CONFLICT"
	CodeIdempotency = "IDEMPOTENCY_CONFLICT"
)

// statusByCode is the HTTP status of each code. NewBusinessRule codes that
// are not listed answer 422.
var statusByCode = map[string]int{
	CodeInternal:               http.StatusInternalServerError,
	CodeUpstream:               http.StatusBadGateway,
	CodeValidation:             http.StatusBadRequest,
	CodeDuplicate:              http.StatusBadRequest,
	CodeOverReturn:             http.StatusBadRequest,
	CodeBusinessRule:           http.StatusUnprocessableEntity,
	CodeInsufficientStock:      http.StatusUnprocessableEntity,
	CodeConcurrentModification: http.StatusConflict,
	CodeUnauthorized:           http.StatusUnauthorized,
	CodeForbidden:              http.StatusForbidden,
	CodeRateLimited:            http.StatusTooManyRequests,
	CodeNotFound:               http.StatusNotFound,
	CodeConflict:               http.StatusConflict,
	CodeIdempotency:            http.StatusConflict,
}

// AppError is the standard error type of the service.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`

	HTTPStatus int `json:"-"`

	// Err is the underlying error; it is logged, never rendered.
	Err error `json:"-"`
}

func newError(code, message string, details map[string]any) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusUnprocessableEntity
	}
	return &AppError{Code: code, Message: message, Details: details, HTTPStatus: status}
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

// WithDetail adds a key-value pair to the details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

func NewValidation(message string) *AppError {
	return newError(CodeValidation, message, nil)
}

func NewNotFound(entity string, id any) *AppError {
	return newError(CodeNotFound, entity+" not found", map[string]any{"entity": entity, "id": id})
}

// NewDuplicate reports a unique-index conflict on field.
func NewDuplicate(entity, field, value string) *AppError {
	return newError(CodeDuplicate, fmt.Sprintf("%s with this %s already exists", entity, field),
		map[string]any{"entity": entity, "field": field, "value": value})
}

// NewBusinessRule reports a rule violation under a domain-specific code (422
// unless the code has its own status).
func NewBusinessRule(code, message string) *AppError {
	return newError(code, message, nil)
}

func NewInsufficientStock(productID string, requested, available int64) *AppError {
	return newError(CodeInsufficientStock, "Insufficient stock", map[string]any{
		"product_id": productID,
		"requested":  requested,
		"available":  available,
	})
}

// NewOverReturn is returned when a return asks for more than is still
// outstanding on the order.
func NewOverReturn(orderNumber string, requested, outstanding int64) *AppError {
	return newError(CodeOverReturn, "Return quantity exceeds the quantity still outstanding on the order", map[string]any{
		"order_number": orderNumber,
		"requested":    requested,
		"outstanding":  outstanding,
	})
}

// NewConcurrentModification is the optimistic version check failing.
func NewConcurrentModification(entity string, id any) *AppError {
	return newError(CodeConcurrentModification, "Record was modified by another user. Please refresh and try again.",
		map[string]any{"entity": entity, "id": id})
}

// NewInternal hides err from the client; the error middleware logs it.
func NewInternal(err error) *AppError {
	return newError(CodeInternal, "Internal server error", nil).WithCause(err)
}

// NewUpstream reports a failed external collaborator such as the mail relay.
func NewUpstream(service string, err error) *AppError {
	return newError(CodeUpstream, service+" is unavailable", nil).WithCause(err)
}

func NewUnauthorized(message string) *AppError {
	return newError(CodeUnauthorized, message, nil)
}

func NewForbidden(message string) *AppError {
	return newError(CodeForbidden, message, nil)
}

func NewRateLimited(limit int64) *AppError {
	return newError(CodeRateLimited, "Too many requests", map[string]any{"limit": limit})
}

func NewConflict(message string) *AppError {
	return newError(CodeConflict, message, nil)
}

// NewIdempotencyConflict is returned while the first request with the key is
// still running.
func NewIdempotencyConflict(key string) *AppError {
	return newError(CodeIdempotency, "Operation already in progress or completed",
		map[string]any{"idempotency_key": key})
}

// NewIdempotencyMismatch is returned when a key is reused for a different
// user, operation or body.
func NewIdempotencyMismatch(key string) *AppError {
	return newError(CodeIdempotency, "Idempotency key mismatch",
		map[string]any{"idempotency_key": key})
}

// AsAppError extracts the AppError from the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}
