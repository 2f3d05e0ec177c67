package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatuses(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{NewValidation("bad"), http.StatusBadRequest},
		{NewDuplicate("customer", "email", "a@b.c"), http.StatusBadRequest},
		{NewOverReturn("SO-240101-001", 5, 2), http.StatusBadRequest},
		{NewNotFound("product", "p1"), http.StatusNotFound},
		{NewInsufficientStock("p1", 10, 3), http.StatusUnprocessableEntity},
		{NewBusinessRule(CodeBusinessRule, "blocked"), http.StatusUnprocessableEntity},
		{NewBusinessRule("ORDER_HAS_RETURNS", "blocked"), http.StatusUnprocessableEntity},
		{NewConcurrentModification("purchase", "x"), http.StatusConflict},
		{NewConflict("job is already running"), http.StatusConflict},
		{NewUnauthorized("invalid token"), http.StatusUnauthorized},
		{NewForbidden("no"), http.StatusForbidden},
		{NewRateLimited(5), http.StatusTooManyRequests},
		{NewUpstream("mail server", errors.New("dial tcp")), http.StatusBadGateway},
		{NewInternal(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
		})
	}
}

func TestHasCode_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("sync ledger: %w", NewInsufficientStock("p1", 10, 3))

	assert.True(t, HasCode(err, CodeInsufficientStock))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))

	appErr, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, int64(3), appErr.Details["available"])
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternal(cause)

	assert.Equal(t, "Internal server error", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}
