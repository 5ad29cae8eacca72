package errors_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/medflow/pos-allocation/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_WrapsSentinelAndCause(t *testing.T) {
	err := errors.Lookup("stock quant", context.DeadlineExceeded)

	assert.True(t, errors.Is(err, errors.ErrLookup))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, http.StatusBadGateway, err.StatusCode)
	assert.Equal(t, "LOOKUP_ERROR", err.Code)
	assert.Equal(t, "stock quant lookup failed: context deadline exceeded", err.Error())
}

func TestLookup_SurvivesFurtherWrapping(t *testing.T) {
	wrapped := fmt.Errorf("planning: %w", errors.Lookup("lot", stderrors.New("conn reset")))

	var appErr *errors.AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, "LOOKUP_ERROR", appErr.Code)
	assert.True(t, errors.Is(wrapped, errors.ErrLookup))
}

func TestInvalidReference(t *testing.T) {
	err := errors.InvalidReference("product", int64(42))

	assert.True(t, errors.Is(err, errors.ErrInvalidReference))
	assert.False(t, errors.Is(err, errors.ErrLookup))
	assert.Equal(t, http.StatusUnprocessableEntity, err.StatusCode)
	assert.Equal(t, "product 42 does not exist", err.Error())
	assert.Equal(t, "42", err.Details["id"])
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *errors.AppError
		code   string
		status int
		target error
	}{
		{"not found", errors.NotFound("session"), "NOT_FOUND", http.StatusNotFound, errors.ErrNotFound},
		{"unauthorized", errors.Unauthorized("no token"), "UNAUTHORIZED", http.StatusUnauthorized, errors.ErrUnauthorized},
		{"bad request", errors.BadRequest("nope"), "BAD_REQUEST", http.StatusBadRequest, errors.ErrBadRequest},
		{"internal", errors.Internal("boom"), "INTERNAL_ERROR", http.StatusInternalServerError, errors.ErrInternal},
		{"validation", errors.Validation(map[string]string{"product_id": "required"}), "VALIDATION_ERROR", http.StatusBadRequest, errors.ErrValidation},
		{"token expired", errors.TokenExpired(), "TOKEN_EXPIRED", http.StatusUnauthorized, errors.ErrTokenExpired},
		{"token invalid", errors.TokenInvalid(), "TOKEN_INVALID", http.StatusUnauthorized, errors.ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.True(t, errors.Is(tt.err, tt.target))
		})
	}
}
