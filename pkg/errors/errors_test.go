package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorIncludesCause(t *testing.T) {
	err := &AppError{Code: "X", Message: "boom", Err: fmt.Errorf("disk full")}
	assert.Equal(t, "X: boom: disk full", err.Error())

	bare := &AppError{Code: "X", Message: "boom"}
	assert.Equal(t, "X: boom", bare.Error())
}

func TestNotFound(t *testing.T) {
	err := NotFound("cart line", "7")
	require.NotNil(t, err)
	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Contains(t, err.Message, "cart line")
	assert.Contains(t, err.Message, "7")
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestInvalidInput(t *testing.T) {
	err := InvalidInput("productId must be a positive integer")
	assert.Equal(t, "INVALID_INPUT", err.Code)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestStockInsufficient(t *testing.T) {
	err := StockInsufficient(1, 3, 2)
	assert.Equal(t, "STOCK_INSUFFICIENT", err.Code)
	assert.Equal(t, "product 1: requested 3, available 2", err.Message)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.True(t, errors.Is(err, ErrStockInsufficient))
}

func TestServiceUnavailable(t *testing.T) {
	err := ServiceUnavailable("inventory is down")
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
	assert.True(t, errors.Is(err, ErrServiceUnavail))
}

func TestConflict(t *testing.T) {
	err := Conflict("version mismatch")
	assert.Equal(t, "CONFLICT", err.Code)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestInternal(t *testing.T) {
	err := Internal(fmt.Errorf("segfault"))
	assert.Equal(t, "INTERNAL_ERROR", err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Contains(t, err.Error(), "segfault")
}

func TestHTTPStatus_SentinelErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{ErrStockInsufficient, http.StatusConflict},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrServiceUnavail, http.StatusServiceUnavailable},
		{ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestHTTPStatus_WrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("get stock: %w", ErrNotFound)
	assert.Equal(t, http.StatusNotFound, HTTPStatus(wrapped))
}

func TestHTTPStatus_AppErrorWins(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ServiceUnavailable("x"))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(wrapped))
}
