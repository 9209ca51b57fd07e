package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/errors"
)

// makeResponse creates an *http.Response with the given status code and body string.
func makeResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func structuredError(code, message string) string {
	return `{"error":{"code":"` + code + `","message":"` + message + `"}}`
}

func TestParseResponseError_NotFound_EmptyObject(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusNotFound, `{}`), "inventory")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, apperrors.HTTPStatus(err))
}

func TestParseResponseError_StructuredBadRequest(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusBadRequest, structuredError("INVALID_INPUT", "bad id")), "inventory")

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Equal(t, "inventory: bad id", appErr.Message)
}

func TestParseResponseError_ServiceUnavailable(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusServiceUnavailable, "down"), "inventory")
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
}

func TestParseResponseError_ServerError(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusInternalServerError, structuredError("BOOM", "db gone")), "inventory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inventory server error (500/BOOM): db gone")

	var appErr *apperrors.AppError
	assert.False(t, errors.As(err, &appErr))
}

func TestParseResponseError_OtherClientError(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusTeapot, "short and stout"), "inventory")

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusTeapot, appErr.Status)
}

func TestDecodeJSON_Success(t *testing.T) {
	var dst struct {
		ID     int `json:"id"`
		Amount int `json:"amount"`
	}
	err := DecodeJSON(makeResponse(http.StatusOK, `{"id":2,"amount":7}`), "inventory", &dst)
	require.NoError(t, err)
	assert.Equal(t, 2, dst.ID)
	assert.Equal(t, 7, dst.Amount)
}

func TestDecodeJSON_BadBody(t *testing.T) {
	var dst map[string]any
	err := DecodeJSON(makeResponse(http.StatusOK, `{not json`), "inventory", &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode inventory response")
}

func TestDecodeJSON_ErrorStatus(t *testing.T) {
	var dst map[string]any
	err := DecodeJSON(makeResponse(http.StatusNotFound, `{}`), "inventory", &dst)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
