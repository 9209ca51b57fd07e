package validator

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type amountRequest struct {
	Amount *int   `json:"amount" validate:"required"`
	Note   string `json:"note,omitempty" validate:"omitempty,max=10"`
	Level  int    `json:"level" validate:"gte=0,lte=5"`
}

func intPtr(n int) *int { return &n }

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(amountRequest{Amount: intPtr(0), Level: 3}))
}

func TestValidate_MissingRequiredUsesJSONName(t *testing.T) {
	err := Validate(amountRequest{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "is required", valErr.Fields()["amount"])
	assert.Contains(t, err.Error(), "field 'amount' is required")
}

func TestValidate_OutOfRange(t *testing.T) {
	err := Validate(amountRequest{Amount: intPtr(1), Level: 9, Note: "far too long note"})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "must be less than or equal to 5", fields["level"])
	assert.Equal(t, "must be at most 10", fields["note"])
}

func TestValidate_NonStruct(t *testing.T) {
	err := Validate("not a struct")
	require.Error(t, err)

	var valErr *ValidationError
	assert.NotErrorAs(t, err, &valErr)
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantErr   bool
		wantValid bool
	}{
		{name: "valid", body: `{"amount": 2}`},
		{name: "zero amount is present", body: `{"amount": 0}`},
		{name: "missing amount", body: `{}`, wantErr: true, wantValid: true},
		{name: "malformed", body: `{"amount":`, wantErr: true},
		{name: "unknown field", body: `{"amount": 1, "qty": 2}`, wantErr: true},
		{name: "trailing data", body: `{"amount": 1} {"amount": 2}`, wantErr: true},
		{name: "wrong type", body: `{"amount": "two"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(tt.body))
			var dst amountRequest
			err := DecodeAndValidate(req, &dst)
			if !tt.wantErr {
				require.NoError(t, err)
				require.NotNil(t, dst.Amount)
				return
			}
			require.Error(t, err)
			var valErr *ValidationError
			assert.Equal(t, tt.wantValid, errors.As(err, &valErr))
		})
	}
}
