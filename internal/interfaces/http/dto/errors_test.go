package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/resys/stockledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDomainCode(t *testing.T) {
	tests := []struct {
		domain string
		api    string
		status int
	}{
		{shared.CodeStockItemNotFound, ErrCodeStockItemNotFound, http.StatusNotFound},
		{shared.CodeStockLocationNotFound, ErrCodeStockLocationNotFound, http.StatusNotFound},
		{shared.CodeInvalidQuantity, ErrCodeInvalidQuantity, http.StatusBadRequest},
		{shared.CodeInvalidOriginator, ErrCodeInvalidOriginator, http.StatusBadRequest},
		{shared.CodeDuplicateStockItem, ErrCodeDuplicateStockItem, http.StatusConflict},
		{shared.CodeConcurrencyConflict, ErrCodeConcurrencyConflict, http.StatusConflict},
		{shared.CodeHasMovementHistory, ErrCodeHasMovementHistory, http.StatusConflict},
		{shared.CodeInsufficientStock, ErrCodeInsufficientStock, http.StatusUnprocessableEntity},
		{shared.CodeInsufficientReserved, ErrCodeInsufficientReserved, http.StatusUnprocessableEntity},
		{"SOMETHING_ELSE", ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			code := FromDomainCode(tt.domain)
			assert.Equal(t, tt.api, code)
			assert.Equal(t, tt.status, GetHTTPStatus(code))
		})
	}
}

func TestEveryDomainCodeHasStatus(t *testing.T) {
	for domain, api := range domainErrorCodes {
		_, ok := ErrorCodeHTTPStatus[api]
		assert.True(t, ok, "%s maps to %s without an HTTP status", domain, api)
	}
}

func TestGetHTTPStatus_Unknown(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("ERR_NOPE"))
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, 41, 3, 20)
	require.NotNil(t, resp.Meta)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	empty := NewSuccessResponseWithMeta([]int{}, 0, 1, 20)
	assert.Zero(t, empty.Meta.TotalPages)
}

func TestNewValidationErrorResponse_JSON(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-1", []ValidationDetail{
		{Field: "quantity", Message: "This field is required"},
	})

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": false,
		"error": {
			"code": "ERR_VALIDATION",
			"message": "Request validation failed",
			"request_id": "req-1",
			"details": [{"field": "quantity", "message": "This field is required"}]
		}
	}`, string(raw))
}
