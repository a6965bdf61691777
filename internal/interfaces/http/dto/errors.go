package dto

import (
	"net/http"

	"github.com/resys/stockledger/internal/domain/shared"
)

// Error codes returned by the API
// Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"

	ErrCodeInvalidQuantity   = "ERR_INVALID_QUANTITY"
	ErrCodeInvalidOriginator = "ERR_INVALID_ORIGINATOR"

	ErrCodeNotFound              = "ERR_NOT_FOUND"
	ErrCodeStockItemNotFound     = "ERR_STOCK_ITEM_NOT_FOUND"
	ErrCodeStockLocationNotFound = "ERR_STOCK_LOCATION_NOT_FOUND"
	ErrCodeVariantNotFound       = "ERR_VARIANT_NOT_FOUND"

	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeDuplicateSKU        = "ERR_DUPLICATE_SKU"
	ErrCodeDuplicateStockItem  = "ERR_DUPLICATE_STOCK_ITEM"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeHasMovementHistory  = "ERR_HAS_MOVEMENT_HISTORY"

	ErrCodeInsufficientStock    = "ERR_INSUFFICIENT_STOCK"
	ErrCodeInsufficientReserved = "ERR_INSUFFICIENT_RESERVED"

	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps API error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:        http.StatusBadRequest,
	ErrCodeBadRequest:        http.StatusBadRequest,
	ErrCodeInvalidInput:      http.StatusBadRequest,
	ErrCodeInvalidJSON:       http.StatusBadRequest,
	ErrCodeInvalidQuantity:   http.StatusBadRequest,
	ErrCodeInvalidOriginator: http.StatusBadRequest,

	ErrCodeNotFound:              http.StatusNotFound,
	ErrCodeStockItemNotFound:     http.StatusNotFound,
	ErrCodeStockLocationNotFound: http.StatusNotFound,
	ErrCodeVariantNotFound:       http.StatusNotFound,

	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeDuplicateSKU:        http.StatusConflict,
	ErrCodeDuplicateStockItem:  http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeHasMovementHistory:  http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInsufficientStock:    http.StatusUnprocessableEntity,
	ErrCodeInsufficientReserved: http.StatusUnprocessableEntity,

	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
}

// domainErrorCodes translates domain error codes to API error codes
var domainErrorCodes = map[string]string{
	shared.CodeNotFound:              ErrCodeNotFound,
	shared.CodeStockItemNotFound:     ErrCodeStockItemNotFound,
	shared.CodeStockLocationNotFound: ErrCodeStockLocationNotFound,
	shared.CodeVariantNotFound:       ErrCodeVariantNotFound,
	shared.CodeInvalidInput:          ErrCodeInvalidInput,
	shared.CodeInvalidQuantity:       ErrCodeInvalidQuantity,
	shared.CodeInvalidOriginator:     ErrCodeInvalidOriginator,
	shared.CodeAlreadyExists:         ErrCodeAlreadyExists,
	shared.CodeDuplicateSKU:          ErrCodeDuplicateSKU,
	shared.CodeDuplicateStockItem:    ErrCodeDuplicateStockItem,
	shared.CodeConcurrencyConflict:   ErrCodeConcurrencyConflict,
	shared.CodeHasMovementHistory:    ErrCodeHasMovementHistory,
	shared.CodeInsufficientStock:     ErrCodeInsufficientStock,
	shared.CodeInsufficientReserved:  ErrCodeInsufficientReserved,
}

// GetHTTPStatus returns the HTTP status for an API error code, 500 if unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromDomainCode converts a domain error code to its API error code. Unknown
// codes fall back to the closest category, then to ERR_INTERNAL.
func FromDomainCode(code string) string {
	if apiCode, ok := domainErrorCodes[code]; ok {
		return apiCode
	}
	switch shared.KindOf(shared.NewDomainError(code, "")) {
	case shared.KindNotFound:
		return ErrCodeNotFound
	case shared.KindValidation:
		return ErrCodeInvalidInput
	case shared.KindConflict:
		return ErrCodeAlreadyExists
	case shared.KindInsufficientStock:
		return ErrCodeInsufficientStock
	}
	return ErrCodeInternal
}
