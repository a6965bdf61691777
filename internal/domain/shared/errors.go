package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code.
// This lets callers use errors.Is(err, shared.ErrNotFound) against
// errors that carry a more specific message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared across the stock ledger
const (
	CodeNotFound              = "NOT_FOUND"
	CodeStockItemNotFound     = "STOCK_ITEM_NOT_FOUND"
	CodeStockLocationNotFound = "STOCK_LOCATION_NOT_FOUND"
	CodeVariantNotFound       = "VARIANT_NOT_FOUND"

	CodeInvalidInput      = "INVALID_INPUT"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeInvalidOriginator = "INVALID_ORIGINATOR"

	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeDuplicateSKU        = "DUPLICATE_SKU"
	CodeDuplicateStockItem  = "DUPLICATE_STOCK_ITEM"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeHasMovementHistory  = "HAS_MOVEMENT_HISTORY"

	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodeInsufficientReserved = "INSUFFICIENT_RESERVED"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
)

// ErrorKind classifies domain errors by how callers should react to them
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindValidation        ErrorKind = "validation"
	KindConflict          ErrorKind = "conflict"
	KindInsufficientStock ErrorKind = "insufficient_stock"
	KindUnexpected        ErrorKind = "unexpected"
)

var codeKinds = map[string]ErrorKind{
	CodeNotFound:              KindNotFound,
	CodeStockItemNotFound:     KindNotFound,
	CodeStockLocationNotFound: KindNotFound,
	CodeVariantNotFound:       KindNotFound,
	CodeInvalidInput:          KindValidation,
	CodeInvalidQuantity:       KindValidation,
	CodeInvalidOriginator:     KindValidation,
	CodeAlreadyExists:         KindConflict,
	CodeDuplicateSKU:          KindConflict,
	CodeDuplicateStockItem:    KindConflict,
	CodeConcurrencyConflict:   KindConflict,
	CodeHasMovementHistory:    KindConflict,
	CodeInsufficientStock:     KindInsufficientStock,
	CodeInsufficientReserved:  KindInsufficientStock,
}

// ErrorCode returns the code of the DomainError in err's chain, or "" if there is none
func ErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// KindOf classifies err. Anything that is not a known DomainError is unexpected.
func KindOf(err error) ErrorKind {
	if kind, ok := codeKinds[ErrorCode(err)]; ok {
		return kind
	}
	return KindUnexpected
}

// IsNotFound reports whether err is a not-found domain error
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsConflict reports whether err is a conflict domain error
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

// IsConcurrencyConflict reports whether err is an optimistic locking failure
func IsConcurrencyConflict(err error) bool {
	return ErrorCode(err) == CodeConcurrencyConflict
}
