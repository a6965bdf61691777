package inventory

import (
	"regexp"
	"strings"

	"github.com/resys/stockledger/internal/domain/shared"
)

var locationCodePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// StockLocation is a physical or logical place where stock is kept.
// Stock items reference it by id only.
type StockLocation struct {
	shared.BaseEntity
	Code string
	Name string
}

// NewStockLocation creates a stock location
func NewStockLocation(code, name string) (*StockLocation, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	name = strings.TrimSpace(name)
	if code == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Location code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Location code cannot exceed 50 characters")
	}
	if !locationCodePattern.MatchString(code) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Location code may only contain letters, digits, '-' and '_'")
	}
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Location name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Location name cannot exceed 200 characters")
	}
	return &StockLocation{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       name,
	}, nil
}
