package persistence

import (
	"errors"

	"github.com/resys/stockledger/internal/domain/shared"
	"gorm.io/gorm"
)

// notFound maps gorm.ErrRecordNotFound to a domain not-found error with the given code
func notFound(err error, code, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewDomainError(code, message)
	}
	return err
}

// duplicate maps a translated unique violation to a domain conflict error
func duplicate(err error, code, message string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewDomainError(code, message)
	}
	return err
}
