package service

import (
	"errors"

	"github.com/segyhp/credit-ledger/internal/repository"
	customError "github.com/segyhp/credit-ledger/pkg/errors"
)

// storeError converts a repository error into a business error. Errors that
// already carry a business code pass through unchanged.
func storeError(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	var be *customError.BusinessError
	if errors.As(err, &be) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return customError.WrapNotFound(entity, id)
	}
	return customError.WrapDatabaseError(err)
}
