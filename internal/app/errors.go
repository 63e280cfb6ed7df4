package app

import (
	"errors"
	"fmt"

	"meters/internal/domain"
)

var kinds = []error{
	domain.ErrUnauthenticated,
	domain.ErrForbidden,
	domain.ErrNotFound,
	domain.ErrConflict,
	domain.ErrValidation,
	domain.ErrInternal,
}

// storeFault keeps known error kinds intact and wraps everything else as an
// internal failure.
func storeFault(op string, err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrInternal, op, err)
}
