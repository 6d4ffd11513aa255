package application

import (
	"errors"
	"fmt"

	"github.com/storekit/shop-api/internal/domains/catalog/domain"
)

// ErrInvalidInput signals the request violated a product field invariant.
var ErrInvalidInput = errors.New("invalid product input")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyName) ||
		errors.Is(err, domain.ErrNameTooLong) ||
		errors.Is(err, domain.ErrEmptySize) ||
		errors.Is(err, domain.ErrSizeTooLong) ||
		errors.Is(err, domain.ErrInvalidPrice) ||
		errors.Is(err, domain.ErrNegativeQuantity) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
