package application

import (
	"errors"
	"fmt"

	catalogports "github.com/storekit/shop-api/internal/domains/catalog/ports"
)

var (
	// ErrInvalidInput signals the request violated a shape constraint; the
	// stores were never touched.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrTransientStorage signals a contention or I/O fault; compensation has
	// already run, so retrying the whole call is safe.
	ErrTransientStorage = errors.New("transient storage failure")
)

// mapReservationError propagates classified inventory failures unchanged and
// folds everything else into the transient bucket. No classified failure is
// ever downgraded.
func mapReservationError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, catalogports.ErrInvalidProductID) ||
		errors.Is(err, catalogports.ErrNotFound) ||
		errors.Is(err, catalogports.ErrInsufficientStock) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrTransientStorage, err)
}
