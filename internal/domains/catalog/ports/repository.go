package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/storekit/shop-api/internal/domains/catalog/domain"
)

// Classified storage failures. Adapters wrap these sentinels so callers can
// branch with errors.Is regardless of the backing store.
var (
	ErrNotFound          = errors.New("product not found")
	ErrInvalidProductID  = errors.New("invalid product id")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrTransient marks contention or I/O faults where retrying the whole
	// operation is safe; it is never used for business-rule rejections.
	ErrTransient = errors.New("transient storage failure")
)

// MissingProductError names the referenced product that does not exist.
type MissingProductError struct {
	ProductID string
}

func (e *MissingProductError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID)
}

func (e *MissingProductError) Unwrap() error { return ErrNotFound }

// StockShortageError names the first line whose requested quantity exceeds
// the on-hand stock.
type StockShortageError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockShortageError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *StockShortageError) Unwrap() error { return ErrInsufficientStock }

// ReservationLine is a single (product, quantity) pair to debit or credit.
type ReservationLine struct {
	ProductID string
	Quantity  int
}

// ListFilter narrows and pages catalog queries. Name matches as a
// case-insensitive substring, Size matches exactly; empty values match all.
type ListFilter struct {
	Name   string
	Size   string
	Limit  int
	Offset int
}

// Repository is the inventory store: it owns product records and is the only
// component allowed to mutate on-hand quantity.
type Repository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// List returns one page in stable creation order plus the total count of
	// the filtered set independent of paging.
	List(ctx context.Context, filter ListFilter) ([]*domain.Product, int64, error)
	// ReserveStock debits every line or none: on any classified failure the
	// observable state is unchanged and the first failing line (in supplied
	// order) is reported. No intermediate state is visible to concurrent
	// readers, and no resulting quantity is ever negative.
	ReserveStock(ctx context.Context, lines []ReservationLine) error
	// ReleaseStock re-credits previously reserved lines. Used to compensate
	// a reservation whose follow-up step failed.
	ReleaseStock(ctx context.Context, lines []ReservationLine) error
}
