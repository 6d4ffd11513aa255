package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/storekit/shop-api/internal/domains/catalog/domain"
	"github.com/storekit/shop-api/internal/domains/catalog/ports"
	"github.com/storekit/shop-api/internal/shared/pagination"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory inventory store. A single mutex serializes
// reservations, so the all-or-nothing contract holds trivially: lines are
// validated in supplied order and applied only once all of them passed.
type Repository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	inserted []string // creation order for stable listing
}

func NewRepository() *Repository {
	return &Repository{products: map[string]*domain.Product{}}
}

func (r *Repository) Create(_ context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	clone := *product
	if clone.ID == "" {
		clone.ID = domain.NewID()
	}
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	clone.CreatedAt = now
	clone.UpdatedAt = now
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.products[clone.ID]; !exists {
		r.inserted = append(r.inserted, clone.ID)
	}
	r.products[clone.ID] = &clone
	result := clone
	return &result, nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	if !domain.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", ports.ErrInvalidProductID, id)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[id]
	if !ok {
		return nil, &ports.MissingProductError{ProductID: id}
	}
	clone := *product
	return &clone, nil
}

func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]*domain.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := make([]*domain.Product, 0, len(r.inserted))
	for _, id := range r.inserted {
		product := r.products[id]
		if !product.MatchesName(filter.Name) {
			continue
		}
		if filter.Size != "" && product.Size != filter.Size {
			continue
		}
		clone := *product
		matched = append(matched, &clone)
	}
	window := pagination.Window{Limit: filter.Limit, Offset: filter.Offset}
	return pagination.Slice(matched, window), int64(len(matched)), nil
}

// ReserveStock validates every line under the write lock before touching any
// quantity, so a failure leaves the store byte-for-byte unchanged. Lines
// naming the same product accumulate against one availability, so repeats
// cannot overdraw it.
func (r *Repository) ReserveStock(_ context.Context, lines []ports.ReservationLine) error {
	if len(lines) == 0 {
		return errors.New("no reservation lines supplied")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	reserved := map[string]int{}
	for _, line := range lines {
		if !domain.ValidID(line.ProductID) {
			return fmt.Errorf("%w: %s", ports.ErrInvalidProductID, line.ProductID)
		}
		product, ok := r.products[line.ProductID]
		if !ok {
			return &ports.MissingProductError{ProductID: line.ProductID}
		}
		remaining := product.Quantity - reserved[line.ProductID]
		if remaining < line.Quantity {
			return &ports.StockShortageError{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: remaining,
			}
		}
		reserved[line.ProductID] += line.Quantity
	}
	now := time.Now().UTC()
	for _, line := range lines {
		product := r.products[line.ProductID]
		product.Quantity -= line.Quantity
		product.UpdatedAt = now
	}
	return nil
}

// ReleaseStock re-credits a previously applied reservation.
func (r *Repository) ReleaseStock(_ context.Context, lines []ports.ReservationLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, line := range lines {
		if _, ok := r.products[line.ProductID]; !ok {
			return &ports.MissingProductError{ProductID: line.ProductID}
		}
	}
	now := time.Now().UTC()
	for _, line := range lines {
		product := r.products[line.ProductID]
		product.Quantity += line.Quantity
		product.UpdatedAt = now
	}
	return nil
}
