package ports

import (
	"context"
	"errors"

	"github.com/storekit/shop-api/internal/domains/orders/domain"
)

var ErrNotFound = errors.New("order not found")

// ListFilter scopes and pages ledger queries.
type ListFilter struct {
	UserID string
	Limit  int
	Offset int
}

// Ledger is the append-only order store. Records are never updated or
// deleted; concurrent appends are independent and commutative.
type Ledger interface {
	Append(ctx context.Context, order *domain.Order) (*domain.Order, error)
	// ListByUser returns one page of the user's orders in stable creation
	// order plus the total count independent of paging.
	ListByUser(ctx context.Context, filter ListFilter) ([]*domain.Order, int64, error)
}
