package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/storekit/shop-api/internal/domains/orders/domain"
	"github.com/storekit/shop-api/internal/domains/orders/ports"
	"github.com/storekit/shop-api/internal/shared/pagination"
)

var _ ports.Ledger = (*Ledger)(nil)

// Ledger is an in-memory append-only order store.
type Ledger struct {
	mu     sync.RWMutex
	orders []*domain.Order
	byUser map[string][]*domain.Order
}

func NewLedger() *Ledger {
	return &Ledger{byUser: map[string][]*domain.Order{}}
}

func (l *Ledger) Append(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	clone := cloneOrder(order)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders = append(l.orders, clone)
	l.byUser[clone.UserID] = append(l.byUser[clone.UserID], clone)
	return cloneOrder(clone), nil
}

func (l *Ledger) ListByUser(_ context.Context, filter ports.ListFilter) ([]*domain.Order, int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	owned := l.byUser[filter.UserID]
	window := pagination.Window{Limit: filter.Limit, Offset: filter.Offset}
	page := pagination.Slice(owned, window)
	out := make([]*domain.Order, 0, len(page))
	for _, order := range page {
		out = append(out, cloneOrder(order))
	}
	return out, int64(len(owned)), nil
}

func cloneOrder(order *domain.Order) *domain.Order {
	clone := *order
	clone.Lines = append([]domain.Line{}, order.Lines...)
	return &clone
}
