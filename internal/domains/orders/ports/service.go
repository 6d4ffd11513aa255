package ports

import (
	"context"

	types "github.com/storekit/shop-api/internal/domains/orders/application/types"
	"github.com/storekit/shop-api/internal/domains/orders/domain"
)

// Service exposes the order placement and query use cases to adapters.
type Service interface {
	PlaceOrder(ctx context.Context, input types.PlaceOrderInput) (*domain.Order, error)
	ListOrdersForUser(ctx context.Context, input types.ListOrdersInput) (*types.OrderPage, error)
}

// PlacementOrchestrator runs the placement workflow, either inline or on a
// durable workflow engine.
type PlacementOrchestrator interface {
	PlaceOrder(ctx context.Context, input types.PlaceOrderInput) (*domain.Order, error)
}
