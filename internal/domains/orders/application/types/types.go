// Package types holds the command and query payloads of the orders service.
package types

import (
	"github.com/storekit/shop-api/internal/domains/orders/domain"
	"github.com/storekit/shop-api/internal/shared/pagination"
)

// OrderLineInput is one requested (product, quantity) pair.
type OrderLineInput struct {
	ProductID string
	Quantity  int
}

// PlaceOrderInput carries a placement request.
type PlaceOrderInput struct {
	UserID string
	Lines  []OrderLineInput
}

// ListOrdersInput pages a user's order history.
type ListOrdersInput struct {
	UserID string
	Window pagination.Window
}

// OrderPage is one window of a user's order history.
type OrderPage = pagination.Page[*domain.Order]
