package mapper

import (
	"time"

	types "github.com/storekit/shop-api/internal/domains/orders/application/types"
	"github.com/storekit/shop-api/internal/domains/orders/domain"
)

// OrderLine is the HTTP representation of one (product, quantity) pair.
type OrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrderRequest captures the inbound placement payload.
type PlaceOrderRequest struct {
	UserID string      `json:"user_id"`
	Lines  []OrderLine `json:"lines"`
}

// Order is the HTTP representation of a committed order.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Lines     []OrderLine `json:"lines"`
	CreatedAt time.Time   `json:"created_at"`
}

// OrdersPage is the paged order-history response.
type OrdersPage struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// ToPlaceInput maps the transport payload into the application command.
func ToPlaceInput(req PlaceOrderRequest) types.PlaceOrderInput {
	input := types.PlaceOrderInput{UserID: req.UserID}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, types.OrderLineInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return input
}

// FromDomain maps an order aggregate into its HTTP representation.
func FromDomain(order *domain.Order) Order {
	if order == nil {
		return Order{}
	}
	out := Order{
		ID:        order.ID,
		UserID:    order.UserID,
		Lines:     make([]OrderLine, 0, len(order.Lines)),
		CreatedAt: order.CreatedAt,
	}
	for _, line := range order.Lines {
		out.Lines = append(out.Lines, OrderLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return out
}

// FromPage maps an order page into the listing response.
func FromPage(page *types.OrderPage) OrdersPage {
	if page == nil {
		return OrdersPage{Orders: []Order{}}
	}
	orders := make([]Order, 0, len(page.Items))
	for _, item := range page.Items {
		orders = append(orders, FromDomain(item))
	}
	return OrdersPage{
		Orders: orders,
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
}
