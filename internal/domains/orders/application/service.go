package application

import (
	"context"
	"fmt"
	"time"

	catalogports "github.com/storekit/shop-api/internal/domains/catalog/ports"
	types "github.com/storekit/shop-api/internal/domains/orders/application/types"
	"github.com/storekit/shop-api/internal/domains/orders/domain"
	"github.com/storekit/shop-api/internal/domains/orders/ports"
	"github.com/storekit/shop-api/internal/shared/pagination"
)

// releaseTimeout bounds the compensation write when the caller's context is
// already gone.
const releaseTimeout = 10 * time.Second

// Service is the single entry point for placing orders. It validates the
// request shape, delegates the atomic stock reservation to the inventory
// store, and appends the committed order to the ledger. Any failure leaves
// both stores byte-for-byte unchanged.
type Service struct {
	ledger    ports.Ledger
	inventory catalogports.Repository
}

// NewService wires the orders service with its ledger and the inventory store.
func NewService(ledger ports.Ledger, inventory catalogports.Repository) *Service {
	return &Service{ledger: ledger, inventory: inventory}
}

// PlaceOrder validates, reserves, and commits one order.
//
// Shape violations fail with ErrInvalidInput before any store access.
// Classified reservation failures (invalid reference, missing product,
// insufficient stock) propagate verbatim and guarantee the ledger was not
// written. A ledger fault after a successful reservation triggers
// compensation: the reserved quantities are re-credited before the failure
// is reported, so no partial debit ever survives.
func (s *Service) PlaceOrder(ctx context.Context, input types.PlaceOrderInput) (*domain.Order, error) {
	order, err := domain.NewOrder(domain.NewID(), input.UserID, toDomainLines(input.Lines))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	lines := reservationLines(order)
	if err := s.inventory.ReserveStock(ctx, lines); err != nil {
		return nil, mapReservationError(err)
	}

	order.CreatedAt = time.Now().UTC()
	saved, err := s.ledger.Append(ctx, order)
	if err != nil {
		// The debit already happened; roll it back even if the caller's
		// context was cancelled mid-flight.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if releaseErr := s.inventory.ReleaseStock(releaseCtx, lines); releaseErr != nil {
			return nil, fmt.Errorf("%w: ledger append failed: %v (stock release also failed: %v)",
				ErrTransientStorage, err, releaseErr)
		}
		return nil, fmt.Errorf("%w: ledger append failed: %v", ErrTransientStorage, err)
	}
	return saved, nil
}

// ListOrdersForUser returns one page of the user's order history.
func (s *Service) ListOrdersForUser(ctx context.Context, input types.ListOrdersInput) (*types.OrderPage, error) {
	window := input.Window
	if window.Limit == 0 {
		window = pagination.DefaultWindow()
	}
	orders, total, err := s.ledger.ListByUser(ctx, ports.ListFilter{
		UserID: input.UserID,
		Limit:  window.Limit,
		Offset: window.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransientStorage, err)
	}
	return &types.OrderPage{
		Items:  orders,
		Total:  total,
		Limit:  window.Limit,
		Offset: window.Offset,
	}, nil
}

func toDomainLines(lines []types.OrderLineInput) []domain.Line {
	out := make([]domain.Line, 0, len(lines))
	for _, line := range lines {
		out = append(out, domain.Line{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return out
}

func reservationLines(order *domain.Order) []catalogports.ReservationLine {
	lines := make([]catalogports.ReservationLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, catalogports.ReservationLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return lines
}

var _ ports.Service = (*Service)(nil)
