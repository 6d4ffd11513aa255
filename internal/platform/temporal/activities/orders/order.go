package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	catalogports "github.com/storekit/shop-api/internal/domains/catalog/ports"
	ordersdomain "github.com/storekit/shop-api/internal/domains/orders/domain"
	ordersports "github.com/storekit/shop-api/internal/domains/orders/ports"
)

const (
	// ReserveStockActivityName atomically debits stock for every order line.
	ReserveStockActivityName = "orders.activities.ReserveStock"
	// AppendOrderActivityName commits the order to the ledger.
	AppendOrderActivityName = "orders.activities.AppendOrder"
	// ReleaseStockActivityName compensates an applied reservation.
	ReleaseStockActivityName = "orders.activities.ReleaseStock"
)

// Application-error types used to carry classified business failures across
// the workflow boundary without retrying them.
const (
	ErrTypeInvalidReference  = "InvalidReference"
	ErrTypeProductNotFound   = "ProductNotFound"
	ErrTypeInsufficientStock = "InsufficientStock"
)

// MissingProductDetails travels with ProductNotFound application errors.
type MissingProductDetails struct {
	ProductID string
}

// StockShortageDetails travels with InsufficientStock application errors.
type StockShortageDetails struct {
	ProductID string
	Requested int
	Available int
}

// Activities groups the placement steps that touch storage.
type Activities struct {
	inventory catalogports.Repository
	ledger    ordersports.Ledger
}

// NewActivities wires the storage collaborators into the Temporal activities bundle.
func NewActivities(inventory catalogports.Repository, ledger ordersports.Ledger) *Activities {
	return &Activities{inventory: inventory, ledger: ledger}
}

// ReserveStock debits every line or none. Business rejections come back as
// non-retryable application errors so the workflow fails fast instead of
// retrying a shortage that will not heal on its own.
func (a *Activities) ReserveStock(ctx context.Context, lines []catalogports.ReservationLine) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.inventory == nil {
		return errors.New("reserve stock activity not initialized")
	}
	logger.Info("ReserveStock activity started", "lines", len(lines))
	if err := a.inventory.ReserveStock(ctx, lines); err != nil {
		logger.Error("ReserveStock activity failed", "error", err)
		return classifyReservationError(err)
	}
	logger.Info("ReserveStock activity completed", "lines", len(lines))
	return nil
}

// AppendOrder commits the already-reserved order to the ledger.
func (a *Activities) AppendOrder(ctx context.Context, order *ordersdomain.Order) (*ordersdomain.Order, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.ledger == nil {
		return nil, errors.New("append order activity not initialized")
	}
	logger.Info("AppendOrder activity started", "orderId", order.ID)
	saved, err := a.ledger.Append(ctx, order)
	if err != nil {
		logger.Error("AppendOrder activity failed", "orderId", order.ID, "error", err)
		return nil, err
	}
	logger.Info("AppendOrder activity completed", "orderId", saved.ID)
	return saved, nil
}

// ReleaseStock re-credits a reservation whose follow-up step failed.
func (a *Activities) ReleaseStock(ctx context.Context, lines []catalogports.ReservationLine) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.inventory == nil {
		return errors.New("release stock activity not initialized")
	}
	logger.Info("ReleaseStock activity started", "lines", len(lines))
	if err := a.inventory.ReleaseStock(ctx, lines); err != nil {
		logger.Error("ReleaseStock activity failed", "error", err)
		return err
	}
	logger.Info("ReleaseStock activity completed", "lines", len(lines))
	return nil
}

func classifyReservationError(err error) error {
	var missing *catalogports.MissingProductError
	if errors.As(err, &missing) {
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeProductNotFound, err,
			MissingProductDetails{ProductID: missing.ProductID})
	}
	var shortage *catalogports.StockShortageError
	if errors.As(err, &shortage) {
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInsufficientStock, err,
			StockShortageDetails{
				ProductID: shortage.ProductID,
				Requested: shortage.Requested,
				Available: shortage.Available,
			})
	}
	if errors.Is(err, catalogports.ErrInvalidProductID) {
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidReference, err)
	}
	// Transient faults stay retryable under the activity retry policy.
	return err
}
