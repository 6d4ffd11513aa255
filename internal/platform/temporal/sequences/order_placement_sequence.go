package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	catalogports "github.com/storekit/shop-api/internal/domains/catalog/ports"
	ordersdomain "github.com/storekit/shop-api/internal/domains/orders/domain"
	orderactivities "github.com/storekit/shop-api/internal/platform/temporal/activities/orders"
)

// RunOrderPlacementSequence executes the ordered activities that commit one
// order: reserve stock, then append to the ledger. If the append fails after
// a successful reservation, the sequence compensates by releasing the
// reserved stock before surfacing the failure, keeping the all-or-nothing
// contract at order granularity.
func RunOrderPlacementSequence(ctx workflow.Context, order *ordersdomain.Order) (*ordersdomain.Order, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order placement sequence started", "orderId", order.ID)

	reserveOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	appendOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Second,
			MaximumAttempts:    3,
		},
	}

	lines := make([]catalogports.ReservationLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, catalogports.ReservationLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	reserveCtx := workflow.WithActivityOptions(ctx, reserveOptions)
	if err := workflow.ExecuteActivity(reserveCtx, orderactivities.ReserveStockActivityName, lines).Get(ctx, nil); err != nil {
		logger.Error("order placement sequence reservation failed", "orderId", order.ID, "error", err)
		return nil, err
	}

	var saved ordersdomain.Order
	appendCtx := workflow.WithActivityOptions(ctx, appendOptions)
	if err := workflow.ExecuteActivity(appendCtx, orderactivities.AppendOrderActivityName, order).Get(ctx, &saved); err != nil {
		logger.Error("order placement sequence append failed, compensating", "orderId", order.ID, "error", err)
		releaseCtx := workflow.WithActivityOptions(ctx, reserveOptions)
		if releaseErr := workflow.ExecuteActivity(releaseCtx, orderactivities.ReleaseStockActivityName, lines).Get(ctx, nil); releaseErr != nil {
			logger.Error("order placement sequence compensation failed", "orderId", order.ID, "error", releaseErr)
		}
		return nil, err
	}

	logger.Info("order placement sequence committed", "orderId", saved.ID)
	return &saved, nil
}
