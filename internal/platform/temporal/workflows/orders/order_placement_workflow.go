package orders

import (
	"go.temporal.io/sdk/workflow"

	ordersdomain "github.com/storekit/shop-api/internal/domains/orders/domain"
	"github.com/storekit/shop-api/internal/platform/temporal/sequences"
)

const (
	// OrderPlacementWorkflowName is the public identifier for registering the workflow.
	OrderPlacementWorkflowName = "orders.workflows.Placement"
	// OrderPlacementTaskQueue is the queue consumed by the worker processing order workflows.
	OrderPlacementTaskQueue = "ORDER_PLACEMENT"
)

// OrderPlacementWorkflowInput captures a fully validated order ready to
// commit. Validation and id/timestamp generation happen caller-side; the
// workflow body stays deterministic.
type OrderPlacementWorkflowInput struct {
	Order   *ordersdomain.Order
	TraceID string
}

// OrderPlacementWorkflow orchestrates the reserve-then-append sequence for one order.
func OrderPlacementWorkflow(ctx workflow.Context, input OrderPlacementWorkflowInput) (*ordersdomain.Order, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("OrderPlacementWorkflow started", withTraceID(input.TraceID, "orderId", input.Order.ID)...)
	saved, err := sequences.RunOrderPlacementSequence(ctx, input.Order)
	if err != nil {
		logger.Error("OrderPlacementWorkflow failed", withTraceID(input.TraceID, "orderId", input.Order.ID, "error", err)...)
		return nil, err
	}
	logger.Info("OrderPlacementWorkflow completed", withTraceID(input.TraceID, "orderId", saved.ID)...)
	return saved, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
