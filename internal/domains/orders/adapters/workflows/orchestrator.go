package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	catalogports "github.com/storekit/shop-api/internal/domains/catalog/ports"
	"github.com/storekit/shop-api/internal/domains/orders/application"
	types "github.com/storekit/shop-api/internal/domains/orders/application/types"
	"github.com/storekit/shop-api/internal/domains/orders/domain"
	"github.com/storekit/shop-api/internal/domains/orders/ports"
	orderactivities "github.com/storekit/shop-api/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/storekit/shop-api/internal/platform/temporal/workflows/orders"
)

var (
	_ ports.PlacementOrchestrator = (*TemporalPlacement)(nil)
	_ ports.PlacementOrchestrator = (*InlinePlacement)(nil)
)

// TemporalPlacement runs order placement as a durable workflow on a Temporal
// cluster.
type TemporalPlacement struct {
	client    client.Client
	taskQueue string
}

// NewTemporalPlacement wires a Temporal client into the orchestrator.
func NewTemporalPlacement(c client.Client) *TemporalPlacement {
	return &TemporalPlacement{client: c, taskQueue: orderworkflows.OrderPlacementTaskQueue}
}

// PlaceOrder validates the request, then hands the order to the placement
// workflow. Shape validation happens here so malformed input never reaches
// the cluster, and so the workflow body stays deterministic.
func (o *TemporalPlacement) PlaceOrder(ctx context.Context, input types.PlaceOrderInput) (*domain.Order, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal placement not configured")
	}
	order, err := buildOrder(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", application.ErrInvalidInput, err)
	}
	traceComponent := workflowTraceComponent(ctx)
	options := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("order-placement-%s", order.ID),
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		orderworkflows.OrderPlacementWorkflow,
		orderworkflows.OrderPlacementWorkflowInput{Order: order, TraceID: traceComponent},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", application.ErrTransientStorage, err)
	}
	var saved domain.Order
	if err := run.Get(ctx, &saved); err != nil {
		return nil, mapWorkflowError(err)
	}
	return &saved, nil
}

// InlinePlacement executes the service directly without Temporal, useful for
// tests or deployments without a cluster.
type InlinePlacement struct {
	service ports.Service
}

// NewInlinePlacement wraps the orders service for synchronous execution.
func NewInlinePlacement(service ports.Service) *InlinePlacement {
	return &InlinePlacement{service: service}
}

// PlaceOrder delegates to the application service without durable orchestration.
func (o *InlinePlacement) PlaceOrder(ctx context.Context, input types.PlaceOrderInput) (*domain.Order, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline placement not configured")
	}
	return o.service.PlaceOrder(ctx, input)
}

func buildOrder(input types.PlaceOrderInput) (*domain.Order, error) {
	lines := make([]domain.Line, 0, len(input.Lines))
	for _, line := range input.Lines {
		lines = append(lines, domain.Line{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	order, err := domain.NewOrder(domain.NewID(), input.UserID, lines)
	if err != nil {
		return nil, err
	}
	order.CreatedAt = time.Now().UTC()
	return order, nil
}

// mapWorkflowError reconstructs the classified placement errors from the
// application errors the activities raised, so callers see the same taxonomy
// regardless of which orchestrator ran the order.
func mapWorkflowError(err error) error {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return fmt.Errorf("%w: %v", application.ErrTransientStorage, err)
	}
	switch appErr.Type() {
	case orderactivities.ErrTypeInvalidReference:
		return fmt.Errorf("%w: %s", catalogports.ErrInvalidProductID, appErr.Message())
	case orderactivities.ErrTypeProductNotFound:
		var details orderactivities.MissingProductDetails
		if detailErr := appErr.Details(&details); detailErr == nil {
			return &catalogports.MissingProductError{ProductID: details.ProductID}
		}
		return fmt.Errorf("%w: %s", catalogports.ErrNotFound, appErr.Message())
	case orderactivities.ErrTypeInsufficientStock:
		var details orderactivities.StockShortageDetails
		if detailErr := appErr.Details(&details); detailErr == nil {
			return &catalogports.StockShortageError{
				ProductID: details.ProductID,
				Requested: details.Requested,
				Available: details.Available,
			}
		}
		return fmt.Errorf("%w: %s", catalogports.ErrInsufficientStock, appErr.Message())
	default:
		return fmt.Errorf("%w: %v", application.ErrTransientStorage, err)
	}
}

func workflowTraceComponent(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return fallbackTraceComponent()
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() || !spanCtx.TraceID().IsValid() {
		return fallbackTraceComponent()
	}
	return spanCtx.TraceID().String()
}

func fallbackTraceComponent() string {
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}
