package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	catalogports "github.com/storekit/shop-api/internal/domains/catalog/ports"
	"github.com/storekit/shop-api/internal/domains/orders/application"
	types "github.com/storekit/shop-api/internal/domains/orders/application/types"
	"github.com/storekit/shop-api/internal/domains/orders/domain"
	"github.com/storekit/shop-api/internal/domains/orders/ports"
)

const tracerName = "github.com/storekit/shop-api/internal/domains/orders/adapters/observability/service"

// Service decorates the orders application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// PlaceOrder runs the placement workflow with instrumentation. Rejections are
// counted by classification so oversell pressure shows up on a dashboard.
func (s *Service) PlaceOrder(ctx context.Context, input types.PlaceOrderInput) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.PlaceOrder",
		attribute.String("order.user_id", input.UserID),
		attribute.Int("order.lines", len(input.Lines)),
	)
	defer span.End()

	s.logInfo(ctx, "placing order", slog.String("order.user_id", input.UserID), slog.Int("order.lines", len(input.Lines)))
	result, err := s.inner.PlaceOrder(ctx, input)
	if err != nil {
		s.metrics.recordRejected(ctx, rejectionReason(err))
		return nil, s.handleError(ctx, span, err, "failed to place order", slog.String("order.user_id", input.UserID))
	}
	if result != nil {
		s.metrics.recordPlaced(ctx)
		s.logInfo(ctx, "order placed", slog.String("order.id", result.ID), slog.String("order.user_id", result.UserID))
	}
	return result, nil
}

// ListOrdersForUser returns one page of the user's order history.
func (s *Service) ListOrdersForUser(ctx context.Context, input types.ListOrdersInput) (*types.OrderPage, error) {
	ctx, span := s.startSpan(ctx, "Service.ListOrdersForUser", attribute.String("order.user_id", input.UserID))
	defer span.End()

	result, err := s.inner.ListOrdersForUser(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders", slog.String("order.user_id", input.UserID))
	}
	if result != nil {
		span.SetAttributes(attribute.Int64("order.result.total", result.Total))
	}
	return result, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, application.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, catalogports.ErrInvalidProductID):
		return "invalid_reference"
	case errors.Is(err, catalogports.ErrNotFound):
		return "product_not_found"
	case errors.Is(err, catalogports.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, application.ErrTransientStorage):
		return "transient"
	default:
		return "internal"
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	ordersPlaced   metric.Int64Counter
	ordersRejected metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersPlaced, _ := m.Int64Counter("orders.service.placed", metric.WithDescription("Number of orders committed to the ledger"))
	ordersRejected, _ := m.Int64Counter("orders.service.rejected", metric.WithDescription("Number of placement attempts rejected"))
	return serviceMetrics{ordersPlaced: ordersPlaced, ordersRejected: ordersRejected}
}

func (m serviceMetrics) recordPlaced(ctx context.Context) {
	addCounter(ctx, m.ordersPlaced, 1)
}

func (m serviceMetrics) recordRejected(ctx context.Context, reason string) {
	addCounter(ctx, m.ordersRejected, 1, attribute.String("reason", reason))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
