package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	types "github.com/storekit/shop-api/internal/domains/catalog/application/types"
	"github.com/storekit/shop-api/internal/domains/catalog/domain"
	"github.com/storekit/shop-api/internal/domains/catalog/ports"
)

const tracerName = "github.com/storekit/shop-api/internal/domains/catalog/adapters/observability/service"

// Service decorates the catalog application port with tracing, logging, and metrics.
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

// CreateProduct persists a new catalog entry with instrumentation.
func (s *Service) CreateProduct(ctx context.Context, input types.CreateProductInput) (*domain.Product, error) {
	ctx, span := s.startSpan(ctx, "Service.CreateProduct", attribute.String("product.name", input.Name))
	defer span.End()

	s.logInfo(ctx, "creating product", slog.String("product.name", input.Name))
	result, err := s.inner.CreateProduct(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create product", slog.String("product.name", input.Name))
	}
	if result != nil {
		s.metrics.recordCreated(ctx)
		s.logInfo(ctx, "product created", slog.String("product.id", result.ID), slog.Int("product.quantity", result.Quantity))
	}
	return result, nil
}

// GetProduct loads a single product.
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := s.startSpan(ctx, "Service.GetProduct", attribute.String("product.id", id))
	defer span.End()

	result, err := s.inner.GetProduct(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load product", slog.String("product.id", id))
	}
	return result, nil
}

// ListProducts returns one filtered catalog page.
func (s *Service) ListProducts(ctx context.Context, input types.ListProductsInput) (*types.ProductPage, error) {
	ctx, span := s.startSpan(ctx, "Service.ListProducts",
		attribute.String("catalog.filter.name", input.Name),
		attribute.String("catalog.filter.size", input.Size),
	)
	defer span.End()

	result, err := s.inner.ListProducts(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list products")
	}
	if result != nil {
		span.SetAttributes(attribute.Int64("catalog.result.total", result.Total))
		s.logInfo(ctx, "listed products", slog.Int("count", len(result.Items)), slog.Int64("total", result.Total))
	}
	return result, nil
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
	productsCreated metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	productsCreated, _ := m.Int64Counter("catalog.service.created", metric.WithDescription("Number of products created"))
	return serviceMetrics{productsCreated: productsCreated}
}

func (m serviceMetrics) recordCreated(ctx context.Context) {
	if m.productsCreated == nil {
		return
	}
	m.productsCreated.Add(ctx, 1)
}

var _ ports.Service = (*Service)(nil)
