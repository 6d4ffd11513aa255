// Package api wires the HTTP process: observability, storage, services, and routes.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	shopserver "github.com/storekit/shop-api/go"

	catalogmemory "github.com/storekit/shop-api/internal/domains/catalog/adapters/memory"
	catalogobs "github.com/storekit/shop-api/internal/domains/catalog/adapters/observability"
	catalogpostgres "github.com/storekit/shop-api/internal/domains/catalog/adapters/persistence/postgres"
	catalogredis "github.com/storekit/shop-api/internal/domains/catalog/adapters/persistence/redis"
	catalogapp "github.com/storekit/shop-api/internal/domains/catalog/application"
	catalogports "github.com/storekit/shop-api/internal/domains/catalog/ports"

	ordersmemory "github.com/storekit/shop-api/internal/domains/orders/adapters/memory"
	ordersobs "github.com/storekit/shop-api/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/storekit/shop-api/internal/domains/orders/adapters/persistence/postgres"
	ordersredis "github.com/storekit/shop-api/internal/domains/orders/adapters/persistence/redis"
	ordersworkflows "github.com/storekit/shop-api/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/storekit/shop-api/internal/domains/orders/application"
	ordersports "github.com/storekit/shop-api/internal/domains/orders/ports"

	platformmigrations "github.com/storekit/shop-api/internal/platform/migrations"
	platformobservability "github.com/storekit/shop-api/internal/platform/observability"
	platformpostgres "github.com/storekit/shop-api/internal/platform/postgres"
	platformredis "github.com/storekit/shop-api/internal/platform/redis"
)

// Run boots the Shop HTTP API with observability, repositories, and workflows wired.
func Run(ctx context.Context) error {
	const serviceName = "shop-api"
	cfg := LoadConfig()
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	inventory, ledger, cleanupStores := buildStores(ctx, cfg, logger)
	defer cleanupStores()

	catalogService := catalogobs.New(
		catalogapp.NewService(inventory),
		catalogobs.WithLogger(logger),
		catalogobs.WithTracer(instruments.Tracer("internal.catalog.application")),
		catalogobs.WithMeter(instruments.Meter("internal.catalog.application")),
	)
	ordersService := ordersobs.New(
		ordersapp.NewService(ledger, inventory),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	var placement ordersports.PlacementOrchestrator = ordersworkflows.NewInlinePlacement(ordersService)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, placing orders inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		placement = ordersworkflows.NewTemporalPlacement(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	handlers := shopserver.ApiHandleFunctions{
		CatalogAPI: shopserver.NewCatalogAPI(catalogService),
		OrdersAPI:  shopserver.NewOrdersAPI(ordersService, placement),
	}

	router := shopserver.NewRouter(handlers)
	router.Use(otelgin.Middleware(serviceName))
	addr := ":" + cfg.Port
	logger.Info("Shop API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("Shop API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// buildStores selects the storage backend shared by both bounded contexts:
// Postgres when a DSN is configured, Redis when an address is configured,
// in-memory otherwise. Inventory and ledger always come from the same
// backend so reservation and append see one consistent store.
func buildStores(ctx context.Context, cfg Config, logger *slog.Logger) (catalogports.Repository, ordersports.Ledger, func()) {
	if cfg.PostgresDSN != "" {
		db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Warn("failed to connect to postgres, trying other backends", slog.String("error", err.Error()))
		} else if sqlDB, err := db.DB(); err != nil {
			logger.Warn("failed to unwrap postgres connection, trying other backends", slog.String("error", err.Error()))
		} else {
			if err := platformmigrations.Run(db); err != nil {
				logger.Warn("failed to run postgres migrations, trying other backends", slog.String("error", err.Error()))
				_ = sqlDB.Close()
			} else {
				logger.Info("stores configured with postgres")
				return catalogpostgres.NewRepository(db), orderspostgres.NewLedger(db), func() { _ = sqlDB.Close() }
			}
		}
	}
	if cfg.RedisAddr != "" {
		client, err := platformredis.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("failed to connect to redis, falling back to memory", slog.String("error", err.Error()))
		} else {
			logger.Info("stores configured with redis")
			return catalogredis.NewRepository(client), ordersredis.NewLedger(client), func() { _ = client.Close() }
		}
	}
	logger.Warn("no storage backend configured, using in-memory stores")
	return catalogmemory.NewRepository(), ordersmemory.NewLedger(), func() {}
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	logger := workerlog.NewStructuredLogger(effectiveLogger(instruments))
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    logger,
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
