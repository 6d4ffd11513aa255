package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	catalogmemory "github.com/storekit/shop-api/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/storekit/shop-api/internal/domains/catalog/adapters/persistence/postgres"
	catalogredis "github.com/storekit/shop-api/internal/domains/catalog/adapters/persistence/redis"
	catalogports "github.com/storekit/shop-api/internal/domains/catalog/ports"
	ordersmemory "github.com/storekit/shop-api/internal/domains/orders/adapters/memory"
	orderspostgres "github.com/storekit/shop-api/internal/domains/orders/adapters/persistence/postgres"
	ordersredis "github.com/storekit/shop-api/internal/domains/orders/adapters/persistence/redis"
	ordersports "github.com/storekit/shop-api/internal/domains/orders/ports"
	platformmigrations "github.com/storekit/shop-api/internal/platform/migrations"
	platformobservability "github.com/storekit/shop-api/internal/platform/observability"
	platformpostgres "github.com/storekit/shop-api/internal/platform/postgres"
	platformredis "github.com/storekit/shop-api/internal/platform/redis"
	orderactivities "github.com/storekit/shop-api/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/storekit/shop-api/internal/platform/temporal/workflows/orders"
)

func main() {
	ctx := context.Background()
	const serviceName = "shop-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	inventory, ledger, cleanupStores := buildStores(ctx, logger)
	defer cleanupStores()
	activities := orderactivities.NewActivities(inventory, ledger)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.OrderPlacementTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.OrderPlacementWorkflow, workflow.RegisterOptions{Name: orderworkflows.OrderPlacementWorkflowName})
	w.RegisterActivityWithOptions(activities.ReserveStock, activity.RegisterOptions{Name: orderactivities.ReserveStockActivityName})
	w.RegisterActivityWithOptions(activities.AppendOrder, activity.RegisterOptions{Name: orderactivities.AppendOrderActivityName})
	w.RegisterActivityWithOptions(activities.ReleaseStock, activity.RegisterOptions{Name: orderactivities.ReleaseStockActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.OrderPlacementTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

// buildStores mirrors the API process: the worker must operate on the same
// backend the API serves reads from.
func buildStores(ctx context.Context, logger *slog.Logger) (catalogports.Repository, ordersports.Ledger, func()) {
	if dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN")); dsn != "" {
		db, err := platformpostgres.Connect(ctx, dsn)
		if err != nil {
			logger.Warn("worker failed to connect to postgres, trying other backends", slog.String("error", err.Error()))
		} else if sqlDB, err := db.DB(); err != nil {
			logger.Warn("worker failed to unwrap postgres connection, trying other backends", slog.String("error", err.Error()))
		} else {
			if err := platformmigrations.Run(db); err != nil {
				logger.Warn("worker failed to run postgres migrations, trying other backends", slog.String("error", err.Error()))
				_ = sqlDB.Close()
			} else {
				logger.Info("worker stores configured with postgres")
				return catalogpostgres.NewRepository(db), orderspostgres.NewLedger(db), func() { _ = sqlDB.Close() }
			}
		}
	}
	if addr := strings.TrimSpace(os.Getenv("REDIS_ADDR")); addr != "" {
		client, err := platformredis.Connect(ctx, addr)
		if err != nil {
			logger.Warn("worker failed to connect to redis, falling back to memory", slog.String("error", err.Error()))
		} else {
			logger.Info("worker stores configured with redis")
			return catalogredis.NewRepository(client), ordersredis.NewLedger(client), func() { _ = client.Close() }
		}
	}
	logger.Warn("worker has no storage backend configured, using in-memory stores")
	return catalogmemory.NewRepository(), ordersmemory.NewLedger(), func() {}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
