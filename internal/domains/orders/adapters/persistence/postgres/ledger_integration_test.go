//go:build integration
// +build integration

// To enable gopls support for this file, add the following to your VSCode settings.json:
// "gopls": {
//   "buildFlags": ["-tags=integration"]
// }

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/storekit/shop-api/internal/domains/orders/domain"
	"github.com/storekit/shop-api/internal/domains/orders/ports"
	"github.com/storekit/shop-api/internal/platform/migrations"
)

func setupPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("shop_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func appendOrder(t *testing.T, ledger *Ledger, userID string, lines []domain.Line) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(domain.NewID(), userID, lines)
	require.NoError(t, err)
	order.CreatedAt = time.Now().UTC()
	saved, err := ledger.Append(context.Background(), order)
	require.NoError(t, err)
	return saved
}

func TestPostgresLedger_AppendAndListByUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	ledger := NewLedger(db)
	lines := []domain.Line{
		{ProductID: uuid.NewString(), Quantity: 2},
		{ProductID: uuid.NewString(), Quantity: 5},
	}
	saved := appendOrder(t, ledger, "user-1", lines)
	appendOrder(t, ledger, "user-2", []domain.Line{{ProductID: uuid.NewString(), Quantity: 1}})

	orders, total, err := ledger.ListByUser(context.Background(), ports.ListFilter{UserID: "user-1", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, saved.ID, orders[0].ID)
	assert.Equal(t, lines, orders[0].Lines)
	assert.False(t, orders[0].CreatedAt.IsZero())
}

func TestPostgresLedger_PagesInCommitOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	ledger := NewLedger(db)
	var ids []string
	for i := 0; i < 5; i++ {
		saved := appendOrder(t, ledger, "user-1", []domain.Line{{ProductID: uuid.NewString(), Quantity: 1}})
		ids = append(ids, saved.ID)
	}

	orders, total, err := ledger.ListByUser(context.Background(), ports.ListFilter{UserID: "user-1", Limit: 2, Offset: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, orders, 2)
	assert.Equal(t, ids[3], orders[0].ID)
	assert.Equal(t, ids[4], orders[1].ID)
}

func TestPostgresLedger_UnknownUserIsEmpty(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	ledger := NewLedger(db)
	orders, total, err := ledger.ListByUser(context.Background(), ports.ListFilter{UserID: "nobody", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, orders)
}
