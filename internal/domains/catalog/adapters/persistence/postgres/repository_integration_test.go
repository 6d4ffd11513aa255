//go:build integration
// +build integration

// To enable gopls support for this file, add the following to your VSCode settings.json:
// "gopls": {
//   "buildFlags": ["-tags=integration"]
// }

package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/storekit/shop-api/internal/domains/catalog/domain"
	"github.com/storekit/shop-api/internal/domains/catalog/ports"
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

func seedProduct(t *testing.T, repo *Repository, name, size string, quantity int) *domain.Product {
	t.Helper()
	product, err := domain.NewProduct(name, size, 10, quantity)
	require.NoError(t, err)
	saved, err := repo.Create(context.Background(), product)
	require.NoError(t, err)
	return saved
}

func TestPostgresRepository_CreateAndGetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	saved := seedProduct(t, repo, "Trail Shoe", "42", 12)

	assert.True(t, domain.ValidID(saved.ID))
	assert.False(t, saved.CreatedAt.IsZero())

	found, err := repo.GetByID(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trail Shoe", found.Name)
	assert.Equal(t, 12, found.Quantity)
}

func TestPostgresRepository_GetByID_Errors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)

	_, err := repo.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ports.ErrInvalidProductID)

	_, err = repo.GetByID(context.Background(), domain.NewID())
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestPostgresRepository_List(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	for i := 0; i < 5; i++ {
		seedProduct(t, repo, fmt.Sprintf("Runner %d", i), "42", 1)
	}
	seedProduct(t, repo, "Boot", "44", 1)

	// Case-insensitive substring match on name, paged in creation order.
	page, total, err := repo.List(context.Background(), ports.ListFilter{Name: "RUNNER", Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "Runner 2", page[0].Name)
	assert.Equal(t, "Runner 3", page[1].Name)

	page, total, err = repo.List(context.Background(), ports.ListFilter{Size: "44", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, page, 1)
	assert.Equal(t, "Boot", page[0].Name)
}

func TestPostgresRepository_ReserveStock_AllOrNothing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	a := seedProduct(t, repo, "A", "42", 10)
	b := seedProduct(t, repo, "B", "42", 2)

	err := repo.ReserveStock(context.Background(), []ports.ReservationLine{
		{ProductID: a.ID, Quantity: 3},
		{ProductID: b.ID, Quantity: 5},
	})
	require.ErrorIs(t, err, ports.ErrInsufficientStock)

	var shortage *ports.StockShortageError
	require.ErrorAs(t, err, &shortage)
	assert.Equal(t, b.ID, shortage.ProductID)
	assert.Equal(t, 5, shortage.Requested)
	assert.Equal(t, 2, shortage.Available)

	// The rolled-back transaction must leave every prior debit undone.
	gotA, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, gotA.Quantity)
}

func TestPostgresRepository_ReserveStock_DuplicateLinesShareAvailability(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	a := seedProduct(t, repo, "A", "42", 5)

	// The second line sees the first line's debit inside the transaction.
	err := repo.ReserveStock(context.Background(), []ports.ReservationLine{
		{ProductID: a.ID, Quantity: 3},
		{ProductID: a.ID, Quantity: 3},
	})
	require.ErrorIs(t, err, ports.ErrInsufficientStock)

	var shortage *ports.StockShortageError
	require.ErrorAs(t, err, &shortage)
	assert.Equal(t, a.ID, shortage.ProductID)
	assert.Equal(t, 3, shortage.Requested)
	assert.Equal(t, 2, shortage.Available)

	got, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)
}

func TestPostgresRepository_ReserveAndRelease(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	a := seedProduct(t, repo, "A", "42", 10)

	lines := []ports.ReservationLine{{ProductID: a.ID, Quantity: 6}}
	require.NoError(t, repo.ReserveStock(context.Background(), lines))

	got, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)

	require.NoError(t, repo.ReleaseStock(context.Background(), lines))

	got, err = repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)
}

func TestPostgresRepository_ReserveStock_MissingProduct(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ghost := domain.NewID()

	err := repo.ReserveStock(context.Background(), []ports.ReservationLine{{ProductID: ghost, Quantity: 1}})
	require.ErrorIs(t, err, ports.ErrNotFound)

	var missing *ports.MissingProductError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, ghost, missing.ProductID)
}

func TestPostgresRepository_ReserveStock_ConcurrentContention(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	product := seedProduct(t, repo, "Hot Item", "42", 10)

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.ReserveStock(context.Background(), []ports.ReservationLine{
				{ProductID: product.ID, Quantity: 3},
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	got, err := repo.GetByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)
}
