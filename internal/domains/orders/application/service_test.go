package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	catalogmemory "github.com/storekit/shop-api/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/storekit/shop-api/internal/domains/catalog/domain"
	catalogports "github.com/storekit/shop-api/internal/domains/catalog/ports"
	ordersmemory "github.com/storekit/shop-api/internal/domains/orders/adapters/memory"
	types "github.com/storekit/shop-api/internal/domains/orders/application/types"
	"github.com/storekit/shop-api/internal/domains/orders/domain"
	"github.com/storekit/shop-api/internal/domains/orders/ports"
	"github.com/storekit/shop-api/internal/shared/pagination"
)

func seedProduct(t *testing.T, inventory *catalogmemory.Repository, quantity int) *catalogdomain.Product {
	t.Helper()
	product, err := catalogdomain.NewProduct("Shoe", "42", 49.90, quantity)
	require.NoError(t, err)
	saved, err := inventory.Create(context.Background(), product)
	require.NoError(t, err)
	return saved
}

func stockOf(t *testing.T, inventory *catalogmemory.Repository, id string) int {
	t.Helper()
	product, err := inventory.GetByID(context.Background(), id)
	require.NoError(t, err)
	return product.Quantity
}

func TestPlaceOrder_Success(t *testing.T) {
	inventory := catalogmemory.NewRepository()
	ledger := ordersmemory.NewLedger()
	svc := NewService(ledger, inventory)
	product := seedProduct(t, inventory, 10)

	order, err := svc.PlaceOrder(context.Background(), types.PlaceOrderInput{
		UserID: "user-1",
		Lines:  []types.OrderLineInput{{ProductID: product.ID, Quantity: 3}},
	})

	require.NoError(t, err)
	require.Equal(t, "user-1", order.UserID)
	require.False(t, order.CreatedAt.IsZero())
	require.Equal(t, 7, stockOf(t, inventory, product.ID))

	page, err := svc.ListOrdersForUser(context.Background(), types.ListOrdersInput{UserID: "user-1"})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	require.Equal(t, order.ID, page.Items[0].ID)
}

func TestPlaceOrder_MultiLineDebitsEveryLine(t *testing.T) {
	inventory := catalogmemory.NewRepository()
	svc := NewService(ordersmemory.NewLedger(), inventory)
	a := seedProduct(t, inventory, 5)
	b := seedProduct(t, inventory, 5)

	_, err := svc.PlaceOrder(context.Background(), types.PlaceOrderInput{
		UserID: "user-1",
		Lines: []types.OrderLineInput{
			{ProductID: a.ID, Quantity: 2},
			{ProductID: b.ID, Quantity: 5},
		},
	})

	require.NoError(t, err)
	require.Equal(t, 3, stockOf(t, inventory, a.ID))
	require.Equal(t, 0, stockOf(t, inventory, b.ID))
}

func TestPlaceOrder_DuplicateLinesCannotOverdraw(t *testing.T) {
	inventory := catalogmemory.NewRepository()
	ledger := ordersmemory.NewLedger()
	svc := NewService(ledger, inventory)
	product := seedProduct(t, inventory, 5)

	_, err := svc.PlaceOrder(context.Background(), types.PlaceOrderInput{
		UserID: "user-1",
		Lines: []types.OrderLineInput{
			{ProductID: product.ID, Quantity: 3},
			{ProductID: product.ID, Quantity: 3},
		},
	})

	require.ErrorIs(t, err, catalogports.ErrInsufficientStock)
	var shortage *catalogports.StockShortageError
	require.ErrorAs(t, err, &shortage)
	require.Equal(t, product.ID, shortage.ProductID)
	require.Equal(t, 2, shortage.Available)
	require.Equal(t, 5, stockOf(t, inventory, product.ID))

	page, err := svc.ListOrdersForUser(context.Background(), types.ListOrdersInput{UserID: "user-1"})
	require.NoError(t, err)
	require.EqualValues(t, 0, page.Total)
}

func TestPlaceOrder_DuplicateLinesWithinStockSucceed(t *testing.T) {
	inventory := catalogmemory.NewRepository()
	svc := NewService(ordersmemory.NewLedger(), inventory)
	product := seedProduct(t, inventory, 6)

	_, err := svc.PlaceOrder(context.Background(), types.PlaceOrderInput{
		UserID: "user-1",
		Lines: []types.OrderLineInput{
			{ProductID: product.ID, Quantity: 2},
			{ProductID: product.ID, Quantity: 4},
		},
	})

	require.NoError(t, err)
	require.Equal(t, 0, stockOf(t, inventory, product.ID))
}

func TestPlaceOrder_InvalidInputFailsBeforeStores(t *testing.T) {
	inventory := catalogmemory.NewRepository()
	ledger := ordersmemory.NewLedger()
	svc := NewService(ledger, inventory)
	product := seedProduct(t, inventory, 10)

	cases := []types.PlaceOrderInput{
		{UserID: "", Lines: []types.OrderLineInput{{ProductID: product.ID, Quantity: 1}}},
		{UserID: "user-1"},
		{UserID: "user-1", Lines: []types.OrderLineInput{{ProductID: product.ID, Quantity: 0}}},
		{UserID: "user-1", Lines: []types.OrderLineInput{{ProductID: "not-a-uuid", Quantity: 1}}},
	}
	for _, input := range cases {
		_, err := svc.PlaceOrder(context.Background(), input)
		require.ErrorIs(t, err, ErrInvalidInput)
	}
	require.Equal(t, 10, stockOf(t, inventory, product.ID))
}

func TestPlaceOrder_ShortagePropagatesVerbatim(t *testing.T) {
	inventory := catalogmemory.NewRepository()
	ledger := ordersmemory.NewLedger()
	svc := NewService(ledger, inventory)
	product := seedProduct(t, inventory, 2)

	_, err := svc.PlaceOrder(context.Background(), types.PlaceOrderInput{
		UserID: "user-1",
		Lines:  []types.OrderLineInput{{ProductID: product.ID, Quantity: 5}},
	})

	require.ErrorIs(t, err, catalogports.ErrInsufficientStock)
	var shortage *catalogports.StockShortageError
	require.ErrorAs(t, err, &shortage)
	require.Equal(t, product.ID, shortage.ProductID)
	require.Equal(t, 5, shortage.Requested)
	require.Equal(t, 2, shortage.Available)

	require.Equal(t, 2, stockOf(t, inventory, product.ID))
	page, err := svc.ListOrdersForUser(context.Background(), types.ListOrdersInput{UserID: "user-1"})
	require.NoError(t, err)
	require.EqualValues(t, 0, page.Total)
}

func TestPlaceOrder_MissingProductPropagatesVerbatim(t *testing.T) {
	inventory := catalogmemory.NewRepository()
	svc := NewService(ordersmemory.NewLedger(), inventory)
	ghost := catalogdomain.NewID()

	_, err := svc.PlaceOrder(context.Background(), types.PlaceOrderInput{
		UserID: "user-1",
		Lines:  []types.OrderLineInput{{ProductID: ghost, Quantity: 1}},
	})

	require.ErrorIs(t, err, catalogports.ErrNotFound)
	var missing *catalogports.MissingProductError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, ghost, missing.ProductID)
}

// failingLedger rejects every append, forcing the compensation path.
type failingLedger struct {
	appendErr error
}

func (l *failingLedger) Append(context.Context, *domain.Order) (*domain.Order, error) {
	return nil, l.appendErr
}

func (l *failingLedger) ListByUser(context.Context, ports.ListFilter) ([]*domain.Order, int64, error) {
	return nil, 0, nil
}

func TestPlaceOrder_LedgerFailureReleasesReservedStock(t *testing.T) {
	inventory := catalogmemory.NewRepository()
	ledger := &failingLedger{appendErr: errors.New("disk full")}
	svc := NewService(ledger, inventory)
	product := seedProduct(t, inventory, 10)

	_, err := svc.PlaceOrder(context.Background(), types.PlaceOrderInput{
		UserID: "user-1",
		Lines:  []types.OrderLineInput{{ProductID: product.ID, Quantity: 4}},
	})

	require.ErrorIs(t, err, ErrTransientStorage)
	require.NotErrorIs(t, err, catalogports.ErrInsufficientStock)
	require.Equal(t, 10, stockOf(t, inventory, product.ID))
}

func TestPlaceOrder_CompensationRunsUnderCancelledContext(t *testing.T) {
	inventory := catalogmemory.NewRepository()
	ledger := &failingLedger{appendErr: context.Canceled}
	svc := NewService(ledger, inventory)
	product := seedProduct(t, inventory, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.PlaceOrder(ctx, types.PlaceOrderInput{
		UserID: "user-1",
		Lines:  []types.OrderLineInput{{ProductID: product.ID, Quantity: 4}},
	})

	require.ErrorIs(t, err, ErrTransientStorage)
	require.Equal(t, 10, stockOf(t, inventory, product.ID))
}

// Concurrent placements for the same product must never oversell: with Q
// units on hand and q per order, exactly floor(Q/q) orders may commit.
func TestPlaceOrder_ConcurrentContention(t *testing.T) {
	inventory := catalogmemory.NewRepository()
	ledger := ordersmemory.NewLedger()
	svc := NewService(ledger, inventory)
	product := seedProduct(t, inventory, 10)

	const workers = 40
	var wg sync.WaitGroup
	var mu sync.Mutex
	committed := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(context.Background(), types.PlaceOrderInput{
				UserID: "user-1",
				Lines:  []types.OrderLineInput{{ProductID: product.ID, Quantity: 3}},
			})
			if err == nil {
				mu.Lock()
				committed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 3, committed)
	require.Equal(t, 1, stockOf(t, inventory, product.ID))

	page, err := svc.ListOrdersForUser(context.Background(), types.ListOrdersInput{UserID: "user-1"})
	require.NoError(t, err)
	require.EqualValues(t, 3, page.Total)
}

func TestListOrdersForUser_PagesInCreationOrder(t *testing.T) {
	inventory := catalogmemory.NewRepository()
	ledger := ordersmemory.NewLedger()
	svc := NewService(ledger, inventory)
	product := seedProduct(t, inventory, 100)

	var placed []string
	for i := 0; i < 5; i++ {
		order, err := svc.PlaceOrder(context.Background(), types.PlaceOrderInput{
			UserID: "user-1",
			Lines:  []types.OrderLineInput{{ProductID: product.ID, Quantity: 1}},
		})
		require.NoError(t, err)
		placed = append(placed, order.ID)
	}

	page, err := svc.ListOrdersForUser(context.Background(), types.ListOrdersInput{
		UserID: "user-1",
		Window: pagination.Window{Limit: 2, Offset: 2},
	})
	require.NoError(t, err)
	require.EqualValues(t, 5, page.Total)
	require.Len(t, page.Items, 2)
	require.Equal(t, placed[2], page.Items[0].ID)
	require.Equal(t, placed[3], page.Items[1].ID)
}

func TestListOrdersForUser_UnknownUserIsEmpty(t *testing.T) {
	svc := NewService(ordersmemory.NewLedger(), catalogmemory.NewRepository())

	page, err := svc.ListOrdersForUser(context.Background(), types.ListOrdersInput{UserID: "nobody"})
	require.NoError(t, err)
	require.EqualValues(t, 0, page.Total)
	require.Empty(t, page.Items)
}
