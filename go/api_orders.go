package shopserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	catalogports "github.com/storekit/shop-api/internal/domains/catalog/ports"
	orderhttpmapper "github.com/storekit/shop-api/internal/domains/orders/adapters/http/mapper"
	ordersapp "github.com/storekit/shop-api/internal/domains/orders/application"
	orderstypes "github.com/storekit/shop-api/internal/domains/orders/application/types"
	ordersdomain "github.com/storekit/shop-api/internal/domains/orders/domain"
	ordersports "github.com/storekit/shop-api/internal/domains/orders/ports"
	apierrors "github.com/storekit/shop-api/internal/shared/errors"
)

// OrdersAPI wires HTTP transport with the orders bounded context service and workflows.
type OrdersAPI struct {
	service   ordersports.Service
	workflows ordersports.PlacementOrchestrator
}

// NewOrdersAPI creates an OrdersAPI backed by the provided service.
func NewOrdersAPI(service ordersports.Service, workflows ordersports.PlacementOrchestrator) OrdersAPI {
	return OrdersAPI{service: service, workflows: workflows}
}

// Post /api/v1/orders
// Place an order, reserving stock for every line atomically
func (api *OrdersAPI) PlaceOrder(c *gin.Context) {
	var payload orderhttpmapper.PlaceOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	saved, err := api.placeOrder(c.Request.Context(), orderhttpmapper.ToPlaceInput(payload))
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderhttpmapper.FromDomain(saved))
}

func (api *OrdersAPI) placeOrder(ctx context.Context, input orderstypes.PlaceOrderInput) (*ordersdomain.Order, error) {
	if api.workflows != nil {
		return api.workflows.PlaceOrder(ctx, input)
	}
	return api.service.PlaceOrder(ctx, input)
}

// Get /api/v1/orders/:userId
// Lists a user's orders, oldest first
func (api *OrdersAPI) ListUserOrders(c *gin.Context) {
	window, ok := parseWindow(c)
	if !ok {
		return
	}
	input := orderstypes.ListOrdersInput{UserID: c.Param("userId"), Window: window}
	page, err := api.service.ListOrdersForUser(c.Request.Context(), input)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromPage(page))
}

// respondOrderServiceError translates the placement error taxonomy into
// problem responses. Every business rejection is a 400; only transient and
// unknown faults surface as 500.
func respondOrderServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	var shortage *catalogports.StockShortageError
	if errors.As(err, &shortage) {
		respondProblem(c, apierrors.NewStockShortageProblem(shortage.ProductID, shortage.Requested, shortage.Available))
		return
	}
	var missing *catalogports.MissingProductError
	if errors.As(err, &missing) {
		respondProblem(c, apierrors.ErrBadRequest.
			WithDetail(err.Error()).
			WithExtension("productId", missing.ProductID))
		return
	}
	switch {
	case errors.Is(err, ordersapp.ErrInvalidInput):
		respondProblem(c, apierrors.ErrValidation.WithDetail(err.Error()))
	case errors.Is(err, catalogports.ErrInvalidProductID):
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
	case errors.Is(err, catalogports.ErrInsufficientStock):
		respondProblem(c, apierrors.ErrInsufficientStock.WithDetail(err.Error()))
	case errors.Is(err, catalogports.ErrNotFound):
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
	default:
		apierrors.RespondError(c, err)
	}
}
