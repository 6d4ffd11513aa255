package shopserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	catalogmemory "github.com/storekit/shop-api/internal/domains/catalog/adapters/memory"
	catalogapp "github.com/storekit/shop-api/internal/domains/catalog/application"
	"github.com/storekit/shop-api/internal/domains/catalog/domain"
	ordersmemory "github.com/storekit/shop-api/internal/domains/orders/adapters/memory"
	ordersapp "github.com/storekit/shop-api/internal/domains/orders/application"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	inventory := catalogmemory.NewRepository()
	ledger := ordersmemory.NewLedger()
	catalogService := catalogapp.NewService(inventory)
	ordersService := ordersapp.NewService(ledger, inventory)
	handlers := ApiHandleFunctions{
		CatalogAPI: NewCatalogAPI(catalogService),
		OrdersAPI:  NewOrdersAPI(ordersService, nil),
	}
	return NewRouterWithGinEngine(gin.New(), handlers)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func createProduct(t *testing.T, router *gin.Engine, name string, quantity int) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/v1/products", gin.H{
		"name": name, "size": "42", "price": 49.90, "quantity": quantity,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeBody(t, rec)["id"].(string)
}

func TestHealthAndIndex(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "healthy", decodeBody(t, rec)["status"])

	rec = doJSON(t, router, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateProduct_Endpoint(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/products", gin.H{
		"name": "Trail Shoe", "size": "42", "price": 79.90, "quantity": 12,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "Trail Shoe", body["name"])
	require.EqualValues(t, 12, body["quantity"])
	require.True(t, domain.ValidID(body["id"].(string)))
}

func TestCreateProduct_InvalidInputIsProblem(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/products", gin.H{
		"name": "", "size": "42", "price": 10, "quantity": 1,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
	body := decodeBody(t, rec)
	require.Equal(t, "/problems/validation-error", body["type"])
}

func TestGetProduct_Endpoint(t *testing.T) {
	router := newTestRouter()
	id := createProduct(t, router, "Shoe", 5)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/products/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, id, decodeBody(t, rec)["id"])

	rec = doJSON(t, router, http.MethodGet, "/api/v1/products/"+domain.NewID(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/products/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProducts_Endpoint(t *testing.T) {
	router := newTestRouter()
	for i := 0; i < 3; i++ {
		createProduct(t, router, fmt.Sprintf("Runner %d", i), 1)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/v1/products?name=runner&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.EqualValues(t, 3, body["total"])
	require.Len(t, body["products"], 2)
}

func TestListProducts_BadPaging(t *testing.T) {
	router := newTestRouter()

	for _, query := range []string{"limit=0", "limit=101", "limit=abc", "offset=-1"} {
		rec := doJSON(t, router, http.MethodGet, "/api/v1/products?"+query, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestPlaceOrder_Endpoint(t *testing.T) {
	router := newTestRouter()
	id := createProduct(t, router, "Shoe", 10)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders", gin.H{
		"user_id": "user-1",
		"lines":   []gin.H{{"product_id": id, "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "user-1", body["user_id"])

	rec = doJSON(t, router, http.MethodGet, "/api/v1/products/"+id, nil)
	require.EqualValues(t, 7, decodeBody(t, rec)["quantity"])

	rec = doJSON(t, router, http.MethodGet, "/api/v1/orders/user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, decodeBody(t, rec)["total"])
}

func TestPlaceOrder_ShortageProblemNamesLine(t *testing.T) {
	router := newTestRouter()
	id := createProduct(t, router, "Shoe", 2)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders", gin.H{
		"user_id": "user-1",
		"lines":   []gin.H{{"product_id": id, "quantity": 5}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "/problems/insufficient-stock", body["type"])
	extensions := body["extensions"].(map[string]any)
	require.Equal(t, id, extensions["productId"])
	require.EqualValues(t, 5, extensions["requested"])
	require.EqualValues(t, 2, extensions["available"])

	// Stock stays untouched after the rejection.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/products/"+id, nil)
	require.EqualValues(t, 2, decodeBody(t, rec)["quantity"])
}

func TestPlaceOrder_InvalidAndMissingReferences(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders", gin.H{
		"user_id": "",
		"lines":   []gin.H{{"product_id": domain.NewID(), "quantity": 1}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/orders", gin.H{
		"user_id": "user-1",
		"lines":   []gin.H{{"product_id": "not-a-uuid", "quantity": 1}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/orders", gin.H{
		"user_id": "user-1",
		"lines":   []gin.H{{"product_id": domain.NewID(), "quantity": 1}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "/problems/bad-request", body["type"])
}

func TestListUserOrders_BadPaging(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodGet, "/api/v1/orders/user-1?limit=500", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
