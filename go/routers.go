package shopserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds api routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodPatch:
			router.PATCH(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc returns 501 Not Implemented. Used for routes without a handler.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

// ApiHandleFunctions groups the handler sets of the service.
type ApiHandleFunctions struct {
	CatalogAPI CatalogAPI
	OrdersAPI  OrdersAPI
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			"Index",
			http.MethodGet,
			"/",
			func(c *gin.Context) {
				c.String(http.StatusOK, "Shop API is running")
			},
		},
		{
			"Health",
			http.MethodGet,
			"/health",
			func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"status": "healthy"})
			},
		},
		{
			"CreateProduct",
			http.MethodPost,
			"/api/v1/products",
			handleFunctions.CatalogAPI.CreateProduct,
		},
		{
			"ListProducts",
			http.MethodGet,
			"/api/v1/products",
			handleFunctions.CatalogAPI.ListProducts,
		},
		{
			"GetProduct",
			http.MethodGet,
			"/api/v1/products/:productId",
			handleFunctions.CatalogAPI.GetProduct,
		},
		{
			"PlaceOrder",
			http.MethodPost,
			"/api/v1/orders",
			handleFunctions.OrdersAPI.PlaceOrder,
		},
		{
			"ListUserOrders",
			http.MethodGet,
			"/api/v1/orders/:userId",
			handleFunctions.OrdersAPI.ListUserOrders,
		},
	}
}
