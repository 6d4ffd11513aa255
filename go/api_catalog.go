package shopserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	cataloghttpmapper "github.com/storekit/shop-api/internal/domains/catalog/adapters/http/mapper"
	catalogapp "github.com/storekit/shop-api/internal/domains/catalog/application"
	catalogtypes "github.com/storekit/shop-api/internal/domains/catalog/application/types"
	catalogports "github.com/storekit/shop-api/internal/domains/catalog/ports"
	apierrors "github.com/storekit/shop-api/internal/shared/errors"
)

// CatalogAPI wires HTTP transport with the catalog bounded context service.
type CatalogAPI struct {
	service catalogports.Service
}

// NewCatalogAPI creates a CatalogAPI backed by the provided service.
func NewCatalogAPI(service catalogports.Service) CatalogAPI {
	return CatalogAPI{service: service}
}

// Post /api/v1/products
// Add a new product to the catalog
func (api *CatalogAPI) CreateProduct(c *gin.Context) {
	var payload cataloghttpmapper.CreateProductRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	saved, err := api.service.CreateProduct(c.Request.Context(), cataloghttpmapper.ToCreateInput(payload))
	if err != nil {
		respondCatalogServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cataloghttpmapper.FromDomain(saved))
}

// Get /api/v1/products
// Lists catalog products, filtered by name/size and paged
func (api *CatalogAPI) ListProducts(c *gin.Context) {
	window, ok := parseWindow(c)
	if !ok {
		return
	}
	input := catalogtypes.ListProductsInput{
		Name:   c.Query("name"),
		Size:   c.Query("size"),
		Window: window,
	}
	page, err := api.service.ListProducts(c.Request.Context(), input)
	if err != nil {
		respondCatalogServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromPage(page))
}

// Get /api/v1/products/:productId
// Find product by ID
func (api *CatalogAPI) GetProduct(c *gin.Context) {
	id := c.Param("productId")
	product, err := api.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, catalogports.ErrInvalidProductID) {
			respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
			return
		}
		if errors.Is(err, catalogports.ErrNotFound) {
			respondProblem(c, apierrors.NewNotFoundProblem("product", id))
			return
		}
		respondCatalogServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromDomain(product))
}

func respondCatalogServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, catalogapp.ErrInvalidInput):
		respondProblem(c, apierrors.ErrValidation.WithDetail(err.Error()))
	case errors.Is(err, catalogports.ErrInvalidProductID):
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
	case errors.Is(err, catalogports.ErrNotFound):
		respondProblem(c, apierrors.ErrNotFound.WithDetail(err.Error()))
	default:
		apierrors.RespondError(c, err)
	}
}
