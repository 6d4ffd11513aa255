package ports

import (
	"context"

	types "github.com/storekit/shop-api/internal/domains/catalog/application/types"
	"github.com/storekit/shop-api/internal/domains/catalog/domain"
)

// Service exposes catalog use cases to adapters.
type Service interface {
	CreateProduct(ctx context.Context, input types.CreateProductInput) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, input types.ListProductsInput) (*types.ProductPage, error)
}
