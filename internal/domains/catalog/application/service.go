package application

import (
	"context"

	types "github.com/storekit/shop-api/internal/domains/catalog/application/types"
	"github.com/storekit/shop-api/internal/domains/catalog/domain"
	"github.com/storekit/shop-api/internal/domains/catalog/ports"
	"github.com/storekit/shop-api/internal/shared/pagination"
)

// Service orchestrates the catalog bounded context use cases.
type Service struct {
	repo ports.Repository
}

// NewService wires the catalog service with its repository.
func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo}
}

// CreateProduct validates and persists a new catalog entry.
func (s *Service) CreateProduct(ctx context.Context, input types.CreateProductInput) (*domain.Product, error) {
	product, err := domain.NewProduct(input.Name, input.Size, input.Price, input.Quantity)
	if err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// GetProduct loads a single product by its opaque identifier.
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return product, nil
}

// ListProducts returns one page of the filtered catalog in creation order.
// The total always reflects the whole filtered set, not the page.
func (s *Service) ListProducts(ctx context.Context, input types.ListProductsInput) (*types.ProductPage, error) {
	window := input.Window
	if window.Limit == 0 {
		window = pagination.DefaultWindow()
	}
	products, total, err := s.repo.List(ctx, ports.ListFilter{
		Name:   input.Name,
		Size:   input.Size,
		Limit:  window.Limit,
		Offset: window.Offset,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &types.ProductPage{
		Items:  products,
		Total:  total,
		Limit:  window.Limit,
		Offset: window.Offset,
	}, nil
}

var _ ports.Service = (*Service)(nil)
