package mapper

import (
	"time"

	types "github.com/storekit/shop-api/internal/domains/catalog/application/types"
	"github.com/storekit/shop-api/internal/domains/catalog/domain"
)

// CreateProductRequest captures the inbound product creation payload.
type CreateProductRequest struct {
	Name     string  `json:"name"`
	Size     string  `json:"size"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Product is the HTTP representation of a catalog entry.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      string    `json:"size"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductsPage is the paged listing response.
type ProductsPage struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// ToCreateInput maps the transport payload into the application command.
func ToCreateInput(req CreateProductRequest) types.CreateProductInput {
	return types.CreateProductInput{
		Name:     req.Name,
		Size:     req.Size,
		Price:    req.Price,
		Quantity: req.Quantity,
	}
}

// FromDomain maps a product aggregate into its HTTP representation.
func FromDomain(product *domain.Product) Product {
	if product == nil {
		return Product{}
	}
	return Product{
		ID:        product.ID,
		Name:      product.Name,
		Size:      product.Size,
		Price:     product.Price,
		Quantity:  product.Quantity,
		CreatedAt: product.CreatedAt,
	}
}

// FromPage maps a product page into the listing response.
func FromPage(page *types.ProductPage) ProductsPage {
	if page == nil {
		return ProductsPage{Products: []Product{}}
	}
	products := make([]Product, 0, len(page.Items))
	for _, item := range page.Items {
		products = append(products, FromDomain(item))
	}
	return ProductsPage{
		Products: products,
		Total:    page.Total,
		Limit:    page.Limit,
		Offset:   page.Offset,
	}
}
