// Package types holds the command and query payloads of the catalog service.
package types

import (
	"github.com/storekit/shop-api/internal/domains/catalog/domain"
	"github.com/storekit/shop-api/internal/shared/pagination"
)

// CreateProductInput carries the fields for a new catalog entry.
type CreateProductInput struct {
	Name     string
	Size     string
	Price    float64
	Quantity int
}

// ListProductsInput narrows and pages the catalog listing.
type ListProductsInput struct {
	Name   string
	Size   string
	Window pagination.Window
}

// ProductPage is one window of the filtered catalog.
type ProductPage = pagination.Page[*domain.Product]
