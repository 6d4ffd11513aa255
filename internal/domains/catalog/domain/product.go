package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Field bounds enforced on every product.
const (
	MaxNameLength = 100
	MaxSizeLength = 20
	MaxPrice      = 1_000_000
)

var (
	ErrEmptyName        = errors.New("product name is required")
	ErrNameTooLong      = errors.New("product name must be at most 100 characters")
	ErrEmptySize        = errors.New("product size is required")
	ErrSizeTooLong      = errors.New("product size must be at most 20 characters")
	ErrInvalidPrice     = errors.New("product price must be greater than zero and at most 1000000")
	ErrNegativeQuantity = errors.New("product quantity must be greater or equal to zero")
)

// Product is the aggregate owned by the catalog bounded context. Quantity is
// the on-hand stock and is mutated only through the repository's reservation
// primitives, never directly by callers.
type Product struct {
	ID        string
	Name      string
	Size      string
	Price     float64
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProduct validates the invariants and builds a new Product with a fresh id.
func NewProduct(name, size string, price float64, quantity int) (*Product, error) {
	p := &Product{ID: NewID(), Name: name, Size: size, Price: price, Quantity: quantity}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate enforces the field invariants on the aggregate.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if len(p.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(p.Size) == "" {
		return ErrEmptySize
	}
	if len(p.Size) > MaxSizeLength {
		return ErrSizeTooLong
	}
	if p.Price <= 0 || p.Price > MaxPrice {
		return ErrInvalidPrice
	}
	if p.Quantity < 0 {
		return ErrNegativeQuantity
	}
	return nil
}

// MatchesName reports whether the product name contains the given fragment,
// case-insensitively. An empty fragment matches everything.
func (p *Product) MatchesName(fragment string) bool {
	if fragment == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), strings.ToLower(fragment))
}

// NewID generates a fresh opaque product identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID is the validity predicate for opaque identifiers: any parseable UUID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
