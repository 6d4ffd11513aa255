package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyUserID         = errors.New("user id is required")
	ErrNoLines             = errors.New("order must contain at least one line")
	ErrNonPositiveQuantity = errors.New("line quantity must be greater than zero")
	ErrMalformedProductID  = errors.New("line product id is malformed")
)

// Line is a single (product, quantity) pair within an order. The product id
// is a weak reference: a lookup key, not ownership.
type Line struct {
	ProductID string
	Quantity  int
}

// Order is the immutable ledger record of a committed purchase. An Order
// exists iff every line's stock reservation succeeded at commit time; there
// is no representation of a partially-applied order.
type Order struct {
	ID        string
	UserID    string
	Lines     []Line
	CreatedAt time.Time
}

// NewOrder validates the request shape and builds the aggregate. It performs
// no stock checks; those belong to the inventory store at reservation time.
func NewOrder(id, userID string, lines []Line) (*Order, error) {
	order := &Order{ID: id, UserID: userID, Lines: append([]Line{}, lines...)}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// Validate enforces the shape invariants on the aggregate.
func (o *Order) Validate() error {
	if strings.TrimSpace(o.UserID) == "" {
		return ErrEmptyUserID
	}
	if len(o.Lines) == 0 {
		return ErrNoLines
	}
	for _, line := range o.Lines {
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: product %s", ErrNonPositiveQuantity, line.ProductID)
		}
		if _, err := uuid.Parse(line.ProductID); err != nil {
			return fmt.Errorf("%w: %s", ErrMalformedProductID, line.ProductID)
		}
	}
	return nil
}

// NewID generates a fresh opaque order identifier.
func NewID() string {
	return uuid.NewString()
}
