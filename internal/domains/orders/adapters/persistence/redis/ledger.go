package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storekit/shop-api/internal/domains/orders/domain"
	"github.com/storekit/shop-api/internal/domains/orders/ports"
)

var _ ports.Ledger = (*Ledger)(nil)

const (
	orderKeyPrefix      = "order:"
	userOrdersKeyPrefix = "user_orders:"
)

// orderDocument is the JSON shape stored per order key.
type orderDocument struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Lines     []lineDoc `json:"lines"`
	CreatedAt time.Time `json:"created_at"`
}

type lineDoc struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Ledger keeps each order as a JSON value plus a per-user id list; RPUSH
// preserves commit order for paging.
type Ledger struct {
	client *redis.Client
}

func NewLedger(client *redis.Client) *Ledger {
	return &Ledger{client: client}
}

// Append stores the order and indexes it for its user in one MULTI/EXEC
// block, so a reader never sees the index without the record.
func (l *Ledger) Append(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := l.ensureClient(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	payload, err := json.Marshal(toDocument(order))
	if err != nil {
		return nil, err
	}
	pipe := l.client.TxPipeline()
	pipe.Set(ctx, orderKey(order.ID), payload, 0)
	pipe.RPush(ctx, userOrdersKey(order.UserID), order.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("append order %s: %w", order.ID, err)
	}
	clone := *order
	clone.Lines = append([]domain.Line{}, order.Lines...)
	return &clone, nil
}

// ListByUser pages the user's commit-ordered order ids and loads each record.
func (l *Ledger) ListByUser(ctx context.Context, filter ports.ListFilter) ([]*domain.Order, int64, error) {
	if err := l.ensureClient(); err != nil {
		return nil, 0, err
	}
	listKey := userOrdersKey(filter.UserID)
	total, err := l.client.LLen(ctx, listKey).Result()
	if err != nil {
		return nil, 0, err
	}
	if total == 0 || int64(filter.Offset) >= total {
		return nil, total, nil
	}
	stop := int64(filter.Offset + filter.Limit - 1)
	ids, err := l.client.LRange(ctx, listKey, int64(filter.Offset), stop).Result()
	if err != nil {
		return nil, 0, err
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = orderKey(id)
	}
	values, err := l.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, 0, err
	}
	orders := make([]*domain.Order, 0, len(values))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			return nil, 0, fmt.Errorf("order %s missing from ledger", ids[i])
		}
		var doc orderDocument
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, 0, fmt.Errorf("decode order %s: %w", ids[i], err)
		}
		orders = append(orders, doc.toDomain())
	}
	return orders, total, nil
}

func (l *Ledger) ensureClient() error {
	if l == nil || l.client == nil {
		return errors.New("redis order ledger not configured")
	}
	return nil
}

func orderKey(id string) string {
	return orderKeyPrefix + id
}

func userOrdersKey(userID string) string {
	return userOrdersKeyPrefix + userID
}

func toDocument(order *domain.Order) orderDocument {
	doc := orderDocument{
		ID:        order.ID,
		UserID:    order.UserID,
		Lines:     make([]lineDoc, 0, len(order.Lines)),
		CreatedAt: order.CreatedAt,
	}
	for _, line := range order.Lines {
		doc.Lines = append(doc.Lines, lineDoc{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return doc
}

func (d orderDocument) toDomain() *domain.Order {
	lines := make([]domain.Line, 0, len(d.Lines))
	for _, line := range d.Lines {
		lines = append(lines, domain.Line{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return &domain.Order{ID: d.ID, UserID: d.UserID, Lines: lines, CreatedAt: d.CreatedAt}
}
