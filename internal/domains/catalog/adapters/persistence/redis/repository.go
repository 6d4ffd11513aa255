package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storekit/shop-api/internal/domains/catalog/domain"
	"github.com/storekit/shop-api/internal/domains/catalog/ports"
	"github.com/storekit/shop-api/internal/shared/pagination"
)

var _ ports.Repository = (*Repository)(nil)

const (
	productKeyPrefix = "product:"
	catalogIDsKey    = "catalog:ids"
)

// reserveScript checks every line first and debits only when all of them
// pass, inside a single script execution, so no partial debit is ever
// observable. Lines repeating a key accumulate in the reserved table, so a
// duplicated product is checked against what its earlier lines left over.
// Reply: {1} on success, {0, index, available} on shortage, {-1, index} on
// a missing product; indexes are 1-based line positions.
var reserveScript = redis.NewScript(`
local reserved = {}
for i = 1, #KEYS do
	local qty = redis.call('HGET', KEYS[i], 'quantity')
	if not qty then
		return {-1, i}
	end
	local remaining = tonumber(qty) - (reserved[KEYS[i]] or 0)
	if remaining < tonumber(ARGV[i]) then
		return {0, i, remaining}
	end
	reserved[KEYS[i]] = (reserved[KEYS[i]] or 0) + tonumber(ARGV[i])
end
for i = 1, #KEYS do
	redis.call('HINCRBY', KEYS[i], 'quantity', -tonumber(ARGV[i]))
end
return {1}
`)

// releaseScript re-credits every line, again all-or-nothing.
var releaseScript = redis.NewScript(`
for i = 1, #KEYS do
	if redis.call('EXISTS', KEYS[i]) == 0 then
		return {-1, i}
	end
end
for i = 1, #KEYS do
	redis.call('HINCRBY', KEYS[i], 'quantity', tonumber(ARGV[i]))
end
return {1}
`)

// Repository keeps products as redis hashes plus an insertion-order id list.
// The reservation primitives run as Lua scripts, which redis executes
// atomically, giving the same all-or-nothing guarantee as a SQL transaction.
type Repository struct {
	client *redis.Client
}

func NewRepository(client *redis.Client) *Repository {
	return &Repository{client: client}
}

func (r *Repository) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := r.ensureClient(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("product is nil")
	}
	clone := *product
	if clone.ID == "" {
		clone.ID = domain.NewID()
	}
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	clone.CreatedAt = now
	clone.UpdatedAt = now
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, productKey(clone.ID), hashFields(&clone))
	pipe.RPush(ctx, catalogIDsKey, clone.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrTransient, err)
	}
	return &clone, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := r.ensureClient(); err != nil {
		return nil, err
	}
	if !domain.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", ports.ErrInvalidProductID, id)
	}
	fields, err := r.client.HGetAll(ctx, productKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrTransient, err)
	}
	if len(fields) == 0 {
		return nil, &ports.MissingProductError{ProductID: id}
	}
	return fromHash(id, fields)
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Product, int64, error) {
	if err := r.ensureClient(); err != nil {
		return nil, 0, err
	}
	ids, err := r.client.LRange(ctx, catalogIDsKey, 0, -1).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ports.ErrTransient, err)
	}
	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, productKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ports.ErrTransient, err)
	}
	matched := make([]*domain.Product, 0, len(ids))
	for i, id := range ids {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			continue
		}
		product, err := fromHash(id, fields)
		if err != nil {
			return nil, 0, err
		}
		if !product.MatchesName(filter.Name) {
			continue
		}
		if filter.Size != "" && product.Size != filter.Size {
			continue
		}
		matched = append(matched, product)
	}
	window := pagination.Window{Limit: filter.Limit, Offset: filter.Offset}
	return pagination.Slice(matched, window), int64(len(matched)), nil
}

func (r *Repository) ReserveStock(ctx context.Context, lines []ports.ReservationLine) error {
	if err := r.ensureClient(); err != nil {
		return err
	}
	if len(lines) == 0 {
		return errors.New("no reservation lines supplied")
	}
	keys, quantities, err := scriptArgs(lines)
	if err != nil {
		return err
	}
	reply, err := reserveScript.Run(ctx, r.client, keys, quantities...).Slice()
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrTransient, err)
	}
	return decodeReply(reply, lines)
}

func (r *Repository) ReleaseStock(ctx context.Context, lines []ports.ReservationLine) error {
	if err := r.ensureClient(); err != nil {
		return err
	}
	keys, quantities, err := scriptArgs(lines)
	if err != nil {
		return err
	}
	reply, err := releaseScript.Run(ctx, r.client, keys, quantities...).Slice()
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrTransient, err)
	}
	return decodeReply(reply, lines)
}

func (r *Repository) ensureClient() error {
	if r == nil || r.client == nil {
		return errors.New("redis product repository not configured")
	}
	return nil
}

func scriptArgs(lines []ports.ReservationLine) ([]string, []any, error) {
	keys := make([]string, len(lines))
	quantities := make([]any, len(lines))
	for i, line := range lines {
		if !domain.ValidID(line.ProductID) {
			return nil, nil, fmt.Errorf("%w: %s", ports.ErrInvalidProductID, line.ProductID)
		}
		keys[i] = productKey(line.ProductID)
		quantities[i] = line.Quantity
	}
	return keys, quantities, nil
}

func decodeReply(reply []any, lines []ports.ReservationLine) error {
	if len(reply) == 0 {
		return fmt.Errorf("%w: empty script reply", ports.ErrTransient)
	}
	status, ok := reply[0].(int64)
	if !ok {
		return fmt.Errorf("%w: malformed script reply", ports.ErrTransient)
	}
	switch status {
	case 1:
		return nil
	case -1:
		line := lines[replyIndex(reply, 1, len(lines))]
		return &ports.MissingProductError{ProductID: line.ProductID}
	case 0:
		line := lines[replyIndex(reply, 1, len(lines))]
		available := 0
		if len(reply) > 2 {
			if v, ok := reply[2].(int64); ok {
				available = int(v)
			}
		}
		return &ports.StockShortageError{
			ProductID: line.ProductID,
			Requested: line.Quantity,
			Available: available,
		}
	default:
		return fmt.Errorf("%w: unexpected script status %d", ports.ErrTransient, status)
	}
}

// replyIndex converts the 1-based Lua line index at reply[pos] into a bounds
// checked 0-based slice index.
func replyIndex(reply []any, pos, max int) int {
	if pos >= len(reply) {
		return 0
	}
	v, ok := reply[pos].(int64)
	if !ok || v < 1 || int(v) > max {
		return 0
	}
	return int(v) - 1
}

func productKey(id string) string {
	return productKeyPrefix + id
}

func hashFields(product *domain.Product) map[string]any {
	return map[string]any{
		"name":       product.Name,
		"size":       product.Size,
		"price":      strconv.FormatFloat(product.Price, 'f', -1, 64),
		"quantity":   product.Quantity,
		"created_at": product.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": product.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func fromHash(id string, fields map[string]string) (*domain.Product, error) {
	price, err := strconv.ParseFloat(fields["price"], 64)
	if err != nil {
		return nil, fmt.Errorf("decode product %s price: %w", id, err)
	}
	quantity, err := strconv.Atoi(fields["quantity"])
	if err != nil {
		return nil, fmt.Errorf("decode product %s quantity: %w", id, err)
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, fields["created_at"])
	updatedAt, _ := time.Parse(time.RFC3339Nano, fields["updated_at"])
	return &domain.Product{
		ID:        id,
		Name:      fields["name"],
		Size:      fields["size"],
		Price:     price,
		Quantity:  quantity,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
