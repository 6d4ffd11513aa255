package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/storekit/shop-api/internal/domains/orders/domain"
	"github.com/storekit/shop-api/internal/domains/orders/ports"
)

var _ ports.Ledger = (*Ledger)(nil)

// Ledger persists orders in PostgreSQL using GORM.
type Ledger struct {
	db *gorm.DB
}

// NewLedger wires a PostgreSQL-backed order ledger. Caller manages DB lifecycle.
func NewLedger(db *gorm.DB) *Ledger {
	ledger := &Ledger{db: db}
	if db != nil {
		_ = db.AutoMigrate(&orderRecord{})
	}
	return ledger
}

// orderRecord maps the order aggregate to a relational table. Lines are kept
// as parallel arrays; positions pair a product id with its quantity.
type orderRecord struct {
	ID         string         `gorm:"primaryKey;column:id;type:uuid"`
	Seq        int64          `gorm:"column:seq;autoIncrement;uniqueIndex"`
	UserID     string         `gorm:"column:user_id;index"`
	ProductIDs pq.StringArray `gorm:"column:product_ids;type:uuid[]"`
	Quantities pq.Int64Array  `gorm:"column:quantities;type:bigint[]"`
	CreatedAt  time.Time      `gorm:"column:created_at;index"`
}

func (orderRecord) TableName() string { return "orders" }

// Append inserts a committed order. Records are never updated afterwards.
func (l *Ledger) Append(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := l.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	if err := l.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain()
}

// ListByUser returns one page of the user's orders in commit order.
func (l *Ledger) ListByUser(ctx context.Context, filter ports.ListFilter) ([]*domain.Order, int64, error) {
	if err := l.ensureDB(); err != nil {
		return nil, 0, err
	}
	query := l.db.WithContext(ctx).Model(&orderRecord{}).Where("user_id = ?", filter.UserID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var records []orderRecord
	if err := query.Order("seq ASC").Limit(filter.Limit).Offset(filter.Offset).Find(&records).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		order, err := records[i].toDomain()
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	return orders, total, nil
}

func (l *Ledger) ensureDB() error {
	if l == nil || l.db == nil {
		return errors.New("postgres order ledger not configured")
	}
	return nil
}

func toRecord(order *domain.Order) orderRecord {
	record := orderRecord{
		ID:         order.ID,
		UserID:     order.UserID,
		ProductIDs: make(pq.StringArray, 0, len(order.Lines)),
		Quantities: make(pq.Int64Array, 0, len(order.Lines)),
		CreatedAt:  order.CreatedAt,
	}
	for _, line := range order.Lines {
		record.ProductIDs = append(record.ProductIDs, line.ProductID)
		record.Quantities = append(record.Quantities, int64(line.Quantity))
	}
	return record
}

func (r orderRecord) toDomain() (*domain.Order, error) {
	if len(r.ProductIDs) != len(r.Quantities) {
		return nil, fmt.Errorf("order %s has mismatched line arrays", r.ID)
	}
	lines := make([]domain.Line, 0, len(r.ProductIDs))
	for i := range r.ProductIDs {
		lines = append(lines, domain.Line{ProductID: r.ProductIDs[i], Quantity: int(r.Quantities[i])})
	}
	return &domain.Order{
		ID:        r.ID,
		UserID:    r.UserID,
		Lines:     lines,
		CreatedAt: r.CreatedAt,
	}, nil
}
