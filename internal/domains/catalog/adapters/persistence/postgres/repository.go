package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/storekit/shop-api/internal/domains/catalog/domain"
	"github.com/storekit/shop-api/internal/domains/catalog/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists products in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed inventory store. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&productRecord{})
	}
	return repo
}

// productRecord maps the product aggregate to a relational table. Seq is the
// stable creation-order sort key.
type productRecord struct {
	ID        string    `gorm:"primaryKey;column:id;type:uuid"`
	Seq       int64     `gorm:"column:seq;autoIncrement;uniqueIndex"`
	Name      string    `gorm:"column:name;size:100;index"`
	Size      string    `gorm:"column:size;size:20;index"`
	Price     float64   `gorm:"column:price"`
	Quantity  int       `gorm:"column:quantity"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

// Create inserts a new product.
func (r *Repository) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("product is nil")
	}
	record := toRecord(product)
	if record.ID == "" {
		record.ID = domain.NewID()
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// GetByID fetches a product by identifier.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if !domain.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", ports.ErrInvalidProductID, id)
	}
	var record productRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ports.MissingProductError{ProductID: id}
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// List returns one page of the filtered catalog ordered by insertion, plus
// the total count of the filtered set.
func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Product, int64, error) {
	if err := r.ensureDB(); err != nil {
		return nil, 0, err
	}
	query := r.db.WithContext(ctx).Model(&productRecord{})
	if filter.Name != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Size != "" {
		query = query.Where("size = ?", filter.Size)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var records []productRecord
	if err := query.Order("seq ASC").Limit(filter.Limit).Offset(filter.Offset).Find(&records).Error; err != nil {
		return nil, 0, err
	}
	products := make([]*domain.Product, 0, len(records))
	for i := range records {
		products = append(products, records[i].toDomain())
	}
	return products, total, nil
}

// ReserveStock debits every line inside a single transaction. Each line is a
// conditional decrement guarded by "quantity >= ?"; a zero-row update means
// the line fails and the transaction rolls back, restoring every prior
// debit. Concurrent reservations on the same row serialize on the row lock
// the UPDATE takes, so combined debits can never drive quantity negative.
func (r *Repository) ReserveStock(ctx context.Context, lines []ports.ReservationLine) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if len(lines) == 0 {
		return errors.New("no reservation lines supplied")
	}
	for _, line := range lines {
		if !domain.ValidID(line.ProductID) {
			return fmt.Errorf("%w: %s", ports.ErrInvalidProductID, line.ProductID)
		}
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range lines {
			result := tx.Model(&productRecord{}).
				Where("id = ? AND quantity >= ?", line.ProductID, line.Quantity).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", line.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return r.classifyFailedLine(tx, line)
			}
		}
		return nil
	})
}

// classifyFailedLine distinguishes a missing product from a shortage after a
// conditional decrement matched no row.
func (r *Repository) classifyFailedLine(tx *gorm.DB, line ports.ReservationLine) error {
	var record productRecord
	if err := tx.First(&record, "id = ?", line.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ports.MissingProductError{ProductID: line.ProductID}
		}
		return err
	}
	return &ports.StockShortageError{
		ProductID: line.ProductID,
		Requested: line.Quantity,
		Available: record.Quantity,
	}
}

// ReleaseStock re-credits previously reserved lines in one transaction.
func (r *Repository) ReleaseStock(ctx context.Context, lines []ports.ReservationLine) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range lines {
			result := tx.Model(&productRecord{}).
				Where("id = ?", line.ProductID).
				UpdateColumn("quantity", gorm.Expr("quantity + ?", line.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return &ports.MissingProductError{ProductID: line.ProductID}
			}
		}
		return nil
	})
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres product repository not configured")
	}
	return nil
}

func toRecord(product *domain.Product) productRecord {
	return productRecord{
		ID:       product.ID,
		Name:     product.Name,
		Size:     product.Size,
		Price:    product.Price,
		Quantity: product.Quantity,
	}
}

func (r productRecord) toDomain() *domain.Product {
	return &domain.Product{
		ID:        r.ID,
		Name:      r.Name,
		Size:      r.Size,
		Price:     r.Price,
		Quantity:  r.Quantity,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
