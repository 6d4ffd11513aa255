package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&productRecord{},
		&orderRecord{},
	)
}

// Product schema mirrors the catalog Postgres adapter.
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

// Order schema mirrors the orders Postgres adapter. Lines are stored as
// parallel arrays, one slot per (product, quantity) pair.
type orderRecord struct {
	ID         string         `gorm:"primaryKey;column:id;type:uuid"`
	Seq        int64          `gorm:"column:seq;autoIncrement;uniqueIndex"`
	UserID     string         `gorm:"column:user_id;index"`
	ProductIDs pq.StringArray `gorm:"column:product_ids;type:uuid[]"`
	Quantities pq.Int64Array  `gorm:"column:quantities;type:bigint[]"`
	CreatedAt  time.Time      `gorm:"column:created_at;index"`
}

func (orderRecord) TableName() string { return "orders" }
