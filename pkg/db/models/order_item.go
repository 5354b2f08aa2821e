package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is one product line on an order. The two flags are one-way
// idempotency guards: stock_deducted flips on shipment, stock_returned on an
// approved restock, and neither ever reverts. stock_returned requires
// stock_deducted first.
type OrderItem struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity      int       `gorm:"column:quantity;not null"`
	StockDeducted bool      `gorm:"column:stock_deducted;not null;default:false"`
	StockReturned bool      `gorm:"column:stock_returned;not null;default:false"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
