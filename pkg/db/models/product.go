package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a sellable item in a single-warehouse workspace. Quantity is a
// cached aggregate of the product's stock movements; it is only ever written
// through the ledger.
type Product struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WorkspaceID       uuid.UUID `gorm:"column:workspace_id;type:uuid;not null;uniqueIndex:uq_products_workspace_sku"`
	SKU               string    `gorm:"column:sku;not null;uniqueIndex:uq_products_workspace_sku"`
	Name              string    `gorm:"column:name;not null"`
	Quantity          int       `gorm:"column:quantity;not null;default:0"`
	LowStockThreshold int       `gorm:"column:low_stock_threshold;not null;default:0"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// LowOnStock reports whether quantity has fallen to the alert threshold.
func (p Product) LowOnStock() bool {
	return p.LowStockThreshold > 0 && p.Quantity <= p.LowStockThreshold
}
