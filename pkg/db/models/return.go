package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/packproof/packproof-backend/pkg/enums"
)

// Return tracks a customer return or carrier RTO against one order.
type Return struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID              `gorm:"column:order_id;type:uuid;not null"`
	Type          enums.ReturnType       `gorm:"column:type;type:return_type;not null"`
	Status        enums.ReturnStatus     `gorm:"column:status;type:return_status;not null;default:'pending'"`
	RestockStatus *enums.RestockDecision `gorm:"column:restock_status;type:restock_decision"`
	StockRestored bool                   `gorm:"column:stock_restored;not null;default:false"`
	Reason        *string                `gorm:"column:reason"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
