package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/packproof/packproof-backend/pkg/enums"
)

// StockMovement is an immutable signed quantity adjustment. Rows are never
// updated or deleted; the owning product's quantity is the sum of its deltas.
type StockMovement struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WorkspaceID uuid.UUID          `gorm:"column:workspace_id;type:uuid;not null"`
	ProductID   uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	Delta       int                `gorm:"column:delta;not null"`
	Type        enums.MovementType `gorm:"column:type;type:movement_type;not null"`
	Reason      string             `gorm:"column:reason;not null"`
	OrderID     *uuid.UUID         `gorm:"column:order_id;type:uuid"`
	ReturnID    *uuid.UUID         `gorm:"column:return_id;type:uuid"`
	ActorID     uuid.UUID          `gorm:"column:actor_id;type:uuid;not null"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}
