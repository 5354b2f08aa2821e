package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog is an immutable description of one mutating action.
type AuditLog struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WorkspaceID uuid.UUID       `gorm:"column:workspace_id;type:uuid;not null"`
	ActorID     uuid.UUID       `gorm:"column:actor_id;type:uuid;not null"`
	Action      string          `gorm:"column:action;not null"`
	EntityType  string          `gorm:"column:entity_type;not null"`
	EntityID    uuid.UUID       `gorm:"column:entity_id;type:uuid;not null"`
	Details     json.RawMessage `gorm:"column:details;type:jsonb"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
