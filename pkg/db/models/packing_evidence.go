package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PackingEvidence is the one-per-order packing checklist, optionally linking
// the video that proves it.
type PackingEvidence struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID       `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	ProductCorrect  bool            `gorm:"column:product_correct;not null;default:false"`
	QuantityCorrect bool            `gorm:"column:quantity_correct;not null;default:false"`
	SealingDone     bool            `gorm:"column:sealing_done;not null;default:false"`
	PhotoPaths      json.RawMessage `gorm:"column:photo_paths;type:jsonb"`
	VideoID         *uuid.UUID      `gorm:"column:video_id;type:uuid"`
	PackedBy        uuid.UUID       `gorm:"column:packed_by;type:uuid;not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (PackingEvidence) TableName() string {
	return "packing_evidence"
}
