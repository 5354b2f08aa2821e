package models

import (
	"time"

	"github.com/google/uuid"
)

// VideoEvidence records one packing recording and the digest taken at save
// time. Rows are immutable except Valid, which may only move true->false.
type VideoEvidence struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	FilePath        string    `gorm:"column:file_path;not null"`
	SHA256          string    `gorm:"column:sha256;not null"`
	SizeBytes       int64     `gorm:"column:size_bytes;not null"`
	DurationSeconds float64   `gorm:"column:duration_seconds;not null;default:0"`
	Valid           bool      `gorm:"column:valid;not null;default:true"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the singular noun; "video_evidences" reads wrong.
func (VideoEvidence) TableName() string {
	return "video_evidence"
}
