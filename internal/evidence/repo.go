package evidence

import (
	"context"

	"github.com/google/uuid"
	"github.com/packproof/packproof-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository manages persistence for evidence records. Video rows are
// immutable except the one-way validity downgrade.
type Repository interface {
	FindOrder(ctx context.Context, workspaceID, orderID uuid.UUID) (*models.Order, error)
	CreateVideo(ctx context.Context, video *models.VideoEvidence) error
	FindVideoByID(ctx context.Context, workspaceID, videoID uuid.UUID) (*models.VideoEvidence, error)
	ListVideosByOrder(ctx context.Context, workspaceID, orderID uuid.UUID) ([]models.VideoEvidence, error)
	MarkVideoInvalid(ctx context.Context, videoID uuid.UUID) error
	FindChecklistByOrder(ctx context.Context, orderID uuid.UUID) (*models.PackingEvidence, error)
	CreateChecklist(ctx context.Context, checklist *models.PackingEvidence) error
	UpdateChecklist(ctx context.Context, checklistID uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an evidence repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindOrder(ctx context.Context, workspaceID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", orderID, workspaceID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) CreateVideo(ctx context.Context, video *models.VideoEvidence) error {
	return r.db.WithContext(ctx).Create(video).Error
}

func (r *repository) FindVideoByID(ctx context.Context, workspaceID, videoID uuid.UUID) (*models.VideoEvidence, error) {
	var video models.VideoEvidence
	err := r.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = video_evidence.order_id").
		Where("video_evidence.id = ? AND orders.workspace_id = ?", videoID, workspaceID).
		First(&video).Error
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *repository) ListVideosByOrder(ctx context.Context, workspaceID, orderID uuid.UUID) ([]models.VideoEvidence, error) {
	var videos []models.VideoEvidence
	err := r.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = video_evidence.order_id").
		Where("video_evidence.order_id = ? AND orders.workspace_id = ?", orderID, workspaceID).
		Order("video_evidence.created_at ASC").
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// MarkVideoInvalid downgrades validity. The WHERE clause only matches
// currently-valid rows, so the flag can never flow back to true.
func (r *repository) MarkVideoInvalid(ctx context.Context, videoID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE video_evidence
		SET valid = ?
		WHERE id = ? AND valid = ?
	`, false, videoID, true).Error
}

func (r *repository) FindChecklistByOrder(ctx context.Context, orderID uuid.UUID) (*models.PackingEvidence, error) {
	var checklist models.PackingEvidence
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&checklist).Error
	if err != nil {
		return nil, err
	}
	return &checklist, nil
}

func (r *repository) CreateChecklist(ctx context.Context, checklist *models.PackingEvidence) error {
	return r.db.WithContext(ctx).Create(checklist).Error
}

func (r *repository) UpdateChecklist(ctx context.Context, checklistID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PackingEvidence{}).
		Where("id = ?", checklistID).
		Updates(updates).Error
}
