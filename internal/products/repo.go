package products

import (
	"context"

	"github.com/google/uuid"
	"github.com/packproof/packproof-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository manages persistence for products. Quantity is never written
// here; that column belongs to the stock ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, workspaceID, productID uuid.UUID) (*models.Product, error)
	List(ctx context.Context, workspaceID uuid.UUID, limit int) ([]models.Product, error)
	UpdateDetails(ctx context.Context, productID uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a products repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) FindByID(ctx context.Context, workspaceID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", productID, workspaceID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) List(ctx context.Context, workspaceID uuid.UUID, limit int) ([]models.Product, error) {
	q := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("sku ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var products []models.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) UpdateDetails(ctx context.Context, productID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(updates).Error
}
