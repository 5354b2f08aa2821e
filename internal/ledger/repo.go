package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/packproof/packproof-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository manages persistence for stock movements and the cached
// product quantity they roll up to.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProduct(ctx context.Context, workspaceID, productID uuid.UUID) (*models.Product, error)
	CreateMovement(ctx context.Context, movement *models.StockMovement) error
	AdjustQuantity(ctx context.Context, productID uuid.UUID, delta int) (bool, error)
	ListByProduct(ctx context.Context, workspaceID, productID uuid.UUID, limit int) ([]models.StockMovement, error)
	SumDeltas(ctx context.Context, productID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindProduct(ctx context.Context, workspaceID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", productID, workspaceID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// AdjustQuantity applies delta to the cached quantity. The WHERE clause
// re-checks the floor so a concurrent writer cannot drive the value
// negative between the service's read and this write. Returns false when
// the guard rejected the update.
func (r *repository) AdjustQuantity(ctx context.Context, productID uuid.UUID, delta int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET quantity = quantity + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND quantity + ? >= 0
	`, delta, productID, delta)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListByProduct(ctx context.Context, workspaceID, productID uuid.UUID, limit int) ([]models.StockMovement, error) {
	q := r.db.WithContext(ctx).
		Where("workspace_id = ? AND product_id = ?", workspaceID, productID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var movements []models.StockMovement
	if err := q.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// SumDeltas replays the full movement history for a product. Used by
// reconciliation to cross-check the cached quantity.
func (r *repository) SumDeltas(ctx context.Context, productID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(delta), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
