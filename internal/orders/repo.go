package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/packproof/packproof-backend/pkg/db/models"
	"github.com/packproof/packproof-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository manages persistence for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, workspaceID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, workspaceID uuid.UUID, status *enums.OrderStatus, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	FindProduct(ctx context.Context, workspaceID, productID uuid.UUID) (*models.Product, error)
	MarkStockDeducted(ctx context.Context, itemID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, workspaceID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND workspace_id = ?", orderID, workspaceID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, workspaceID uuid.UUID, status *enums.OrderStatus, limit int) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("Items").
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
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

// MarkStockDeducted flips the item's deduction flag only if it is still
// false. The row count tells the caller whether this invocation won the
// flip and therefore owes the ledger a movement.
func (r *repository) MarkStockDeducted(ctx context.Context, itemID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE order_items
		SET stock_deducted = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_deducted = ?
	`, true, itemID, false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
