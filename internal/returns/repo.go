package returns

import (
	"context"

	"github.com/google/uuid"
	"github.com/packproof/packproof-backend/pkg/db/models"
	"github.com/packproof/packproof-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository manages persistence for returns. Returns carry no workspace
// column of their own; scoping goes through the parent order.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ret *models.Return) error
	FindByID(ctx context.Context, workspaceID, returnID uuid.UUID) (*models.Return, error)
	Update(ctx context.Context, returnID uuid.UUID, updates map[string]any) error
	FindOrder(ctx context.Context, workspaceID, orderID uuid.UUID) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	MarkStockReturned(ctx context.Context, itemID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a returns repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, ret *models.Return) error {
	return r.db.WithContext(ctx).Create(ret).Error
}

func (r *repository) FindByID(ctx context.Context, workspaceID, returnID uuid.UUID) (*models.Return, error) {
	var ret models.Return
	err := r.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = returns.order_id").
		Where("returns.id = ? AND orders.workspace_id = ?", returnID, workspaceID).
		First(&ret).Error
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *repository) Update(ctx context.Context, returnID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Return{}).
		Where("id = ?", returnID).
		Updates(updates).Error
}

func (r *repository) FindOrder(ctx context.Context, workspaceID, orderID uuid.UUID) (*models.Order, error) {
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

func (r *repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}

// MarkStockReturned flips the restock flag only for items that were
// actually deducted and not yet restored. The deducted precondition is in
// the WHERE clause so a line can never be restocked before it shipped.
func (r *repository) MarkStockReturned(ctx context.Context, itemID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE order_items
		SET stock_returned = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_deducted = ? AND stock_returned = ?
	`, true, itemID, true, false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
