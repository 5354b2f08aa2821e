package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/packproof/packproof-backend/internal/audit"
	"github.com/packproof/packproof-backend/internal/ledger"
	"github.com/packproof/packproof-backend/pkg/db"
	"github.com/packproof/packproof-backend/pkg/db/models"
	"github.com/packproof/packproof-backend/pkg/enums"
	pkgerrors "github.com/packproof/packproof-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockLedger interface {
	ApplyMovement(ctx context.Context, tx *gorm.DB, input ledger.MovementInput) (*models.StockMovement, error)
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry audit.Entry)
}

// Service defines order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	Ship(ctx context.Context, input ShipOrderInput) (*models.Order, error)
	Get(ctx context.Context, workspaceID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, input ListOrdersInput) ([]models.Order, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	ledger stockLedger
	audit  auditRecorder
}

// CreateOrderItemInput is one requested product line.
type CreateOrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput captures the data required to open a new order.
type CreateOrderInput struct {
	WorkspaceID uuid.UUID
	ActorID     uuid.UUID
	OrderNumber string
	TotalAmount decimal.Decimal
	Items       []CreateOrderItemInput
}

// UpdateStatusInput captures a plain status transition request.
type UpdateStatusInput struct {
	WorkspaceID uuid.UUID
	ActorID     uuid.UUID
	OrderID     uuid.UUID
	Target      enums.OrderStatus
}

// ShipOrderInput captures the shipment request.
type ShipOrderInput struct {
	WorkspaceID uuid.UUID
	ActorID     uuid.UUID
	OrderID     uuid.UUID
}

// ListOrdersInput scopes an order listing.
type ListOrdersInput struct {
	WorkspaceID uuid.UUID
	Status      *enums.OrderStatus
	Limit       int
}

// InvalidTransitionDetails names the disallowed move.
type InvalidTransitionDetails struct {
	From enums.OrderStatus `json:"from"`
	To   enums.OrderStatus `json:"to"`
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, stock stockLedger, recorder auditRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, tx: tx, ledger: stock, audit: recorder}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.WorkspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.OrderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}
	if input.TotalAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total amount cannot be negative")
	}

	order := &models.Order{
		ID:          uuid.New(),
		WorkspaceID: input.WorkspaceID,
		OrderNumber: input.OrderNumber,
		Status:      enums.OrderStatusNew,
		TotalAmount: input.TotalAmount,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		for _, item := range input.Items {
			if _, err := repo.FindProduct(ctx, input.WorkspaceID, item.ProductID); err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
						WithDetails(map[string]any{"product_id": item.ProductID})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			order.Items = append(order.Items, models.OrderItem{
				ID:        uuid.New(),
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		if err := repo.Create(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "order number already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		s.audit.Record(ctx, tx, audit.Entry{
			WorkspaceID: input.WorkspaceID,
			ActorID:     input.ActorID,
			Action:      audit.ActionOrderCreated,
			EntityType:  audit.EntityOrder,
			EntityID:    order.ID,
			Details:     map[string]any{"order_number": order.OrderNumber, "items": len(order.Items)},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateStatus applies a plain guarded transition. Shipment is carved out:
// entering shipped deducts stock and must go through Ship.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.WorkspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", input.Target))
	}
	if input.Target == enums.OrderStatusShipped {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "shipment must go through the ship operation")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := repo.FindByID(ctx, input.WorkspaceID, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if !loaded.Status.CanTransitionTo(input.Target) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "status transition not permitted").
				WithDetails(InvalidTransitionDetails{From: loaded.Status, To: input.Target})
		}

		if err := repo.UpdateStatus(ctx, loaded.ID, input.Target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		s.audit.Record(ctx, tx, audit.Entry{
			WorkspaceID: input.WorkspaceID,
			ActorID:     input.ActorID,
			Action:      audit.ActionOrderStatus,
			EntityType:  audit.EntityOrder,
			EntityID:    loaded.ID,
			Details:     map[string]any{"from": loaded.Status, "to": input.Target},
		})

		loaded.Status = input.Target
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Ship moves the order into shipped and deducts stock exactly once per
// item. Retrying an already-shipped order is a no-op: every item's flag is
// already set, so the conditional flips match zero rows and no movement is
// written.
func (s *service) Ship(ctx context.Context, input ShipOrderInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.WorkspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := repo.FindByID(ctx, input.WorkspaceID, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		alreadyShipped := loaded.Status == enums.OrderStatusShipped
		if !loaded.Status.CanShip() && !alreadyShipped {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order cannot be shipped from its current status").
				WithDetails(InvalidTransitionDetails{From: loaded.Status, To: enums.OrderStatusShipped})
		}

		// All-or-nothing availability check before any flag is touched.
		for _, item := range loaded.Items {
			if item.StockDeducted {
				continue
			}
			product, err := repo.FindProduct(ctx, input.WorkspaceID, item.ProductID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			if product.Quantity < item.Quantity {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock to ship order").
					WithDetails(ledger.InsufficientStockDetails{
						ProductID: product.ID,
						Requested: item.Quantity,
						Available: product.Quantity,
						Shortfall: item.Quantity - product.Quantity,
					})
			}
		}

		for _, item := range loaded.Items {
			flipped, err := repo.MarkStockDeducted(ctx, item.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag item deduction")
			}
			if !flipped {
				continue
			}
			movement, err := s.ledger.ApplyMovement(ctx, tx, ledger.MovementInput{
				WorkspaceID: input.WorkspaceID,
				ProductID:   item.ProductID,
				Delta:       -item.Quantity,
				Type:        enums.MovementTypeShipment,
				Reason:      fmt.Sprintf("order %s shipped", loaded.OrderNumber),
				OrderID:     &loaded.ID,
				ActorID:     input.ActorID,
			})
			if err != nil {
				return err
			}
			s.audit.Record(ctx, tx, audit.Entry{
				WorkspaceID: input.WorkspaceID,
				ActorID:     input.ActorID,
				Action:      audit.ActionStockMoved,
				EntityType:  audit.EntityMovement,
				EntityID:    movement.ID,
				Details:     map[string]any{"product_id": item.ProductID, "delta": -item.Quantity},
			})
		}

		if !alreadyShipped {
			if err := repo.UpdateStatus(ctx, loaded.ID, enums.OrderStatusShipped); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
			}
			s.audit.Record(ctx, tx, audit.Entry{
				WorkspaceID: input.WorkspaceID,
				ActorID:     input.ActorID,
				Action:      audit.ActionOrderShipped,
				EntityType:  audit.EntityOrder,
				EntityID:    loaded.ID,
			})
		}

		loaded.Status = enums.OrderStatusShipped
		for i := range loaded.Items {
			loaded.Items[i].StockDeducted = true
		}
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, workspaceID, orderID uuid.UUID) (*models.Order, error) {
	if workspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindByID(ctx, workspaceID, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, input ListOrdersInput) ([]models.Order, error) {
	if input.WorkspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *input.Status))
	}

	orders, err := s.repo.List(ctx, input.WorkspaceID, input.Status, input.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}
