package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/packproof/packproof-backend/pkg/db/models"
	"github.com/packproof/packproof-backend/pkg/enums"
	pkgerrors "github.com/packproof/packproof-backend/pkg/errors"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the single write path for product stock. Every quantity
// change flows through ApplyMovement so the movement history stays a
// complete account of the cached value.
type Service interface {
	ApplyMovement(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.StockMovement, error)
	Adjust(ctx context.Context, input MovementInput) (*models.StockMovement, error)
	ListMovements(ctx context.Context, input ListMovementsInput) ([]models.StockMovement, error)
	QuantityFromMovements(ctx context.Context, productID uuid.UUID) (int64, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// MovementInput captures the immutable data a stock movement requires.
type MovementInput struct {
	WorkspaceID uuid.UUID
	ProductID   uuid.UUID
	Delta       int
	Type        enums.MovementType
	Reason      string
	OrderID     *uuid.UUID
	ReturnID    *uuid.UUID
	ActorID     uuid.UUID
}

// ListMovementsInput scopes a movement history read.
type ListMovementsInput struct {
	WorkspaceID uuid.UUID
	ProductID   uuid.UUID
	Limit       int
}

// InsufficientStockDetails is attached to rejections of negative movements.
type InsufficientStockDetails struct {
	ProductID uuid.UUID `json:"product_id"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
	Shortfall int       `json:"shortfall"`
}

// NewService wires a ledger service with the provided dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// ApplyMovement records a movement and folds its delta into the cached
// quantity, inside the caller's transaction. A negative delta that would
// drive the quantity below zero fails the whole transaction, so the
// movement row and the cached value can never disagree.
func (s *service) ApplyMovement(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.StockMovement, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock movement")
	}
	if err := validateMovementInput(input); err != nil {
		return nil, err
	}

	repo := s.repo.WithTx(tx)

	product, err := repo.FindProduct(ctx, input.WorkspaceID, input.ProductID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if input.Delta < 0 && product.Quantity+input.Delta < 0 {
		return nil, insufficientStock(product, input.Delta)
	}

	movement := &models.StockMovement{
		ID:          uuid.New(),
		WorkspaceID: input.WorkspaceID,
		ProductID:   input.ProductID,
		Delta:       input.Delta,
		Type:        input.Type,
		Reason:      input.Reason,
		OrderID:     input.OrderID,
		ReturnID:    input.ReturnID,
		ActorID:     input.ActorID,
	}
	if err := repo.CreateMovement(ctx, movement); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
	}

	applied, err := repo.AdjustQuantity(ctx, input.ProductID, input.Delta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust product quantity")
	}
	if !applied {
		// A concurrent writer consumed the stock between the read and
		// the guarded update. Failing here rolls back the movement row.
		return nil, insufficientStock(product, input.Delta)
	}

	return movement, nil
}

// Adjust runs a single movement in its own transaction. This is the
// entrypoint for manual stock corrections.
func (s *service) Adjust(ctx context.Context, input MovementInput) (*models.StockMovement, error) {
	var movement *models.StockMovement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var applyErr error
		movement, applyErr = s.ApplyMovement(ctx, tx, input)
		return applyErr
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *service) ListMovements(ctx context.Context, input ListMovementsInput) ([]models.StockMovement, error) {
	if input.WorkspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	movements, err := s.repo.ListByProduct(ctx, input.WorkspaceID, input.ProductID, input.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}
	return movements, nil
}

func (s *service) QuantityFromMovements(ctx context.Context, productID uuid.UUID) (int64, error) {
	if productID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	total, err := s.repo.SumDeltas(ctx, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum stock movements")
	}
	return total, nil
}

func validateMovementInput(input MovementInput) error {
	if input.WorkspaceID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.Delta == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "movement delta must be nonzero")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement type %q", input.Type))
	}
	if input.Reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "movement reason required")
	}
	return nil
}

func insufficientStock(product *models.Product, delta int) error {
	requested := -delta
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for movement").
		WithDetails(InsufficientStockDetails{
			ProductID: product.ID,
			Requested: requested,
			Available: product.Quantity,
			Shortfall: requested - product.Quantity,
		})
}
