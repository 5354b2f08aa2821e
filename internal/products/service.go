package products

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/packproof/packproof-backend/internal/ledger"
	"github.com/packproof/packproof-backend/pkg/db"
	"github.com/packproof/packproof-backend/pkg/db/models"
	"github.com/packproof/packproof-backend/pkg/enums"
	pkgerrors "github.com/packproof/packproof-backend/pkg/errors"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockLedger interface {
	ApplyMovement(ctx context.Context, tx *gorm.DB, input ledger.MovementInput) (*models.StockMovement, error)
}

// Service defines catalog operations. Stock levels are read-only here;
// opening stock is seeded through the ledger so the cached quantity always
// equals the sum of movement deltas.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Get(ctx context.Context, workspaceID, productID uuid.UUID) (*models.Product, error)
	List(ctx context.Context, workspaceID uuid.UUID, limit int) ([]models.Product, error)
	UpdateDetails(ctx context.Context, input UpdateProductInput) (*models.Product, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	ledger stockLedger
}

// CreateProductInput captures a new catalog entry. InitialQuantity becomes
// the opening reconciliation movement; later changes go through the ledger
// as well.
type CreateProductInput struct {
	WorkspaceID       uuid.UUID
	ActorID           uuid.UUID
	SKU               string
	Name              string
	InitialQuantity   int
	LowStockThreshold int
}

// UpdateProductInput carries editable catalog details. Quantity is absent
// on purpose.
type UpdateProductInput struct {
	WorkspaceID       uuid.UUID
	ActorID           uuid.UUID
	ProductID         uuid.UUID
	Name              *string
	LowStockThreshold *int
}

// NewService builds a products service with the required dependencies.
func NewService(repo Repository, tx txRunner, stock stockLedger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	return &service{repo: repo, tx: tx, ledger: stock}, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if input.WorkspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.SKU == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if input.InitialQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial quantity cannot be negative")
	}
	if input.LowStockThreshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "low stock threshold cannot be negative")
	}

	product := &models.Product{
		ID:                uuid.New(),
		WorkspaceID:       input.WorkspaceID,
		SKU:               input.SKU,
		Name:              input.Name,
		Quantity:          0,
		LowStockThreshold: input.LowStockThreshold,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, product); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "sku already exists in workspace")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}

		if input.InitialQuantity > 0 {
			if _, err := s.ledger.ApplyMovement(ctx, tx, ledger.MovementInput{
				WorkspaceID: input.WorkspaceID,
				ProductID:   product.ID,
				Delta:       input.InitialQuantity,
				Type:        enums.MovementTypeReconciliation,
				Reason:      "initial stock",
				ActorID:     input.ActorID,
			}); err != nil {
				return err
			}
			product.Quantity = input.InitialQuantity
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) Get(ctx context.Context, workspaceID, productID uuid.UUID) (*models.Product, error) {
	if workspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	product, err := s.repo.FindByID(ctx, workspaceID, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, workspaceID uuid.UUID, limit int) ([]models.Product, error) {
	if workspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}

	products, err := s.repo.List(ctx, workspaceID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

func (s *service) UpdateDetails(ctx context.Context, input UpdateProductInput) (*models.Product, error) {
	if input.WorkspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	product, err := s.repo.FindByID(ctx, input.WorkspaceID, input.ProductID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = *input.Name
		product.Name = *input.Name
	}
	if input.LowStockThreshold != nil {
		if *input.LowStockThreshold < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "low stock threshold cannot be negative")
		}
		updates["low_stock_threshold"] = *input.LowStockThreshold
		product.LowStockThreshold = *input.LowStockThreshold
	}
	if len(updates) == 0 {
		return product, nil
	}

	if err := s.repo.UpdateDetails(ctx, product.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return product, nil
}
