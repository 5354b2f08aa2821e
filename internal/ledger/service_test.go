package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/packproof/packproof-backend/pkg/db/models"
	"github.com/packproof/packproof-backend/pkg/enums"
	pkgerrors "github.com/packproof/packproof-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  workspace_id TEXT NOT NULL,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0,
  low_stock_threshold INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	movements := `
CREATE TABLE IF NOT EXISTS stock_movements (
  id TEXT PRIMARY KEY,
  workspace_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  delta INTEGER NOT NULL,
  type TEXT NOT NULL,
  reason TEXT NOT NULL,
  order_id TEXT,
  return_id TEXT,
  actor_id TEXT NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(movements).Error)
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

func newLedgerService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func newProduct(t *testing.T, db *gorm.DB, workspaceID uuid.UUID, qty int) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		SKU:         "SKU-" + uuid.NewString()[:8],
		Name:        "Test Product",
		Quantity:    qty,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func countMovements(t *testing.T, db *gorm.DB, productID uuid.UUID) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.StockMovement{}).Where("product_id = ?", productID).Count(&count).Error)
	return count
}

func loadQuantity(t *testing.T, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()

	var product models.Product
	require.NoError(t, db.Where("id = ?", productID).First(&product).Error)
	return product.Quantity
}

func TestAdjust_positiveDelta(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)

	workspaceID := uuid.New()
	product := newProduct(t, db, workspaceID, 10)

	movement, err := svc.Adjust(context.Background(), MovementInput{
		WorkspaceID: workspaceID,
		ProductID:   product.ID,
		Delta:       5,
		Type:        enums.MovementTypeRestock,
		Reason:      "supplier delivery",
		ActorID:     uuid.New(),
	})
	require.NoError(t, err)
	require.NotNil(t, movement)
	assert.Equal(t, 5, movement.Delta)

	assert.Equal(t, 15, loadQuantity(t, db, product.ID))
	assert.Equal(t, int64(1), countMovements(t, db, product.ID))
}

func TestAdjust_negativeDeltaWithinStock(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)

	workspaceID := uuid.New()
	product := newProduct(t, db, workspaceID, 10)

	_, err := svc.Adjust(context.Background(), MovementInput{
		WorkspaceID: workspaceID,
		ProductID:   product.ID,
		Delta:       -10,
		Type:        enums.MovementTypeShipment,
		Reason:      "order shipped",
		ActorID:     uuid.New(),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, loadQuantity(t, db, product.ID))
}

func TestAdjust_insufficientStockLeavesNothingBehind(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)

	workspaceID := uuid.New()
	product := newProduct(t, db, workspaceID, 3)

	_, err := svc.Adjust(context.Background(), MovementInput{
		WorkspaceID: workspaceID,
		ProductID:   product.ID,
		Delta:       -5,
		Type:        enums.MovementTypeShipment,
		Reason:      "order shipped",
		ActorID:     uuid.New(),
	})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	details, ok := typed.Details().(InsufficientStockDetails)
	require.True(t, ok)
	assert.Equal(t, 5, details.Requested)
	assert.Equal(t, 3, details.Available)
	assert.Equal(t, 2, details.Shortfall)

	// rejection must not leave a movement row or touch the quantity
	assert.Equal(t, int64(0), countMovements(t, db, product.ID))
	assert.Equal(t, 3, loadQuantity(t, db, product.ID))
}

func TestAdjust_productNotFound(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)

	_, err := svc.Adjust(context.Background(), MovementInput{
		WorkspaceID: uuid.New(),
		ProductID:   uuid.New(),
		Delta:       1,
		Type:        enums.MovementTypeRestock,
		Reason:      "supplier delivery",
		ActorID:     uuid.New(),
	})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestAdjust_workspaceScoping(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)

	product := newProduct(t, db, uuid.New(), 10)

	// a different workspace cannot see the product at all
	_, err := svc.Adjust(context.Background(), MovementInput{
		WorkspaceID: uuid.New(),
		ProductID:   product.ID,
		Delta:       1,
		Type:        enums.MovementTypeRestock,
		Reason:      "supplier delivery",
		ActorID:     uuid.New(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestAdjust_validation(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)

	workspaceID := uuid.New()
	product := newProduct(t, db, workspaceID, 10)

	cases := []struct {
		name  string
		input MovementInput
		code  pkgerrors.Code
	}{
		{
			name: "zero delta",
			input: MovementInput{
				WorkspaceID: workspaceID,
				ProductID:   product.ID,
				Delta:       0,
				Type:        enums.MovementTypeRestock,
				Reason:      "noop",
				ActorID:     uuid.New(),
			},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "invalid type",
			input: MovementInput{
				WorkspaceID: workspaceID,
				ProductID:   product.ID,
				Delta:       1,
				Type:        enums.MovementType("teleport"),
				Reason:      "noop",
				ActorID:     uuid.New(),
			},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "missing reason",
			input: MovementInput{
				WorkspaceID: workspaceID,
				ProductID:   product.ID,
				Delta:       1,
				Type:        enums.MovementTypeRestock,
				ActorID:     uuid.New(),
			},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "missing actor",
			input: MovementInput{
				WorkspaceID: workspaceID,
				ProductID:   product.ID,
				Delta:       1,
				Type:        enums.MovementTypeRestock,
				Reason:      "noop",
			},
			code: pkgerrors.CodeUnauthorized,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Adjust(context.Background(), tc.input)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, tc.code, typed.Code())
		})
	}
}

func TestQuantityFromMovements(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)

	workspaceID := uuid.New()
	product := newProduct(t, db, workspaceID, 0)

	deltas := []int{10, -3, 4, -1}
	for _, d := range deltas {
		movementType := enums.MovementTypeRestock
		if d < 0 {
			movementType = enums.MovementTypeShipment
		}
		_, err := svc.Adjust(context.Background(), MovementInput{
			WorkspaceID: workspaceID,
			ProductID:   product.ID,
			Delta:       d,
			Type:        movementType,
			Reason:      "history",
			ActorID:     uuid.New(),
		})
		require.NoError(t, err)
	}

	total, err := svc.QuantityFromMovements(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)

	// the replayed history matches the cached quantity
	assert.Equal(t, 10, loadQuantity(t, db, product.ID))
}

func TestListMovements(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)

	workspaceID := uuid.New()
	product := newProduct(t, db, workspaceID, 100)

	for i := 0; i < 3; i++ {
		_, err := svc.Adjust(context.Background(), MovementInput{
			WorkspaceID: workspaceID,
			ProductID:   product.ID,
			Delta:       -1,
			Type:        enums.MovementTypeShipment,
			Reason:      "order shipped",
			ActorID:     uuid.New(),
		})
		require.NoError(t, err)
	}

	movements, err := svc.ListMovements(context.Background(), ListMovementsInput{
		WorkspaceID: workspaceID,
		ProductID:   product.ID,
	})
	require.NoError(t, err)
	assert.Len(t, movements, 3)

	limited, err := svc.ListMovements(context.Background(), ListMovementsInput{
		WorkspaceID: workspaceID,
		ProductID:   product.ID,
		Limit:       2,
	})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
