package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/packproof/packproof-backend/internal/audit"
	"github.com/packproof/packproof-backend/internal/ledger"
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

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry audit.Entry)
}

// Service applies physical-count corrections to the ledger.
type Service interface {
	Reconcile(ctx context.Context, input ReconcileInput) ([]models.StockMovement, error)
}

type service struct {
	tx     txRunner
	ledger stockLedger
	audit  auditRecorder
}

// Entry is one counted correction. Quantity is always positive; Direction
// carries the sign.
type Entry struct {
	ProductID uuid.UUID
	Quantity  int
	Direction enums.ReconcileDirection
	Reason    string
}

// ReconcileInput is a batch of corrections applied as one unit.
type ReconcileInput struct {
	WorkspaceID uuid.UUID
	ActorID     uuid.UUID
	Entries     []Entry
}

// NewService builds a reconciliation service. It carries no repository of
// its own: every write goes through the stock ledger.
func NewService(tx txRunner, stock stockLedger, recorder auditRecorder) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{tx: tx, ledger: stock, audit: recorder}, nil
}

// Reconcile validates every entry up front, then emits one unconditional
// movement per entry inside a single transaction. There is no idempotency
// flag here: replaying a reconciliation doubles the correction, so callers
// must not retry blindly.
func (s *service) Reconcile(ctx context.Context, input ReconcileInput) ([]models.StockMovement, error) {
	if input.WorkspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if len(input.Entries) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one reconciliation entry required")
	}
	for i, entry := range input.Entries {
		if err := validateEntry(i, entry); err != nil {
			return nil, err
		}
	}

	movements := make([]models.StockMovement, 0, len(input.Entries))
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, entry := range input.Entries {
			delta := entry.Quantity
			if entry.Direction == enums.ReconcileDirectionOut {
				delta = -entry.Quantity
			}

			movement, err := s.ledger.ApplyMovement(ctx, tx, ledger.MovementInput{
				WorkspaceID: input.WorkspaceID,
				ProductID:   entry.ProductID,
				Delta:       delta,
				Type:        enums.MovementTypeReconciliation,
				Reason:      entry.Reason,
				ActorID:     input.ActorID,
			})
			if err != nil {
				return err
			}

			s.audit.Record(ctx, tx, audit.Entry{
				WorkspaceID: input.WorkspaceID,
				ActorID:     input.ActorID,
				Action:      audit.ActionReconciled,
				EntityType:  audit.EntityMovement,
				EntityID:    movement.ID,
				Details: map[string]any{
					"product_id": entry.ProductID,
					"delta":      delta,
					"reason":     entry.Reason,
				},
			})
			movements = append(movements, *movement)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movements, nil
}

func validateEntry(index int, entry Entry) error {
	if entry.ProductID == uuid.Nil {
		return entryError(index, "product id required")
	}
	if entry.Quantity <= 0 {
		return entryError(index, "quantity must be positive")
	}
	if !entry.Direction.IsValid() {
		return entryError(index, fmt.Sprintf("invalid direction %q", entry.Direction))
	}
	if entry.Reason == "" {
		return entryError(index, "reason required")
	}
	return nil
}

func entryError(index int, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid reconciliation entry").
		WithDetails(map[string]any{"index": index, "error": message})
}
