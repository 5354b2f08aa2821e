package returns

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

// Service defines the return/RTO lifecycle operations.
type Service interface {
	Open(ctx context.Context, input OpenReturnInput) (*models.Return, error)
	Inspect(ctx context.Context, input TransitionInput) (*models.Return, error)
	Approve(ctx context.Context, input ApproveReturnInput) (*models.Return, error)
	Reject(ctx context.Context, input TransitionInput) (*models.Return, error)
	Complete(ctx context.Context, input TransitionInput) (*models.Return, error)
	Get(ctx context.Context, workspaceID, returnID uuid.UUID) (*models.Return, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	ledger stockLedger
	audit  auditRecorder
}

// OpenReturnInput creates a return against an order.
type OpenReturnInput struct {
	WorkspaceID uuid.UUID
	ActorID     uuid.UUID
	OrderID     uuid.UUID
	Type        enums.ReturnType
	Reason      *string
}

// TransitionInput carries a bare status transition request.
type TransitionInput struct {
	WorkspaceID uuid.UUID
	ActorID     uuid.UUID
	ReturnID    uuid.UUID
}

// ApproveReturnInput carries the approval with the operator's restock call.
type ApproveReturnInput struct {
	WorkspaceID uuid.UUID
	ActorID     uuid.UUID
	ReturnID    uuid.UUID
	Restock     enums.RestockDecision
}

// NewService builds a returns service with the required dependencies.
func NewService(repo Repository, tx txRunner, stock stockLedger, recorder auditRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("returns repository required")
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

// Open creates a pending return and flips the parent order onto the
// matching side branch, in one transaction.
func (s *service) Open(ctx context.Context, input OpenReturnInput) (*models.Return, error) {
	if input.WorkspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid return type %q", input.Type))
	}

	ret := &models.Return{
		ID:      uuid.New(),
		OrderID: input.OrderID,
		Type:    input.Type,
		Status:  enums.ReturnStatusPending,
		Reason:  input.Reason,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, input.WorkspaceID, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		branch := input.Type.OrderStatus()
		if !order.Status.CanTransitionTo(branch) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order cannot enter a return branch from its current status").
				WithDetails(map[string]any{"from": order.Status, "to": branch})
		}

		if err := repo.Create(ctx, ret); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create return")
		}
		if err := repo.UpdateOrderStatus(ctx, order.ID, branch); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		s.audit.Record(ctx, tx, audit.Entry{
			WorkspaceID: input.WorkspaceID,
			ActorID:     input.ActorID,
			Action:      audit.ActionReturnOpened,
			EntityType:  audit.EntityReturn,
			EntityID:    ret.ID,
			Details:     map[string]any{"order_id": order.ID, "type": input.Type},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Inspect moves an RTO from pending to inspected. Customer returns skip
// inspection, so the transition table rejects them here.
func (s *service) Inspect(ctx context.Context, input TransitionInput) (*models.Return, error) {
	return s.transition(ctx, input, enums.ReturnStatusInspected, audit.ActionReturnInspected)
}

// Approve finalizes the operator's decision. Restock yes is the single
// stock-restoring transition; anything else reaches approved without a
// ledger call. Approving an already-approved return is a no-op success.
func (s *service) Approve(ctx context.Context, input ApproveReturnInput) (*models.Return, error) {
	if input.WorkspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.ReturnID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return id required")
	}

	// An unspecified decision means no restock; record it explicitly so
	// the row never carries an ambiguous null after approval.
	decision := input.Restock
	if decision == "" {
		decision = enums.RestockDecisionNo
	}
	if !decision.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid restock decision %q", input.Restock))
	}

	var ret *models.Return
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := repo.FindByID(ctx, input.WorkspaceID, input.ReturnID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return")
		}

		if loaded.Status == enums.ReturnStatusApproved {
			// retried approval: zero movements, no flag writes
			ret = loaded
			return nil
		}
		if !loaded.Status.CanTransition(loaded.Type, enums.ReturnStatusApproved) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "return cannot be approved from its current status").
				WithDetails(map[string]any{"from": loaded.Status, "to": enums.ReturnStatusApproved})
		}

		restored := false
		if decision == enums.RestockDecisionYes {
			order, err := repo.FindOrder(ctx, input.WorkspaceID, loaded.OrderID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent order")
			}
			for _, item := range order.Items {
				flipped, err := repo.MarkStockReturned(ctx, item.ID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag item restock")
				}
				if !flipped {
					continue
				}
				restored = true
				movement, err := s.ledger.ApplyMovement(ctx, tx, ledger.MovementInput{
					WorkspaceID: input.WorkspaceID,
					ProductID:   item.ProductID,
					Delta:       item.Quantity,
					Type:        enums.MovementTypeRestock,
					Reason:      fmt.Sprintf("return %s approved with restock", loaded.ID),
					OrderID:     &order.ID,
					ReturnID:    &loaded.ID,
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
					Details:     map[string]any{"product_id": item.ProductID, "delta": item.Quantity},
				})
			}
		}

		updates := map[string]any{
			"status":         enums.ReturnStatusApproved,
			"restock_status": decision,
		}
		if restored {
			updates["stock_restored"] = true
		}
		if err := repo.Update(ctx, loaded.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update return")
		}

		s.audit.Record(ctx, tx, audit.Entry{
			WorkspaceID: input.WorkspaceID,
			ActorID:     input.ActorID,
			Action:      audit.ActionReturnApproved,
			EntityType:  audit.EntityReturn,
			EntityID:    loaded.ID,
			Details:     map[string]any{"restock": decision, "stock_restored": restored},
		})

		loaded.Status = enums.ReturnStatusApproved
		loaded.RestockStatus = &decision
		loaded.StockRestored = loaded.StockRestored || restored
		ret = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Reject refuses an RTO after inspection. The transition table only
// permits it from inspected, and only for RTO.
func (s *service) Reject(ctx context.Context, input TransitionInput) (*models.Return, error) {
	return s.transition(ctx, input, enums.ReturnStatusRejected, audit.ActionReturnRejected)
}

// Complete closes an approved return. Terminal.
func (s *service) Complete(ctx context.Context, input TransitionInput) (*models.Return, error) {
	return s.transition(ctx, input, enums.ReturnStatusCompleted, audit.ActionReturnCompleted)
}

func (s *service) Get(ctx context.Context, workspaceID, returnID uuid.UUID) (*models.Return, error) {
	if workspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	if returnID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return id required")
	}

	ret, err := s.repo.FindByID(ctx, workspaceID, returnID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return")
	}
	return ret, nil
}

func (s *service) transition(ctx context.Context, input TransitionInput, target enums.ReturnStatus, action string) (*models.Return, error) {
	if input.WorkspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.ReturnID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return id required")
	}

	var ret *models.Return
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := repo.FindByID(ctx, input.WorkspaceID, input.ReturnID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return")
		}

		if !loaded.Status.CanTransition(loaded.Type, target) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "return status transition not permitted").
				WithDetails(map[string]any{"from": loaded.Status, "to": target, "type": loaded.Type})
		}

		if err := repo.Update(ctx, loaded.ID, map[string]any{"status": target}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update return status")
		}

		s.audit.Record(ctx, tx, audit.Entry{
			WorkspaceID: input.WorkspaceID,
			ActorID:     input.ActorID,
			Action:      action,
			EntityType:  audit.EntityReturn,
			EntityID:    loaded.ID,
			Details:     map[string]any{"from": loaded.Status, "to": target},
		})

		loaded.Status = target
		ret = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
