package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/packproof/packproof-backend/pkg/db/models"
	"github.com/packproof/packproof-backend/pkg/logger"
	"gorm.io/gorm"
)

// Actions recorded by the core subsystems.
const (
	ActionOrderCreated    = "order.created"
	ActionOrderStatus     = "order.status_changed"
	ActionOrderShipped    = "order.shipped"
	ActionStockMoved      = "stock.moved"
	ActionReturnOpened    = "return.opened"
	ActionReturnInspected = "return.inspected"
	ActionReturnApproved  = "return.approved"
	ActionReturnRejected  = "return.rejected"
	ActionReturnCompleted = "return.completed"
	ActionReconciled      = "stock.reconciled"
	ActionEvidenceSaved   = "evidence.saved"
	ActionEvidenceInvalid = "evidence.invalidated"
	ActionChecklistSaved  = "evidence.checklist_saved"
)

// Entity types referenced by audit entries.
const (
	EntityOrder     = "order"
	EntityReturn    = "return"
	EntityProduct   = "product"
	EntityMovement  = "stock_movement"
	EntityVideo     = "video_evidence"
	EntityChecklist = "packing_evidence"
)

const savepointName = "audit_append"

// Entry describes one mutating action.
type Entry struct {
	WorkspaceID uuid.UUID
	ActorID     uuid.UUID
	Action      string
	EntityType  string
	EntityID    uuid.UUID
	Details     any
}

// Recorder appends audit entries. Writes are best-effort: a failed append
// is logged and swallowed so it never aborts the primary operation.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry)
}

type recorder struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewRecorder builds an audit recorder bound to the provided database.
func NewRecorder(db *gorm.DB, logg *logger.Logger) (Recorder, error) {
	if db == nil {
		return nil, fmt.Errorf("audit database required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &recorder{db: db, logg: logg}, nil
}

// Record appends the entry inside the caller's transaction when one is
// provided, otherwise against the base connection.
func (r *recorder) Record(ctx context.Context, tx *gorm.DB, entry Entry) {
	conn := r.db
	if tx != nil {
		conn = tx
	}

	var details json.RawMessage
	if entry.Details != nil {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			r.logg.Warn(ctx, fmt.Sprintf("audit details not serializable for %s: %v", entry.Action, err))
		} else {
			details = raw
		}
	}

	row := &models.AuditLog{
		ID:          uuid.New(),
		WorkspaceID: entry.WorkspaceID,
		ActorID:     entry.ActorID,
		Action:      entry.Action,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		Details:     details,
	}

	if tx != nil {
		// a failed INSERT poisons the caller's Postgres transaction, so the
		// append runs under a savepoint that is rolled back on failure
		if err := conn.SavePoint(savepointName).Error; err != nil {
			r.logg.Error(ctx, fmt.Sprintf("audit savepoint failed for %s", entry.Action), err)
			return
		}
		if err := conn.WithContext(ctx).Create(row).Error; err != nil {
			if rbErr := conn.RollbackTo(savepointName).Error; rbErr != nil {
				r.logg.Error(ctx, fmt.Sprintf("audit savepoint rollback failed for %s", entry.Action), rbErr)
			}
			r.logg.Error(ctx, fmt.Sprintf("audit append failed for %s", entry.Action), err)
		}
		return
	}

	if err := conn.WithContext(ctx).Create(row).Error; err != nil {
		r.logg.Error(ctx, fmt.Sprintf("audit append failed for %s", entry.Action), err)
	}
}
