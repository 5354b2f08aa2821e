package audit

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/packproof/packproof-backend/pkg/db/models"
	"github.com/packproof/packproof-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS audit_logs (
  id TEXT PRIMARY KEY,
  workspace_id TEXT NOT NULL,
  actor_id TEXT NOT NULL,
  action TEXT NOT NULL,
  entity_type TEXT NOT NULL,
  entity_id TEXT NOT NULL,
  details TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newRecorder(t *testing.T, db *gorm.DB) (Recorder, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "audit-test", Output: &buf})
	rec, err := NewRecorder(db, logg)
	require.NoError(t, err)
	return rec, &buf
}

func TestRecord_appendsEntry(t *testing.T) {
	db := setupAuditTestDB(t)
	rec, _ := newRecorder(t, db)

	entityID := uuid.New()
	rec.Record(context.Background(), nil, Entry{
		WorkspaceID: uuid.New(),
		ActorID:     uuid.New(),
		Action:      ActionOrderShipped,
		EntityType:  EntityOrder,
		EntityID:    entityID,
		Details:     map[string]any{"items": 2},
	})

	var row models.AuditLog
	require.NoError(t, db.Where("entity_id = ?", entityID).First(&row).Error)
	assert.Equal(t, ActionOrderShipped, row.Action)
	assert.Equal(t, EntityOrder, row.EntityType)
	assert.JSONEq(t, `{"items":2}`, string(row.Details))
}

func TestRecord_insideTransaction(t *testing.T) {
	db := setupAuditTestDB(t)
	rec, _ := newRecorder(t, db)

	entityID := uuid.New()
	err := db.Transaction(func(tx *gorm.DB) error {
		rec.Record(context.Background(), tx, Entry{
			WorkspaceID: uuid.New(),
			ActorID:     uuid.New(),
			Action:      ActionReturnApproved,
			EntityType:  EntityReturn,
			EntityID:    entityID,
		})
		return nil
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("entity_id = ?", entityID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRecord_failureDoesNotAbortCallerTransaction(t *testing.T) {
	db := setupAuditTestDB(t)
	rec, buf := newRecorder(t, db)

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS shipments (id TEXT PRIMARY KEY)`).Error)
	require.NoError(t, db.Exec(`DROP TABLE audit_logs`).Error)

	shipmentID := uuid.New().String()
	err := db.Transaction(func(tx *gorm.DB) error {
		rec.Record(context.Background(), tx, Entry{
			WorkspaceID: uuid.New(),
			ActorID:     uuid.New(),
			Action:      ActionOrderShipped,
			EntityType:  EntityOrder,
			EntityID:    uuid.New(),
		})
		// the transaction must still accept writes after the failed append
		return tx.Exec(`INSERT INTO shipments (id) VALUES (?)`, shipmentID).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Raw(`SELECT COUNT(*) FROM shipments WHERE id = ?`, shipmentID).Scan(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Contains(t, buf.String(), "audit append failed")
}

func TestRecord_failureIsSwallowed(t *testing.T) {
	db := setupAuditTestDB(t)
	rec, buf := newRecorder(t, db)

	require.NoError(t, db.Exec(`DROP TABLE audit_logs`).Error)

	// must not panic or surface the write failure
	rec.Record(context.Background(), nil, Entry{
		WorkspaceID: uuid.New(),
		ActorID:     uuid.New(),
		Action:      ActionStockMoved,
		EntityType:  EntityMovement,
		EntityID:    uuid.New(),
	})

	assert.Contains(t, buf.String(), "audit append failed")
}
