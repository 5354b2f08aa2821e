package evidence

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/packproof/packproof-backend/internal/audit"
	"github.com/packproof/packproof-backend/pkg/db/models"
	"github.com/packproof/packproof-backend/pkg/enums"
	pkgerrors "github.com/packproof/packproof-backend/pkg/errors"
	"github.com/packproof/packproof-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupEvidenceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schemas := []string{`
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  workspace_id TEXT NOT NULL,
  order_number TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'new',
  total_amount TEXT NOT NULL DEFAULT '0',
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS video_evidence (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  file_path TEXT NOT NULL,
  sha256 TEXT NOT NULL,
  size_bytes INTEGER NOT NULL,
  duration_seconds REAL NOT NULL DEFAULT 0,
  valid INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS packing_evidence (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  product_correct INTEGER NOT NULL DEFAULT 0,
  quantity_correct INTEGER NOT NULL DEFAULT 0,
  sealing_done INTEGER NOT NULL DEFAULT 0,
  photo_paths TEXT,
  video_id TEXT,
  packed_by TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS audit_logs (
  id TEXT PRIMARY KEY,
  workspace_id TEXT NOT NULL,
  actor_id TEXT NOT NULL,
  action TEXT NOT NULL,
  entity_type TEXT NOT NULL,
  entity_id TEXT NOT NULL,
  details TEXT,
  created_at DATETIME
);`}
	for _, schema := range schemas {
		require.NoError(t, db.Exec(schema).Error)
	}
	return db
}

func newEvidenceService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	store, err := NewDiskStore(t.TempDir(), 0)
	require.NoError(t, err)
	recorder, err := audit.NewRecorder(db, logger.New(logger.Options{ServiceName: "evidence-test"}))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(db), store, recorder, []string{".mp4", ".webm", ".mkv"})
	require.NoError(t, err)
	return svc
}

func seedEvidenceOrder(t *testing.T, db *gorm.DB) (uuid.UUID, *models.Order) {
	t.Helper()

	workspaceID := uuid.New()
	order := &models.Order{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		OrderNumber: "ORD-" + uuid.NewString()[:8],
		Status:      enums.OrderStatusPacking,
		TotalAmount: decimal.NewFromInt(100),
	}
	require.NoError(t, db.Create(order).Error)
	return workspaceID, order
}

func saveVideo(t *testing.T, svc Service, workspaceID uuid.UUID, orderID uuid.UUID, content []byte) *models.VideoEvidence {
	t.Helper()

	video, err := svc.Save(context.Background(), SaveVideoInput{
		WorkspaceID:     workspaceID,
		ActorID:         uuid.New(),
		OrderID:         orderID,
		Source:          bytes.NewReader(content),
		FileName:        "packing.mp4",
		DurationSeconds: 42.5,
	})
	require.NoError(t, err)
	return video
}

func storedValidity(t *testing.T, db *gorm.DB, videoID uuid.UUID) bool {
	t.Helper()

	var video models.VideoEvidence
	require.NoError(t, db.Where("id = ?", videoID).First(&video).Error)
	return video.Valid
}

func TestSave_recordsDigestAndLocksArtifact(t *testing.T) {
	db := setupEvidenceTestDB(t)
	svc := newEvidenceService(t, db)
	workspaceID, order := seedEvidenceOrder(t, db)

	content := []byte("frame data frame data frame data")
	video := saveVideo(t, svc, workspaceID, order.ID, content)

	assert.Len(t, video.SHA256, 64)
	assert.Equal(t, int64(len(content)), video.SizeBytes)
	assert.True(t, video.Valid)

	info, err := os.Stat(video.FilePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o444), info.Mode().Perm())
}

func TestSave_rejectsUnknownFormat(t *testing.T) {
	db := setupEvidenceTestDB(t)
	svc := newEvidenceService(t, db)
	workspaceID, order := seedEvidenceOrder(t, db)

	_, err := svc.Save(context.Background(), SaveVideoInput{
		WorkspaceID: workspaceID,
		ActorID:     uuid.New(),
		OrderID:     order.ID,
		Source:      bytes.NewReader([]byte("x")),
		FileName:    "packing.exe",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestSave_unknownOrder(t *testing.T) {
	db := setupEvidenceTestDB(t)
	svc := newEvidenceService(t, db)

	_, err := svc.Save(context.Background(), SaveVideoInput{
		WorkspaceID: uuid.New(),
		ActorID:     uuid.New(),
		OrderID:     uuid.New(),
		Source:      bytes.NewReader([]byte("x")),
		FileName:    "packing.mp4",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestVerify_untouchedArtifactIsValid(t *testing.T) {
	db := setupEvidenceTestDB(t)
	svc := newEvidenceService(t, db)
	workspaceID, order := seedEvidenceOrder(t, db)
	video := saveVideo(t, svc, workspaceID, order.ID, []byte("pristine recording"))

	for i := 0; i < 3; i++ {
		result, err := svc.Verify(context.Background(), VerifyInput{
			WorkspaceID: workspaceID,
			ActorID:     uuid.New(),
			VideoID:     video.ID,
		})
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Equal(t, video.SHA256, result.Digest)
		assert.Empty(t, result.Reason)
	}
	assert.True(t, storedValidity(t, db, video.ID))
}

func TestVerify_tamperedArtifact(t *testing.T) {
	db := setupEvidenceTestDB(t)
	svc := newEvidenceService(t, db)
	workspaceID, order := seedEvidenceOrder(t, db)
	video := saveVideo(t, svc, workspaceID, order.ID, []byte("original recording bytes"))

	// rewrite one byte behind the store's back
	require.NoError(t, os.Chmod(video.FilePath, 0o644))
	raw, err := os.ReadFile(video.FilePath)
	require.NoError(t, err)
	raw[0] ^= 0xff
	require.NoError(t, os.WriteFile(video.FilePath, raw, 0o644))

	result, err := svc.Verify(context.Background(), VerifyInput{
		WorkspaceID: workspaceID,
		ActorID:     uuid.New(),
		VideoID:     video.ID,
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonHashMismatch, result.Reason)
	assert.NotEqual(t, video.SHA256, result.Digest)
	assert.False(t, storedValidity(t, db, video.ID))
}

func TestVerify_missingArtifact(t *testing.T) {
	db := setupEvidenceTestDB(t)
	svc := newEvidenceService(t, db)
	workspaceID, order := seedEvidenceOrder(t, db)
	video := saveVideo(t, svc, workspaceID, order.ID, []byte("soon to vanish"))

	require.NoError(t, os.Chmod(video.FilePath, 0o644))
	require.NoError(t, os.Remove(video.FilePath))

	result, err := svc.Verify(context.Background(), VerifyInput{
		WorkspaceID: workspaceID,
		ActorID:     uuid.New(),
		VideoID:     video.ID,
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonFileNotFound, result.Reason)
	assert.False(t, storedValidity(t, db, video.ID))
}

func TestVerify_downgradeIsOneWay(t *testing.T) {
	db := setupEvidenceTestDB(t)
	svc := newEvidenceService(t, db)
	workspaceID, order := seedEvidenceOrder(t, db)
	content := []byte("recording that gets restored")
	video := saveVideo(t, svc, workspaceID, order.ID, content)

	// tamper, verify (downgrade), then restore the original bytes
	require.NoError(t, os.Chmod(video.FilePath, 0o644))
	require.NoError(t, os.WriteFile(video.FilePath, []byte("altered"), 0o644))
	_, err := svc.Verify(context.Background(), VerifyInput{
		WorkspaceID: workspaceID,
		ActorID:     uuid.New(),
		VideoID:     video.ID,
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(video.FilePath, content, 0o644))

	// the digest matches again, but the stored flag never climbs back
	result, err := svc.Verify(context.Background(), VerifyInput{
		WorkspaceID: workspaceID,
		ActorID:     uuid.New(),
		VideoID:     video.ID,
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.False(t, storedValidity(t, db, video.ID))
}

func TestSavePackingChecklist_upsertsPerOrder(t *testing.T) {
	db := setupEvidenceTestDB(t)
	svc := newEvidenceService(t, db)
	workspaceID, order := seedEvidenceOrder(t, db)
	video := saveVideo(t, svc, workspaceID, order.ID, []byte("checklist recording"))

	first, err := svc.SavePackingChecklist(context.Background(), ChecklistInput{
		WorkspaceID:    workspaceID,
		ActorID:        uuid.New(),
		OrderID:        order.ID,
		ProductCorrect: true,
		PhotoPaths:     []string{"photos/box.jpg"},
		VideoID:        &video.ID,
	})
	require.NoError(t, err)
	assert.True(t, first.ProductCorrect)
	assert.False(t, first.SealingDone)

	second, err := svc.SavePackingChecklist(context.Background(), ChecklistInput{
		WorkspaceID:     workspaceID,
		ActorID:         uuid.New(),
		OrderID:         order.ID,
		ProductCorrect:  true,
		QuantityCorrect: true,
		SealingDone:     true,
		VideoID:         &video.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.SealingDone)

	var count int64
	require.NoError(t, db.Model(&models.PackingEvidence{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSavePackingChecklist_rejectsForeignVideo(t *testing.T) {
	db := setupEvidenceTestDB(t)
	svc := newEvidenceService(t, db)
	workspaceID, order := seedEvidenceOrder(t, db)

	otherWorkspace, otherOrder := seedEvidenceOrder(t, db)
	foreign := saveVideo(t, svc, otherWorkspace, otherOrder.ID, []byte("someone else's recording"))

	_, err := svc.SavePackingChecklist(context.Background(), ChecklistInput{
		WorkspaceID: workspaceID,
		ActorID:     uuid.New(),
		OrderID:     order.ID,
		VideoID:     &foreign.ID,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestVerifyForExport(t *testing.T) {
	db := setupEvidenceTestDB(t)
	svc := newEvidenceService(t, db)
	workspaceID, order := seedEvidenceOrder(t, db)

	intact := saveVideo(t, svc, workspaceID, order.ID, []byte("first recording"))
	tampered := saveVideo(t, svc, workspaceID, order.ID, []byte("second recording"))

	results, err := svc.VerifyForExport(context.Background(), workspaceID, order.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Valid)
	}

	require.NoError(t, os.Chmod(tampered.FilePath, 0o644))
	require.NoError(t, os.WriteFile(tampered.FilePath, []byte("swapped"), 0o644))

	_, err = svc.VerifyForExport(context.Background(), workspaceID, order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeIntegrity, pkgerrors.As(err).Code())

	// the intact artifact keeps its validity
	assert.True(t, storedValidity(t, db, intact.ID))
	assert.False(t, storedValidity(t, db, tampered.ID))
}
