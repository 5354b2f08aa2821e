package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/packproof/packproof-backend/internal/audit"
	"github.com/packproof/packproof-backend/pkg/db/models"
	pkgerrors "github.com/packproof/packproof-backend/pkg/errors"
	"gorm.io/gorm"
)

// Verification reason strings surfaced to callers.
const (
	ReasonFileNotFound = "File not found"
	ReasonHashMismatch = "Hash mismatch — file has been modified"
)

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry audit.Entry)
}

// Service owns video evidence and packing checklists. It runs outside any
// ledger transaction: stock mutation and evidence are independent failure
// domains.
type Service interface {
	Save(ctx context.Context, input SaveVideoInput) (*models.VideoEvidence, error)
	Verify(ctx context.Context, input VerifyInput) (*VerificationResult, error)
	SavePackingChecklist(ctx context.Context, input ChecklistInput) (*models.PackingEvidence, error)
	VerifyForExport(ctx context.Context, workspaceID, orderID uuid.UUID) ([]VerificationResult, error)
}

type service struct {
	repo       Repository
	store      Store
	audit      auditRecorder
	extensions []string
}

// SaveVideoInput carries one recording to persist.
type SaveVideoInput struct {
	WorkspaceID     uuid.UUID
	ActorID         uuid.UUID
	OrderID         uuid.UUID
	Source          io.Reader
	FileName        string
	DurationSeconds float64
}

// VerifyInput identifies the video to re-check.
type VerifyInput struct {
	WorkspaceID uuid.UUID
	ActorID     uuid.UUID
	VideoID     uuid.UUID
}

// ChecklistInput carries the one-per-order packing checklist.
type ChecklistInput struct {
	WorkspaceID     uuid.UUID
	ActorID         uuid.UUID
	OrderID         uuid.UUID
	ProductCorrect  bool
	QuantityCorrect bool
	SealingDone     bool
	PhotoPaths      []string
	VideoID         *uuid.UUID
}

// VerificationResult is the outcome of one digest re-check.
type VerificationResult struct {
	VideoID      uuid.UUID `json:"video_id"`
	Valid        bool      `json:"valid"`
	Reason       string    `json:"reason,omitempty"`
	Digest       string    `json:"digest,omitempty"`
	StoredDigest string    `json:"stored_digest"`
}

// NewService builds an evidence service with the required dependencies.
func NewService(repo Repository, store Store, recorder auditRecorder, allowedExtensions []string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("evidence repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("artifact store required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, store: store, audit: recorder, extensions: allowedExtensions}, nil
}

// Save streams the recording to disk, hashing as it goes, and records the
// digest taken at save time. The artifact is read-only on disk by the time
// the row exists.
func (s *service) Save(ctx context.Context, input SaveVideoInput) (*models.VideoEvidence, error) {
	if input.WorkspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Source == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artifact source required")
	}

	ext := strings.ToLower(filepath.Ext(input.FileName))
	if !s.extensionAllowed(ext) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("artifact format %q not allowed", ext))
	}

	if _, err := s.repo.FindOrder(ctx, input.WorkspaceID, input.OrderID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	videoID := uuid.New()
	relPath := filepath.Join(input.OrderID.String(), videoID.String()+ext)
	artifact, err := s.store.Save(ctx, relPath, input.Source)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist artifact")
	}

	video := &models.VideoEvidence{
		ID:              videoID,
		OrderID:         input.OrderID,
		FilePath:        artifact.Path,
		SHA256:          artifact.SHA256,
		SizeBytes:       artifact.SizeBytes,
		DurationSeconds: input.DurationSeconds,
		Valid:           true,
	}
	if err := s.repo.CreateVideo(ctx, video); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record video evidence")
	}

	s.audit.Record(ctx, nil, audit.Entry{
		WorkspaceID: input.WorkspaceID,
		ActorID:     input.ActorID,
		Action:      audit.ActionEvidenceSaved,
		EntityType:  audit.EntityVideo,
		EntityID:    video.ID,
		Details:     map[string]any{"order_id": input.OrderID, "sha256": artifact.SHA256, "size_bytes": artifact.SizeBytes},
	})
	return video, nil
}

// Verify recomputes the artifact digest and compares it to the one taken
// at save time. A missing or altered artifact permanently downgrades the
// stored validity flag; a clean match touches nothing, so the check can
// run arbitrarily often.
func (s *service) Verify(ctx context.Context, input VerifyInput) (*VerificationResult, error) {
	if input.WorkspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	if input.VideoID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "video id required")
	}

	video, err := s.repo.FindVideoByID(ctx, input.WorkspaceID, input.VideoID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "video evidence not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load video evidence")
	}

	digest, err := s.store.Digest(ctx, video.FilePath)
	if err != nil {
		if err == ErrArtifactMissing {
			return s.downgrade(ctx, input, video, &VerificationResult{
				VideoID:      video.ID,
				Valid:        false,
				Reason:       ReasonFileNotFound,
				StoredDigest: video.SHA256,
			})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute digest")
	}

	if digest != video.SHA256 {
		return s.downgrade(ctx, input, video, &VerificationResult{
			VideoID:      video.ID,
			Valid:        false,
			Reason:       ReasonHashMismatch,
			Digest:       digest,
			StoredDigest: video.SHA256,
		})
	}

	return &VerificationResult{
		VideoID:      video.ID,
		Valid:        true,
		Digest:       digest,
		StoredDigest: video.SHA256,
	}, nil
}

func (s *service) downgrade(ctx context.Context, input VerifyInput, video *models.VideoEvidence, result *VerificationResult) (*VerificationResult, error) {
	if err := s.repo.MarkVideoInvalid(ctx, video.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "downgrade video validity")
	}
	if video.Valid {
		s.audit.Record(ctx, nil, audit.Entry{
			WorkspaceID: input.WorkspaceID,
			ActorID:     input.ActorID,
			Action:      audit.ActionEvidenceInvalid,
			EntityType:  audit.EntityVideo,
			EntityID:    video.ID,
			Details:     map[string]any{"reason": result.Reason},
		})
	}
	return result, nil
}

// SavePackingChecklist records the one-per-order checklist, updating it in
// place on repeat submissions.
func (s *service) SavePackingChecklist(ctx context.Context, input ChecklistInput) (*models.PackingEvidence, error) {
	if input.WorkspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	if _, err := s.repo.FindOrder(ctx, input.WorkspaceID, input.OrderID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if input.VideoID != nil {
		video, err := s.repo.FindVideoByID(ctx, input.WorkspaceID, *input.VideoID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "video evidence not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load video evidence")
		}
		if video.OrderID != input.OrderID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "video evidence belongs to a different order")
		}
	}

	var photoPaths json.RawMessage
	if len(input.PhotoPaths) > 0 {
		raw, err := json.Marshal(input.PhotoPaths)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "encode photo paths")
		}
		photoPaths = raw
	}

	existing, err := s.repo.FindChecklistByOrder(ctx, input.OrderID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checklist")
	}

	var checklist *models.PackingEvidence
	if existing != nil {
		updates := map[string]any{
			"product_correct":  input.ProductCorrect,
			"quantity_correct": input.QuantityCorrect,
			"sealing_done":     input.SealingDone,
			"photo_paths":      photoPaths,
			"video_id":         input.VideoID,
			"packed_by":        input.ActorID,
		}
		if err := s.repo.UpdateChecklist(ctx, existing.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update checklist")
		}
		existing.ProductCorrect = input.ProductCorrect
		existing.QuantityCorrect = input.QuantityCorrect
		existing.SealingDone = input.SealingDone
		existing.PhotoPaths = photoPaths
		existing.VideoID = input.VideoID
		existing.PackedBy = input.ActorID
		checklist = existing
	} else {
		checklist = &models.PackingEvidence{
			ID:              uuid.New(),
			OrderID:         input.OrderID,
			ProductCorrect:  input.ProductCorrect,
			QuantityCorrect: input.QuantityCorrect,
			SealingDone:     input.SealingDone,
			PhotoPaths:      photoPaths,
			VideoID:         input.VideoID,
			PackedBy:        input.ActorID,
		}
		if err := s.repo.CreateChecklist(ctx, checklist); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checklist")
		}
	}

	s.audit.Record(ctx, nil, audit.Entry{
		WorkspaceID: input.WorkspaceID,
		ActorID:     input.ActorID,
		Action:      audit.ActionChecklistSaved,
		EntityType:  audit.EntityChecklist,
		EntityID:    checklist.ID,
		Details:     map[string]any{"order_id": input.OrderID},
	})
	return checklist, nil
}

// VerifyForExport re-checks every recording on the order. Any invalid
// artifact fails the whole call; the export collaborator must not proceed.
func (s *service) VerifyForExport(ctx context.Context, workspaceID, orderID uuid.UUID) ([]VerificationResult, error) {
	if workspaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	if _, err := s.repo.FindOrder(ctx, workspaceID, orderID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	videos, err := s.repo.ListVideosByOrder(ctx, workspaceID, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list video evidence")
	}

	results := make([]VerificationResult, 0, len(videos))
	failed := 0
	for _, video := range videos {
		result, err := s.Verify(ctx, VerifyInput{WorkspaceID: workspaceID, VideoID: video.ID})
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			failed++
		}
		results = append(results, *result)
	}

	if failed > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeIntegrity, "evidence verification failed for order").
			WithDetails(map[string]any{"order_id": orderID, "failed": failed, "results": results})
	}
	return results, nil
}

func (s *service) extensionAllowed(ext string) bool {
	if ext == "" {
		return false
	}
	for _, allowed := range s.extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
