package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/packproof/packproof-backend/api/responses"
	"github.com/packproof/packproof-backend/api/validators"
	evidencesvc "github.com/packproof/packproof-backend/internal/evidence"
	pkgerrors "github.com/packproof/packproof-backend/pkg/errors"
	"github.com/packproof/packproof-backend/pkg/logger"
)

// multipart metadata stays in memory; the video part itself spools to disk.
const multipartMemoryLimit = 32 << 20

// SaveEvidence accepts a multipart packing video and records its digest.
func SaveEvidence(svc evidencesvc.Service, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID, actorID, err := actorScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if maxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+multipartMemoryLimit)
		}

		if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		file, header, err := r.FormFile("video")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "video part required"))
			return
		}
		defer file.Close()

		duration := 0.0
		if raw := r.FormValue("duration_seconds"); raw != "" {
			duration, err = strconv.ParseFloat(raw, 64)
			if err != nil || duration < 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid duration_seconds"))
				return
			}
		}

		video, err := svc.Save(r.Context(), evidencesvc.SaveVideoInput{
			WorkspaceID:     workspaceID,
			ActorID:         actorID,
			OrderID:         orderID,
			Source:          file,
			FileName:        header.Filename,
			DurationSeconds: duration,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, video)
	}
}

// VerifyEvidence re-hashes the stored artifact and reports the outcome.
func VerifyEvidence(svc evidencesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID, actorID, err := actorScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		videoID, err := pathUUID(r, "videoId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Verify(r.Context(), evidencesvc.VerifyInput{
			WorkspaceID: workspaceID,
			ActorID:     actorID,
			VideoID:     videoID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// SavePackingChecklist records the one-per-order packing checklist.
func SavePackingChecklist(svc evidencesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID, actorID, err := actorScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload packingChecklistRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := evidencesvc.ChecklistInput{
			WorkspaceID:     workspaceID,
			ActorID:         actorID,
			OrderID:         orderID,
			ProductCorrect:  payload.ProductCorrect,
			QuantityCorrect: payload.QuantityCorrect,
			SealingDone:     payload.SealingDone,
			PhotoPaths:      payload.PhotoPaths,
		}
		if raw := strings.TrimSpace(payload.VideoID); raw != "" {
			videoID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid video id"))
				return
			}
			input.VideoID = &videoID
		}

		checklist, err := svc.SavePackingChecklist(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, checklist)
	}
}

type packingChecklistRequest struct {
	ProductCorrect  bool     `json:"product_correct"`
	QuantityCorrect bool     `json:"quantity_correct"`
	SealingDone     bool     `json:"sealing_done"`
	PhotoPaths      []string `json:"photo_paths,omitempty"`
	VideoID         string   `json:"video_id,omitempty"`
}

// EvidenceExportCheck verifies every artifact for an order before the
// evidence leaves the system.
func EvidenceExportCheck(svc evidencesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID, _, err := actorScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.VerifyForExport(r.Context(), workspaceID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"order_id": orderID,
			"results":  results,
		})
	}
}
