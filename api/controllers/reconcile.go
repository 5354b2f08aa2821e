package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/packproof/packproof-backend/api/responses"
	"github.com/packproof/packproof-backend/api/validators"
	reconcilesvc "github.com/packproof/packproof-backend/internal/reconcile"
	"github.com/packproof/packproof-backend/pkg/enums"
	pkgerrors "github.com/packproof/packproof-backend/pkg/errors"
	"github.com/packproof/packproof-backend/pkg/logger"
)

// Reconcile applies a batch of physical-count corrections as one unit.
func Reconcile(svc reconcilesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID, actorID, err := actorScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reconcileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries := make([]reconcilesvc.Entry, 0, len(payload.Entries))
		for _, entry := range payload.Entries {
			productID, err := uuid.Parse(entry.ProductID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
				return
			}
			direction, err := enums.ParseReconcileDirection(strings.TrimSpace(entry.Direction))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid direction"))
				return
			}
			entries = append(entries, reconcilesvc.Entry{
				ProductID: productID,
				Quantity:  entry.Quantity,
				Direction: direction,
				Reason:    strings.TrimSpace(entry.Reason),
			})
		}

		movements, err := svc.Reconcile(r.Context(), reconcilesvc.ReconcileInput{
			WorkspaceID: workspaceID,
			ActorID:     actorID,
			Entries:     entries,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, movements)
	}
}

type reconcileRequest struct {
	Entries []reconcileEntryRequest `json:"entries" validate:"required,min=1,dive"`
}

type reconcileEntryRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Direction string `json:"direction" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}
