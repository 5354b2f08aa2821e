package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/packproof/packproof-backend/api/responses"
	"github.com/packproof/packproof-backend/api/validators"
	returnsvc "github.com/packproof/packproof-backend/internal/returns"
	"github.com/packproof/packproof-backend/pkg/db/models"
	"github.com/packproof/packproof-backend/pkg/enums"
	pkgerrors "github.com/packproof/packproof-backend/pkg/errors"
	"github.com/packproof/packproof-backend/pkg/logger"
)

// OpenReturn starts a customer return or RTO against a shipped order.
func OpenReturn(svc returnsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload openReturnRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		returnType, err := enums.ParseReturnType(strings.TrimSpace(payload.Type))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid return type"))
			return
		}

		ret, err := svc.Open(r.Context(), returnsvc.OpenReturnInput{
			WorkspaceID: workspaceID,
			ActorID:     actorID,
			OrderID:     orderID,
			Type:        returnType,
			Reason:      payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, ret)
	}
}

type openReturnRequest struct {
	Type   string  `json:"type" validate:"required"`
	Reason *string `json:"reason,omitempty"`
}

func InspectReturn(svc returnsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc.Inspect, logg)
}

func RejectReturn(svc returnsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc.Reject, logg)
}

func CompleteReturn(svc returnsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc.Complete, logg)
}

// ApproveReturn accepts the operator's restock decision; no decision means no
// restock, recorded as such.
func ApproveReturn(svc returnsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID, actorID, err := actorScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		returnID, err := pathUUID(r, "returnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload approveReturnRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, err := enums.ParseRestockDecision(strings.TrimSpace(payload.Restock))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid restock decision"))
			return
		}

		ret, err := svc.Approve(r.Context(), returnsvc.ApproveReturnInput{
			WorkspaceID: workspaceID,
			ActorID:     actorID,
			ReturnID:    returnID,
			Restock:     decision,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ret)
	}
}

type approveReturnRequest struct {
	Restock string `json:"restock,omitempty"`
}

func ReturnDetail(svc returnsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID, _, err := actorScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		returnID, err := pathUUID(r, "returnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ret, err := svc.Get(r.Context(), workspaceID, returnID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ret)
	}
}

func transitionHandler(op func(context.Context, returnsvc.TransitionInput) (*models.Return, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID, actorID, err := actorScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		returnID, err := pathUUID(r, "returnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ret, err := op(r.Context(), returnsvc.TransitionInput{
			WorkspaceID: workspaceID,
			ActorID:     actorID,
			ReturnID:    returnID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ret)
	}
}
