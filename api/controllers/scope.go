package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/packproof/packproof-backend/api/middleware"
	pkgerrors "github.com/packproof/packproof-backend/pkg/errors"
)

// actorScope pulls the workspace and actor identifiers that ActorContext
// injected into the request context.
func actorScope(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	workspaceID, err := uuid.Parse(middleware.WorkspaceIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "workspace context missing")
	}
	actorID, err := uuid.Parse(middleware.ActorIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "actor context missing")
	}
	return workspaceID, actorID, nil
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}
