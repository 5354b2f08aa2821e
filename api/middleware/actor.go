package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/packproof/packproof-backend/api/responses"
	pkgerrors "github.com/packproof/packproof-backend/pkg/errors"
	"github.com/packproof/packproof-backend/pkg/logger"
)

const (
	workspaceIDHeader = "X-Workspace-Id"
	actorIDHeader     = "X-Actor-Id"
)

// ActorContext reads workspace and actor identity from headers set by the
// trusted edge and makes them available to downstream handlers. Requests
// without both identifiers are rejected.
func ActorContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			workspaceID := strings.TrimSpace(r.Header.Get(workspaceIDHeader))
			actorID := strings.TrimSpace(r.Header.Get(actorIDHeader))

			if workspaceID == "" || actorID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "workspace and actor headers required"))
				return
			}
			if _, err := uuid.Parse(workspaceID); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid workspace id"))
				return
			}
			if _, err := uuid.Parse(actorID); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor id"))
				return
			}

			ctx := WithWorkspaceID(r.Context(), workspaceID)
			ctx = WithActorID(ctx, actorID)
			if logg != nil {
				ctx = logg.WithWorkspaceID(ctx, workspaceID)
				ctx = logg.WithActorID(ctx, actorID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
