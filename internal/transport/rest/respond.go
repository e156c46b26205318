package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/pinpointhq/pinpoint-backend/internal/domain"
	"github.com/pinpointhq/pinpoint-backend/pkg/ctxutil"
)

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// respondError maps domain errors to HTTP statuses. Unknown errors are
// logged and hidden behind a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	default:
		log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// viewerFromCtx assembles the caller identity the auth middleware stored.
func viewerFromCtx(ctx context.Context) domain.Viewer {
	id, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.AnonymousViewer()
	}
	return domain.Viewer{UserID: &id, IsAdmin: ctxutil.IsAdminCtx(ctx)}
}

// orgFromCtx returns the tenant the tenant middleware resolved.
func orgFromCtx(ctx context.Context) (uuid.UUID, bool) {
	return ctxutil.OrgIDFromCtx(ctx)
}
