package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/pinpointhq/pinpoint-backend/internal/domain"
	"github.com/pinpointhq/pinpoint-backend/internal/service/auth"
)

// authService defines the minimal interface needed by AuthHandler.
type authService interface {
	Login(ctx context.Context, orgID uuid.UUID, email, password string) (*auth.LoginResult, error)
	Register(ctx context.Context, orgID uuid.UUID, p auth.RegisterParams, viewer domain.Viewer) (*domain.UserProfile, error)
	ListMembers(ctx context.Context, orgID uuid.UUID, viewer domain.Viewer) ([]domain.UserProfile, error)
	Me(ctx context.Context, orgID uuid.UUID, viewer domain.Viewer) (*domain.UserProfile, error)
}

// AuthHandler serves auth and user REST endpoints.
type AuthHandler struct {
	svc authService
	log *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc authService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: logger.With("handler", "auth")}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string       `json:"accessToken"`
	User        userResponse `json:"user"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "unknown organization")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Login(r.Context(), orgID, req.Email, req.Password)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.AccessToken,
		User:        toUserResponse(result.User),
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register handles POST /api/auth/register. Admin only; enforced by the
// service.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "unknown organization")
		return
	}
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.svc.Register(r.Context(), orgID, auth.RegisterParams{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     domain.UserRole(req.Role),
	}, viewerFromCtx(r.Context()))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(*created))
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "unknown organization")
		return
	}
	u, err := h.svc.Me(r.Context(), orgID, viewerFromCtx(r.Context()))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(*u))
}

// ListUsers handles GET /api/users.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "unknown organization")
		return
	}
	users, err := h.svc.ListMembers(r.Context(), orgID, viewerFromCtx(r.Context()))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	resp := make([]userResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}
	writeJSON(w, http.StatusOK, resp)
}

func toUserResponse(u domain.UserProfile) userResponse {
	return userResponse{
		ID:    u.ID.String(),
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role.String(),
	}
}
