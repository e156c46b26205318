package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/pinpointhq/pinpoint-backend/internal/domain"
	"github.com/pinpointhq/pinpoint-backend/internal/service/machines"
)

type machinesService interface {
	List(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]domain.Machine, error)
	Get(ctx context.Context, orgID uuid.UUID, initials string) (*domain.Machine, error)
	Create(ctx context.Context, orgID uuid.UUID, p machines.CreateParams, viewer domain.Viewer) (*domain.Machine, error)
	Update(ctx context.Context, orgID uuid.UUID, initials string, p machines.UpdateParams, viewer domain.Viewer) (*domain.Machine, error)
}

// MachinesHandler serves machine lineup endpoints.
type MachinesHandler struct {
	svc machinesService
	log *slog.Logger
}

// NewMachinesHandler creates a MachinesHandler.
func NewMachinesHandler(svc machinesService, logger *slog.Logger) *MachinesHandler {
	return &MachinesHandler{svc: svc, log: logger.With("handler", "machines")}
}

type machineResponse struct {
	ID       string  `json:"id"`
	Initials string  `json:"initials"`
	Name     string  `json:"name"`
	OwnerID  *string `json:"ownerId,omitempty"`
	Presence string  `json:"presence"`
}

// List handles GET /api/machines.
func (h *MachinesHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "unknown organization")
		return
	}
	includeInactive := flagSet(r.URL.Query(), "include_inactive")

	items, err := h.svc.List(r.Context(), orgID, includeInactive)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	resp := make([]machineResponse, len(items))
	for i, m := range items {
		resp[i] = toMachineResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/machines/{initials}.
func (h *MachinesHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "unknown organization")
		return
	}
	m, err := h.svc.Get(r.Context(), orgID, r.PathValue("initials"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toMachineResponse(*m))
}

type createMachineRequest struct {
	Initials string  `json:"initials"`
	Name     string  `json:"name"`
	OwnerID  *string `json:"ownerId"`
	Presence string  `json:"presence"`
}

// Create handles POST /api/machines.
func (h *MachinesHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "unknown organization")
		return
	}
	var req createMachineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params := machines.CreateParams{
		Initials: req.Initials,
		Name:     req.Name,
		Presence: domain.MachinePresence(req.Presence),
	}
	if req.OwnerID != nil {
		id, err := uuid.Parse(*req.OwnerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid owner id")
			return
		}
		params.OwnerID = &id
	}

	created, err := h.svc.Create(r.Context(), orgID, params, viewerFromCtx(r.Context()))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMachineResponse(*created))
}

type updateMachineRequest struct {
	Name       *string `json:"name"`
	OwnerID    *string `json:"ownerId"`
	ClearOwner bool    `json:"clearOwner"`
	Presence   *string `json:"presence"`
}

// Update handles PATCH /api/machines/{initials}.
func (h *MachinesHandler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "unknown organization")
		return
	}
	var req updateMachineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params := machines.UpdateParams{
		Name:       req.Name,
		ClearOwner: req.ClearOwner,
		Presence:   (*domain.MachinePresence)(req.Presence),
	}
	if req.OwnerID != nil {
		id, err := uuid.Parse(*req.OwnerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid owner id")
			return
		}
		params.OwnerID = &id
	}

	updated, err := h.svc.Update(r.Context(), orgID, r.PathValue("initials"), params, viewerFromCtx(r.Context()))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toMachineResponse(*updated))
}

func toMachineResponse(m domain.Machine) machineResponse {
	resp := machineResponse{
		ID:       m.ID.String(),
		Initials: m.Initials,
		Name:     m.Name,
		Presence: m.Presence.String(),
	}
	if m.OwnerID != nil {
		s := m.OwnerID.String()
		resp.OwnerID = &s
	}
	return resp
}
