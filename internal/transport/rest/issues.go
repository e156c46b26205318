package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pinpointhq/pinpoint-backend/internal/domain"
	"github.com/pinpointhq/pinpoint-backend/internal/service/issues"
)

// issuesService defines the minimal interface needed by IssuesHandler.
type issuesService interface {
	List(ctx context.Context, orgID uuid.UUID, f domain.IssueFilters, viewer domain.Viewer) ([]domain.Issue, int, error)
	Get(ctx context.Context, orgID uuid.UUID, ref string) (*domain.Issue, error)
	Create(ctx context.Context, orgID uuid.UUID, p issues.CreateParams) (*domain.Issue, error)
	Update(ctx context.Context, orgID, issueID uuid.UUID, p issues.UpdateParams, viewer domain.Viewer) (*domain.Issue, error)
	Delete(ctx context.Context, orgID, issueID uuid.UUID, viewer domain.Viewer) error
	ListComments(ctx context.Context, orgID, issueID uuid.UUID) ([]domain.IssueComment, error)
	AddComment(ctx context.Context, orgID, issueID uuid.UUID, content string, viewer domain.Viewer) (*domain.IssueComment, error)
	DeleteComment(ctx context.Context, orgID, issueID, commentID uuid.UUID, viewer domain.Viewer) error
	Watch(ctx context.Context, orgID, issueID uuid.UUID, viewer domain.Viewer) error
	Unwatch(ctx context.Context, orgID, issueID uuid.UUID, viewer domain.Viewer) error
}

// IssuesHandler serves issue REST endpoints.
type IssuesHandler struct {
	svc issuesService
	log *slog.Logger
}

// NewIssuesHandler creates an IssuesHandler.
func NewIssuesHandler(svc issuesService, logger *slog.Logger) *IssuesHandler {
	return &IssuesHandler{svc: svc, log: logger.With("handler", "issues")}
}

type issueResponse struct {
	ID           string  `json:"id"`
	Ref          string  `json:"ref"`
	Machine      string  `json:"machine"`
	Number       int     `json:"number"`
	Title        string  `json:"title"`
	Description  *string `json:"description,omitempty"`
	Status       string  `json:"status"`
	Severity     *string `json:"severity,omitempty"`
	Priority     *string `json:"priority,omitempty"`
	Frequency    *string `json:"frequency,omitempty"`
	AssigneeID   *string `json:"assigneeId,omitempty"`
	AssigneeName string  `json:"assigneeName,omitempty"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

type issueListResponse struct {
	Items    []issueResponse `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

type commentResponse struct {
	ID         string `json:"id"`
	AuthorName string `json:"authorName,omitempty"`
	Content    string `json:"content"`
	CreatedAt  string `json:"createdAt"`
}

// List handles GET /api/issues.
func (h *IssuesHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "unknown organization")
		return
	}
	viewer := viewerFromCtx(r.Context())
	f := ParseIssueFilters(r.URL.Query(), viewer)

	items, total, err := h.svc.List(r.Context(), orgID, f, viewer)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	resp := issueListResponse{
		Items:    make([]issueResponse, len(items)),
		Total:    total,
		Page:     f.Page,
		PageSize: f.Limit(),
	}
	for i, iss := range items {
		resp.Items[i] = toIssueResponse(iss)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/issues/{ref}.
func (h *IssuesHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "unknown organization")
		return
	}

	iss, err := h.svc.Get(r.Context(), orgID, r.PathValue("ref"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toIssueResponse(*iss))
}

type createIssueRequest struct {
	Machine       string  `json:"machine"`
	Title         string  `json:"title"`
	Description   *string `json:"description"`
	Severity      *string `json:"severity"`
	Frequency     *string `json:"frequency"`
	ReporterEmail string  `json:"reporterEmail"`
	ReporterName  string  `json:"reporterName"`
}

// Create handles POST /api/issues. Anonymous reports are allowed; a
// logged-in caller becomes the reporter.
func (h *IssuesHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "unknown organization")
		return
	}

	var req createIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	viewer := viewerFromCtx(r.Context())
	params := issues.CreateParams{
		MachineInitials: req.Machine,
		Title:           req.Title,
		Description:     req.Description,
		Severity:        (*domain.IssueSeverity)(req.Severity),
		Frequency:       (*domain.IssueFrequency)(req.Frequency),
		ReporterID:      viewer.UserID,
	}
	if viewer.UserID == nil {
		params.ReporterEmail = req.ReporterEmail
		params.ReporterName = req.ReporterName
	}

	created, err := h.svc.Create(r.Context(), orgID, params)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toIssueResponse(*created))
}

type updateIssueRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Status        *string `json:"status"`
	Severity      *string `json:"severity"`
	Priority      *string `json:"priority"`
	Frequency     *string `json:"frequency"`
	AssigneeID    *string `json:"assigneeId"`
	ClearAssignee bool    `json:"clearAssignee"`
}

// Update handles PATCH /api/issues/{ref}.
func (h *IssuesHandler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, iss, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var req updateIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params := issues.UpdateParams{
		Title:         req.Title,
		Description:   req.Description,
		Status:        (*domain.IssueStatus)(req.Status),
		Severity:      (*domain.IssueSeverity)(req.Severity),
		Priority:      (*domain.IssuePriority)(req.Priority),
		Frequency:     (*domain.IssueFrequency)(req.Frequency),
		ClearAssignee: req.ClearAssignee,
	}
	if req.AssigneeID != nil {
		id, err := uuid.Parse(*req.AssigneeID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid assignee id")
			return
		}
		params.AssigneeID = &id
	}

	updated, err := h.svc.Update(r.Context(), orgID, iss.ID, params, viewerFromCtx(r.Context()))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toIssueResponse(*updated))
}

// Delete handles DELETE /api/issues/{ref}.
func (h *IssuesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID, iss, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), orgID, iss.ID, viewerFromCtx(r.Context())); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListComments handles GET /api/issues/{ref}/comments.
func (h *IssuesHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	orgID, iss, ok := h.resolve(w, r)
	if !ok {
		return
	}
	comments, err := h.svc.ListComments(r.Context(), orgID, iss.ID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	resp := make([]commentResponse, len(comments))
	for i, c := range comments {
		resp[i] = commentResponse{
			ID:         c.ID.String(),
			AuthorName: c.AuthorName,
			Content:    c.Content,
			CreatedAt:  c.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type addCommentRequest struct {
	Content string `json:"content"`
}

// AddComment handles POST /api/issues/{ref}/comments.
func (h *IssuesHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	orgID, iss, ok := h.resolve(w, r)
	if !ok {
		return
	}
	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.svc.AddComment(r.Context(), orgID, iss.ID, req.Content, viewerFromCtx(r.Context()))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, commentResponse{
		ID:        created.ID.String(),
		Content:   created.Content,
		CreatedAt: created.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// DeleteComment handles DELETE /api/issues/{ref}/comments/{id}.
func (h *IssuesHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	orgID, iss, ok := h.resolve(w, r)
	if !ok {
		return
	}
	commentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}
	if err := h.svc.DeleteComment(r.Context(), orgID, iss.ID, commentID, viewerFromCtx(r.Context())); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Watch handles POST /api/issues/{ref}/watch.
func (h *IssuesHandler) Watch(w http.ResponseWriter, r *http.Request) {
	orgID, iss, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if err := h.svc.Watch(r.Context(), orgID, iss.ID, viewerFromCtx(r.Context())); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unwatch handles DELETE /api/issues/{ref}/watch.
func (h *IssuesHandler) Unwatch(w http.ResponseWriter, r *http.Request) {
	orgID, iss, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if err := h.svc.Unwatch(r.Context(), orgID, iss.ID, viewerFromCtx(r.Context())); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resolve loads the issue addressed by the {ref} path segment.
func (h *IssuesHandler) resolve(w http.ResponseWriter, r *http.Request) (uuid.UUID, *domain.Issue, bool) {
	orgID, ok := orgFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "unknown organization")
		return uuid.Nil, nil, false
	}
	iss, err := h.svc.Get(r.Context(), orgID, r.PathValue("ref"))
	if err != nil {
		respondError(w, r, h.log, err)
		return uuid.Nil, nil, false
	}
	return orgID, iss, true
}

func toIssueResponse(iss domain.Issue) issueResponse {
	resp := issueResponse{
		ID:           iss.ID.String(),
		Ref:          iss.Ref(),
		Machine:      iss.MachineInitials,
		Number:       iss.IssueNumber,
		Title:        iss.Title,
		Description:  iss.Description,
		Status:       iss.Status.String(),
		Severity:     (*string)(iss.Severity),
		Priority:     (*string)(iss.Priority),
		Frequency:    (*string)(iss.Frequency),
		AssigneeName: iss.AssigneeName,
		CreatedAt:    iss.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    iss.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if iss.AssigneeID != nil {
		s := iss.AssigneeID.String()
		resp.AssigneeID = &s
	}
	return resp
}
