// Package issues implements the issue tracking business logic.
package issues

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/pinpointhq/pinpoint-backend/internal/config"
	"github.com/pinpointhq/pinpoint-backend/internal/domain"
)

// createRetries bounds retries of the sequential-number race on insert.
const createRetries = 3

type issueRepo interface {
	List(ctx context.Context, orgID uuid.UUID, f domain.IssueFilters, viewer domain.Viewer) ([]domain.Issue, int, error)
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Issue, error)
	GetByRef(ctx context.Context, orgID uuid.UUID, ref domain.IssueRef) (*domain.Issue, error)
	Create(ctx context.Context, iss *domain.Issue) (*domain.Issue, error)
	Update(ctx context.Context, iss *domain.Issue) (*domain.Issue, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

type machineRepo interface {
	GetByInitials(ctx context.Context, orgID uuid.UUID, initials string) (*domain.Machine, error)
}

type commentRepo interface {
	ListByIssue(ctx context.Context, issueID uuid.UUID) ([]domain.IssueComment, error)
	Create(ctx context.Context, c *domain.IssueComment) (*domain.IssueComment, error)
	Delete(ctx context.Context, issueID, id uuid.UUID) error
}

type watcherRepo interface {
	Watch(ctx context.Context, issueID, userID uuid.UUID) error
	Unwatch(ctx context.Context, issueID, userID uuid.UUID) error
	ListWatcherIDs(ctx context.Context, issueID uuid.UUID) ([]uuid.UUID, error)
}

type invitedUserRepo interface {
	GetOrCreateByEmail(ctx context.Context, orgID uuid.UUID, email, name string) (*domain.InvitedUser, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements issue tracking use cases.
type Service struct {
	log      *slog.Logger
	issues   issueRepo
	machines machineRepo
	comments commentRepo
	watchers watcherRepo
	invited  invitedUserRepo
	tx       txManager
	cfg      config.IssuesConfig
}

// NewService creates a new issues service.
func NewService(
	logger *slog.Logger,
	issues issueRepo,
	machines machineRepo,
	comments commentRepo,
	watchers watcherRepo,
	invited invitedUserRepo,
	tx txManager,
	cfg config.IssuesConfig,
) *Service {
	return &Service{
		log:      logger.With("service", "issues"),
		issues:   issues,
		machines: machines,
		comments: comments,
		watchers: watchers,
		invited:  invited,
		tx:       tx,
		cfg:      cfg,
	}
}

// List returns one page of issues matching the filters.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, f domain.IssueFilters, viewer domain.Viewer) ([]domain.Issue, int, error) {
	return s.issues.List(ctx, orgID, f, viewer)
}

// Get resolves an issue by its human-readable reference like "AFM-101".
func (s *Service) Get(ctx context.Context, orgID uuid.UUID, ref string) (*domain.Issue, error) {
	parsed, ok := domain.ParseIssueRef(ref)
	if !ok {
		return nil, domain.NewValidationError("ref", "must look like AFM-101")
	}
	return s.issues.GetByRef(ctx, orgID, parsed)
}

// CreateParams carries the caller-supplied fields of a new issue. Exactly
// one of ReporterID and ReporterEmail identifies the reporter; both empty
// means an anonymous report.
type CreateParams struct {
	MachineInitials string
	Title           string
	Description     *string
	Severity        *domain.IssueSeverity
	Frequency       *domain.IssueFrequency
	ReporterID      *uuid.UUID
	ReporterEmail   string
	ReporterName    string
}

// Create files a new issue against a machine. The issue number is assigned
// sequentially per machine; a lost race on the number is retried.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, p CreateParams) (*domain.Issue, error) {
	if err := s.validateCreate(p); err != nil {
		return nil, err
	}

	machine, err := s.machines.GetByInitials(ctx, orgID, p.MachineInitials)
	if err != nil {
		return nil, err
	}

	iss := &domain.Issue{
		OrganizationID:  orgID,
		MachineInitials: machine.Initials,
		Title:           strings.TrimSpace(p.Title),
		Description:     p.Description,
		Status:          domain.IssueStatusNew,
		Severity:        p.Severity,
		Frequency:       p.Frequency,
		ReporterID:      p.ReporterID,
	}

	if p.ReporterID == nil && p.ReporterEmail != "" {
		invited, err := s.invited.GetOrCreateByEmail(ctx, orgID, p.ReporterEmail, p.ReporterName)
		if err != nil {
			return nil, err
		}
		iss.InvitedReporterID = &invited.ID
	}

	var created *domain.Issue
	for attempt := 0; ; attempt++ {
		iss.ID = uuid.New()
		created, err = s.issues.Create(ctx, iss)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrAlreadyExists) || attempt+1 >= createRetries {
			return nil, err
		}
		s.log.Debug("issue number race lost, retrying",
			"machine", machine.Initials, "attempt", attempt+1)
	}

	if iss.ReporterID != nil {
		if err := s.watchers.Watch(ctx, created.ID, *iss.ReporterID); err != nil {
			s.log.Warn("auto-watch failed", "issue_id", created.ID, "error", err)
		}
	}

	s.log.Info("issue created", "issue", created.Ref(), "org_id", orgID)
	return created, nil
}

// UpdateParams carries the editable fields of an issue. Nil pointers leave
// the current value in place; explicit clears go through ClearAssignee.
type UpdateParams struct {
	Title         *string
	Description   *string
	Status        *domain.IssueStatus
	Severity      *domain.IssueSeverity
	Priority      *domain.IssuePriority
	Frequency     *domain.IssueFrequency
	AssigneeID    *uuid.UUID
	ClearAssignee bool
}

// Update edits an issue. Only authenticated members may edit; priority and
// assignment changes additionally require admin.
func (s *Service) Update(ctx context.Context, orgID, issueID uuid.UUID, p UpdateParams, viewer domain.Viewer) (*domain.Issue, error) {
	if viewer.UserID == nil {
		return nil, domain.ErrUnauthorized
	}
	if (p.Priority != nil || p.AssigneeID != nil || p.ClearAssignee) && !viewer.IsAdmin {
		return nil, domain.ErrForbidden
	}

	iss, err := s.issues.GetByID(ctx, orgID, issueID)
	if err != nil {
		return nil, err
	}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" || len(title) > s.cfg.MaxTitleLength {
			return nil, domain.NewValidationError("title", "must be non-empty and fit the length limit")
		}
		iss.Title = title
	}
	if p.Description != nil {
		iss.Description = p.Description
	}
	if p.Status != nil {
		if !p.Status.IsValid() {
			return nil, domain.NewValidationError("status", "unknown status")
		}
		iss.Status = *p.Status
	}
	if p.Severity != nil {
		if !p.Severity.IsValid() {
			return nil, domain.NewValidationError("severity", "unknown severity")
		}
		iss.Severity = p.Severity
	}
	if p.Priority != nil {
		if !p.Priority.IsValid() {
			return nil, domain.NewValidationError("priority", "unknown priority")
		}
		iss.Priority = p.Priority
	}
	if p.Frequency != nil {
		if !p.Frequency.IsValid() {
			return nil, domain.NewValidationError("frequency", "unknown frequency")
		}
		iss.Frequency = p.Frequency
	}
	if p.ClearAssignee {
		iss.AssigneeID = nil
	} else if p.AssigneeID != nil {
		iss.AssigneeID = p.AssigneeID
	}

	updated, err := s.issues.Update(ctx, iss)
	if err != nil {
		return nil, err
	}
	s.log.Info("issue updated", "issue", updated.Ref(), "org_id", orgID)
	return updated, nil
}

// Delete removes an issue with its comments and watchers. Admin only.
func (s *Service) Delete(ctx context.Context, orgID, issueID uuid.UUID, viewer domain.Viewer) error {
	if viewer.UserID == nil {
		return domain.ErrUnauthorized
	}
	if !viewer.IsAdmin {
		return domain.ErrForbidden
	}
	if err := s.issues.Delete(ctx, orgID, issueID); err != nil {
		return err
	}
	s.log.Info("issue deleted", "issue_id", issueID, "org_id", orgID)
	return nil
}

// ListComments returns an issue's comments oldest first.
func (s *Service) ListComments(ctx context.Context, orgID, issueID uuid.UUID) ([]domain.IssueComment, error) {
	if _, err := s.issues.GetByID(ctx, orgID, issueID); err != nil {
		return nil, err
	}
	return s.comments.ListByIssue(ctx, issueID)
}

// AddComment attaches a comment to an issue and subscribes the author.
func (s *Service) AddComment(ctx context.Context, orgID, issueID uuid.UUID, content string, viewer domain.Viewer) (*domain.IssueComment, error) {
	if viewer.UserID == nil {
		return nil, domain.ErrUnauthorized
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.NewValidationError("content", "must not be empty")
	}
	if len(content) > s.cfg.MaxCommentLength {
		return nil, domain.NewValidationError("content", "exceeds the length limit")
	}

	if _, err := s.issues.GetByID(ctx, orgID, issueID); err != nil {
		return nil, err
	}

	var created *domain.IssueComment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.comments.Create(ctx, &domain.IssueComment{
			ID:       uuid.New(),
			IssueID:  issueID,
			AuthorID: viewer.UserID,
			Content:  content,
		})
		if err != nil {
			return err
		}
		return s.watchers.Watch(ctx, issueID, *viewer.UserID)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteComment removes a comment. Authors delete their own; admins any.
func (s *Service) DeleteComment(ctx context.Context, orgID, issueID, commentID uuid.UUID, viewer domain.Viewer) error {
	if viewer.UserID == nil {
		return domain.ErrUnauthorized
	}
	if _, err := s.issues.GetByID(ctx, orgID, issueID); err != nil {
		return err
	}
	if !viewer.IsAdmin {
		comments, err := s.comments.ListByIssue(ctx, issueID)
		if err != nil {
			return err
		}
		var owned bool
		for _, c := range comments {
			if c.ID == commentID && c.AuthorID != nil && *c.AuthorID == *viewer.UserID {
				owned = true
				break
			}
		}
		if !owned {
			return domain.ErrForbidden
		}
	}
	return s.comments.Delete(ctx, issueID, commentID)
}

// Watch subscribes the viewer to an issue.
func (s *Service) Watch(ctx context.Context, orgID, issueID uuid.UUID, viewer domain.Viewer) error {
	if viewer.UserID == nil {
		return domain.ErrUnauthorized
	}
	if _, err := s.issues.GetByID(ctx, orgID, issueID); err != nil {
		return err
	}
	return s.watchers.Watch(ctx, issueID, *viewer.UserID)
}

// Unwatch removes the viewer's subscription.
func (s *Service) Unwatch(ctx context.Context, orgID, issueID uuid.UUID, viewer domain.Viewer) error {
	if viewer.UserID == nil {
		return domain.ErrUnauthorized
	}
	if _, err := s.issues.GetByID(ctx, orgID, issueID); err != nil {
		return err
	}
	return s.watchers.Unwatch(ctx, issueID, *viewer.UserID)
}

func (s *Service) validateCreate(p CreateParams) error {
	var errs []domain.FieldError

	title := strings.TrimSpace(p.Title)
	if title == "" {
		errs = append(errs, domain.FieldError{Field: "title", Message: "must not be empty"})
	} else if len(title) > s.cfg.MaxTitleLength {
		errs = append(errs, domain.FieldError{Field: "title", Message: "exceeds the length limit"})
	}
	if strings.TrimSpace(p.MachineInitials) == "" {
		errs = append(errs, domain.FieldError{Field: "machine", Message: "must not be empty"})
	}
	if p.Severity != nil && !p.Severity.IsValid() {
		errs = append(errs, domain.FieldError{Field: "severity", Message: "unknown severity"})
	}
	if p.Frequency != nil && !p.Frequency.IsValid() {
		errs = append(errs, domain.FieldError{Field: "frequency", Message: "unknown frequency"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
