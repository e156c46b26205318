// Package machines implements machine lineup management.
package machines

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/pinpointhq/pinpoint-backend/internal/domain"
)

type machineRepo interface {
	List(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]domain.Machine, error)
	GetByInitials(ctx context.Context, orgID uuid.UUID, initials string) (*domain.Machine, error)
	Create(ctx context.Context, m *domain.Machine) (*domain.Machine, error)
	Update(ctx context.Context, m *domain.Machine) (*domain.Machine, error)
}

// Service implements machine lineup use cases.
type Service struct {
	log      *slog.Logger
	machines machineRepo
}

// NewService creates a new machines service.
func NewService(logger *slog.Logger, machines machineRepo) *Service {
	return &Service{
		log:      logger.With("service", "machines"),
		machines: machines,
	}
}

// List returns the organization's machines. Non-admins asking for the full
// lineup still get it; the flag only widens the default floor-only view.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]domain.Machine, error) {
	return s.machines.List(ctx, orgID, includeInactive)
}

// Get resolves a machine by initials, case-insensitively.
func (s *Service) Get(ctx context.Context, orgID uuid.UUID, initials string) (*domain.Machine, error) {
	initials = strings.TrimSpace(initials)
	if initials == "" {
		return nil, domain.NewValidationError("initials", "must not be empty")
	}
	return s.machines.GetByInitials(ctx, orgID, initials)
}

// CreateParams carries the fields of a new machine.
type CreateParams struct {
	Initials string
	Name     string
	OwnerID  *uuid.UUID
	Presence domain.MachinePresence
}

// Create adds a machine to the lineup. Admin only. Initials are stored
// upper-cased; they become the prefix of every issue reference on the
// machine.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, p CreateParams, viewer domain.Viewer) (*domain.Machine, error) {
	if viewer.UserID == nil {
		return nil, domain.ErrUnauthorized
	}
	if !viewer.IsAdmin {
		return nil, domain.ErrForbidden
	}

	initials := strings.ToUpper(strings.TrimSpace(p.Initials))
	if l := len(initials); l < 1 || l > 4 {
		return nil, domain.NewValidationError("initials", "must be 1-4 characters")
	}
	for _, r := range initials {
		if r < 'A' || r > 'Z' {
			return nil, domain.NewValidationError("initials", "must be letters only")
		}
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, domain.NewValidationError("name", "must not be empty")
	}

	presence := p.Presence
	if presence == "" {
		presence = domain.MachinePresenceOnTheFloor
	}
	if !presence.IsValid() {
		return nil, domain.NewValidationError("presence", "unknown presence")
	}

	created, err := s.machines.Create(ctx, &domain.Machine{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Initials:       initials,
		Name:           strings.TrimSpace(p.Name),
		OwnerID:        p.OwnerID,
		Presence:       presence,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("machine created", "initials", created.Initials, "org_id", orgID)
	return created, nil
}

// UpdateParams carries the editable fields of a machine.
type UpdateParams struct {
	Name       *string
	OwnerID    *uuid.UUID
	ClearOwner bool
	Presence   *domain.MachinePresence
}

// Update edits a machine. Admin only. Initials are immutable; issue
// references must stay stable.
func (s *Service) Update(ctx context.Context, orgID uuid.UUID, initials string, p UpdateParams, viewer domain.Viewer) (*domain.Machine, error) {
	if viewer.UserID == nil {
		return nil, domain.ErrUnauthorized
	}
	if !viewer.IsAdmin {
		return nil, domain.ErrForbidden
	}

	m, err := s.machines.GetByInitials(ctx, orgID, initials)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "must not be empty")
		}
		m.Name = name
	}
	if p.ClearOwner {
		m.OwnerID = nil
	} else if p.OwnerID != nil {
		m.OwnerID = p.OwnerID
	}
	if p.Presence != nil {
		if !p.Presence.IsValid() {
			return nil, domain.NewValidationError("presence", "unknown presence")
		}
		m.Presence = *p.Presence
	}

	updated, err := s.machines.Update(ctx, m)
	if err != nil {
		return nil, err
	}
	s.log.Info("machine updated", "initials", updated.Initials, "org_id", orgID)
	return updated, nil
}
