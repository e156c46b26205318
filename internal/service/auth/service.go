// Package auth implements login and account provisioning.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	internalauth "github.com/pinpointhq/pinpoint-backend/internal/auth"
	"github.com/pinpointhq/pinpoint-backend/internal/domain"
)

type userRepo interface {
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.UserProfile, error)
	GetByEmail(ctx context.Context, orgID uuid.UUID, email string) (*domain.UserProfile, error)
	List(ctx context.Context, orgID uuid.UUID) ([]domain.UserProfile, error)
	Create(ctx context.Context, u *domain.UserProfile) (*domain.UserProfile, error)
}

type jwtManager interface {
	GenerateAccessToken(userID uuid.UUID, role string) (string, error)
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Service implements authentication use cases.
type Service struct {
	log    *slog.Logger
	users  userRepo
	jwt    jwtManager
	hasher passwordHasher
}

// NewService creates a new auth service.
func NewService(logger *slog.Logger, users userRepo, jwt jwtManager, hasher passwordHasher) *Service {
	return &Service{
		log:    logger.With("service", "auth"),
		users:  users,
		jwt:    jwt,
		hasher: hasher,
	}
}

// LoginResult is a successful login: the profile plus a signed access token.
type LoginResult struct {
	User        domain.UserProfile
	AccessToken string
}

// Login verifies credentials within the organization and issues an access
// token. Wrong email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, orgID uuid.UUID, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.ErrUnauthorized
	}

	u, err := s.users.GetByEmail(ctx, orgID, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		if errors.Is(err, internalauth.ErrWrongPassword) {
			s.log.Info("failed login", "org_id", orgID, "user_id", u.ID)
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	token, err := s.jwt.GenerateAccessToken(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}

	self := *u
	self.PasswordHash = ""
	return &LoginResult{User: self, AccessToken: token}, nil
}

// RegisterParams carries the fields of a new member account.
type RegisterParams struct {
	Email    string
	Name     string
	Password string
	Role     domain.UserRole
}

// Register provisions a member account. Admin only.
func (s *Service) Register(ctx context.Context, orgID uuid.UUID, p RegisterParams, viewer domain.Viewer) (*domain.UserProfile, error) {
	if viewer.UserID == nil {
		return nil, domain.ErrUnauthorized
	}
	if !viewer.IsAdmin {
		return nil, domain.ErrForbidden
	}

	email := strings.TrimSpace(strings.ToLower(p.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.NewValidationError("email", "must be a valid address")
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, domain.NewValidationError("name", "must not be empty")
	}
	if len(p.Password) < 8 {
		return nil, domain.NewValidationError("password", "must be at least 8 characters")
	}
	role := p.Role
	if role == "" {
		role = domain.UserRoleMember
	}
	if !role.IsValid() {
		return nil, domain.NewValidationError("role", "unknown role")
	}

	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return nil, err
	}

	created, err := s.users.Create(ctx, &domain.UserProfile{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Email:          email,
		Name:           strings.TrimSpace(p.Name),
		PasswordHash:   hash,
		Role:           role,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", "user_id", created.ID, "org_id", orgID, "role", created.Role)
	out := *created
	out.PasswordHash = ""
	return &out, nil
}

// ListMembers returns the organization's member profiles, for assignee and
// owner pickers. Requires a logged-in viewer. Emails stay visible to admins
// only.
func (s *Service) ListMembers(ctx context.Context, orgID uuid.UUID, viewer domain.Viewer) ([]domain.UserProfile, error) {
	if viewer.UserID == nil {
		return nil, domain.ErrUnauthorized
	}
	users, err := s.users.List(ctx, orgID)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if viewer.IsAdmin {
			users[i].PasswordHash = ""
		} else {
			users[i] = users[i].RedactedCopy()
		}
	}
	return users, nil
}

// Me returns the viewer's own profile with the password hash cleared.
func (s *Service) Me(ctx context.Context, orgID uuid.UUID, viewer domain.Viewer) (*domain.UserProfile, error) {
	if viewer.UserID == nil {
		return nil, domain.ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, orgID, *viewer.UserID)
	if err != nil {
		return nil, err
	}
	self := *u
	self.PasswordHash = ""
	return &self, nil
}
