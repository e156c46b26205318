package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile is a registered user within an organization.
// Email is visible only to admin-tier callers; lower tiers receive
// redacted views via RedactedCopy.
type UserProfile struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Email          string
	PasswordHash   string
	Role           UserRole
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u UserProfile) IsAdmin() bool { return u.Role == UserRoleAdmin }

// RedactedCopy returns the profile with fields a non-admin caller must
// not see cleared out.
func (u UserProfile) RedactedCopy() UserProfile {
	u.Email = ""
	u.PasswordHash = ""
	return u
}

// Viewer carries the caller identity the auth layer resolved for a
// request: who is asking (nil for anonymous) and whether they hold the
// admin tier. Both values feed the query builder.
type Viewer struct {
	UserID  *uuid.UUID
	IsAdmin bool
}

// AnonymousViewer is the viewer for unauthenticated requests.
func AnonymousViewer() Viewer { return Viewer{} }
