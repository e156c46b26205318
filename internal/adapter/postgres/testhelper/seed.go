package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pinpointhq/pinpoint-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedOrganization creates an organization with a unique subdomain.
// Returns a filled domain.Organization.
func SeedOrganization(t *testing.T, pool *pgxpool.Pool) domain.Organization {
	t.Helper()

	suffix := uniqueSuffix()
	org := domain.Organization{
		ID:        uuid.New(),
		Name:      "Test Arcade " + suffix,
		Subdomain: "arcade-" + suffix,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO organizations (id, name, subdomain) VALUES ($1, $2, $3)`,
		org.ID, org.Name, org.Subdomain,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedOrganization insert: %v", err)
	}

	return org
}

// SeedUser creates a user profile in the given organization with the given role.
// The password hash is left empty; tests that need a working login go through
// the auth service instead. Returns a filled domain.UserProfile.
func SeedUser(t *testing.T, pool *pgxpool.Pool, orgID uuid.UUID, role domain.UserRole) domain.UserProfile {
	t.Helper()

	suffix := uniqueSuffix()
	user := domain.UserProfile{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           "Test User " + suffix,
		Email:          "testuser-" + suffix + "@example.com",
		Role:           role,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO user_profiles (id, organization_id, email, name, password_hash, role)
		 VALUES ($1, $2, $3, $4, '', $5)`,
		user.ID, user.OrganizationID, user.Email, user.Name, string(user.Role),
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser insert: %v", err)
	}

	return user
}

// SeedMachine creates a machine with the given initials in the organization.
// Returns a filled domain.Machine.
func SeedMachine(t *testing.T, pool *pgxpool.Pool, orgID uuid.UUID, initials, name string, presence domain.MachinePresence) domain.Machine {
	t.Helper()

	m := domain.Machine{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Initials:       initials,
		Name:           name,
		Presence:       presence,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO machines (id, organization_id, initials, name, presence)
		 VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.OrganizationID, m.Initials, m.Name, string(m.Presence),
	)
	if err != nil {
		t.Fatalf("testhelper: SeedMachine insert: %v", err)
	}

	return m
}
