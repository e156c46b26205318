// Package user implements the UserProfile repository using PostgreSQL.
package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres"
	"github.com/pinpointhq/pinpoint-backend/internal/domain"
)

var userColumns = []string{
	"id", "organization_id", "email", "name", "password_hash", "role",
	"created_at", "updated_at",
}

// Repo provides user profile persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new user repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

func (r *Repo) q(ctx context.Context) postgres.Querier {
	return postgres.QuerierFromCtx(ctx, r.db)
}

type userRow struct {
	ID             uuid.UUID `db:"id"`
	OrganizationID uuid.UUID `db:"organization_id"`
	Email          string    `db:"email"`
	Name           string    `db:"name"`
	PasswordHash   string    `db:"password_hash"`
	Role           string    `db:"role"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (row userRow) toDomain() domain.UserProfile {
	return domain.UserProfile{
		ID:             row.ID,
		OrganizationID: row.OrganizationID,
		Email:          row.Email,
		Name:           row.Name,
		PasswordHash:   row.PasswordHash,
		Role:           domain.UserRole(row.Role),
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

// GetByID returns a user within the organization.
func (r *Repo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.UserProfile, error) {
	return r.getOne(ctx, sq.Eq{"organization_id": orgID, "id": id}, id)
}

// GetByEmail resolves a user by email, case-insensitively. Used by login.
func (r *Repo) GetByEmail(ctx context.Context, orgID uuid.UUID, email string) (*domain.UserProfile, error) {
	sel := postgres.Builder().
		Select(userColumns...).
		From("user_profiles").
		Where(sq.Eq{"organization_id": orgID}).
		Where(sq.Expr(`LOWER(email) = LOWER(?)`, email))

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get-by-email query: %w", err)
	}

	var row userRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return nil, postgres.MapError(err, "user", uuid.Nil)
	}
	u := row.toDomain()
	return &u, nil
}

// List returns the organization's members ordered by name.
func (r *Repo) List(ctx context.Context, orgID uuid.UUID) ([]domain.UserProfile, error) {
	sel := postgres.Builder().
		Select(userColumns...).
		From("user_profiles").
		Where(sq.Eq{"organization_id": orgID}).
		OrderBy("name ASC")

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	var rows []userRow
	if err := pgxscan.Select(ctx, r.q(ctx), &rows, query, args...); err != nil {
		return nil, postgres.MapError(err, "user", uuid.Nil)
	}

	users := make([]domain.UserProfile, len(rows))
	for i, row := range rows {
		users[i] = row.toDomain()
	}
	return users, nil
}

// Create inserts a user profile.
func (r *Repo) Create(ctx context.Context, u *domain.UserProfile) (*domain.UserProfile, error) {
	ins := postgres.Builder().
		Insert("user_profiles").
		Columns("id", "organization_id", "email", "name", "password_hash", "role").
		Values(u.ID, u.OrganizationID, u.Email, u.Name, u.PasswordHash, string(u.Role)).
		Suffix("RETURNING " + strings.Join(userColumns, ", "))

	query, args, err := ins.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	var row userRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return nil, postgres.MapError(err, "user", u.ID)
	}
	created := row.toDomain()
	return &created, nil
}

func (r *Repo) getOne(ctx context.Context, pred sq.Sqlizer, id uuid.UUID) (*domain.UserProfile, error) {
	sel := postgres.Builder().
		Select(userColumns...).
		From("user_profiles").
		Where(pred)

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	var row userRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return nil, postgres.MapError(err, "user", id)
	}
	u := row.toDomain()
	return &u, nil
}
