// Package inviteduser implements the invited-user repository using PostgreSQL.
// Invited users are placeholder identities for reporters who were invited by
// email but have not signed up yet.
package inviteduser

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres"
	"github.com/pinpointhq/pinpoint-backend/internal/domain"
)

type Repo struct {
	db postgres.Querier
}

func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

func (r *Repo) q(ctx context.Context) postgres.Querier {
	return postgres.QuerierFromCtx(ctx, r.db)
}

type invitedRow struct {
	ID             uuid.UUID `db:"id"`
	OrganizationID uuid.UUID `db:"organization_id"`
	Email          string    `db:"email"`
	Name           string    `db:"name"`
	CreatedAt      time.Time `db:"created_at"`
}

func (row invitedRow) toDomain() domain.InvitedUser {
	return domain.InvitedUser{
		ID:             row.ID,
		OrganizationID: row.OrganizationID,
		Email:          row.Email,
		Name:           row.Name,
		CreatedAt:      row.CreatedAt,
	}
}

// GetOrCreateByEmail returns the invited user with the given email,
// inserting a placeholder row when none exists yet.
func (r *Repo) GetOrCreateByEmail(ctx context.Context, orgID uuid.UUID, email, name string) (*domain.InvitedUser, error) {
	ins := postgres.Builder().
		Insert("invited_users").
		Columns("id", "organization_id", "email", "name").
		Values(uuid.New(), orgID, email, name).
		Suffix(`ON CONFLICT (organization_id, email) DO UPDATE SET email = EXCLUDED.email
			RETURNING id, organization_id, email, name, created_at`)

	query, args, err := ins.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert query: %w", err)
	}

	var row invitedRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return nil, postgres.MapError(err, "invited_user", uuid.Nil)
	}
	iv := row.toDomain()
	return &iv, nil
}

// GetByID returns an invited user within the organization.
func (r *Repo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.InvitedUser, error) {
	sel := postgres.Builder().
		Select("id", "organization_id", "email", "name", "created_at").
		From("invited_users").
		Where(sq.Eq{"organization_id": orgID, "id": id})

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	var row invitedRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return nil, postgres.MapError(err, "invited_user", id)
	}
	iv := row.toDomain()
	return &iv, nil
}
