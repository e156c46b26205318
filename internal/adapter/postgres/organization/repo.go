// Package organization implements the Organization repository using PostgreSQL.
package organization

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

type orgRow struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Subdomain string    `db:"subdomain"`
	CreatedAt time.Time `db:"created_at"`
}

func (row orgRow) toDomain() domain.Organization {
	return domain.Organization{
		ID:        row.ID,
		Name:      row.Name,
		Subdomain: row.Subdomain,
		CreatedAt: row.CreatedAt,
	}
}

// GetBySubdomain resolves the tenant for an incoming request.
func (r *Repo) GetBySubdomain(ctx context.Context, subdomain string) (*domain.Organization, error) {
	sel := postgres.Builder().
		Select("id", "name", "subdomain", "created_at").
		From("organizations").
		Where(sq.Expr(`LOWER(subdomain) = LOWER(?)`, subdomain))

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	var row orgRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return nil, postgres.MapError(err, "organization", uuid.Nil)
	}
	org := row.toDomain()
	return &org, nil
}

// Create inserts an organization.
func (r *Repo) Create(ctx context.Context, org *domain.Organization) (*domain.Organization, error) {
	ins := postgres.Builder().
		Insert("organizations").
		Columns("id", "name", "subdomain").
		Values(org.ID, org.Name, org.Subdomain).
		Suffix("RETURNING id, name, subdomain, created_at")

	query, args, err := ins.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	var row orgRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return nil, postgres.MapError(err, "organization", org.ID)
	}
	created := row.toDomain()
	return &created, nil
}
