// Package machine implements the Machine repository using PostgreSQL.
package machine

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

var machineColumns = []string{
	"id", "organization_id", "initials", "name", "owner_id", "presence", "created_at",
}

// Repo provides machine persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new machine repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

func (r *Repo) q(ctx context.Context) postgres.Querier {
	return postgres.QuerierFromCtx(ctx, r.db)
}

type machineRow struct {
	ID             uuid.UUID  `db:"id"`
	OrganizationID uuid.UUID  `db:"organization_id"`
	Initials       string     `db:"initials"`
	Name           string     `db:"name"`
	OwnerID        *uuid.UUID `db:"owner_id"`
	Presence       string     `db:"presence"`
	CreatedAt      time.Time  `db:"created_at"`
}

func (row machineRow) toDomain() domain.Machine {
	return domain.Machine{
		ID:             row.ID,
		OrganizationID: row.OrganizationID,
		Initials:       row.Initials,
		Name:           row.Name,
		OwnerID:        row.OwnerID,
		Presence:       domain.MachinePresence(row.Presence),
		CreatedAt:      row.CreatedAt,
	}
}

// List returns the organization's machines ordered by initials. When
// includeInactive is false only machines on the floor are returned.
func (r *Repo) List(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]domain.Machine, error) {
	sel := postgres.Builder().
		Select(machineColumns...).
		From("machines").
		Where(sq.Eq{"organization_id": orgID}).
		OrderBy("initials ASC")
	if !includeInactive {
		sel = sel.Where(sq.Eq{"presence": string(domain.MachinePresenceOnTheFloor)})
	}

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	var rows []machineRow
	if err := pgxscan.Select(ctx, r.q(ctx), &rows, query, args...); err != nil {
		return nil, postgres.MapError(err, "machine", uuid.Nil)
	}

	machines := make([]domain.Machine, len(rows))
	for i, row := range rows {
		machines[i] = row.toDomain()
	}
	return machines, nil
}

// GetByInitials resolves a machine by its initials, case-insensitively.
func (r *Repo) GetByInitials(ctx context.Context, orgID uuid.UUID, initials string) (*domain.Machine, error) {
	sel := postgres.Builder().
		Select(machineColumns...).
		From("machines").
		Where(sq.Eq{"organization_id": orgID}).
		Where(sq.Expr(`LOWER(initials) = LOWER(?)`, initials))

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	var row machineRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return nil, postgres.MapError(err, "machine", uuid.Nil)
	}
	m := row.toDomain()
	return &m, nil
}

// Create inserts a machine. Initials collide case-sensitively at the unique
// index; the service normalizes initials to upper case before calling this.
func (r *Repo) Create(ctx context.Context, m *domain.Machine) (*domain.Machine, error) {
	ins := postgres.Builder().
		Insert("machines").
		Columns("id", "organization_id", "initials", "name", "owner_id", "presence").
		Values(m.ID, m.OrganizationID, m.Initials, m.Name, m.OwnerID, string(m.Presence)).
		Suffix("RETURNING " + joinColumns(machineColumns))

	query, args, err := ins.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	var row machineRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return nil, postgres.MapError(err, "machine", m.ID)
	}
	created := row.toDomain()
	return &created, nil
}

// Update rewrites a machine's name, owner and presence.
func (r *Repo) Update(ctx context.Context, m *domain.Machine) (*domain.Machine, error) {
	upd := postgres.Builder().
		Update("machines").
		Set("name", m.Name).
		Set("owner_id", m.OwnerID).
		Set("presence", string(m.Presence)).
		Where(sq.Eq{"id": m.ID, "organization_id": m.OrganizationID}).
		Suffix("RETURNING " + joinColumns(machineColumns))

	query, args, err := upd.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update query: %w", err)
	}

	var row machineRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return nil, postgres.MapError(err, "machine", m.ID)
	}
	updated := row.toDomain()
	return &updated, nil
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
