package issue

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

var issueColumns = []string{
	"i.id",
	"i.organization_id",
	"i.machine_initials",
	"i.issue_number",
	"i.title",
	"i.description",
	"i.status",
	"i.severity",
	"i.priority",
	"i.frequency",
	"i.reporter_id",
	"i.invited_reporter_id",
	"i.assignee_id",
	"i.created_at",
	"i.updated_at",
}

// Repo provides issue persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new issue repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

func (r *Repo) q(ctx context.Context) postgres.Querier {
	return postgres.QuerierFromCtx(ctx, r.db)
}

type issueRow struct {
	ID                uuid.UUID  `db:"id"`
	OrganizationID    uuid.UUID  `db:"organization_id"`
	MachineInitials   string     `db:"machine_initials"`
	IssueNumber       int        `db:"issue_number"`
	Title             string     `db:"title"`
	Description       *string    `db:"description"`
	Status            string     `db:"status"`
	Severity          *string    `db:"severity"`
	Priority          *string    `db:"priority"`
	Frequency         *string    `db:"frequency"`
	ReporterID        *uuid.UUID `db:"reporter_id"`
	InvitedReporterID *uuid.UUID `db:"invited_reporter_id"`
	AssigneeID        *uuid.UUID `db:"assignee_id"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
	AssigneeName      string     `db:"assignee_name"`
}

func (row issueRow) toDomain() domain.Issue {
	iss := domain.Issue{
		ID:                row.ID,
		OrganizationID:    row.OrganizationID,
		MachineInitials:   row.MachineInitials,
		IssueNumber:       row.IssueNumber,
		Title:             row.Title,
		Description:       row.Description,
		Status:            domain.IssueStatus(row.Status),
		ReporterID:        row.ReporterID,
		InvitedReporterID: row.InvitedReporterID,
		AssigneeID:        row.AssigneeID,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
		AssigneeName:      row.AssigneeName,
	}
	if row.Severity != nil {
		s := domain.IssueSeverity(*row.Severity)
		iss.Severity = &s
	}
	if row.Priority != nil {
		p := domain.IssuePriority(*row.Priority)
		iss.Priority = &p
	}
	if row.Frequency != nil {
		fr := domain.IssueFrequency(*row.Frequency)
		iss.Frequency = &fr
	}
	return iss
}

// List returns one page of issues matching the filters, plus the total
// number of matching rows. Results are scoped to the organization; the
// viewer only influences admin-gated search behavior and watch filtering.
func (r *Repo) List(ctx context.Context, orgID uuid.UUID, f domain.IssueFilters, viewer domain.Viewer) ([]domain.Issue, int, error) {
	conds := buildWhereConditions(f, viewer)

	sel := postgres.Builder().
		Select(issueColumns...).
		Column("COALESCE(a.name, '') AS assignee_name").
		From("issues i").
		LeftJoin("user_profiles a ON a.id = i.assignee_id").
		Where(sq.Eq{"i.organization_id": orgID})
	for _, c := range conds {
		sel = sel.Where(c)
	}
	sel = sel.
		OrderBy(buildOrderBy(f.Sort)...).
		Limit(uint64(f.Limit())).
		Offset(uint64(f.Offset()))

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	var rows []issueRow
	if err := pgxscan.Select(ctx, r.q(ctx), &rows, query, args...); err != nil {
		return nil, 0, postgres.MapError(err, "issue", uuid.Nil)
	}

	total, err := r.count(ctx, orgID, conds)
	if err != nil {
		return nil, 0, err
	}

	issues := make([]domain.Issue, len(rows))
	for i, row := range rows {
		issues[i] = row.toDomain()
	}
	return issues, total, nil
}

func (r *Repo) count(ctx context.Context, orgID uuid.UUID, conds []sq.Sqlizer) (int, error) {
	cnt := postgres.Builder().
		Select("COUNT(*)").
		From("issues i").
		Where(sq.Eq{"i.organization_id": orgID})
	for _, c := range conds {
		cnt = cnt.Where(c)
	}

	query, args, err := cnt.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := r.q(ctx).QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, postgres.MapError(err, "issue", uuid.Nil)
	}
	return total, nil
}

// GetByID returns a single issue within the organization.
func (r *Repo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Issue, error) {
	sel := r.selectOne().Where(sq.Eq{"i.id": id, "i.organization_id": orgID})

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	var row issueRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return nil, postgres.MapError(err, "issue", id)
	}
	iss := row.toDomain()
	return &iss, nil
}

// GetByRef resolves an issue by its human-readable reference, matching
// initials case-insensitively.
func (r *Repo) GetByRef(ctx context.Context, orgID uuid.UUID, ref domain.IssueRef) (*domain.Issue, error) {
	sel := r.selectOne().
		Where(sq.Eq{"i.organization_id": orgID}).
		Where(sq.Expr(`LOWER(i.machine_initials) = LOWER(?)`, ref.Initials)).
		Where(sq.Eq{"i.issue_number": ref.Number})

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get-by-ref query: %w", err)
	}

	var row issueRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return nil, postgres.MapError(err, "issue", uuid.Nil)
	}
	iss := row.toDomain()
	return &iss, nil
}

func (r *Repo) selectOne() sq.SelectBuilder {
	return postgres.Builder().
		Select(issueColumns...).
		Column("COALESCE(a.name, '') AS assignee_name").
		From("issues i").
		LeftJoin("user_profiles a ON a.id = i.assignee_id")
}

// Create inserts an issue, assigning the next sequential number for its
// machine. The subselect races with concurrent inserts; the unique index on
// (organization_id, machine_initials, issue_number) turns the race into
// ErrAlreadyExists, which the service retries.
func (r *Repo) Create(ctx context.Context, iss *domain.Issue) (*domain.Issue, error) {
	query := `
		INSERT INTO issues (
			id, organization_id, machine_initials, issue_number,
			title, description, status, severity, priority, frequency,
			reporter_id, invited_reporter_id, assignee_id, created_at, updated_at
		)
		VALUES (
			$1, $2, $3,
			(SELECT COALESCE(MAX(issue_number), 0) + 1
			 FROM issues WHERE organization_id = $2 AND machine_initials = $3),
			$4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now()
		)
		RETURNING id, organization_id, machine_initials, issue_number,
			title, description, status, severity, priority, frequency,
			reporter_id, invited_reporter_id, assignee_id, created_at, updated_at,
			COALESCE((SELECT name FROM user_profiles u WHERE u.id = issues.assignee_id), '') AS assignee_name`

	var row issueRow
	err := pgxscan.Get(ctx, r.q(ctx), &row, query,
		iss.ID, iss.OrganizationID, iss.MachineInitials,
		iss.Title, iss.Description, string(iss.Status),
		enumPtr(iss.Severity), enumPtr(iss.Priority), enumPtr(iss.Frequency),
		iss.ReporterID, iss.InvitedReporterID, iss.AssigneeID,
	)
	if err != nil {
		return nil, postgres.MapError(err, "issue", iss.ID)
	}
	created := row.toDomain()
	return &created, nil
}

// Update rewrites the mutable fields of an issue and bumps updated_at.
func (r *Repo) Update(ctx context.Context, iss *domain.Issue) (*domain.Issue, error) {
	upd := postgres.Builder().
		Update("issues").
		Set("title", iss.Title).
		Set("description", iss.Description).
		Set("status", string(iss.Status)).
		Set("severity", enumPtr(iss.Severity)).
		Set("priority", enumPtr(iss.Priority)).
		Set("frequency", enumPtr(iss.Frequency)).
		Set("assignee_id", iss.AssigneeID).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": iss.ID, "organization_id": iss.OrganizationID}).
		Suffix(`RETURNING id, organization_id, machine_initials, issue_number,
			title, description, status, severity, priority, frequency,
			reporter_id, invited_reporter_id, assignee_id, created_at, updated_at,
			COALESCE((SELECT name FROM user_profiles u WHERE u.id = issues.assignee_id), '') AS assignee_name`)

	query, args, err := upd.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update query: %w", err)
	}

	var row issueRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return nil, postgres.MapError(err, "issue", iss.ID)
	}
	updated := row.toDomain()
	return &updated, nil
}

// Delete removes an issue and, through ON DELETE CASCADE, its comments
// and watcher rows.
func (r *Repo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	del := postgres.Builder().
		Delete("issues").
		Where(sq.Eq{"id": id, "organization_id": orgID})

	query, args, err := del.ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	tag, err := r.q(ctx).Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, "issue", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("issue %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func enumPtr[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
