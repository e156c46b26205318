// Package comment implements the IssueComment repository using PostgreSQL.
package comment

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

type commentRow struct {
	ID         uuid.UUID  `db:"id"`
	IssueID    uuid.UUID  `db:"issue_id"`
	AuthorID   *uuid.UUID `db:"author_id"`
	AuthorName string     `db:"author_name"`
	Content    string     `db:"content"`
	CreatedAt  time.Time  `db:"created_at"`
}

func (row commentRow) toDomain() domain.IssueComment {
	return domain.IssueComment{
		ID:         row.ID,
		IssueID:    row.IssueID,
		AuthorID:   row.AuthorID,
		AuthorName: row.AuthorName,
		Content:    row.Content,
		CreatedAt:  row.CreatedAt,
	}
}

// ListByIssue returns an issue's comments oldest first.
func (r *Repo) ListByIssue(ctx context.Context, issueID uuid.UUID) ([]domain.IssueComment, error) {
	sel := postgres.Builder().
		Select("c.id", "c.issue_id", "c.author_id", "c.content", "c.created_at").
		Column("COALESCE(u.name, '') AS author_name").
		From("issue_comments c").
		LeftJoin("user_profiles u ON u.id = c.author_id").
		Where(sq.Eq{"c.issue_id": issueID}).
		OrderBy("c.created_at ASC", "c.id ASC")

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	var rows []commentRow
	if err := pgxscan.Select(ctx, r.q(ctx), &rows, query, args...); err != nil {
		return nil, postgres.MapError(err, "comment", uuid.Nil)
	}

	comments := make([]domain.IssueComment, len(rows))
	for i, row := range rows {
		comments[i] = row.toDomain()
	}
	return comments, nil
}

// Create inserts a comment.
func (r *Repo) Create(ctx context.Context, c *domain.IssueComment) (*domain.IssueComment, error) {
	ins := postgres.Builder().
		Insert("issue_comments").
		Columns("id", "issue_id", "author_id", "content").
		Values(c.ID, c.IssueID, c.AuthorID, c.Content).
		Suffix("RETURNING id, issue_id, author_id, '' AS author_name, content, created_at")

	query, args, err := ins.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	var row commentRow
	if err := pgxscan.Get(ctx, r.q(ctx), &row, query, args...); err != nil {
		return nil, postgres.MapError(err, "comment", c.ID)
	}
	created := row.toDomain()
	return &created, nil
}

// Delete removes a comment from an issue.
func (r *Repo) Delete(ctx context.Context, issueID, id uuid.UUID) error {
	del := postgres.Builder().
		Delete("issue_comments").
		Where(sq.Eq{"id": id, "issue_id": issueID})

	query, args, err := del.ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	tag, err := r.q(ctx).Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, "comment", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("comment %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
