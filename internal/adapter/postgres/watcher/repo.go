// Package watcher implements the issue watcher repository using PostgreSQL.
package watcher

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres"
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

// Watch subscribes a user to an issue. Watching twice is a no-op.
func (r *Repo) Watch(ctx context.Context, issueID, userID uuid.UUID) error {
	ins := postgres.Builder().
		Insert("issue_watchers").
		Columns("issue_id", "user_id").
		Values(issueID, userID).
		Suffix("ON CONFLICT (issue_id, user_id) DO NOTHING")

	query, args, err := ins.ToSql()
	if err != nil {
		return fmt.Errorf("build watch query: %w", err)
	}

	if _, err := r.q(ctx).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "watcher", issueID)
	}
	return nil
}

// Unwatch removes a subscription. Unwatching a non-watched issue is a no-op.
func (r *Repo) Unwatch(ctx context.Context, issueID, userID uuid.UUID) error {
	del := postgres.Builder().
		Delete("issue_watchers").
		Where(sq.Eq{"issue_id": issueID, "user_id": userID})

	query, args, err := del.ToSql()
	if err != nil {
		return fmt.Errorf("build unwatch query: %w", err)
	}

	if _, err := r.q(ctx).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "watcher", issueID)
	}
	return nil
}

// ListWatcherIDs returns the user IDs watching an issue.
func (r *Repo) ListWatcherIDs(ctx context.Context, issueID uuid.UUID) ([]uuid.UUID, error) {
	sel := postgres.Builder().
		Select("user_id").
		From("issue_watchers").
		Where(sq.Eq{"issue_id": issueID}).
		OrderBy("created_at ASC")

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	var ids []uuid.UUID
	if err := pgxscan.Select(ctx, r.q(ctx), &ids, query, args...); err != nil {
		return nil, postgres.MapError(err, "watcher", issueID)
	}
	return ids, nil
}

// IsWatching reports whether the user watches the issue.
func (r *Repo) IsWatching(ctx context.Context, issueID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.q(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM issue_watchers WHERE issue_id = $1 AND user_id = $2)`,
		issueID, userID,
	).Scan(&exists)
	if err != nil {
		return false, postgres.MapError(err, "watcher", issueID)
	}
	return exists, nil
}
