// Package issue implements the Issue repository using PostgreSQL.
package issue

import (
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/pinpointhq/pinpoint-backend/internal/domain"
)

// Predicates reference the aliases of the listing query: i = issues,
// a = the left-joined assignee profile. Only buildOrderBy may touch a;
// the count query runs without the join.

// buildWhereConditions translates filters into predicate terms. The terms
// are combined with AND by the caller; values within a single filter match
// with OR (IN lists, the free-text group). Tenant scoping is the caller's
// responsibility and never appears here.
func buildWhereConditions(f domain.IssueFilters, viewer domain.Viewer) []sq.Sqlizer {
	conds := make([]sq.Sqlizer, 0, 12)

	if q := strings.TrimSpace(f.Search); q != "" {
		conds = append(conds, searchCondition(q, viewer.IsAdmin))
	}

	if statuses, restricted := f.Status.Effective(); restricted {
		conds = append(conds, sq.Eq{"i.status": statusStrings(statuses)})
	}

	if len(f.Machines) > 0 {
		conds = append(conds, sq.Eq{"i.machine_initials": f.Machines})
	}
	if len(f.Severities) > 0 {
		conds = append(conds, sq.Eq{"i.severity": severityStrings(f.Severities)})
	}
	if len(f.Priorities) > 0 {
		conds = append(conds, sq.Eq{"i.priority": priorityStrings(f.Priorities)})
	}
	if len(f.Frequencies) > 0 {
		conds = append(conds, sq.Eq{"i.frequency": frequencyStrings(f.Frequencies)})
	}

	switch {
	case f.Unassigned && len(f.AssigneeIDs) > 0:
		conds = append(conds, sq.Or{
			sq.Eq{"i.assignee_id": nil},
			sq.Eq{"i.assignee_id": f.AssigneeIDs},
		})
	case f.Unassigned:
		conds = append(conds, sq.Eq{"i.assignee_id": nil})
	case len(f.AssigneeIDs) > 0:
		conds = append(conds, sq.Eq{"i.assignee_id": f.AssigneeIDs})
	}

	if len(f.OwnerIDs) > 0 {
		conds = append(conds, sq.Expr(
			`EXISTS (SELECT 1 FROM machines m
			 WHERE m.organization_id = i.organization_id
			   AND m.initials = i.machine_initials
			   AND m.owner_id = ANY(?))`, f.OwnerIDs))
	}

	if len(f.ReporterIDs) > 0 {
		conds = append(conds, sq.Eq{"i.reporter_id": f.ReporterIDs})
	}

	if f.Watching && viewer.UserID != nil {
		conds = append(conds, sq.Expr(
			`EXISTS (SELECT 1 FROM issue_watchers w
			 WHERE w.issue_id = i.id AND w.user_id = ?)`, *viewer.UserID))
	}

	if f.CreatedFrom != nil {
		conds = append(conds, sq.GtOrEq{"i.created_at": *f.CreatedFrom})
	}
	if f.CreatedTo != nil {
		conds = append(conds, sq.LtOrEq{"i.created_at": endOfDay(*f.CreatedTo)})
	}
	if f.UpdatedFrom != nil {
		conds = append(conds, sq.GtOrEq{"i.updated_at": *f.UpdatedFrom})
	}
	if f.UpdatedTo != nil {
		conds = append(conds, sq.LtOrEq{"i.updated_at": endOfDay(*f.UpdatedTo)})
	}

	if !f.IncludeInactiveMachines {
		conds = append(conds, sq.Expr(
			`EXISTS (SELECT 1 FROM machines m
			 WHERE m.organization_id = i.organization_id
			   AND m.initials = i.machine_initials
			   AND m.presence = ?)`, string(domain.MachinePresenceOnTheFloor)))
	}

	return conds
}

// searchCondition builds the free-text OR group. A single search term may
// match issue text, related people, machine names, comment bodies, or an
// exact issue reference; any one match qualifies the row. Reporter and
// assignee email matching is admin-only.
func searchCondition(q string, admin bool) sq.Sqlizer {
	pattern := "%" + q + "%"

	or := sq.Or{
		sq.ILike{"i.title": pattern},
		sq.ILike{"i.description": pattern},
		sq.ILike{"i.machine_initials": pattern},
	}

	or = append(or, personExists("user_profiles", "i.reporter_id", pattern, admin))
	or = append(or, personExists("invited_users", "i.invited_reporter_id", pattern, admin))
	or = append(or, personExists("user_profiles", "i.assignee_id", pattern, admin))

	or = append(or, sq.Expr(
		`EXISTS (SELECT 1 FROM machines m
		 WHERE m.organization_id = i.organization_id
		   AND m.initials = i.machine_initials
		   AND m.name ILIKE ?)`, pattern))

	or = append(or, sq.Expr(
		`EXISTS (SELECT 1 FROM issue_comments c
		 WHERE c.issue_id = i.id AND c.content ILIKE ?)`, pattern))

	if ref, ok := domain.ParseIssueRef(q); ok {
		or = append(or, sq.And{
			sq.Expr(`LOWER(i.machine_initials) = LOWER(?)`, ref.Initials),
			sq.Eq{"i.issue_number": ref.Number},
		})
	} else if n, ok := domain.ParseIssueNumber(q); ok {
		or = append(or, sq.Eq{"i.issue_number": n})
	}

	return or
}

// personExists matches a person row referenced from the issue by name,
// plus email when the viewer is an admin.
func personExists(table, fkColumn, pattern string, admin bool) sq.Sqlizer {
	if admin {
		return sq.Expr(
			`EXISTS (SELECT 1 FROM `+table+` p
			 WHERE p.id = `+fkColumn+` AND (p.name ILIKE ? OR p.email ILIKE ?))`,
			pattern, pattern)
	}
	return sq.Expr(
		`EXISTS (SELECT 1 FROM `+table+` p
		 WHERE p.id = `+fkColumn+` AND p.name ILIKE ?)`, pattern)
}

// buildOrderBy maps a sort token to ORDER BY clauses. Every ordering ends
// with a deterministic tie-break so pagination never repeats or drops rows.
func buildOrderBy(sort domain.IssueSort) []string {
	switch sort {
	case domain.SortCreatedAsc:
		return []string{"i.created_at ASC", "i.id ASC"}
	case domain.SortCreatedDesc:
		return []string{"i.created_at DESC", "i.id DESC"}
	case domain.SortUpdatedAsc:
		return []string{"i.updated_at ASC", "i.id ASC"}
	case domain.SortIssueAsc:
		return []string{"i.machine_initials ASC", "i.issue_number ASC", "i.id ASC"}
	case domain.SortIssueDesc:
		return []string{"i.machine_initials DESC", "i.issue_number DESC", "i.id DESC"}
	case domain.SortAssigneeAsc:
		return []string{"a.name ASC NULLS LAST", "i.updated_at DESC", "i.id DESC"}
	case domain.SortAssigneeDesc:
		return []string{"a.name DESC NULLS LAST", "i.updated_at DESC", "i.id DESC"}
	default:
		return []string{"i.updated_at DESC", "i.id DESC"}
	}
}

// endOfDay extends a date-only "to" bound through the last representable
// millisecond of that UTC day, making the bound inclusive.
func endOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 999_000_000, time.UTC)
}

func statusStrings(in []domain.IssueStatus) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func severityStrings(in []domain.IssueSeverity) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func priorityStrings(in []domain.IssuePriority) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func frequencyStrings(in []domain.IssueFrequency) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
