package issue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinpointhq/pinpoint-backend/internal/domain"
)

func newMockRepo(t *testing.T) (*Repo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return New(mock), mock
}

func listColumns() []string {
	return []string{
		"id", "organization_id", "machine_initials", "issue_number",
		"title", "description", "status", "severity", "priority", "frequency",
		"reporter_id", "invited_reporter_id", "assignee_id",
		"created_at", "updated_at", "assignee_name",
	}
}

func addIssueRow(rows *pgxmock.Rows, iss domain.Issue) {
	rows.AddRow(
		iss.ID, iss.OrganizationID, iss.MachineInitials, iss.IssueNumber,
		iss.Title, iss.Description, string(iss.Status),
		enumPtr(iss.Severity), enumPtr(iss.Priority), enumPtr(iss.Frequency),
		iss.ReporterID, iss.InvitedReporterID, iss.AssigneeID,
		iss.CreatedAt, iss.UpdatedAt, iss.AssigneeName,
	)
}

func TestRepo_List(t *testing.T) {
	repo, mock := newMockRepo(t)

	orgID := uuid.New()
	now := time.Now().UTC()
	sev := domain.IssueSeverityMajor
	iss := domain.Issue{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		MachineInitials: "AFM",
		IssueNumber:     7,
		Title:           "Left flipper weak",
		Status:          domain.IssueStatusNew,
		Severity:        &sev,
		CreatedAt:       now,
		UpdatedAt:       now,
		AssigneeName:    "",
	}

	rows := pgxmock.NewRows(listColumns())
	addIssueRow(rows, iss)

	mock.ExpectQuery(`SELECT .+ FROM issues i LEFT JOIN user_profiles a`).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM issues i`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	got, total, err := repo.List(context.Background(), orgID, domain.DefaultIssueFilters(), domain.AnonymousViewer())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, iss.Title, got[0].Title)
	require.NotNil(t, got[0].Severity)
	assert.Equal(t, domain.IssueSeverityMajor, *got[0].Severity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_GetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM issues i`).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_GetByRef(t *testing.T) {
	repo, mock := newMockRepo(t)

	orgID := uuid.New()
	now := time.Now().UTC()
	iss := domain.Issue{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		MachineInitials: "AFM",
		IssueNumber:     101,
		Title:           "Saucer stuck",
		Status:          domain.IssueStatusAcknowledged,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	rows := pgxmock.NewRows(listColumns())
	addIssueRow(rows, iss)

	mock.ExpectQuery(`LOWER\(i\.machine_initials\) = LOWER\(\$2\)`).
		WithArgs(orgID, "afm", 101).
		WillReturnRows(rows)

	got, err := repo.GetByRef(context.Background(), orgID, domain.IssueRef{Initials: "afm", Number: 101})
	require.NoError(t, err)
	assert.Equal(t, "AFM", got.MachineInitials)
	assert.Equal(t, 101, got.IssueNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_Create_DuplicateNumber(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO issues`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &domain.Issue{
		ID:              uuid.New(),
		OrganizationID:  uuid.New(),
		MachineInitials: "MM",
		Title:           "Troll stuck up",
		Status:          domain.IssueStatusNew,
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_Delete(t *testing.T) {
	repo, mock := newMockRepo(t)

	orgID := uuid.New()
	id := uuid.New()

	t.Run("deletes existing row", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM issues`).
			WithArgs(id, orgID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, repo.Delete(context.Background(), orgID, id))
	})

	t.Run("missing row maps to not found", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM issues`).
			WithArgs(id, orgID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := repo.Delete(context.Background(), orgID, id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("unexpected errors pass through", func(t *testing.T) {
		boom := errors.New("connection reset")
		mock.ExpectExec(`DELETE FROM issues`).
			WithArgs(id, orgID).
			WillReturnError(boom)

		err := repo.Delete(context.Background(), orgID, id)
		assert.ErrorIs(t, err, boom)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
