package rest

import (
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinpointhq/pinpoint-backend/internal/domain"
)

func mustQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	q, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return q
}

func TestParseIssueFilters_Defaults(t *testing.T) {
	t.Parallel()

	f := ParseIssueFilters(url.Values{}, domain.AnonymousViewer())
	assert.Equal(t, domain.DefaultIssueFilters(), f)
}

func TestParseIssueFilters_StatusTriState(t *testing.T) {
	t.Parallel()

	t.Run("absent means open group", func(t *testing.T) {
		f := ParseIssueFilters(url.Values{}, domain.AnonymousViewer())
		assert.Equal(t, domain.StatusModeDefault, f.Status.Mode)
	})

	t.Run("present but empty means all", func(t *testing.T) {
		f := ParseIssueFilters(mustQuery(t, "status="), domain.AnonymousViewer())
		assert.Equal(t, domain.StatusModeAll, f.Status.Mode)
	})

	t.Run("populated means exactly the set", func(t *testing.T) {
		f := ParseIssueFilters(mustQuery(t, "status=fixed,duplicate"), domain.AnonymousViewer())
		assert.Equal(t, domain.StatusModeSpecific, f.Status.Mode)
		assert.Equal(t, []domain.IssueStatus{domain.IssueStatusFixed, domain.IssueStatusDuplicate}, f.Status.Statuses)
	})

	t.Run("only invalid tokens degrades to all", func(t *testing.T) {
		f := ParseIssueFilters(mustQuery(t, "status=bogus"), domain.AnonymousViewer())
		assert.Equal(t, domain.StatusModeAll, f.Status.Mode)
	})

	t.Run("invalid tokens dropped, valid kept", func(t *testing.T) {
		f := ParseIssueFilters(mustQuery(t, "status=bogus,new"), domain.AnonymousViewer())
		assert.Equal(t, domain.StatusModeSpecific, f.Status.Mode)
		assert.Equal(t, []domain.IssueStatus{domain.IssueStatusNew}, f.Status.Statuses)
	})
}

func TestParseIssueFilters_SetsAreDeduplicated(t *testing.T) {
	t.Parallel()

	f := ParseIssueFilters(mustQuery(t, "machine=AFM,MM,AFM&machine=MM"), domain.AnonymousViewer())
	assert.Equal(t, []string{"AFM", "MM"}, f.Machines)
}

func TestParseIssueFilters_AssigneeSentinel(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	f := ParseIssueFilters(mustQuery(t, "assignee=UNASSIGNED,"+id.String()+",garbage"), domain.AnonymousViewer())
	assert.True(t, f.Unassigned)
	assert.Equal(t, []uuid.UUID{id}, f.AssigneeIDs)
}

func TestParseIssueFilters_WatchingRequiresUser(t *testing.T) {
	t.Parallel()

	q := mustQuery(t, "watching=true")

	f := ParseIssueFilters(q, domain.AnonymousViewer())
	assert.False(t, f.Watching, "anonymous watching must be a no-op")

	userID := uuid.New()
	f = ParseIssueFilters(q, domain.Viewer{UserID: &userID})
	assert.True(t, f.Watching)
}

func TestParseIssueFilters_Dates(t *testing.T) {
	t.Parallel()

	f := ParseIssueFilters(mustQuery(t, "created_from=2026-03-01&created_to=garbage&updated_to=2026-03-15"), domain.AnonymousViewer())

	require.NotNil(t, f.CreatedFrom)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *f.CreatedFrom)
	assert.Nil(t, f.CreatedTo, "malformed date dropped")
	require.NotNil(t, f.UpdatedTo)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *f.UpdatedTo)
}

func TestParseIssueFilters_SortAndPagination(t *testing.T) {
	t.Parallel()

	f := ParseIssueFilters(mustQuery(t, "sort=issue_asc&page=3&page_size=50"), domain.AnonymousViewer())
	assert.Equal(t, domain.SortIssueAsc, f.Sort)
	assert.Equal(t, 3, f.Page)
	assert.Equal(t, 50, f.PageSize)

	f = ParseIssueFilters(mustQuery(t, "sort=alphabetical&page=-2&page_size=33"), domain.AnonymousViewer())
	assert.Equal(t, domain.DefaultIssueSort, f.Sort)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, domain.DefaultPageSize, f.PageSize)
}

func TestParseIssueFilters_NeverPanicsOnGarbage(t *testing.T) {
	t.Parallel()

	q := mustQuery(t, "q=%25%25&status=,,,&machine=&severity=wat&assignee=,,UNASSIGNED&owner=nope&created_from=9999-99-99&page=NaN")
	f := ParseIssueFilters(q, domain.AnonymousViewer())
	assert.True(t, f.Unassigned)
	assert.Empty(t, f.OwnerIDs)
	assert.Equal(t, domain.StatusModeAll, f.Status.Mode)
}

func TestEncodeIssueFilters_RoundTrip(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	assignee := uuid.New()
	owner := uuid.New()
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)

	orig := domain.DefaultIssueFilters()
	orig.Search = "flipper"
	orig.Status = domain.SpecificStatuses(domain.IssueStatusInProgress, domain.IssueStatusWaitingForParts)
	orig.Machines = []string{"AFM", "MM"}
	orig.Severities = []domain.IssueSeverity{domain.IssueSeverityMajor}
	orig.AssigneeIDs = []uuid.UUID{assignee}
	orig.Unassigned = true
	orig.OwnerIDs = []uuid.UUID{owner}
	orig.Watching = true
	orig.CreatedFrom = &from
	orig.CreatedTo = &to
	orig.IncludeInactiveMachines = true
	orig.Sort = domain.SortAssigneeDesc
	orig.Page = 2
	orig.PageSize = domain.PageSizeMedium

	viewer := domain.Viewer{UserID: &userID}
	reparsed := ParseIssueFilters(EncodeIssueFilters(orig), viewer)
	assert.Equal(t, orig, reparsed)
}

func TestEncodeIssueFilters_RoundTripTriState(t *testing.T) {
	t.Parallel()

	for _, status := range []domain.StatusFilter{
		domain.DefaultStatusFilter(),
		domain.AllStatusFilter(),
		domain.SpecificStatuses(domain.IssueStatusNew),
	} {
		orig := domain.DefaultIssueFilters()
		orig.Status = status

		reparsed := ParseIssueFilters(EncodeIssueFilters(orig), domain.AnonymousViewer())
		assert.Equal(t, status.Mode, reparsed.Status.Mode)
		assert.Equal(t, status.Statuses, reparsed.Status.Statuses)
	}
}

func TestEncodeIssueFilters_DefaultsAreOmitted(t *testing.T) {
	t.Parallel()

	q := EncodeIssueFilters(domain.DefaultIssueFilters())
	assert.Empty(t, q)
}
