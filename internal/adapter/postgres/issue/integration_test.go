package issue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/issue"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/testhelper"
	"github.com/pinpointhq/pinpoint-backend/internal/domain"
)

type fixture struct {
	pool    *pgxpool.Pool
	repo    *issue.Repo
	orgID   uuid.UUID
	adminID uuid.UUID
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	org := testhelper.SeedOrganization(t, pool)
	f := &fixture{
		pool:    pool,
		repo:    issue.New(pool),
		orgID:   org.ID,
		adminID: uuid.New(),
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO user_profiles (id, organization_id, email, name, password_hash, role)
		 VALUES ($1, $2, $3, $4, '', 'ADMIN')`,
		f.adminID, f.orgID, "admin@pinville.test", "Ada Admin")
	require.NoError(t, err)

	return f
}

func (f *fixture) addMachine(t *testing.T, initials, name string, presence domain.MachinePresence) {
	t.Helper()
	testhelper.SeedMachine(t, f.pool, f.orgID, initials, name, presence)
}

func (f *fixture) addIssue(t *testing.T, machine, title string, status domain.IssueStatus) domain.Issue {
	t.Helper()
	created, err := f.repo.Create(context.Background(), &domain.Issue{
		ID:              uuid.New(),
		OrganizationID:  f.orgID,
		MachineInitials: machine,
		Title:           title,
		Status:          status,
	})
	require.NoError(t, err)
	return *created
}

func TestRepo_ListIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	f := setupFixture(t)
	ctx := context.Background()

	f.addMachine(t, "AFM", "Attack From Mars", domain.MachinePresenceOnTheFloor)
	f.addMachine(t, "MM", "Medieval Madness", domain.MachinePresenceInStorage)

	open1 := f.addIssue(t, "AFM", "Left flipper weak", domain.IssueStatusNew)
	open2 := f.addIssue(t, "AFM", "Saucer eject fails", domain.IssueStatusInProgress)
	fixed := f.addIssue(t, "AFM", "GI strobe flicker", domain.IssueStatusFixed)
	stored := f.addIssue(t, "MM", "Troll stuck up", domain.IssueStatusNew)

	t.Run("sequential numbering per machine", func(t *testing.T) {
		assert.Equal(t, 1, open1.IssueNumber)
		assert.Equal(t, 2, open2.IssueNumber)
		assert.Equal(t, 3, fixed.IssueNumber)
		assert.Equal(t, 1, stored.IssueNumber)
	})

	t.Run("defaults hide closed issues and stored machines", func(t *testing.T) {
		got, total, err := f.repo.List(ctx, f.orgID, domain.DefaultIssueFilters(), domain.AnonymousViewer())
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		ids := issueIDs(got)
		assert.Contains(t, ids, open1.ID)
		assert.Contains(t, ids, open2.ID)
		assert.NotContains(t, ids, fixed.ID)
		assert.NotContains(t, ids, stored.ID)
	})

	t.Run("include inactive machines", func(t *testing.T) {
		flt := domain.DefaultIssueFilters()
		flt.IncludeInactiveMachines = true
		flt.Status = domain.AllStatusFilter()

		_, total, err := f.repo.List(ctx, f.orgID, flt, domain.AnonymousViewer())
		require.NoError(t, err)
		assert.Equal(t, 4, total)
	})

	t.Run("search by issue reference", func(t *testing.T) {
		flt := domain.DefaultIssueFilters()
		flt.Status = domain.AllStatusFilter()
		flt.Search = "afm-3"

		got, total, err := f.repo.List(ctx, f.orgID, flt, domain.AnonymousViewer())
		require.NoError(t, err)
		require.Equal(t, 1, total)
		assert.Equal(t, fixed.ID, got[0].ID)
	})

	t.Run("admin email search", func(t *testing.T) {
		_, err := f.pool.Exec(ctx,
			`UPDATE issues SET assignee_id = $1 WHERE id = $2`, f.adminID, open1.ID)
		require.NoError(t, err)

		flt := domain.DefaultIssueFilters()
		flt.Search = "admin@pinville"

		_, memberTotal, err := f.repo.List(ctx, f.orgID, flt, domain.AnonymousViewer())
		require.NoError(t, err)
		assert.Equal(t, 0, memberTotal)

		_, adminTotal, err := f.repo.List(ctx, f.orgID, flt, domain.Viewer{UserID: &f.adminID, IsAdmin: true})
		require.NoError(t, err)
		assert.Equal(t, 1, adminTotal)
	})

	t.Run("tenant isolation", func(t *testing.T) {
		_, total, err := f.repo.List(ctx, uuid.New(), domain.DefaultIssueFilters(), domain.AnonymousViewer())
		require.NoError(t, err)
		assert.Equal(t, 0, total)
	})
}

func TestRepo_PaginationIsStable(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	f := setupFixture(t)
	ctx := context.Background()
	f.addMachine(t, "TZ", "Twilight Zone", domain.MachinePresenceOnTheFloor)

	// identical updated_at timestamps force the id tie-break to matter
	ts := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 40; i++ {
		iss := f.addIssue(t, "TZ", fmt.Sprintf("Gumball issue %d", i), domain.IssueStatusNew)
		_, err := f.pool.Exec(ctx,
			`UPDATE issues SET created_at = $1, updated_at = $1 WHERE id = $2`, ts, iss.ID)
		require.NoError(t, err)
	}

	seen := map[uuid.UUID]bool{}
	for page := 1; page <= 3; page++ {
		flt := domain.DefaultIssueFilters()
		flt.Page = page
		flt.PageSize = domain.PageSizeSmall

		got, total, err := f.repo.List(ctx, f.orgID, flt, domain.AnonymousViewer())
		require.NoError(t, err)
		assert.Equal(t, 40, total)
		for _, iss := range got {
			assert.False(t, seen[iss.ID], "issue repeated across pages")
			seen[iss.ID] = true
		}
	}
	assert.Len(t, seen, 40)
}

func issueIDs(issues []domain.Issue) []uuid.UUID {
	out := make([]uuid.UUID, len(issues))
	for i, iss := range issues {
		out[i] = iss.ID
	}
	return out
}
