// Package seeder populates a database with a demo organization so the API
// can be explored without manual setup. It is intended to be run offline,
// not as part of the main server.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pinpointhq/pinpoint-backend/internal/domain"
)

type orgRepo interface {
	GetBySubdomain(ctx context.Context, subdomain string) (*domain.Organization, error)
	Create(ctx context.Context, org *domain.Organization) (*domain.Organization, error)
}

type userRepo interface {
	GetByEmail(ctx context.Context, orgID uuid.UUID, email string) (*domain.UserProfile, error)
	Create(ctx context.Context, u *domain.UserProfile) (*domain.UserProfile, error)
}

type machineRepo interface {
	GetByInitials(ctx context.Context, orgID uuid.UUID, initials string) (*domain.Machine, error)
	Create(ctx context.Context, m *domain.Machine) (*domain.Machine, error)
}

type issueRepo interface {
	Create(ctx context.Context, iss *domain.Issue) (*domain.Issue, error)
}

type commentRepo interface {
	Create(ctx context.Context, c *domain.IssueComment) (*domain.IssueComment, error)
}

type watcherRepo interface {
	Watch(ctx context.Context, issueID, userID uuid.UUID) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
}

// Pipeline seeds demo data. Every step is idempotent at the org level:
// rerunning against an existing subdomain reuses the org and its users but
// appends fresh issues.
type Pipeline struct {
	log      *slog.Logger
	orgs     orgRepo
	users    userRepo
	machines machineRepo
	issues   issueRepo
	comments commentRepo
	watchers watcherRepo
	hasher   passwordHasher
}

// NewPipeline creates a seeding pipeline.
func NewPipeline(
	logger *slog.Logger,
	orgs orgRepo,
	users userRepo,
	machines machineRepo,
	issues issueRepo,
	comments commentRepo,
	watchers watcherRepo,
	hasher passwordHasher,
) *Pipeline {
	return &Pipeline{
		log:      logger.With("component", "seeder"),
		orgs:     orgs,
		users:    users,
		machines: machines,
		issues:   issues,
		comments: comments,
		watchers: watchers,
		hasher:   hasher,
	}
}

type demoMachine struct {
	initials string
	name     string
	presence domain.MachinePresence
}

var demoLineup = []demoMachine{
	{"AFM", "Attack from Mars", domain.MachinePresenceOnTheFloor},
	{"MM", "Medieval Madness", domain.MachinePresenceOnTheFloor},
	{"TZ", "Twilight Zone", domain.MachinePresenceOnTheFloor},
	{"TAF", "The Addams Family", domain.MachinePresenceInStorage},
}

var demoTitles = []string{
	"Left flipper weak",
	"Ball stuck in scoop",
	"Display flickering",
	"Right slingshot dead",
	"Shooter rod spring worn",
	"GI strip out on playfield",
}

var demoSeverities = []domain.IssueSeverity{
	domain.IssueSeverityCosmetic,
	domain.IssueSeverityMinor,
	domain.IssueSeverityMajor,
	domain.IssueSeverityUnplayable,
}

var demoStatuses = []domain.IssueStatus{
	domain.IssueStatusNew,
	domain.IssueStatusAcknowledged,
	domain.IssueStatusInProgress,
	domain.IssueStatusFixed,
}

// Run seeds the demo org, users, machines, and issues.
func (p *Pipeline) Run(ctx context.Context, cfg *Config) error {
	if cfg.DryRun {
		p.log.Info("dry run, nothing written",
			"org", cfg.OrgSubdomain,
			"machines", len(demoLineup),
			"issues", len(demoLineup)*cfg.IssuesPerMachine,
		)
		return nil
	}

	org, err := p.ensureOrg(ctx, cfg)
	if err != nil {
		return fmt.Errorf("seed org: %w", err)
	}

	admin, err := p.ensureUser(ctx, org.ID, cfg.AdminEmail, "Admin", cfg.AdminPassword, domain.UserRoleAdmin)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	techs := make([]*domain.UserProfile, 0, cfg.TechCount)
	for i := 0; i < cfg.TechCount; i++ {
		email := fmt.Sprintf("tech%d@%s.test", i+1, cfg.OrgSubdomain)
		name := fmt.Sprintf("Tech %d", i+1)
		tech, err := p.ensureUser(ctx, org.ID, email, name, cfg.AdminPassword, domain.UserRoleMember)
		if err != nil {
			return fmt.Errorf("seed tech %d: %w", i+1, err)
		}
		techs = append(techs, tech)
	}

	for mi, dm := range demoLineup {
		machine, err := p.ensureMachine(ctx, org.ID, dm, admin.ID)
		if err != nil {
			return fmt.Errorf("seed machine %s: %w", dm.initials, err)
		}

		for n := 0; n < cfg.IssuesPerMachine; n++ {
			if err := p.seedIssue(ctx, org.ID, machine, techs, mi*cfg.IssuesPerMachine+n); err != nil {
				return fmt.Errorf("seed issue on %s: %w", dm.initials, err)
			}
		}
	}

	p.log.Info("seeding complete",
		"org", org.Subdomain,
		"users", 1+len(techs),
		"machines", len(demoLineup),
		"issues", len(demoLineup)*cfg.IssuesPerMachine,
	)
	return nil
}

func (p *Pipeline) ensureOrg(ctx context.Context, cfg *Config) (*domain.Organization, error) {
	org, err := p.orgs.GetBySubdomain(ctx, cfg.OrgSubdomain)
	if err == nil {
		p.log.Info("org exists, reusing", "subdomain", org.Subdomain)
		return org, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return p.orgs.Create(ctx, &domain.Organization{
		ID:        uuid.New(),
		Name:      cfg.OrgName,
		Subdomain: cfg.OrgSubdomain,
	})
}

func (p *Pipeline) ensureUser(ctx context.Context, orgID uuid.UUID, email, name, password string, role domain.UserRole) (*domain.UserProfile, error) {
	u, err := p.users.GetByEmail(ctx, orgID, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := p.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	return p.users.Create(ctx, &domain.UserProfile{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           name,
		Email:          email,
		PasswordHash:   hash,
		Role:           role,
	})
}

func (p *Pipeline) ensureMachine(ctx context.Context, orgID uuid.UUID, dm demoMachine, ownerID uuid.UUID) (*domain.Machine, error) {
	m, err := p.machines.GetByInitials(ctx, orgID, dm.initials)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return p.machines.Create(ctx, &domain.Machine{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Initials:       dm.initials,
		Name:           dm.name,
		OwnerID:        &ownerID,
		Presence:       dm.presence,
	})
}

func (p *Pipeline) seedIssue(ctx context.Context, orgID uuid.UUID, machine *domain.Machine, techs []*domain.UserProfile, seq int) error {
	title := demoTitles[seq%len(demoTitles)]
	severity := demoSeverities[seq%len(demoSeverities)]
	status := demoStatuses[seq%len(demoStatuses)]

	iss := &domain.Issue{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		MachineInitials: machine.Initials,
		Title:           title,
		Status:          status,
		Severity:        &severity,
	}
	if len(techs) > 0 {
		reporter := techs[seq%len(techs)]
		iss.ReporterID = &reporter.ID
		if status != domain.IssueStatusNew {
			assignee := techs[(seq+1)%len(techs)]
			iss.AssigneeID = &assignee.ID
		}
	}

	created, err := p.issues.Create(ctx, iss)
	if err != nil {
		return err
	}

	if status == domain.IssueStatusInProgress {
		if _, err := p.comments.Create(ctx, &domain.IssueComment{
			ID:       uuid.New(),
			IssueID:  created.ID,
			AuthorID: iss.AssigneeID,
			Content:  "Parts ordered, will swap this week.",
		}); err != nil {
			return err
		}
	}
	if iss.ReporterID != nil {
		if err := p.watchers.Watch(ctx, created.ID, *iss.ReporterID); err != nil {
			return err
		}
	}
	return nil
}
