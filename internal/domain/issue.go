package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Issue is a reported problem on a specific machine. The human-facing
// identifier is MachineInitials + IssueNumber ("AFM-101"), unique within
// an organization.
type Issue struct {
	ID              uuid.UUID
	OrganizationID  uuid.UUID
	MachineInitials string
	IssueNumber     int
	Title           string
	Description     *string
	Status          IssueStatus
	Severity        *IssueSeverity
	Priority        *IssuePriority
	Frequency       *IssueFrequency

	// ReporterID references a registered user profile. InvitedReporterID
	// references an invited-user placeholder for anonymous submissions.
	// At most one of the two is set.
	ReporterID        *uuid.UUID
	InvitedReporterID *uuid.UUID
	AssigneeID        *uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time

	// AssigneeName is populated on list reads via the assignee join.
	// Empty when unassigned.
	AssigneeName string
}

// Ref returns the human-facing issue reference, e.g. "AFM-101".
func (i Issue) Ref() string {
	return fmt.Sprintf("%s-%d", i.MachineInitials, i.IssueNumber)
}

// IssueComment is a free-text comment attached to an issue.
type IssueComment struct {
	ID        uuid.UUID
	IssueID   uuid.UUID
	AuthorID  *uuid.UUID
	Content   string
	CreatedAt time.Time

	// AuthorName is populated on reads via the author join. Empty when the
	// author account was deleted.
	AuthorName string
}

// IssueWatcher subscribes a user to notifications for an issue.
type IssueWatcher struct {
	IssueID   uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
}

// InvitedUser is a placeholder reporter identity for anonymous or
// pre-registration issue submission.
type InvitedUser struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Email          string
	CreatedAt      time.Time
}
