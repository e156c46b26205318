package domain

import (
	"time"

	"github.com/google/uuid"
)

// StatusFilterMode distinguishes the three meanings a status parameter can
// carry: absent (default to the open group), explicitly "all" (no
// restriction), or an explicit set.
type StatusFilterMode int

const (
	// StatusModeDefault restricts to OpenStatuses(). Used when the caller
	// did not mention status at all, so a first-time visitor sees only
	// actionable issues.
	StatusModeDefault StatusFilterMode = iota
	// StatusModeAll applies no status restriction. Used when the caller
	// explicitly asked for every status.
	StatusModeAll
	// StatusModeSpecific restricts to exactly the listed statuses.
	StatusModeSpecific
)

// StatusFilter is the tri-state status selection. The zero value is the
// default (open statuses only).
type StatusFilter struct {
	Mode     StatusFilterMode
	Statuses []IssueStatus
}

// DefaultStatusFilter restricts to the open status group.
func DefaultStatusFilter() StatusFilter {
	return StatusFilter{Mode: StatusModeDefault}
}

// AllStatusFilter applies no status restriction.
func AllStatusFilter() StatusFilter {
	return StatusFilter{Mode: StatusModeAll}
}

// SpecificStatuses restricts to exactly the given statuses.
func SpecificStatuses(statuses ...IssueStatus) StatusFilter {
	return StatusFilter{Mode: StatusModeSpecific, Statuses: statuses}
}

// Effective returns the statuses the filter actually restricts to, and
// whether a restriction applies at all.
func (f StatusFilter) Effective() ([]IssueStatus, bool) {
	switch f.Mode {
	case StatusModeAll:
		return nil, false
	case StatusModeSpecific:
		return f.Statuses, true
	default:
		return OpenStatuses(), true
	}
}

// IssueSort is a sort-order token from the fixed listing vocabulary.
type IssueSort string

const (
	SortCreatedAsc   IssueSort = "created_asc"
	SortCreatedDesc  IssueSort = "created_desc"
	SortUpdatedAsc   IssueSort = "updated_asc"
	SortUpdatedDesc  IssueSort = "updated_desc"
	SortIssueAsc     IssueSort = "issue_asc"
	SortIssueDesc    IssueSort = "issue_desc"
	SortAssigneeAsc  IssueSort = "assignee_asc"
	SortAssigneeDesc IssueSort = "assignee_desc"
)

// DefaultIssueSort is applied for absent or unrecognized sort tokens.
const DefaultIssueSort = SortUpdatedDesc

func (s IssueSort) String() string { return string(s) }

func (s IssueSort) IsValid() bool {
	switch s {
	case SortCreatedAsc, SortCreatedDesc, SortUpdatedAsc, SortUpdatedDesc,
		SortIssueAsc, SortIssueDesc, SortAssigneeAsc, SortAssigneeDesc:
		return true
	}
	return false
}

// UnassignedSentinel is the literal accepted in the assignee parameter to
// select issues with no assignee.
const UnassignedSentinel = "UNASSIGNED"

// Page size vocabulary for issue listings.
const (
	PageSizeSmall  = 15
	PageSizeMedium = 25
	PageSizeLarge  = 50

	DefaultPageSize = PageSizeSmall
)

// ValidPageSize reports whether n is one of the allowed page sizes.
func ValidPageSize(n int) bool {
	return n == PageSizeSmall || n == PageSizeMedium || n == PageSizeLarge
}

// IssueFilters is the validated filter state for an issue listing. It is
// produced by the URL-parameter parsing layer and consumed by the query
// builder; every malformed input has already been dropped, so all values
// here are trusted.
//
// Set-valued fields are de-duplicated, first occurrence wins for order.
type IssueFilters struct {
	// Search is the trimmed free-text query; empty means no text search.
	Search string

	Status      StatusFilter
	Machines    []string
	Severities  []IssueSeverity
	Priorities  []IssuePriority
	Frequencies []IssueFrequency

	// AssigneeIDs and Unassigned together express the assignee selection:
	// the UNASSIGNED sentinel sets Unassigned, real ids land in AssigneeIDs,
	// and the two combine with OR.
	AssigneeIDs []uuid.UUID
	Unassigned  bool

	OwnerIDs    []uuid.UUID
	ReporterIDs []uuid.UUID

	// Watching restricts to issues the current user watches. The parser
	// clears it when no current user is known, so the query builder can
	// rely on it only being set alongside a viewer id.
	Watching bool

	CreatedFrom *time.Time
	CreatedTo   *time.Time
	UpdatedFrom *time.Time
	UpdatedTo   *time.Time

	// IncludeInactiveMachines lifts the default restriction to issues on
	// machines that are currently on the floor.
	IncludeInactiveMachines bool

	Sort     IssueSort
	Page     int
	PageSize int
}

// DefaultIssueFilters is the filter state for a bare listing request.
func DefaultIssueFilters() IssueFilters {
	return IssueFilters{
		Status:   DefaultStatusFilter(),
		Sort:     DefaultIssueSort,
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

// Offset returns the row offset for the current page.
func (f IssueFilters) Offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.PageSize
	if !ValidPageSize(size) {
		size = DefaultPageSize
	}
	return (page - 1) * size
}

// Limit returns the row limit for the current page.
func (f IssueFilters) Limit() int {
	if !ValidPageSize(f.PageSize) {
		return DefaultPageSize
	}
	return f.PageSize
}
