package domain

// IssueStatus represents the lifecycle state of an issue.
type IssueStatus string

const (
	IssueStatusNew             IssueStatus = "NEW"
	IssueStatusAcknowledged    IssueStatus = "ACKNOWLEDGED"
	IssueStatusInProgress      IssueStatus = "IN_PROGRESS"
	IssueStatusWaitingForParts IssueStatus = "WAITING_FOR_PARTS"
	IssueStatusFixed           IssueStatus = "FIXED"
	IssueStatusNotToBeFixed    IssueStatus = "NOT_TO_BE_FIXED"
	IssueStatusDuplicate       IssueStatus = "DUPLICATE"
)

func (s IssueStatus) String() string { return string(s) }

func (s IssueStatus) IsValid() bool {
	switch s {
	case IssueStatusNew, IssueStatusAcknowledged, IssueStatusInProgress,
		IssueStatusWaitingForParts, IssueStatusFixed, IssueStatusNotToBeFixed,
		IssueStatusDuplicate:
		return true
	}
	return false
}

// IsOpen reports whether the status belongs to the open status group.
func (s IssueStatus) IsOpen() bool {
	switch s {
	case IssueStatusNew, IssueStatusAcknowledged, IssueStatusInProgress,
		IssueStatusWaitingForParts:
		return true
	}
	return false
}

// OpenStatuses returns the fixed set of statuses considered "not yet
// resolved". Issue listings restrict to this set unless the caller asks
// for something else.
func OpenStatuses() []IssueStatus {
	return []IssueStatus{
		IssueStatusNew,
		IssueStatusAcknowledged,
		IssueStatusInProgress,
		IssueStatusWaitingForParts,
	}
}

// IssueSeverity represents how badly an issue affects gameplay.
type IssueSeverity string

const (
	IssueSeverityCosmetic   IssueSeverity = "COSMETIC"
	IssueSeverityMinor      IssueSeverity = "MINOR"
	IssueSeverityMajor      IssueSeverity = "MAJOR"
	IssueSeverityUnplayable IssueSeverity = "UNPLAYABLE"
)

func (s IssueSeverity) String() string { return string(s) }

func (s IssueSeverity) IsValid() bool {
	switch s {
	case IssueSeverityCosmetic, IssueSeverityMinor, IssueSeverityMajor,
		IssueSeverityUnplayable:
		return true
	}
	return false
}

// IssuePriority represents the operator-assigned repair priority.
type IssuePriority string

const (
	IssuePriorityLow    IssuePriority = "LOW"
	IssuePriorityMedium IssuePriority = "MEDIUM"
	IssuePriorityHigh   IssuePriority = "HIGH"
	IssuePriorityUrgent IssuePriority = "URGENT"
)

func (p IssuePriority) String() string { return string(p) }

func (p IssuePriority) IsValid() bool {
	switch p {
	case IssuePriorityLow, IssuePriorityMedium, IssuePriorityHigh,
		IssuePriorityUrgent:
		return true
	}
	return false
}

// IssueFrequency represents how often the reported problem occurs.
type IssueFrequency string

const (
	IssueFrequencyOnce         IssueFrequency = "ONCE"
	IssueFrequencyRarely       IssueFrequency = "RARELY"
	IssueFrequencyOccasionally IssueFrequency = "OCCASIONALLY"
	IssueFrequencyFrequently   IssueFrequency = "FREQUENTLY"
	IssueFrequencyAlways       IssueFrequency = "ALWAYS"
)

func (f IssueFrequency) String() string { return string(f) }

func (f IssueFrequency) IsValid() bool {
	switch f {
	case IssueFrequencyOnce, IssueFrequencyRarely, IssueFrequencyOccasionally,
		IssueFrequencyFrequently, IssueFrequencyAlways:
		return true
	}
	return false
}

// MachinePresence represents whether a machine is currently deployed.
type MachinePresence string

const (
	MachinePresenceOnTheFloor MachinePresence = "ON_THE_FLOOR"
	MachinePresenceInStorage  MachinePresence = "IN_STORAGE"
	MachinePresenceRetired    MachinePresence = "RETIRED"
)

func (p MachinePresence) String() string { return string(p) }

func (p MachinePresence) IsValid() bool {
	switch p {
	case MachinePresenceOnTheFloor, MachinePresenceInStorage,
		MachinePresenceRetired:
		return true
	}
	return false
}

// UserRole represents a user's role within an organization.
type UserRole string

const (
	UserRoleMember UserRole = "MEMBER"
	UserRoleAdmin  UserRole = "ADMIN"
)

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleMember, UserRoleAdmin:
		return true
	}
	return false
}
