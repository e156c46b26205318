package domain

import (
	"time"

	"github.com/google/uuid"
)

// Machine is a pinball or arcade machine operated by an organization.
// Initials is the short code that issues reference ("AFM"), unique within
// the organization.
type Machine struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Initials       string
	Name           string
	OwnerID        *uuid.UUID
	Presence       MachinePresence
	CreatedAt      time.Time
}

// OnTheFloor reports whether the machine is currently deployed.
func (m Machine) OnTheFloor() bool {
	return m.Presence == MachinePresenceOnTheFloor
}
