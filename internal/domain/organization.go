package domain

import (
	"time"

	"github.com/google/uuid"
)

// Organization is a tenant: one operator (arcade, collective, location)
// with its own machines, users, and issue numbering.
type Organization struct {
	ID        uuid.UUID
	Name      string
	Subdomain string
	CreatedAt time.Time
}
