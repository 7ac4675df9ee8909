package domain

import "time"

const (
	// Default roles seeded on first start.
	RoleAdministrators = "Administrators"
	RoleEmployees      = "Employees"
)

type Role struct {
	ID             string
	Name           string
	NormalizedName string // Unique across roles; membership lookups match on this
	Description    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
