package domain

import "time"

type User struct {
	ID                 string
	Username           string
	NormalizedUsername string // Case-folded form supplied by the caller; never derived here
	PasswordHash       string // Opaque to the store; empty means no password set
	Email              string
	NormalizedEmail    string
	EmailConfirmed     bool
	PhoneNumber        string
	PhoneConfirmed     bool
	TwoFactorEnabled   bool
	LockoutEnabled     bool
	LockoutEnd         *time.Time // nil means not locked out
	AccessFailedCount  int

	// Profile fields, opaque to the store contract.
	FirstName  string
	LastName   string
	Patronymic string
	Position   string
	Birthday   *time.Time
	Address    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPassword reports whether a password hash is present on the in-memory
// entity. The store exposes its own HasPassword that reads persisted state.
func (u User) HasPassword() bool { return u.PasswordHash != "" }
