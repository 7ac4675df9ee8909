// Package dirapi defines the wire shapes of the directory transport: one
// request/response pair per store operation, shared by the HTTP server and
// the remote proxy store so both sides agree on encoding byte-for-byte.
package dirapi

import (
	"time"

	"github.com/crewdir/crewdir/internal/directory/domain"
)

// User is the wire form of a directory user. Every field round-trips; the
// store layer treats password_hash as an opaque blob.
type User struct {
	ID                 string     `json:"id"`
	Username           string     `json:"username"`
	NormalizedUsername string     `json:"normalized_username"`
	PasswordHash       string     `json:"password_hash,omitempty"`
	Email              string     `json:"email,omitempty"`
	NormalizedEmail    string     `json:"normalized_email,omitempty"`
	EmailConfirmed     bool       `json:"email_confirmed"`
	PhoneNumber        string     `json:"phone_number,omitempty"`
	PhoneConfirmed     bool       `json:"phone_confirmed"`
	TwoFactorEnabled   bool       `json:"two_factor_enabled"`
	LockoutEnabled     bool       `json:"lockout_enabled"`
	LockoutEnd         *time.Time `json:"lockout_end,omitempty"`
	AccessFailedCount  int        `json:"access_failed_count"`
	FirstName          string     `json:"first_name,omitempty"`
	LastName           string     `json:"last_name,omitempty"`
	Patronymic         string     `json:"patronymic,omitempty"`
	Position           string     `json:"position,omitempty"`
	Birthday           *time.Time `json:"birthday,omitempty"`
	Address            string     `json:"address,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type Role struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalized_name"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type LoginBinding struct {
	Provider    string `json:"provider"`
	ProviderKey string `json:"provider_key"`
	DisplayName string `json:"display_name,omitempty"`
}

// Single-value payloads used by field getters/setters. Setter responses
// carry the post-mutation value and updated_at so the proxy can update the
// caller's entity exactly like the local store does; requests and getter
// responses leave updated_at zero.
type (
	StringValue struct {
		Value     string    `json:"value"`
		UpdatedAt time.Time `json:"updated_at,omitzero"`
	}

	BoolValue struct {
		Value     bool      `json:"value"`
		UpdatedAt time.Time `json:"updated_at,omitzero"`
	}

	IntValue struct {
		Value     int       `json:"value"`
		UpdatedAt time.Time `json:"updated_at,omitzero"`
	}

	TimeValue struct {
		Value     *time.Time `json:"value"`
		UpdatedAt time.Time  `json:"updated_at,omitzero"`
	}
)

type AddClaimsRequest struct {
	Claims []Claim `json:"claims"`
}

type RemoveClaimsRequest struct {
	Claims []Claim `json:"claims"`
}

type ReplaceClaimRequest struct {
	Old Claim `json:"old"`
	New Claim `json:"new"`
}

type ClaimsResponse struct {
	Claims []Claim `json:"claims"`
}

type LoginsResponse struct {
	Logins []LoginBinding `json:"logins"`
}

// RoleNamesResponse lists a user's role names ordered by normalized name.
type RoleNamesResponse struct {
	Roles []string `json:"roles"`
}

type ListRolesResponse struct {
	Roles []Role `json:"roles"`
}

type UsersResponse struct {
	Users []User `json:"users"`
}

func UserFromDomain(u domain.User) User {
	return User{
		ID:                 u.ID,
		Username:           u.Username,
		NormalizedUsername: u.NormalizedUsername,
		PasswordHash:       u.PasswordHash,
		Email:              u.Email,
		NormalizedEmail:    u.NormalizedEmail,
		EmailConfirmed:     u.EmailConfirmed,
		PhoneNumber:        u.PhoneNumber,
		PhoneConfirmed:     u.PhoneConfirmed,
		TwoFactorEnabled:   u.TwoFactorEnabled,
		LockoutEnabled:     u.LockoutEnabled,
		LockoutEnd:         u.LockoutEnd,
		AccessFailedCount:  u.AccessFailedCount,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Patronymic:         u.Patronymic,
		Position:           u.Position,
		Birthday:           u.Birthday,
		Address:            u.Address,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func (u User) ToDomain() domain.User {
	return domain.User{
		ID:                 u.ID,
		Username:           u.Username,
		NormalizedUsername: u.NormalizedUsername,
		PasswordHash:       u.PasswordHash,
		Email:              u.Email,
		NormalizedEmail:    u.NormalizedEmail,
		EmailConfirmed:     u.EmailConfirmed,
		PhoneNumber:        u.PhoneNumber,
		PhoneConfirmed:     u.PhoneConfirmed,
		TwoFactorEnabled:   u.TwoFactorEnabled,
		LockoutEnabled:     u.LockoutEnabled,
		LockoutEnd:         u.LockoutEnd,
		AccessFailedCount:  u.AccessFailedCount,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Patronymic:         u.Patronymic,
		Position:           u.Position,
		Birthday:           u.Birthday,
		Address:            u.Address,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func RoleFromDomain(r domain.Role) Role {
	return Role{
		ID:             r.ID,
		Name:           r.Name,
		NormalizedName: r.NormalizedName,
		Description:    r.Description,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (r Role) ToDomain() domain.Role {
	return domain.Role{
		ID:             r.ID,
		Name:           r.Name,
		NormalizedName: r.NormalizedName,
		Description:    r.Description,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func ClaimFromDomain(c domain.Claim) Claim { return Claim{Type: c.Type, Value: c.Value} }

func (c Claim) ToDomain() domain.Claim { return domain.Claim{Type: c.Type, Value: c.Value} }

func ClaimsFromDomain(claims []domain.Claim) []Claim {
	out := make([]Claim, len(claims))
	for i, c := range claims {
		out[i] = ClaimFromDomain(c)
	}
	return out
}

func ClaimsToDomain(claims []Claim) []domain.Claim {
	out := make([]domain.Claim, len(claims))
	for i, c := range claims {
		out[i] = c.ToDomain()
	}
	return out
}

func LoginFromDomain(b domain.LoginBinding) LoginBinding {
	return LoginBinding{Provider: b.Provider, ProviderKey: b.ProviderKey, DisplayName: b.DisplayName}
}

func (b LoginBinding) ToDomain() domain.LoginBinding {
	return domain.LoginBinding{Provider: b.Provider, ProviderKey: b.ProviderKey, DisplayName: b.DisplayName}
}

func UsersFromDomain(users []domain.User) []User {
	out := make([]User, len(users))
	for i, u := range users {
		out[i] = UserFromDomain(u)
	}
	return out
}
