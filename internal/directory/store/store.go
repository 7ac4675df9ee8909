package store

import (
	"context"
	"errors"
	"time"

	"github.com/crewdir/crewdir/internal/directory/domain"
)

var (
	// ErrNotFound is the "absent" outcome: a lookup matched nothing. Callers
	// check it with errors.Is; it is never wrapped around transport faults.
	ErrNotFound = errors.New("store: not found")

	// ErrAlreadyExists reports a unique-key violation (username, normalized
	// username, role name, login provider+key). The mutation did not apply.
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict reports a referential or policy violation, e.g. adding a
	// user to a role that does not exist. The mutation did not apply.
	ErrConflict = errors.New("store: conflict")
)

// Store is the directory store contract. Both the sqlite driver and the
// remote proxy driver implement it; callers bind to this interface only and
// must not be able to tell the two apart by observable behavior.
//
// Concurrency: every operation is independently cancellable via its context
// and commits atomically or not at all. Concurrent mutations of the same
// user resolve field-level last-writer-wins. Transactions and migrations are
// deliberately not part of this contract - a proxy cannot span them.
type Store interface {
	Users() Users
	Roles() Roles
	Claims() Claims
	Logins() Logins

	// Ping verifies the backing storage or remote endpoint is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error
}

// Users groups the per-user capabilities: identity CRUD, naming, password
// hash, email/phone verification state, the two-factor flag, lockout
// tracking, and role membership.
//
// Mutating operations that change a single field take *domain.User and, on
// success, write the post-mutation value back into the caller's struct so
// the in-memory entity stays consistent with persisted state. Getters read
// persisted state keyed by u.ID, not the in-memory struct.
//
// None of the Set* operations derive normalized forms from plain ones;
// callers supply both. This mirrors the reference behavior and is a known
// sharp edge, not an invitation to normalize here.
type Users interface {
	// CreateUser inserts a new user (id assigned by the caller via ULID).
	// Duplicate username or normalized username returns ErrAlreadyExists.
	CreateUser(ctx context.Context, u *domain.User) error

	// UpdateUser persists every column of u in one atomic write.
	UpdateUser(ctx context.Context, u *domain.User) error

	// DeleteUser removes the user; memberships, claims and login bindings
	// cascade.
	DeleteUser(ctx context.Context, u *domain.User) error

	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByNormalizedUsername looks a user up by the normalized form.
	GetUserByNormalizedUsername(ctx context.Context, normalized string) (domain.User, error)

	// GetUserByNormalizedEmail returns the first match ordered by user ID.
	// Email uniqueness is not enforced, so duplicates are possible.
	GetUserByNormalizedEmail(ctx context.Context, normalized string) (domain.User, error)

	GetUsername(ctx context.Context, u *domain.User) (string, error)
	SetUsername(ctx context.Context, u *domain.User, username string) error
	GetNormalizedUsername(ctx context.Context, u *domain.User) (string, error)
	SetNormalizedUsername(ctx context.Context, u *domain.User, normalized string) error

	// GetPasswordHash returns the stored hash, empty when none is set.
	GetPasswordHash(ctx context.Context, u *domain.User) (string, error)
	SetPasswordHash(ctx context.Context, u *domain.User, hash string) error
	// HasPassword reports whether a non-empty hash is persisted.
	HasPassword(ctx context.Context, u *domain.User) (bool, error)

	GetEmail(ctx context.Context, u *domain.User) (string, error)
	SetEmail(ctx context.Context, u *domain.User, email string) error
	GetNormalizedEmail(ctx context.Context, u *domain.User) (string, error)
	SetNormalizedEmail(ctx context.Context, u *domain.User, normalized string) error
	GetEmailConfirmed(ctx context.Context, u *domain.User) (bool, error)
	SetEmailConfirmed(ctx context.Context, u *domain.User, confirmed bool) error

	GetPhoneNumber(ctx context.Context, u *domain.User) (string, error)
	SetPhoneNumber(ctx context.Context, u *domain.User, phone string) error
	GetPhoneConfirmed(ctx context.Context, u *domain.User) (bool, error)
	SetPhoneConfirmed(ctx context.Context, u *domain.User, confirmed bool) error

	GetTwoFactorEnabled(ctx context.Context, u *domain.User) (bool, error)
	SetTwoFactorEnabled(ctx context.Context, u *domain.User, enabled bool) error

	// Lockout state is recorded and returned only; the store never sets
	// LockoutEnd from the failure count. Lockout policy lives in callers.
	GetLockoutEnd(ctx context.Context, u *domain.User) (*time.Time, error)
	SetLockoutEnd(ctx context.Context, u *domain.User, end *time.Time) error
	GetLockoutEnabled(ctx context.Context, u *domain.User) (bool, error)
	SetLockoutEnabled(ctx context.Context, u *domain.User, enabled bool) error
	GetAccessFailedCount(ctx context.Context, u *domain.User) (int, error)
	// IncrementAccessFailedCount atomically bumps the counter and returns
	// the new value.
	IncrementAccessFailedCount(ctx context.Context, u *domain.User) (int, error)
	// ResetAccessFailedCount sets the counter to zero unconditionally.
	ResetAccessFailedCount(ctx context.Context, u *domain.User) error

	// AddToRole links the user to an existing role, matched by normalized
	// name. A missing role returns ErrConflict; the role is never created
	// implicitly. Re-adding an existing membership is a no-op.
	AddToRole(ctx context.Context, u *domain.User, roleName string) error
	RemoveFromRole(ctx context.Context, u *domain.User, roleName string) error
	// GetRoles returns the user's role names ordered by normalized name.
	GetRoles(ctx context.Context, u *domain.User) ([]string, error)
	IsInRole(ctx context.Context, u *domain.User, roleName string) (bool, error)
	GetUsersInRole(ctx context.Context, roleName string) ([]domain.User, error)
}

type Roles interface {
	// CreateRole inserts a new role; a duplicate normalized name returns
	// ErrAlreadyExists.
	CreateRole(ctx context.Context, r *domain.Role) error
	UpdateRole(ctx context.Context, r *domain.Role) error
	// DeleteRole removes the role and any memberships referencing it.
	DeleteRole(ctx context.Context, r *domain.Role) error
	GetRoleByID(ctx context.Context, id string) (domain.Role, error)
	GetRoleByNormalizedName(ctx context.Context, normalized string) (domain.Role, error)
	// ListRoles returns every role ordered by normalized name.
	ListRoles(ctx context.Context) ([]domain.Role, error)
}

type Claims interface {
	GetClaims(ctx context.Context, u *domain.User) ([]domain.Claim, error)
	AddClaims(ctx context.Context, u *domain.User, claims []domain.Claim) error
	// RemoveClaims deletes by exact (type, value) match; claims the user
	// does not hold are skipped silently.
	RemoveClaims(ctx context.Context, u *domain.User, claims []domain.Claim) error
	// ReplaceClaim substitutes oldClaim with newClaim. When oldClaim is not
	// held the claim set is left untouched and no error is returned.
	ReplaceClaim(ctx context.Context, u *domain.User, oldClaim, newClaim domain.Claim) error
	// GetUsersForClaim returns every user holding the exact (type, value)
	// pair, ordered by user ID.
	GetUsersForClaim(ctx context.Context, claim domain.Claim) ([]domain.User, error)
}

type Logins interface {
	// AddLogin binds an external login to the user. A (provider, key) pair
	// already bound to any user returns ErrAlreadyExists.
	AddLogin(ctx context.Context, u *domain.User, binding domain.LoginBinding) error
	// RemoveLogin is a no-op when the binding does not belong to the user.
	RemoveLogin(ctx context.Context, u *domain.User, provider, providerKey string) error
	GetLogins(ctx context.Context, u *domain.User) ([]domain.LoginBinding, error)
	GetUserByLogin(ctx context.Context, provider, providerKey string) (domain.User, error)
}
