// Package storetest holds the conformance suite every store driver must
// pass. Running the same assertions against the sqlite driver and the
// remote proxy is what keeps the two observably identical.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crewdir/crewdir/internal/directory/domain"
	"github.com/crewdir/crewdir/internal/directory/store"
	"github.com/crewdir/crewdir/pkg/idx"
)

// Factory builds a fresh, empty store for one subtest. Cleanup is the
// caller's job, typically via t.Cleanup.
type Factory func(t *testing.T) store.Store

// NewUser returns a minimal valid user with unique naming.
func NewUser(name string) *domain.User {
	return &domain.User{
		ID:                 idx.New().String(),
		Username:           name,
		NormalizedUsername: domain.Normalize(name),
		LockoutEnabled:     true,
	}
}

// Run exercises the full store contract against the driver under test.
func Run(t *testing.T, factory Factory) {
	t.Run("UserCRUD", func(t *testing.T) { testUserCRUD(t, factory) })
	t.Run("UserLookups", func(t *testing.T) { testUserLookups(t, factory) })
	t.Run("FieldSetters", func(t *testing.T) { testFieldSetters(t, factory) })
	t.Run("PasswordHash", func(t *testing.T) { testPasswordHash(t, factory) })
	t.Run("Lockout", func(t *testing.T) { testLockout(t, factory) })
	t.Run("Membership", func(t *testing.T) { testMembership(t, factory) })
	t.Run("Roles", func(t *testing.T) { testRoles(t, factory) })
	t.Run("Claims", func(t *testing.T) { testClaims(t, factory) })
	t.Run("Logins", func(t *testing.T) { testLogins(t, factory) })
	t.Run("Cascade", func(t *testing.T) { testCascade(t, factory) })
	t.Run("Ping", func(t *testing.T) {
		s := factory(t)
		require.NoError(t, s.Ping(context.Background()))
	})
}

func testUserCRUD(t *testing.T, factory Factory) {
	ctx := context.Background()
	s := factory(t)

	t.Run("create assigns timestamps and round-trips", func(t *testing.T) {
		birthday := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)
		u := NewUser("alice")
		u.Email = "alice@example.com"
		u.NormalizedEmail = "ALICE@EXAMPLE.COM"
		u.FirstName = "Alice"
		u.LastName = "Smith"
		u.Patronymic = "Ivanovna"
		u.Position = "Engineer"
		u.Birthday = &birthday
		u.Address = "12 High St"
		u.PhoneNumber = "+61400000001"

		require.NoError(t, s.Users().CreateUser(ctx, u))
		require.False(t, u.CreatedAt.IsZero())
		require.False(t, u.UpdatedAt.IsZero())

		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Username, got.Username)
		require.Equal(t, u.NormalizedUsername, got.NormalizedUsername)
		require.Equal(t, u.Email, got.Email)
		require.Equal(t, u.FirstName, got.FirstName)
		require.Equal(t, u.LastName, got.LastName)
		require.Equal(t, u.Patronymic, got.Patronymic)
		require.Equal(t, u.Position, got.Position)
		require.Equal(t, u.Address, got.Address)
		require.NotNil(t, got.Birthday)
		require.True(t, got.Birthday.Equal(birthday))
		require.True(t, got.LockoutEnabled)
		require.Nil(t, got.LockoutEnd)
		require.Zero(t, got.AccessFailedCount)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		u := NewUser("bob")
		require.NoError(t, s.Users().CreateUser(ctx, u))

		dup := NewUser("bob")
		err := s.Users().CreateUser(ctx, dup)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("update persists every field", func(t *testing.T) {
		u := NewUser("carol")
		require.NoError(t, s.Users().CreateUser(ctx, u))

		u.Email = "carol@example.com"
		u.Position = "Manager"
		u.TwoFactorEnabled = true
		require.NoError(t, s.Users().UpdateUser(ctx, u))

		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "carol@example.com", got.Email)
		require.Equal(t, "Manager", got.Position)
		require.True(t, got.TwoFactorEnabled)
	})

	t.Run("update of missing user reports not found", func(t *testing.T) {
		ghost := NewUser("ghost")
		require.ErrorIs(t, s.Users().UpdateUser(ctx, ghost), store.ErrNotFound)
	})

	t.Run("delete then lookup reports not found", func(t *testing.T) {
		u := NewUser("dave")
		require.NoError(t, s.Users().CreateUser(ctx, u))
		require.NoError(t, s.Users().DeleteUser(ctx, u))

		_, err := s.Users().GetUserByID(ctx, u.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		require.ErrorIs(t, s.Users().DeleteUser(ctx, u), store.ErrNotFound)
	})
}

func testUserLookups(t *testing.T, factory Factory) {
	ctx := context.Background()
	s := factory(t)

	u := NewUser("erin")
	u.Email = "erin@example.com"
	u.NormalizedEmail = "ERIN@EXAMPLE.COM"
	require.NoError(t, s.Users().CreateUser(ctx, u))

	t.Run("by normalized username", func(t *testing.T) {
		got, err := s.Users().GetUserByNormalizedUsername(ctx, "ERIN")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)

		// the plain form is not matched
		_, err = s.Users().GetUserByNormalizedUsername(ctx, "erin")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("by normalized email", func(t *testing.T) {
		got, err := s.Users().GetUserByNormalizedEmail(ctx, "ERIN@EXAMPLE.COM")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("duplicate emails resolve to lowest user id", func(t *testing.T) {
		other := NewUser("erin2")
		other.Email = "erin@example.com"
		other.NormalizedEmail = "ERIN@EXAMPLE.COM"
		require.NoError(t, s.Users().CreateUser(ctx, other))

		got, err := s.Users().GetUserByNormalizedEmail(ctx, "ERIN@EXAMPLE.COM")
		require.NoError(t, err)
		// ULIDs are monotonic, so the first created user wins.
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("missing lookups report not found", func(t *testing.T) {
		_, err := s.Users().GetUserByID(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.Users().GetUserByNormalizedEmail(ctx, "NOBODY@EXAMPLE.COM")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func testFieldSetters(t *testing.T, factory Factory) {
	ctx := context.Background()
	s := factory(t)

	u := NewUser("frank")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	t.Run("setters write back into the entity", func(t *testing.T) {
		before := u.UpdatedAt

		require.NoError(t, s.Users().SetEmail(ctx, u, "frank@example.com"))
		require.Equal(t, "frank@example.com", u.Email)
		require.False(t, u.UpdatedAt.Before(before))

		got, err := s.Users().GetEmail(ctx, u)
		require.NoError(t, err)
		require.Equal(t, "frank@example.com", got)
	})

	t.Run("normalized forms are never derived", func(t *testing.T) {
		require.NoError(t, s.Users().SetUsername(ctx, u, "franklin"))

		normalized, err := s.Users().GetNormalizedUsername(ctx, u)
		require.NoError(t, err)
		require.Equal(t, "FRANK", normalized, "plain rename must not touch the normalized form")

		require.NoError(t, s.Users().SetNormalizedUsername(ctx, u, "FRANKLIN"))
		normalized, err = s.Users().GetNormalizedUsername(ctx, u)
		require.NoError(t, err)
		require.Equal(t, "FRANKLIN", normalized)
	})

	t.Run("bool fields round-trip", func(t *testing.T) {
		require.NoError(t, s.Users().SetEmailConfirmed(ctx, u, true))
		require.True(t, u.EmailConfirmed)

		confirmed, err := s.Users().GetEmailConfirmed(ctx, u)
		require.NoError(t, err)
		require.True(t, confirmed)

		require.NoError(t, s.Users().SetTwoFactorEnabled(ctx, u, true))
		enabled, err := s.Users().GetTwoFactorEnabled(ctx, u)
		require.NoError(t, err)
		require.True(t, enabled)

		require.NoError(t, s.Users().SetPhoneNumber(ctx, u, "+61400000002"))
		require.NoError(t, s.Users().SetPhoneConfirmed(ctx, u, true))
		phone, err := s.Users().GetPhoneNumber(ctx, u)
		require.NoError(t, err)
		require.Equal(t, "+61400000002", phone)
	})

	t.Run("setter on missing user reports not found", func(t *testing.T) {
		ghost := NewUser("ghost")
		require.ErrorIs(t, s.Users().SetEmail(ctx, ghost, "x@example.com"), store.ErrNotFound)

		_, err := s.Users().GetEmail(ctx, ghost)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func testPasswordHash(t *testing.T, factory Factory) {
	ctx := context.Background()
	s := factory(t)

	u := NewUser("grace")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	has, err := s.Users().HasPassword(ctx, u)
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, s.Users().SetPasswordHash(ctx, u, "argon2id$opaque"))
	require.Equal(t, "argon2id$opaque", u.PasswordHash)

	hash, err := s.Users().GetPasswordHash(ctx, u)
	require.NoError(t, err)
	require.Equal(t, "argon2id$opaque", hash)

	has, err = s.Users().HasPassword(ctx, u)
	require.NoError(t, err)
	require.True(t, has)

	// clearing the hash flips HasPassword back
	require.NoError(t, s.Users().SetPasswordHash(ctx, u, ""))
	has, err = s.Users().HasPassword(ctx, u)
	require.NoError(t, err)
	require.False(t, has)
}

func testLockout(t *testing.T, factory Factory) {
	ctx := context.Background()
	s := factory(t)

	u := NewUser("henry")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	t.Run("lockout end starts empty and round-trips", func(t *testing.T) {
		end, err := s.Users().GetLockoutEnd(ctx, u)
		require.NoError(t, err)
		require.Nil(t, end)

		until := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
		require.NoError(t, s.Users().SetLockoutEnd(ctx, u, &until))
		require.NotNil(t, u.LockoutEnd)

		end, err = s.Users().GetLockoutEnd(ctx, u)
		require.NoError(t, err)
		require.NotNil(t, end)
		require.True(t, end.Equal(until))

		require.NoError(t, s.Users().SetLockoutEnd(ctx, u, nil))
		end, err = s.Users().GetLockoutEnd(ctx, u)
		require.NoError(t, err)
		require.Nil(t, end)
	})

	t.Run("lockout enabled flag", func(t *testing.T) {
		require.NoError(t, s.Users().SetLockoutEnabled(ctx, u, false))
		enabled, err := s.Users().GetLockoutEnabled(ctx, u)
		require.NoError(t, err)
		require.False(t, enabled)
	})

	t.Run("failed count increments and resets", func(t *testing.T) {
		count, err := s.Users().GetAccessFailedCount(ctx, u)
		require.NoError(t, err)
		require.Zero(t, count)

		before, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)

		count, err = s.Users().IncrementAccessFailedCount(ctx, u)
		require.NoError(t, err)
		require.Equal(t, 1, count)
		require.Equal(t, 1, u.AccessFailedCount)

		// Counting a failed attempt is bookkeeping, not an edit of the
		// record, so it leaves updated_at alone.
		after, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, after.UpdatedAt.Equal(before.UpdatedAt))

		count, err = s.Users().IncrementAccessFailedCount(ctx, u)
		require.NoError(t, err)
		require.Equal(t, 2, count)

		require.NoError(t, s.Users().ResetAccessFailedCount(ctx, u))
		require.Zero(t, u.AccessFailedCount)

		count, err = s.Users().GetAccessFailedCount(ctx, u)
		require.NoError(t, err)
		require.Zero(t, count)
	})

	t.Run("increment on missing user reports not found", func(t *testing.T) {
		ghost := NewUser("ghost")
		_, err := s.Users().IncrementAccessFailedCount(ctx, ghost)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func testMembership(t *testing.T, factory Factory) {
	ctx := context.Background()
	s := factory(t)

	newRole := func(name string) *domain.Role {
		return &domain.Role{
			ID:             idx.New().String(),
			Name:           name,
			NormalizedName: domain.Normalize(name),
		}
	}

	admins := newRole("Administrators")
	staff := newRole("Employees")
	require.NoError(t, s.Roles().CreateRole(ctx, admins))
	require.NoError(t, s.Roles().CreateRole(ctx, staff))

	u := NewUser("ivan")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	t.Run("missing role conflicts and is never created", func(t *testing.T) {
		err := s.Users().AddToRole(ctx, u, "Wizards")
		require.ErrorIs(t, err, store.ErrConflict)

		_, err = s.Roles().GetRoleByNormalizedName(ctx, "WIZARDS")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("membership is case-insensitive and idempotent", func(t *testing.T) {
		require.NoError(t, s.Users().AddToRole(ctx, u, "administrators"))
		require.NoError(t, s.Users().AddToRole(ctx, u, "ADMINISTRATORS"))
		require.NoError(t, s.Users().AddToRole(ctx, u, staff.Name))

		roles, err := s.Users().GetRoles(ctx, u)
		require.NoError(t, err)
		require.Equal(t, []string{"Administrators", "Employees"}, roles)

		in, err := s.Users().IsInRole(ctx, u, "employees")
		require.NoError(t, err)
		require.True(t, in)
	})

	t.Run("users in role ordered by id", func(t *testing.T) {
		second := NewUser("judy")
		require.NoError(t, s.Users().CreateUser(ctx, second))
		require.NoError(t, s.Users().AddToRole(ctx, second, admins.Name))

		members, err := s.Users().GetUsersInRole(ctx, "Administrators")
		require.NoError(t, err)
		require.Len(t, members, 2)
		require.Equal(t, u.ID, members[0].ID)
		require.Equal(t, second.ID, members[1].ID)
	})

	t.Run("removal is silent for non-members", func(t *testing.T) {
		require.NoError(t, s.Users().RemoveFromRole(ctx, u, "Employees"))
		require.NoError(t, s.Users().RemoveFromRole(ctx, u, "Employees"))

		in, err := s.Users().IsInRole(ctx, u, "Employees")
		require.NoError(t, err)
		require.False(t, in)
	})
}

func testRoles(t *testing.T, factory Factory) {
	ctx := context.Background()
	s := factory(t)

	t.Run("create round-trips with description", func(t *testing.T) {
		role := &domain.Role{
			ID:             idx.New().String(),
			Name:           "Auditors",
			NormalizedName: "AUDITORS",
			Description:    "Read-only compliance access",
		}
		require.NoError(t, s.Roles().CreateRole(ctx, role))
		require.False(t, role.CreatedAt.IsZero())

		got, err := s.Roles().GetRoleByID(ctx, role.ID)
		require.NoError(t, err)
		require.Equal(t, "Auditors", got.Name)
		require.Equal(t, "Read-only compliance access", got.Description)

		got, err = s.Roles().GetRoleByNormalizedName(ctx, "AUDITORS")
		require.NoError(t, err)
		require.Equal(t, role.ID, got.ID)
	})

	t.Run("duplicate normalized name conflicts", func(t *testing.T) {
		dup := &domain.Role{
			ID:             idx.New().String(),
			Name:           "auditors",
			NormalizedName: "AUDITORS",
		}
		require.ErrorIs(t, s.Roles().CreateRole(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("update and list ordering", func(t *testing.T) {
		role := &domain.Role{
			ID:             idx.New().String(),
			Name:           "Builders",
			NormalizedName: "BUILDERS",
		}
		require.NoError(t, s.Roles().CreateRole(ctx, role))

		role.Description = "Site crew"
		require.NoError(t, s.Roles().UpdateRole(ctx, role))

		roles, err := s.Roles().ListRoles(ctx)
		require.NoError(t, err)
		require.Len(t, roles, 2)
		require.Equal(t, "AUDITORS", roles[0].NormalizedName)
		require.Equal(t, "BUILDERS", roles[1].NormalizedName)
		require.Equal(t, "Site crew", roles[1].Description)
	})

	t.Run("delete removes role and lookups fail", func(t *testing.T) {
		role, err := s.Roles().GetRoleByNormalizedName(ctx, "BUILDERS")
		require.NoError(t, err)
		require.NoError(t, s.Roles().DeleteRole(ctx, &role))

		_, err = s.Roles().GetRoleByNormalizedName(ctx, "BUILDERS")
		require.ErrorIs(t, err, store.ErrNotFound)

		require.ErrorIs(t, s.Roles().DeleteRole(ctx, &role), store.ErrNotFound)
	})
}

func testClaims(t *testing.T, factory Factory) {
	ctx := context.Background()
	s := factory(t)

	u := NewUser("kate")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	dept := domain.Claim{Type: "department", Value: "engineering"}
	badge := domain.Claim{Type: "badge", Value: "blue"}

	t.Run("add and read back in insertion order", func(t *testing.T) {
		require.NoError(t, s.Claims().AddClaims(ctx, u, []domain.Claim{dept, badge}))

		claims, err := s.Claims().GetClaims(ctx, u)
		require.NoError(t, err)
		require.Equal(t, []domain.Claim{dept, badge}, claims)
	})

	t.Run("duplicates are allowed", func(t *testing.T) {
		require.NoError(t, s.Claims().AddClaims(ctx, u, []domain.Claim{dept}))

		claims, err := s.Claims().GetClaims(ctx, u)
		require.NoError(t, err)
		require.Len(t, claims, 3)
	})

	t.Run("remove matches exactly", func(t *testing.T) {
		require.NoError(t, s.Claims().RemoveClaims(ctx, u, []domain.Claim{dept}))

		claims, err := s.Claims().GetClaims(ctx, u)
		require.NoError(t, err)
		require.Equal(t, []domain.Claim{badge}, claims)

		// absent claims are skipped silently
		require.NoError(t, s.Claims().RemoveClaims(ctx, u, []domain.Claim{
			{Type: "nope", Value: "nope"},
		}))
	})

	t.Run("replace swaps in place and is a no-op when absent", func(t *testing.T) {
		gold := domain.Claim{Type: "badge", Value: "gold"}
		require.NoError(t, s.Claims().ReplaceClaim(ctx, u, badge, gold))

		claims, err := s.Claims().GetClaims(ctx, u)
		require.NoError(t, err)
		require.Equal(t, []domain.Claim{gold}, claims)

		require.NoError(t, s.Claims().ReplaceClaim(ctx, u, badge, dept))
		claims, err = s.Claims().GetClaims(ctx, u)
		require.NoError(t, err)
		require.Equal(t, []domain.Claim{gold}, claims)
	})

	t.Run("users for claim ordered by id", func(t *testing.T) {
		other := NewUser("liam")
		require.NoError(t, s.Users().CreateUser(ctx, other))

		gold := domain.Claim{Type: "badge", Value: "gold"}
		require.NoError(t, s.Claims().AddClaims(ctx, other, []domain.Claim{gold}))

		holders, err := s.Claims().GetUsersForClaim(ctx, gold)
		require.NoError(t, err)
		require.Len(t, holders, 2)
		require.Equal(t, u.ID, holders[0].ID)
		require.Equal(t, other.ID, holders[1].ID)

		holders, err = s.Claims().GetUsersForClaim(ctx, domain.Claim{Type: "badge", Value: "none"})
		require.NoError(t, err)
		require.Empty(t, holders)
	})
}

func testLogins(t *testing.T, factory Factory) {
	ctx := context.Background()
	s := factory(t)

	u := NewUser("mia")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	google := domain.LoginBinding{Provider: "google", ProviderKey: "g-123", DisplayName: "Google"}

	t.Run("add and resolve", func(t *testing.T) {
		require.NoError(t, s.Logins().AddLogin(ctx, u, google))

		got, err := s.Logins().GetUserByLogin(ctx, "google", "g-123")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)

		logins, err := s.Logins().GetLogins(ctx, u)
		require.NoError(t, err)
		require.Equal(t, []domain.LoginBinding{google}, logins)
	})

	t.Run("provider+key pair is globally unique", func(t *testing.T) {
		require.ErrorIs(t, s.Logins().AddLogin(ctx, u, google), store.ErrAlreadyExists)

		other := NewUser("noah")
		require.NoError(t, s.Users().CreateUser(ctx, other))
		require.ErrorIs(t, s.Logins().AddLogin(ctx, other, google), store.ErrAlreadyExists)
	})

	t.Run("same provider different key is fine", func(t *testing.T) {
		github := domain.LoginBinding{Provider: "github", ProviderKey: "gh-9", DisplayName: "GitHub"}
		require.NoError(t, s.Logins().AddLogin(ctx, u, github))

		logins, err := s.Logins().GetLogins(ctx, u)
		require.NoError(t, err)
		require.Equal(t, []domain.LoginBinding{github, google}, logins)
	})

	t.Run("remove is scoped to the owner and silent otherwise", func(t *testing.T) {
		stranger := NewUser("olga")
		require.NoError(t, s.Users().CreateUser(ctx, stranger))

		// not the owner, binding survives
		require.NoError(t, s.Logins().RemoveLogin(ctx, stranger, "google", "g-123"))
		_, err := s.Logins().GetUserByLogin(ctx, "google", "g-123")
		require.NoError(t, err)

		require.NoError(t, s.Logins().RemoveLogin(ctx, u, "google", "g-123"))
		_, err = s.Logins().GetUserByLogin(ctx, "google", "g-123")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func testCascade(t *testing.T, factory Factory) {
	ctx := context.Background()
	s := factory(t)

	role := &domain.Role{
		ID:             idx.New().String(),
		Name:           "Couriers",
		NormalizedName: "COURIERS",
	}
	require.NoError(t, s.Roles().CreateRole(ctx, role))

	u := NewUser("pam")
	require.NoError(t, s.Users().CreateUser(ctx, u))
	require.NoError(t, s.Users().AddToRole(ctx, u, role.Name))
	require.NoError(t, s.Claims().AddClaims(ctx, u, []domain.Claim{{Type: "a", Value: "b"}}))
	require.NoError(t, s.Logins().AddLogin(ctx, u, domain.LoginBinding{
		Provider: "okta", ProviderKey: "ok-1",
	}))

	t.Run("deleting a user removes its edges", func(t *testing.T) {
		require.NoError(t, s.Users().DeleteUser(ctx, u))

		members, err := s.Users().GetUsersInRole(ctx, role.Name)
		require.NoError(t, err)
		require.Empty(t, members)

		_, err = s.Logins().GetUserByLogin(ctx, "okta", "ok-1")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("deleting a role removes memberships but not users", func(t *testing.T) {
		survivor := NewUser("quinn")
		require.NoError(t, s.Users().CreateUser(ctx, survivor))
		require.NoError(t, s.Users().AddToRole(ctx, survivor, role.Name))

		require.NoError(t, s.Roles().DeleteRole(ctx, role))

		roles, err := s.Users().GetRoles(ctx, survivor)
		require.NoError(t, err)
		require.Empty(t, roles)

		_, err = s.Users().GetUserByID(ctx, survivor.ID)
		require.NoError(t, err)
	})
}
