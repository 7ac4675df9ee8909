package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crewdir/crewdir/internal/directory/domain"
	"github.com/crewdir/crewdir/internal/directory/store/drivers/sqlite"
	"github.com/crewdir/crewdir/pkg/cryptox"
)

func TestMain(m *testing.M) {
	pepperPath := filepath.Join(os.TempDir(), "crewdir-seed-test-pepper")
	cryptox.SetPepperPath(pepperPath)

	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	os.Exit(m.Run())
}

func newSeededStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestSeedCreatesBaseline(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)

	seeder := &SeedService{Store: s, AdminPassword: "Admin123!"}
	require.NoError(t, seeder.Seed(ctx))

	roles, err := s.Roles().ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	require.Equal(t, domain.RoleAdministrators, roles[0].Name)
	require.Equal(t, domain.RoleEmployees, roles[1].Name)

	admin, err := s.Users().GetUserByNormalizedUsername(ctx, "ADMIN")
	require.NoError(t, err)
	require.Equal(t, "Admin", admin.Username)
	require.True(t, admin.LockoutEnabled)
	require.NoError(t, cryptox.VerifyPassword("Admin123!", admin.PasswordHash))

	in, err := s.Users().IsInRole(ctx, &admin, domain.RoleAdministrators)
	require.NoError(t, err)
	require.True(t, in)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)

	seeder := &SeedService{Store: s, AdminPassword: "Admin123!"}
	require.NoError(t, seeder.Seed(ctx))

	admin, err := s.Users().GetUserByNormalizedUsername(ctx, "ADMIN")
	require.NoError(t, err)

	// second run must not recreate or overwrite anything
	require.NoError(t, seeder.Seed(ctx))

	again, err := s.Users().GetUserByNormalizedUsername(ctx, "ADMIN")
	require.NoError(t, err)
	require.Equal(t, admin.ID, again.ID)
	require.Equal(t, admin.PasswordHash, again.PasswordHash)

	roles, err := s.Roles().ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)
}

func TestSeedGeneratesPasswordWhenUnset(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)

	seeder := &SeedService{Store: s}
	require.NoError(t, seeder.Seed(ctx))

	admin, err := s.Users().GetUserByNormalizedUsername(ctx, "ADMIN")
	require.NoError(t, err)
	require.NotEmpty(t, admin.PasswordHash)
}
