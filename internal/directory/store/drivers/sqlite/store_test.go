package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crewdir/crewdir/internal/directory/store"
	"github.com/crewdir/crewdir/internal/directory/store/drivers/sqlite"
	"github.com/crewdir/crewdir/internal/directory/store/storetest"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestSQLiteStoreConformance(t *testing.T) {
	storetest.Run(t, newTestStore)
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.ApplyMigrations())

	u := storetest.NewUser("migrated")
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
}
