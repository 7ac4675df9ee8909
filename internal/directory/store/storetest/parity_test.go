package storetest_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crewdir/crewdir/internal/directory/domain"
	httpapi "github.com/crewdir/crewdir/internal/directory/http"
	"github.com/crewdir/crewdir/internal/directory/store"
	"github.com/crewdir/crewdir/internal/directory/store/drivers/remote"
	"github.com/crewdir/crewdir/internal/directory/store/drivers/sqlite"
	"github.com/crewdir/crewdir/internal/directory/store/storetest"
)

// step is one operation in the scripted sequence; it returns an observable
// outcome that must be identical across drivers.
type step struct {
	name string
	run  func(t *testing.T, s store.Store, users map[string]*domain.User) (any, error)
}

func newLocal(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func newRemote(t *testing.T) store.Store {
	t.Helper()

	local := newLocal(t)
	router := httpapi.NewRouter(nil, "test", local, slog.New(slog.DiscardHandler))
	router.ApplyRoutes()
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	proxy := remote.NewStore(remote.Config{BaseURL: srv.URL})
	t.Cleanup(func() { _ = proxy.Close() })
	return proxy
}

// errClass buckets an error by the category callers can act on.
func errClass(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, store.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, store.ErrConflict):
		return "conflict"
	default:
		return "other"
	}
}

// TestDriverParity runs one scripted sequence against the sqlite driver and
// the HTTP proxy, asserting every step produces the same outcome class and
// the same observable value.
func TestDriverParity(t *testing.T) {
	lockoutUntil := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	script := []step{
		{"create role", func(t *testing.T, s store.Store, _ map[string]*domain.User) (any, error) {
			role := &domain.Role{ID: "01ROLE", Name: "Operators", NormalizedName: "OPERATORS"}
			return nil, s.Roles().CreateRole(context.Background(), role)
		}},
		{"duplicate role", func(t *testing.T, s store.Store, _ map[string]*domain.User) (any, error) {
			role := &domain.Role{ID: "02ROLE", Name: "operators", NormalizedName: "OPERATORS"}
			return nil, s.Roles().CreateRole(context.Background(), role)
		}},
		{"create user", func(t *testing.T, s store.Store, users map[string]*domain.User) (any, error) {
			u := storetest.NewUser("parity")
			u.ID = "01USER"
			users["parity"] = u
			return nil, s.Users().CreateUser(context.Background(), u)
		}},
		{"duplicate user", func(t *testing.T, s store.Store, _ map[string]*domain.User) (any, error) {
			u := storetest.NewUser("parity")
			u.ID = "02USER"
			return nil, s.Users().CreateUser(context.Background(), u)
		}},
		{"set email", func(t *testing.T, s store.Store, users map[string]*domain.User) (any, error) {
			err := s.Users().SetEmail(context.Background(), users["parity"], "p@example.com")
			return users["parity"].Email, err
		}},
		{"get missing user", func(t *testing.T, s store.Store, _ map[string]*domain.User) (any, error) {
			_, err := s.Users().GetUserByID(context.Background(), "NOPE")
			return nil, err
		}},
		{"add to missing role", func(t *testing.T, s store.Store, users map[string]*domain.User) (any, error) {
			return nil, s.Users().AddToRole(context.Background(), users["parity"], "Wizards")
		}},
		{"add to role", func(t *testing.T, s store.Store, users map[string]*domain.User) (any, error) {
			return nil, s.Users().AddToRole(context.Background(), users["parity"], "operators")
		}},
		{"roles after add", func(t *testing.T, s store.Store, users map[string]*domain.User) (any, error) {
			return s.Users().GetRoles(context.Background(), users["parity"])
		}},
		{"increment twice", func(t *testing.T, s store.Store, users map[string]*domain.User) (any, error) {
			u := users["parity"]
			if _, err := s.Users().IncrementAccessFailedCount(context.Background(), u); err != nil {
				return nil, err
			}
			return s.Users().IncrementAccessFailedCount(context.Background(), u)
		}},
		{"set lockout end", func(t *testing.T, s store.Store, users map[string]*domain.User) (any, error) {
			u := users["parity"]
			if err := s.Users().SetLockoutEnd(context.Background(), u, &lockoutUntil); err != nil {
				return nil, err
			}
			end, err := s.Users().GetLockoutEnd(context.Background(), u)
			if err != nil {
				return nil, err
			}
			return end.UTC().Format(time.RFC3339Nano), nil
		}},
		{"add login twice", func(t *testing.T, s store.Store, users map[string]*domain.User) (any, error) {
			u := users["parity"]
			binding := domain.LoginBinding{Provider: "azuread", ProviderKey: "aad-7"}
			if err := s.Logins().AddLogin(context.Background(), u, binding); err != nil {
				return nil, err
			}
			return nil, s.Logins().AddLogin(context.Background(), u, binding)
		}},
		{"claims round trip", func(t *testing.T, s store.Store, users map[string]*domain.User) (any, error) {
			u := users["parity"]
			claims := []domain.Claim{{Type: "office", Value: "melbourne"}}
			if err := s.Claims().AddClaims(context.Background(), u, claims); err != nil {
				return nil, err
			}
			return s.Claims().GetClaims(context.Background(), u)
		}},
		{"delete user cascades", func(t *testing.T, s store.Store, users map[string]*domain.User) (any, error) {
			if err := s.Users().DeleteUser(context.Background(), users["parity"]); err != nil {
				return nil, err
			}
			return s.Users().GetUsersInRole(context.Background(), "Operators")
		}},
	}

	runScript := func(t *testing.T, s store.Store) ([]string, []any) {
		users := make(map[string]*domain.User)
		classes := make([]string, 0, len(script))
		values := make([]any, 0, len(script))
		for _, st := range script {
			value, err := st.run(t, s, users)
			classes = append(classes, st.name+"="+errClass(err))
			values = append(values, value)
		}
		return classes, values
	}

	localClasses, localValues := runScript(t, newLocal(t))
	remoteClasses, remoteValues := runScript(t, newRemote(t))

	require.Equal(t, localClasses, remoteClasses)
	require.Equal(t, localValues, remoteValues)
}
