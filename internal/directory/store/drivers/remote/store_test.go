package remote_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	httpapi "github.com/crewdir/crewdir/internal/directory/http"
	"github.com/crewdir/crewdir/internal/directory/store"
	"github.com/crewdir/crewdir/internal/directory/store/drivers/remote"
	"github.com/crewdir/crewdir/internal/directory/store/drivers/sqlite"
	"github.com/crewdir/crewdir/internal/directory/store/storetest"
	"github.com/crewdir/crewdir/pkg/jwtx"
)

// newServer spins up a directory server backed by a fresh in-memory
// database and returns its base URL.
func newServer(t *testing.T, verifier *jwtx.Verifier) string {
	t.Helper()

	local, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })
	require.NoError(t, local.ApplyMigrations())

	logger := slog.New(slog.DiscardHandler)
	router := httpapi.NewRouter(verifier, "test", local, logger)
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv.URL
}

func newProxy(t *testing.T) store.Store {
	t.Helper()

	proxy := remote.NewStore(remote.Config{BaseURL: newServer(t, nil)})
	t.Cleanup(func() { _ = proxy.Close() })
	return proxy
}

// TestRemoteStoreConformance runs the same suite the sqlite driver passes,
// through the full HTTP round trip. Identical behavior here is the whole
// point of the proxy.
func TestRemoteStoreConformance(t *testing.T) {
	storetest.Run(t, newProxy)
}

func TestServiceTokenAuth(t *testing.T) {
	const secret = "test-transport-secret"
	const issuer = "crewdir-test"

	baseURL := newServer(t, jwtx.NewVerifier(secret, issuer))
	ctx := context.Background()

	t.Run("signed requests pass", func(t *testing.T) {
		proxy := remote.NewStore(remote.Config{
			BaseURL: baseURL,
			Signer:  jwtx.NewSigner(secret, issuer),
			Subject: "hr-portal",
		})
		t.Cleanup(func() { _ = proxy.Close() })

		u := storetest.NewUser("authed")
		require.NoError(t, proxy.Users().CreateUser(ctx, u))

		got, err := proxy.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Username, got.Username)
	})

	t.Run("wrong secret is a transport fault, not absence", func(t *testing.T) {
		proxy := remote.NewStore(remote.Config{
			BaseURL: baseURL,
			Signer:  jwtx.NewSigner("wrong-secret", issuer),
			Subject: "intruder",
		})
		t.Cleanup(func() { _ = proxy.Close() })

		_, err := proxy.Users().GetUserByID(ctx, "whatever")
		require.Error(t, err)
		require.NotErrorIs(t, err, store.ErrNotFound)

		var transportErr *remote.TransportError
		require.ErrorAs(t, err, &transportErr)
		require.Equal(t, http.StatusUnauthorized, transportErr.Status)
	})

	t.Run("unsigned requests are rejected", func(t *testing.T) {
		proxy := remote.NewStore(remote.Config{BaseURL: baseURL})
		t.Cleanup(func() { _ = proxy.Close() })

		var transportErr *remote.TransportError
		_, err := proxy.Users().GetUserByID(ctx, "whatever")
		require.ErrorAs(t, err, &transportErr)
	})
}

func TestTransportFaults(t *testing.T) {
	ctx := context.Background()

	t.Run("5xx answers never map to sentinels", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
		}))
		t.Cleanup(srv.Close)

		proxy := remote.NewStore(remote.Config{BaseURL: srv.URL})
		_, err := proxy.Users().GetUserByID(ctx, "any")
		require.Error(t, err)
		require.NotErrorIs(t, err, store.ErrNotFound)

		var transportErr *remote.TransportError
		require.ErrorAs(t, err, &transportErr)
		require.Equal(t, http.StatusBadGateway, transportErr.Status)
	})

	t.Run("recognised code on the wrong status stays a fault", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"not_found","error_description":"stale cache"}`))
		}))
		t.Cleanup(srv.Close)

		proxy := remote.NewStore(remote.Config{BaseURL: srv.URL})
		_, err := proxy.Users().GetUserByID(ctx, "any")
		require.NotErrorIs(t, err, store.ErrNotFound)

		var transportErr *remote.TransportError
		require.ErrorAs(t, err, &transportErr)
		require.Equal(t, http.StatusInternalServerError, transportErr.Status)
		require.Equal(t, "not_found", transportErr.Code)
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		proxy := remote.NewStore(remote.Config{
			BaseURL:    "http://127.0.0.1:1",
			HTTPClient: &http.Client{Timeout: time.Second},
		})

		err := proxy.Ping(ctx)
		var transportErr *remote.TransportError
		require.True(t, errors.As(err, &transportErr))
		require.Zero(t, transportErr.Status)
	})
}

func TestRemoteWriteBackMatchesServer(t *testing.T) {
	ctx := context.Background()
	proxy := newProxy(t)

	u := storetest.NewUser("mirror")
	require.NoError(t, proxy.Users().CreateUser(ctx, u))
	require.False(t, u.CreatedAt.IsZero(), "server-assigned timestamps must reach the caller")

	require.NoError(t, proxy.Users().SetEmail(ctx, u, "mirror@example.com"))
	require.Equal(t, "mirror@example.com", u.Email)
	require.False(t, u.UpdatedAt.IsZero())

	persisted, err := proxy.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, persisted.Email)
	require.True(t, u.UpdatedAt.Equal(persisted.UpdatedAt))
}
