package http_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	httpapi "github.com/crewdir/crewdir/internal/directory/http"
	"github.com/crewdir/crewdir/internal/directory/store/drivers/sqlite"
	"github.com/crewdir/crewdir/pkg/dirapi"
	"github.com/crewdir/crewdir/pkg/jwtx"
)

func newRouter(t *testing.T, verifier *jwtx.Verifier) *httpapi.Router {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	router := httpapi.NewRouter(verifier, "test", s, slog.New(slog.DiscardHandler))
	router.ApplyRoutes()
	return router
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	router := newRouter(t, nil)

	rec := doJSON(t, router, http.MethodGet, "/livez", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var health dirapi.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health.Status)

	rec = doJSON(t, router, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
}

func TestErrorEnvelopes(t *testing.T) {
	router := newRouter(t, nil)

	t.Run("missing user is a coded 404", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/users/NOPE", "")
		require.Equal(t, http.StatusNotFound, rec.Code)

		var envelope dirapi.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		require.Equal(t, dirapi.ErrorCodeNotFound, envelope.Error)
	})

	t.Run("malformed body is a coded 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/users", "{not json")
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var envelope dirapi.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		require.Equal(t, dirapi.ErrorCodeInvalidRequest, envelope.Error)
	})

	t.Run("duplicate user is a coded 409", func(t *testing.T) {
		body := `{"id":"01X","username":"sam","normalized_username":"SAM"}`
		rec := doJSON(t, router, http.MethodPost, "/v1/users", body)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = doJSON(t, router, http.MethodPost, "/v1/users",
			`{"id":"02X","username":"sam","normalized_username":"SAM"}`)
		require.Equal(t, http.StatusConflict, rec.Code)

		var envelope dirapi.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		require.Equal(t, dirapi.ErrorCodeAlreadyExists, envelope.Error)
	})
}

// TestLookupRoutes pins the lookup endpoints to their own /v1/lookup
// prefix; registering them under /v1/users would collide with the
// /v1/users/{id}/... field patterns and panic in ApplyRoutes.
func TestLookupRoutes(t *testing.T) {
	router := newRouter(t, nil)

	body := `{"id":"01L","username":"nadia","normalized_username":"NADIA",` +
		`"email":"nadia@example.com","normalized_email":"NADIA@EXAMPLE.COM"}`
	rec := doJSON(t, router, http.MethodPost, "/v1/users", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/users/01L/logins",
		`{"provider":"github","provider_key":"gh-77"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/roles",
		`{"id":"01R","name":"Auditors","normalized_name":"AUDITORS"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var u dirapi.User
	for _, path := range []string{
		"/v1/lookup/users/by-name/NADIA",
		"/v1/lookup/users/by-email/NADIA@EXAMPLE.COM",
		"/v1/lookup/users/by-login/github/gh-77",
	} {
		rec = doJSON(t, router, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
		require.Equal(t, "01L", u.ID, path)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/lookup/roles/by-name/AUDITORS", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var role dirapi.Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &role))
	require.Equal(t, "01R", role.ID)

	// A field route next door still resolves through its own pattern.
	rec = doJSON(t, router, http.MethodGet, "/v1/users/01L/username", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var name dirapi.StringValue
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &name))
	require.Equal(t, "nadia", name.Value)
}

func TestBearerAuthGuards(t *testing.T) {
	const secret = "router-test-secret"
	const issuer = "crewdir-test"

	router := newRouter(t, jwtx.NewVerifier(secret, issuer))

	t.Run("requests without token are rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/roles", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("read scope cannot mutate", func(t *testing.T) {
		signer := jwtx.NewSigner(secret, issuer)
		token, err := signer.Sign("reader", []string{jwtx.ScopeRead}, time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/v1/roles",
			strings.NewReader(`{"id":"01R","name":"Testers","normalized_name":"TESTERS"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("write scope passes", func(t *testing.T) {
		signer := jwtx.NewSigner(secret, issuer)
		token, err := signer.Sign("writer", []string{jwtx.ScopeWrite}, time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/v1/roles",
			strings.NewReader(`{"id":"01R","name":"Testers","normalized_name":"TESTERS"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("health probes stay open", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/livez", "")
		require.Equal(t, http.StatusOK, rec.Code)
	})
}
