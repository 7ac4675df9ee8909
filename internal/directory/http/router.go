package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/crewdir/crewdir/internal/directory/store"
	"github.com/crewdir/crewdir/pkg/httpx"
	"github.com/crewdir/crewdir/pkg/jwtx"
	"github.com/crewdir/crewdir/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     *jwtx.Verifier // nil disables bearer auth (trusted networks)
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store
}

func NewRouter(
	verifier *jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerUsers()
	r.registerUserFields()
	r.registerMembership()
	r.registerRoles()
	r.registerClaims()
	r.registerLogins()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// read guards a lookup endpoint: bearer auth with directory:read when a
// verifier is configured, plus the hot-path rate limit.
func (r *Router) read(h http.HandlerFunc) http.Handler {
	if r.verifier == nil {
		return httpx.Chain(h, httpx.RateLimitBySubject(httpx.PublicLimit))
	}
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope(jwtx.ScopeRead, jwtx.ScopeWrite),
		httpx.RateLimitBySubject(httpx.PublicLimit),
	)
}

// write guards a mutating endpoint with directory:write.
func (r *Router) write(h http.HandlerFunc) http.Handler {
	if r.verifier == nil {
		return httpx.Chain(h, httpx.RateLimitBySubject(httpx.ModerateLimit))
	}
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope(jwtx.ScopeWrite),
		httpx.RateLimitBySubject(httpx.ModerateLimit),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{Store: r.store}

	r.Mux.Handle("POST /v1/users", r.write(h.HandleCreate))
	r.Mux.Handle("PUT /v1/users/{id}", r.write(h.HandleUpdate))
	r.Mux.Handle("DELETE /v1/users/{id}", r.write(h.HandleDelete))
	r.Mux.Handle("GET /v1/users/{id}", r.read(h.HandleGetByID))
	// Lookups live under /v1/lookup so their literal segments cannot
	// collide with the /v1/users/{id}/... wildcard patterns.
	r.Mux.Handle("GET /v1/lookup/users/by-name/{name}", r.read(h.HandleGetByName))
	r.Mux.Handle("GET /v1/lookup/users/by-email/{email}", r.read(h.HandleGetByEmail))
	r.Mux.Handle("GET /v1/lookup/users/by-login/{provider}/{key}", r.read(h.HandleGetByLogin))
}

func (r *Router) registerUserFields() {
	h := &UserFieldsHandler{Store: r.store}

	r.Mux.Handle("GET /v1/users/{id}/username", r.read(h.HandleGetUsername))
	r.Mux.Handle("PUT /v1/users/{id}/username", r.write(h.HandleSetUsername))
	r.Mux.Handle("GET /v1/users/{id}/normalized-username", r.read(h.HandleGetNormalizedUsername))
	r.Mux.Handle("PUT /v1/users/{id}/normalized-username", r.write(h.HandleSetNormalizedUsername))

	r.Mux.Handle("GET /v1/users/{id}/password-hash", r.read(h.HandleGetPasswordHash))
	r.Mux.Handle("PUT /v1/users/{id}/password-hash", r.write(h.HandleSetPasswordHash))
	r.Mux.Handle("GET /v1/users/{id}/has-password", r.read(h.HandleHasPassword))

	r.Mux.Handle("GET /v1/users/{id}/email", r.read(h.HandleGetEmail))
	r.Mux.Handle("PUT /v1/users/{id}/email", r.write(h.HandleSetEmail))
	r.Mux.Handle("GET /v1/users/{id}/normalized-email", r.read(h.HandleGetNormalizedEmail))
	r.Mux.Handle("PUT /v1/users/{id}/normalized-email", r.write(h.HandleSetNormalizedEmail))
	r.Mux.Handle("GET /v1/users/{id}/email-confirmed", r.read(h.HandleGetEmailConfirmed))
	r.Mux.Handle("PUT /v1/users/{id}/email-confirmed", r.write(h.HandleSetEmailConfirmed))

	r.Mux.Handle("GET /v1/users/{id}/phone-number", r.read(h.HandleGetPhoneNumber))
	r.Mux.Handle("PUT /v1/users/{id}/phone-number", r.write(h.HandleSetPhoneNumber))
	r.Mux.Handle("GET /v1/users/{id}/phone-confirmed", r.read(h.HandleGetPhoneConfirmed))
	r.Mux.Handle("PUT /v1/users/{id}/phone-confirmed", r.write(h.HandleSetPhoneConfirmed))

	r.Mux.Handle("GET /v1/users/{id}/two-factor", r.read(h.HandleGetTwoFactorEnabled))
	r.Mux.Handle("PUT /v1/users/{id}/two-factor", r.write(h.HandleSetTwoFactorEnabled))

	r.Mux.Handle("GET /v1/users/{id}/lockout-end", r.read(h.HandleGetLockoutEnd))
	r.Mux.Handle("PUT /v1/users/{id}/lockout-end", r.write(h.HandleSetLockoutEnd))
	r.Mux.Handle("GET /v1/users/{id}/lockout-enabled", r.read(h.HandleGetLockoutEnabled))
	r.Mux.Handle("PUT /v1/users/{id}/lockout-enabled", r.write(h.HandleSetLockoutEnabled))

	r.Mux.Handle("GET /v1/users/{id}/access-failed-count", r.read(h.HandleGetAccessFailedCount))
	r.Mux.Handle("POST /v1/users/{id}/access-failed-count/increment",
		r.write(h.HandleIncrementAccessFailedCount))
	r.Mux.Handle("POST /v1/users/{id}/access-failed-count/reset",
		r.write(h.HandleResetAccessFailedCount))
}

func (r *Router) registerMembership() {
	h := &MembershipHandler{Store: r.store}

	r.Mux.Handle("GET /v1/users/{id}/roles", r.read(h.HandleGetRoles))
	r.Mux.Handle("GET /v1/users/{id}/roles/{role}", r.read(h.HandleIsInRole))
	r.Mux.Handle("PUT /v1/users/{id}/roles/{role}", r.write(h.HandleAddToRole))
	r.Mux.Handle("DELETE /v1/users/{id}/roles/{role}", r.write(h.HandleRemoveFromRole))
	r.Mux.Handle("GET /v1/roles/{role}/users", r.read(h.HandleGetUsersInRole))
}

func (r *Router) registerRoles() {
	h := &RolesHandler{Store: r.store}

	r.Mux.Handle("POST /v1/roles", r.write(h.HandleCreate))
	r.Mux.Handle("PUT /v1/roles/{id}", r.write(h.HandleUpdate))
	r.Mux.Handle("DELETE /v1/roles/{id}", r.write(h.HandleDelete))
	r.Mux.Handle("GET /v1/roles/{id}", r.read(h.HandleGetByID))
	r.Mux.Handle("GET /v1/lookup/roles/by-name/{name}", r.read(h.HandleGetByName))
	r.Mux.Handle("GET /v1/roles", r.read(h.HandleList))
}

func (r *Router) registerClaims() {
	h := &ClaimsHandler{Store: r.store}

	r.Mux.Handle("GET /v1/users/{id}/claims", r.read(h.HandleGetClaims))
	r.Mux.Handle("POST /v1/users/{id}/claims", r.write(h.HandleAddClaims))
	r.Mux.Handle("POST /v1/users/{id}/claims/remove", r.write(h.HandleRemoveClaims))
	r.Mux.Handle("POST /v1/users/{id}/claims/replace", r.write(h.HandleReplaceClaim))

	// POST because the claim travels in the body; still a pure lookup.
	r.Mux.Handle("POST /v1/claims/users", r.read(h.HandleGetUsersForClaim))
}

func (r *Router) registerLogins() {
	h := &LoginsHandler{Store: r.store}

	r.Mux.Handle("GET /v1/users/{id}/logins", r.read(h.HandleGetLogins))
	r.Mux.Handle("POST /v1/users/{id}/logins", r.write(h.HandleAddLogin))
	r.Mux.Handle("DELETE /v1/users/{id}/logins/{provider}/{key}", r.write(h.HandleRemoveLogin))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitMiddleware(httpx.PublicLimit, httpx.IPKeyExtractor),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitMiddleware(httpx.PublicLimit, httpx.IPKeyExtractor),
		),
	)
}
