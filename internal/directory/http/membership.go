package http

import (
	"net/http"

	"github.com/crewdir/crewdir/internal/directory/store"
	"github.com/crewdir/crewdir/pkg/dirapi"
	"github.com/crewdir/crewdir/pkg/httpx"
)

// MembershipHandler serves the user-to-role edges. Role names in paths are
// matched by their normalized form store-side, so callers may pass either
// casing.
type MembershipHandler struct {
	Store store.Store
}

func (h *MembershipHandler) HandleAddToRole(w http.ResponseWriter, r *http.Request) {
	u := userRef(r)
	if err := h.Store.Users().AddToRole(r.Context(), &u, r.PathValue("role")); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MembershipHandler) HandleRemoveFromRole(w http.ResponseWriter, r *http.Request) {
	u := userRef(r)
	if err := h.Store.Users().RemoveFromRole(r.Context(), &u, r.PathValue("role")); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MembershipHandler) HandleGetRoles(w http.ResponseWriter, r *http.Request) {
	u := userRef(r)
	roles, err := h.Store.Users().GetRoles(r.Context(), &u)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dirapi.RoleNamesResponse{Roles: roles})
}

func (h *MembershipHandler) HandleIsInRole(w http.ResponseWriter, r *http.Request) {
	u := userRef(r)
	in, err := h.Store.Users().IsInRole(r.Context(), &u, r.PathValue("role"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dirapi.BoolValue{Value: in})
}

func (h *MembershipHandler) HandleGetUsersInRole(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.Users().GetUsersInRole(r.Context(), r.PathValue("role"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dirapi.UsersResponse{Users: dirapi.UsersFromDomain(users)})
}
