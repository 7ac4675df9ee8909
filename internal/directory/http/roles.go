package http

import (
	"net/http"

	"github.com/crewdir/crewdir/internal/directory/domain"
	"github.com/crewdir/crewdir/internal/directory/store"
	"github.com/crewdir/crewdir/pkg/dirapi"
	"github.com/crewdir/crewdir/pkg/httpx"
)

// RolesHandler serves role entity CRUD and lookups.
type RolesHandler struct {
	Store store.Store
}

func (h *RolesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var payload dirapi.Role
	if !decodeBody(w, r, &payload) {
		return
	}

	role := payload.ToDomain()
	if err := h.Store.Roles().CreateRole(r.Context(), &role); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, dirapi.RoleFromDomain(role))
}

func (h *RolesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload dirapi.Role
	if !decodeBody(w, r, &payload) {
		return
	}

	role := payload.ToDomain()
	role.ID = r.PathValue("id")
	if err := h.Store.Roles().UpdateRole(r.Context(), &role); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dirapi.RoleFromDomain(role))
}

func (h *RolesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	role := domain.Role{ID: r.PathValue("id")}
	if err := h.Store.Roles().DeleteRole(r.Context(), &role); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RolesHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	role, err := h.Store.Roles().GetRoleByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dirapi.RoleFromDomain(role))
}

func (h *RolesHandler) HandleGetByName(w http.ResponseWriter, r *http.Request) {
	role, err := h.Store.Roles().GetRoleByNormalizedName(r.Context(), r.PathValue("name"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dirapi.RoleFromDomain(role))
}

func (h *RolesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Store.Roles().ListRoles(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	out := make([]dirapi.Role, len(roles))
	for i, role := range roles {
		out[i] = dirapi.RoleFromDomain(role)
	}
	httpx.WriteJSON(w, http.StatusOK, dirapi.ListRolesResponse{Roles: out})
}
