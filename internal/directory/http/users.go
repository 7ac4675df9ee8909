package http

import (
	"net/http"

	"github.com/crewdir/crewdir/internal/directory/store"
	"github.com/crewdir/crewdir/pkg/dirapi"
	"github.com/crewdir/crewdir/pkg/httpx"
)

// UsersHandler serves identity CRUD and the lookup endpoints.
type UsersHandler struct {
	Store store.Store
}

func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var payload dirapi.User
	if !decodeBody(w, r, &payload) {
		return
	}

	u := payload.ToDomain()
	if err := h.Store.Users().CreateUser(r.Context(), &u); err != nil {
		writeStoreError(w, r, err)
		return
	}

	// The created entity carries the assigned timestamps; the proxy copies
	// them back into the caller's struct.
	httpx.WriteJSON(w, http.StatusCreated, dirapi.UserFromDomain(u))
}

func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload dirapi.User
	if !decodeBody(w, r, &payload) {
		return
	}

	u := payload.ToDomain()
	u.ID = r.PathValue("id")
	if err := h.Store.Users().UpdateUser(r.Context(), &u); err != nil {
		writeStoreError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dirapi.UserFromDomain(u))
}

func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u := userRef(r)
	if err := h.Store.Users().DeleteUser(r.Context(), &u); err != nil {
		writeStoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UsersHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	u, err := h.Store.Users().GetUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dirapi.UserFromDomain(u))
}

func (h *UsersHandler) HandleGetByName(w http.ResponseWriter, r *http.Request) {
	u, err := h.Store.Users().GetUserByNormalizedUsername(r.Context(), r.PathValue("name"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dirapi.UserFromDomain(u))
}

func (h *UsersHandler) HandleGetByEmail(w http.ResponseWriter, r *http.Request) {
	u, err := h.Store.Users().GetUserByNormalizedEmail(r.Context(), r.PathValue("email"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dirapi.UserFromDomain(u))
}

func (h *UsersHandler) HandleGetByLogin(w http.ResponseWriter, r *http.Request) {
	u, err := h.Store.Logins().GetUserByLogin(r.Context(), r.PathValue("provider"), r.PathValue("key"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dirapi.UserFromDomain(u))
}
