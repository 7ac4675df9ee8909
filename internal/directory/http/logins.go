package http

import (
	"net/http"

	"github.com/crewdir/crewdir/internal/directory/store"
	"github.com/crewdir/crewdir/pkg/dirapi"
	"github.com/crewdir/crewdir/pkg/httpx"
)

// LoginsHandler serves external login bindings. The (provider, key) pair is
// globally unique across users.
type LoginsHandler struct {
	Store store.Store
}

func (h *LoginsHandler) HandleGetLogins(w http.ResponseWriter, r *http.Request) {
	u := userRef(r)
	logins, err := h.Store.Logins().GetLogins(r.Context(), &u)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	out := make([]dirapi.LoginBinding, len(logins))
	for i, b := range logins {
		out[i] = dirapi.LoginFromDomain(b)
	}
	httpx.WriteJSON(w, http.StatusOK, dirapi.LoginsResponse{Logins: out})
}

func (h *LoginsHandler) HandleAddLogin(w http.ResponseWriter, r *http.Request) {
	var payload dirapi.LoginBinding
	if !decodeBody(w, r, &payload) {
		return
	}

	u := userRef(r)
	if err := h.Store.Logins().AddLogin(r.Context(), &u, payload.ToDomain()); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *LoginsHandler) HandleRemoveLogin(w http.ResponseWriter, r *http.Request) {
	u := userRef(r)
	err := h.Store.Logins().RemoveLogin(r.Context(), &u, r.PathValue("provider"), r.PathValue("key"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
