package http

import (
	"net/http"

	"github.com/crewdir/crewdir/pkg/dirapi"
	"github.com/crewdir/crewdir/pkg/httpx"
)

func (h *UserFieldsHandler) HandleGetLockoutEnd(w http.ResponseWriter, r *http.Request) {
	u := userRef(r)
	end, err := h.Store.Users().GetLockoutEnd(r.Context(), &u)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dirapi.TimeValue{Value: end})
}

func (h *UserFieldsHandler) HandleSetLockoutEnd(w http.ResponseWriter, r *http.Request) {
	var payload dirapi.TimeValue
	if !decodeBody(w, r, &payload) {
		return
	}

	u := userRef(r)
	if err := h.Store.Users().SetLockoutEnd(r.Context(), &u, payload.Value); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dirapi.TimeValue{Value: payload.Value, UpdatedAt: u.UpdatedAt})
}

func (h *UserFieldsHandler) HandleGetLockoutEnabled(w http.ResponseWriter, r *http.Request) {
	h.getBool(w, r, h.Store.Users().GetLockoutEnabled)
}

func (h *UserFieldsHandler) HandleSetLockoutEnabled(w http.ResponseWriter, r *http.Request) {
	h.setBool(w, r, h.Store.Users().SetLockoutEnabled)
}

func (h *UserFieldsHandler) HandleGetAccessFailedCount(w http.ResponseWriter, r *http.Request) {
	u := userRef(r)
	count, err := h.Store.Users().GetAccessFailedCount(r.Context(), &u)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dirapi.IntValue{Value: count})
}

func (h *UserFieldsHandler) HandleIncrementAccessFailedCount(w http.ResponseWriter, r *http.Request) {
	u := userRef(r)
	count, err := h.Store.Users().IncrementAccessFailedCount(r.Context(), &u)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dirapi.IntValue{Value: count})
}

func (h *UserFieldsHandler) HandleResetAccessFailedCount(w http.ResponseWriter, r *http.Request) {
	u := userRef(r)
	if err := h.Store.Users().ResetAccessFailedCount(r.Context(), &u); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dirapi.IntValue{Value: 0, UpdatedAt: u.UpdatedAt})
}
