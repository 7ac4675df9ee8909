package http

import (
	"net/http"

	"github.com/crewdir/crewdir/internal/directory/store"
	"github.com/crewdir/crewdir/pkg/dirapi"
	"github.com/crewdir/crewdir/pkg/httpx"
)

// ClaimsHandler serves the claim set attached to a user. Claims are plain
// (type, value) pairs; duplicates are allowed and removal matches exactly.
type ClaimsHandler struct {
	Store store.Store
}

func (h *ClaimsHandler) HandleGetClaims(w http.ResponseWriter, r *http.Request) {
	u := userRef(r)
	claims, err := h.Store.Claims().GetClaims(r.Context(), &u)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dirapi.ClaimsResponse{Claims: dirapi.ClaimsFromDomain(claims)})
}

func (h *ClaimsHandler) HandleAddClaims(w http.ResponseWriter, r *http.Request) {
	var payload dirapi.AddClaimsRequest
	if !decodeBody(w, r, &payload) {
		return
	}

	u := userRef(r)
	if err := h.Store.Claims().AddClaims(r.Context(), &u, dirapi.ClaimsToDomain(payload.Claims)); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRemoveClaims is a POST rather than a DELETE because the claim list
// travels in the body.
func (h *ClaimsHandler) HandleRemoveClaims(w http.ResponseWriter, r *http.Request) {
	var payload dirapi.RemoveClaimsRequest
	if !decodeBody(w, r, &payload) {
		return
	}

	u := userRef(r)
	if err := h.Store.Claims().RemoveClaims(r.Context(), &u, dirapi.ClaimsToDomain(payload.Claims)); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ClaimsHandler) HandleReplaceClaim(w http.ResponseWriter, r *http.Request) {
	var payload dirapi.ReplaceClaimRequest
	if !decodeBody(w, r, &payload) {
		return
	}

	u := userRef(r)
	err := h.Store.Claims().ReplaceClaim(r.Context(), &u, payload.Old.ToDomain(), payload.New.ToDomain())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ClaimsHandler) HandleGetUsersForClaim(w http.ResponseWriter, r *http.Request) {
	var payload dirapi.Claim
	if !decodeBody(w, r, &payload) {
		return
	}

	users, err := h.Store.Claims().GetUsersForClaim(r.Context(), payload.ToDomain())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dirapi.UsersResponse{Users: dirapi.UsersFromDomain(users)})
}
