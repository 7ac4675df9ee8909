package http

import (
	"context"
	"net/http"

	"github.com/crewdir/crewdir/internal/directory/domain"
	"github.com/crewdir/crewdir/internal/directory/store"
	"github.com/crewdir/crewdir/pkg/dirapi"
	"github.com/crewdir/crewdir/pkg/httpx"
)

// UserFieldsHandler serves the per-field getters and setters of the user
// capability groups: naming, password hash, email/phone verification,
// two-factor and lockout. One route per store operation; setters respond
// with the post-mutation value so the proxy can mirror the local store's
// write-back behavior.
type UserFieldsHandler struct {
	Store store.Store
}

// userRef builds the minimal entity reference the store keys on.
func userRef(r *http.Request) domain.User {
	return domain.User{ID: r.PathValue("id")}
}

func (h *UserFieldsHandler) getString(
	w http.ResponseWriter, r *http.Request,
	get func(context.Context, *domain.User) (string, error),
) {
	u := userRef(r)
	value, err := get(r.Context(), &u)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dirapi.StringValue{Value: value})
}

func (h *UserFieldsHandler) setString(
	w http.ResponseWriter, r *http.Request,
	set func(context.Context, *domain.User, string) error,
) {
	var payload dirapi.StringValue
	if !decodeBody(w, r, &payload) {
		return
	}

	u := userRef(r)
	if err := set(r.Context(), &u, payload.Value); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dirapi.StringValue{Value: payload.Value, UpdatedAt: u.UpdatedAt})
}

func (h *UserFieldsHandler) getBool(
	w http.ResponseWriter, r *http.Request,
	get func(context.Context, *domain.User) (bool, error),
) {
	u := userRef(r)
	value, err := get(r.Context(), &u)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dirapi.BoolValue{Value: value})
}

func (h *UserFieldsHandler) setBool(
	w http.ResponseWriter, r *http.Request,
	set func(context.Context, *domain.User, bool) error,
) {
	var payload dirapi.BoolValue
	if !decodeBody(w, r, &payload) {
		return
	}

	u := userRef(r)
	if err := set(r.Context(), &u, payload.Value); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dirapi.BoolValue{Value: payload.Value, UpdatedAt: u.UpdatedAt})
}

func (h *UserFieldsHandler) HandleGetUsername(w http.ResponseWriter, r *http.Request) {
	h.getString(w, r, h.Store.Users().GetUsername)
}

func (h *UserFieldsHandler) HandleSetUsername(w http.ResponseWriter, r *http.Request) {
	h.setString(w, r, h.Store.Users().SetUsername)
}

func (h *UserFieldsHandler) HandleGetNormalizedUsername(w http.ResponseWriter, r *http.Request) {
	h.getString(w, r, h.Store.Users().GetNormalizedUsername)
}

func (h *UserFieldsHandler) HandleSetNormalizedUsername(w http.ResponseWriter, r *http.Request) {
	h.setString(w, r, h.Store.Users().SetNormalizedUsername)
}

func (h *UserFieldsHandler) HandleGetPasswordHash(w http.ResponseWriter, r *http.Request) {
	h.getString(w, r, h.Store.Users().GetPasswordHash)
}

func (h *UserFieldsHandler) HandleSetPasswordHash(w http.ResponseWriter, r *http.Request) {
	h.setString(w, r, h.Store.Users().SetPasswordHash)
}

func (h *UserFieldsHandler) HandleHasPassword(w http.ResponseWriter, r *http.Request) {
	h.getBool(w, r, h.Store.Users().HasPassword)
}

func (h *UserFieldsHandler) HandleGetEmail(w http.ResponseWriter, r *http.Request) {
	h.getString(w, r, h.Store.Users().GetEmail)
}

func (h *UserFieldsHandler) HandleSetEmail(w http.ResponseWriter, r *http.Request) {
	h.setString(w, r, h.Store.Users().SetEmail)
}

func (h *UserFieldsHandler) HandleGetNormalizedEmail(w http.ResponseWriter, r *http.Request) {
	h.getString(w, r, h.Store.Users().GetNormalizedEmail)
}

func (h *UserFieldsHandler) HandleSetNormalizedEmail(w http.ResponseWriter, r *http.Request) {
	h.setString(w, r, h.Store.Users().SetNormalizedEmail)
}

func (h *UserFieldsHandler) HandleGetEmailConfirmed(w http.ResponseWriter, r *http.Request) {
	h.getBool(w, r, h.Store.Users().GetEmailConfirmed)
}

func (h *UserFieldsHandler) HandleSetEmailConfirmed(w http.ResponseWriter, r *http.Request) {
	h.setBool(w, r, h.Store.Users().SetEmailConfirmed)
}

func (h *UserFieldsHandler) HandleGetPhoneNumber(w http.ResponseWriter, r *http.Request) {
	h.getString(w, r, h.Store.Users().GetPhoneNumber)
}

func (h *UserFieldsHandler) HandleSetPhoneNumber(w http.ResponseWriter, r *http.Request) {
	h.setString(w, r, h.Store.Users().SetPhoneNumber)
}

func (h *UserFieldsHandler) HandleGetPhoneConfirmed(w http.ResponseWriter, r *http.Request) {
	h.getBool(w, r, h.Store.Users().GetPhoneConfirmed)
}

func (h *UserFieldsHandler) HandleSetPhoneConfirmed(w http.ResponseWriter, r *http.Request) {
	h.setBool(w, r, h.Store.Users().SetPhoneConfirmed)
}

func (h *UserFieldsHandler) HandleGetTwoFactorEnabled(w http.ResponseWriter, r *http.Request) {
	h.getBool(w, r, h.Store.Users().GetTwoFactorEnabled)
}

func (h *UserFieldsHandler) HandleSetTwoFactorEnabled(w http.ResponseWriter, r *http.Request) {
	h.setBool(w, r, h.Store.Users().SetTwoFactorEnabled)
}
