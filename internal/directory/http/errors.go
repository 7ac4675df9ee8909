package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/crewdir/crewdir/internal/directory/store"
	"github.com/crewdir/crewdir/pkg/dirapi"
	"github.com/crewdir/crewdir/pkg/httpx"
	"github.com/crewdir/crewdir/pkg/slogx"
)

// writeStoreError maps a store outcome onto the wire error envelope. The
// sentinel set maps to dedicated codes so the proxy can reconstruct the
// exact same error; everything else is a 500 the proxy treats as a
// transport fault.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteJSON(w, http.StatusNotFound, dirapi.ErrorResponse{
			Error:            dirapi.ErrorCodeNotFound,
			ErrorDescription: err.Error(),
		})
	case errors.Is(err, store.ErrAlreadyExists):
		httpx.WriteJSON(w, http.StatusConflict, dirapi.ErrorResponse{
			Error:            dirapi.ErrorCodeAlreadyExists,
			ErrorDescription: err.Error(),
		})
	case errors.Is(err, store.ErrConflict):
		httpx.WriteJSON(w, http.StatusConflict, dirapi.ErrorResponse{
			Error:            dirapi.ErrorCodeConflict,
			ErrorDescription: err.Error(),
		})
	default:
		slogx.FromContext(r.Context()).Error("store operation failed", "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, dirapi.ErrorResponse{
			Error:            dirapi.ErrorCodeServerError,
			ErrorDescription: "internal error",
		})
	}
}

// decodeBody parses the JSON request body into v, answering 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, dirapi.ErrorResponse{
			Error:            dirapi.ErrorCodeInvalidRequest,
			ErrorDescription: "malformed request body",
		})
		return false
	}
	return true
}
