package dirapi

import "fmt"

// Error codes carried in the error envelope. The proxy maps them back onto
// the store's sentinel errors; anything it cannot map is a transport fault.
const (
	ErrorCodeNotFound       = "not_found"
	ErrorCodeAlreadyExists  = "already_exists"
	ErrorCodeConflict       = "conflict"
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeServerError    = "server_error"
)

// ErrorResponse is the JSON error envelope used on every non-2xx response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func (e ErrorResponse) String() string {
	return fmt.Sprintf("%s: %s", e.Error, e.ErrorDescription)
}
