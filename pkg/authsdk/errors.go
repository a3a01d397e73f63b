package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

// Error codes the accounts service can return. The first group is RFC 6749;
// the rest belong to the journey endpoints.
const (
	ErrorCodeInvalidRequest          = "invalid_request"
	ErrorCodeInvalidClient           = "invalid_client"
	ErrorCodeInvalidGrant            = "invalid_grant"
	ErrorCodeInvalidScope            = "invalid_scope"
	ErrorCodeUnsupportedResponseType = "unsupported_response_type"
	ErrorCodeServerError             = "server_error"

	ErrorCodeNotFound       = "not_found"
	ErrorCodeSessionCorrupt = "session_corrupt"
)

// OAuth2Error is an error response in the RFC 6749 shape. The server writes
// it with WriteError and the SDK returns it from failed calls.
type OAuth2Error struct {
	StatusCode int `json:"-"`

	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *OAuth2Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches any OAuth2Error with the same Code, so callers can write
// errors.Is(err, authsdk.ErrInvalidGrant).
func (e *OAuth2Error) Is(target error) bool {
	t, ok := target.(*OAuth2Error)
	return ok && t.Code == e.Code
}

// WriteError writes e as an uncacheable JSON response.
func (e *OAuth2Error) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

// NewOAuth2Error creates an OAuth2Error.
func NewOAuth2Error(statusCode int, code, description string) *OAuth2Error {
	return &OAuth2Error{
		StatusCode:  statusCode,
		Code:        code,
		Description: description,
	}
}

// Sentinels for errors.Is. Only Code is compared.
var (
	ErrInvalidRequest          = &OAuth2Error{Code: ErrorCodeInvalidRequest}
	ErrInvalidClient           = &OAuth2Error{Code: ErrorCodeInvalidClient}
	ErrInvalidGrant            = &OAuth2Error{Code: ErrorCodeInvalidGrant}
	ErrInvalidScope            = &OAuth2Error{Code: ErrorCodeInvalidScope}
	ErrUnsupportedResponseType = &OAuth2Error{Code: ErrorCodeUnsupportedResponseType}
	ErrServerError             = &OAuth2Error{Code: ErrorCodeServerError}
	ErrNotFound                = &OAuth2Error{Code: ErrorCodeNotFound}
	ErrSessionCorrupt          = &OAuth2Error{Code: ErrorCodeSessionCorrupt}
)

// parseErrorResponse turns a non-2xx response into an *OAuth2Error. Bodies
// that are not in the error shape become a server_error carrying the status.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &OAuth2Error{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &OAuth2Error{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
