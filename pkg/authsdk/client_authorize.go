package authsdk

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/accounts/pkg/cryptox"
)

// ErrStateMismatch is returned by ParseCallback when the callback's state is
// not the one the relying party sent.
var ErrStateMismatch = errors.New("authsdk: state mismatch")

// GenerateState returns a random value for the authorize request's state
// parameter. Keep it with the user's session and pass it to ParseCallback.
func GenerateState() (string, error) {
	state, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return state, nil
}

// BuildAuthorizeURL returns the URL that starts the journey for scope. The
// browser is sent there and eventually comes back to redirectURI with a code
// or an error.
//
// Example:
//
//	state, _ := authsdk.GenerateState()
//	u := client.BuildAuthorizeURL("https://app.example.com/callback", state, "delete-account")
//	// Store state with the user's session and redirect the browser to u
func (c *SDKClient) BuildAuthorizeURL(redirectURI, state, scope string) string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", c.ClientID)
	params.Set("redirect_uri", redirectURI)
	params.Set("scope", scope)

	if state != "" {
		params.Set("state", state)
	}

	return fmt.Sprintf("%s/v1/oauth2/authorize?%s", c.BaseURL, params.Encode())
}

// Callback is what the service sent back to the redirect URI.
type Callback struct {
	Code  string
	State string
}

// ParseCallback reads the query of a request to the redirect URI. An error
// parameter becomes an *OAuth2Error. When wantState is not empty the
// callback's state must match it.
func ParseCallback(query url.Values, wantState string) (*Callback, error) {
	state := query.Get("state")
	if wantState != "" && state != wantState {
		return nil, ErrStateMismatch
	}

	if code := query.Get("error"); code != "" {
		return nil, &OAuth2Error{
			StatusCode:  http.StatusBadRequest,
			Code:        code,
			Description: query.Get("error_description"),
		}
	}

	code := query.Get("code")
	if code == "" {
		return nil, &OAuth2Error{
			StatusCode:  http.StatusBadRequest,
			Code:        ErrorCodeInvalidRequest,
			Description: "callback missing authorization code",
		}
	}

	return &Callback{Code: code, State: state}, nil
}
