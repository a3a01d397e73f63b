package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// SessionCookieName is the cookie that carries the browser's session ID.
const SessionCookieName = "accounts_session"

// GetJourney returns the journey for scope in the given browser session.
// The journey UI uses it; relying parties normally never call it.
func (c *SDKClient) GetJourney(ctx context.Context, sessionID, scope string) (*JourneyResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, journeyPath(scope), nil, sessionHeaders(sessionID))
	if err != nil {
		return nil, err
	}

	var out JourneyResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendJourneyEvent submits an event to the journey for scope. Check Applied
// on the result: an event the journey does not accept is not an error.
func (c *SDKClient) SendJourneyEvent(
	ctx context.Context,
	sessionID, scope, event string,
	data map[string]string,
) (*JourneyResponse, error) {
	body, err := json.Marshal(JourneyEventRequest{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}

	headers := sessionHeaders(sessionID)
	headers["Content-Type"] = "application/json"

	resp, err := c.doRequest(ctx, http.MethodPost, journeyPath(scope)+"/events", bytes.NewReader(body), headers)
	if err != nil {
		return nil, err
	}

	var out JourneyResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func journeyPath(scope string) string {
	return "/v1/journeys/" + url.PathEscape(scope)
}

func sessionHeaders(sessionID string) map[string]string {
	headers := map[string]string{}
	if sessionID != "" {
		headers["Cookie"] = (&http.Cookie{Name: SessionCookieName, Value: sessionID}).String()
	}
	return headers
}
