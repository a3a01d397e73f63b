package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// GetLiveness checks if the service is alive.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/livez", nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}

	return &health, nil
}

// GetReadiness reports the service's readiness. A degraded service answers
// 503 with the same body, so the checks are returned either way and ready
// tells them apart.
func (c *SDKClient) GetReadiness(ctx context.Context) (health *HealthResponse, ready bool, err error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/readyz", nil, nil)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		return nil, false, parseErrorResponse(resp, body)
	}

	health = &HealthResponse{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(health); err != nil {
		return nil, false, fmt.Errorf("failed to decode response: %w", err)
	}

	return health, resp.StatusCode == http.StatusOK, nil
}
