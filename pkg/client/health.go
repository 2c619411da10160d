package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// ReadyResponse is the readiness report of a server.
type ReadyResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
	NATS     string `json:"nats"`
}

// Health checks that the server is alive.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "GET", "/health", nil, nil)
}

// Ready returns the readiness report. A server that is not ready answers
// 503 with the report, which is returned along with the error.
func (c *Client) Ready(ctx context.Context) (*ReadyResponse, error) {
	var result ReadyResponse
	err := c.do(ctx, "GET", "/ready", nil, &result)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
		// The report carries no "error" field, so it arrives as the message.
		if json.Unmarshal([]byte(apiErr.Message), &result) != nil {
			result.Status = "not_ready"
		}
		return &result, err
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}
