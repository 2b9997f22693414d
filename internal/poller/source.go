package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// statusResponse is the upstream status payload.
type statusResponse struct {
	Live    bool   `json:"live"`
	Viewers uint32 `json:"viewers"`
}

// HTTPStatusSource fetches channel status from an upstream HTTP endpoint.
// It expects GET {base}/status/{channelID} to return {"live":bool,"viewers":n}.
type HTTPStatusSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPStatusSource creates a status source against the given base URL.
func NewHTTPStatusSource(baseURL string) *HTTPStatusSource {
	return &HTTPStatusSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Status implements StatusSource.
func (s *HTTPStatusSource) Status(ctx context.Context, channelID string) (Status, error) {
	endpoint := fmt.Sprintf("%s/status/%s", s.baseURL, url.PathEscape(channelID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Status{}, fmt.Errorf("failed to build status request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Status{}, fmt.Errorf("status request returned %d", resp.StatusCode)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Status{}, fmt.Errorf("failed to decode status response: %w", err)
	}

	return Status{Live: body.Live, Viewers: body.Viewers}, nil
}
