package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Incident is one currently-open outage from the authority's snapshot
// feed. Absence of a unit from the snapshot means the unit is operational.
type Incident struct {
	UnitID             string `json:"UnitName"`
	UnitType           string `json:"UnitType"`
	StationCode        string `json:"StationCode"`
	StationName        string `json:"StationName"`
	SymptomDescription string `json:"SymptomDescription"`
}

// apiResponse models the top-level structure of the feed response.
type apiResponse struct {
	Incidents []Incident `json:"ElevatorIncidents"`
}

// Client fetches the current incident snapshot.
type Client interface {
	Incidents(ctx context.Context) ([]Incident, error)
}

// HTTPClient is the real feed client.
type HTTPClient struct {
	url     string
	apiKey  string
	headers map[string]string
	client  *http.Client
}

// NewHTTPClient creates a feed client for the given endpoint.
func NewHTTPClient(url, apiKey string, headers map[string]string) *HTTPClient {
	return &HTTPClient{
		url:     url,
		apiKey:  apiKey,
		headers: headers,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Incidents fetches the snapshot. Any failure here aborts the caller's
// tick; the snapshot carries no ordering guarantee and may be empty.
func (c *HTTPClient) Incidents(ctx context.Context) ([]Incident, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("api_key", c.apiKey)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feed response: %w", err)
	}

	return apiResp.Incidents, nil
}
