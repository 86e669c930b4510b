// Package geocoding resolves free-text place names to coordinates through an
// Open-Meteo compatible search endpoint.
package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"parcel-courier/internal/models"
)

// ErrNoMatch is returned when the lookup succeeds but yields no result.
var ErrNoMatch = errors.New("geocoding: no match")

// Client calls the geocoding search endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the search endpoint at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

// Resolve looks up location, optionally narrowed to country, and returns the
// coordinates of the first result.
func (c *Client) Resolve(ctx context.Context, location, country string) (*models.Coordinates, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrNoMatch
	}

	q := url.Values{}
	q.Set("name", location)
	if country = strings.TrimSpace(country); country != "" {
		q.Set("country", country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocoding.Resolve build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding.Resolve call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding.Resolve: unexpected status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("geocoding.Resolve decode: %w", err)
	}
	if len(body.Results) == 0 {
		return nil, ErrNoMatch
	}

	first := body.Results[0]
	return &models.Coordinates{Latitude: first.Latitude, Longitude: first.Longitude}, nil
}
