// Package gbif queries the GBIF occurrence search API for species records
// around a coordinate and classifies them into fauna and flora.
package gbif

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.gbif.org/v1"

// Media is one media item attached to an occurrence record.
type Media struct {
	Identifier string `json:"identifier"`
}

// Occurrence is one raw species-occurrence record. Kingdom, species and
// media are all optional in the upstream data.
type Occurrence struct {
	Kingdom string  `json:"kingdom"`
	Species string  `json:"species"`
	Media   []Media `json:"media"`
}

type searchResponse struct {
	Results []Occurrence `json:"results"`
}

// Client calls the GBIF occurrence search endpoint.
type Client struct {
	baseURL    string
	limit      int
	httpClient *http.Client
}

func NewClient(baseURL string, limit int) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if limit <= 0 {
		limit = 10
	}
	return &Client{
		baseURL:    baseURL,
		limit:      limit,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Search returns occurrence records around the coordinate. The radius is
// given in kilometers and passed upstream in meters.
func (c *Client) Search(ctx context.Context, lat, lon, radiusKm float64) ([]Occurrence, error) {
	params := url.Values{}
	params.Set("decimalLatitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("decimalLongitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("radius", strconv.FormatFloat(radiusKm*1000, 'f', -1, 64))
	params.Set("limit", strconv.Itoa(c.limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/occurrence/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build gbif request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gbif search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gbif search: unexpected status %s", resp.Status)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode gbif response: %w", err)
	}
	return body.Results, nil
}
