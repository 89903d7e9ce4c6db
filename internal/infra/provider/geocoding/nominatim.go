package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// NominatimProvider implements Provider against OpenStreetMap's Nominatim
// search endpoint. No geocoding SDK exists anywhere in the example pack, so
// this talks to the REST API directly over net/http (justified in
// SPEC_FULL.md §11.1).
type NominatimProvider struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

func NewNominatimProvider(userAgent string) *NominatimProvider {
	return &NominatimProvider{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    "https://nominatim.openstreetmap.org",
		userAgent:  userAgent,
	}
}

func (p *NominatimProvider) Name() string { return "nominatim" }

type nominatimHit struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

func (p *NominatimProvider) Geocode(ctx context.Context, query string) (*Location, error) {
	reqURL := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", p.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("nominatim: build request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim: unexpected status %d", resp.StatusCode)
	}

	var hits []nominatimHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return nil, fmt.Errorf("nominatim: decode response: %w", err)
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("nominatim: no results for %q", query)
	}

	lat, err := strconv.ParseFloat(hits[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim: parse latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(hits[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim: parse longitude: %w", err)
	}

	return &Location{Name: hits[0].DisplayName, Latitude: lat, Longitude: lon}, nil
}
