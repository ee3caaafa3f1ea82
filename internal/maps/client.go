// Package maps implements the Maps Provider (spec §4.1, C1): reverse
// geocoding, nearby-places pagination and road/movement context lookups,
// backed by a TTL cache. Grounded on the teacher's internal/providers HTTP
// client idiom (timeout, typed errors; requests are not retried) and
// original_source/backend/console/screen_profiler/google_maps_utils.py for
// the pagination/delay behavior.
package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fazal-lab/xia/internal/cache"
	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/xerr"
)

// Client implements reverse geocoding and nearby-places search against the
// Google Maps Platform HTTP API. A zero-value APIKey makes every call a
// graceful no-op (empty results, no error) so the profiler can still run in
// rules-only mode without network access, per spec §4.6's rules-fallback
// requirement.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	geocodeTTL time.Duration
	placesTTL  time.Duration
	pageDelay  time.Duration
	cache      *cache.TTLCache
}

// Option configures a Client at construction time.
type Option func(*Client)

func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }
func WithPageDelay(d time.Duration) Option {
	return func(c *Client) { c.pageDelay = d }
}

// New builds a Client. geocodeTTL/placesTTL configure the shared TTLCache's
// default expiry for each call kind (spec's config defaults: 30d / 7d).
func New(apiKey string, geocodeTTL, placesTTL time.Duration, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    "https://maps.googleapis.com/maps/api",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		geocodeTTL: geocodeTTL,
		placesTTL:  placesTTL,
		pageDelay:  2 * time.Second,
		cache:      cache.New(2000, geocodeTTL),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Enabled reports whether the client has an API key and can reach the live
// Maps API.
func (c *Client) Enabled() bool { return c.apiKey != "" }

// ReverseGeocode resolves coordinates to a formatted address and locality.
// Results are cached per spec's geocode TTL since an area's address never
// changes between profiler runs.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (domain.GeoContext, error) {
	var out domain.GeoContext
	if !c.Enabled() {
		return out, nil
	}

	key := fmt.Sprintf("geocode:%.6f,%.6f", lat, lng)
	if cached, ok := c.cache.Get(key); ok {
		if err := json.Unmarshal([]byte(cached), &out); err == nil {
			return out, nil
		}
	}

	q := url.Values{}
	q.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("key", c.apiKey)

	var resp geocodeResponse
	if err := c.get(ctx, "/geocode/json", q, &resp); err != nil {
		return out, err
	}
	if len(resp.Results) == 0 {
		return out, nil
	}
	out = geoContextFromResult(resp.Results[0])

	if b, err := json.Marshal(out); err == nil {
		c.cache.SetTTL(key, string(b), c.geocodeTTL)
	}
	return out, nil
}

// PlacesNearby fetches up to 3 pages of 20 results (Google's page cap) for a
// given radius/type filter, honoring the mandatory inter-page delay that
// Google's next_page_token needs to activate (spec §4.1/§5). Cancellation
// via ctx is checked between pages.
func (c *Client) PlacesNearby(ctx context.Context, lat, lng float64, radiusMeters int, placeType string) ([]domain.Place, error) {
	if !c.Enabled() {
		return nil, nil
	}

	key := fmt.Sprintf("nearby:%.6f,%.6f:%d:%s", lat, lng, radiusMeters, placeType)
	if cached, ok := c.cache.Get(key); ok {
		var places []domain.Place
		if err := json.Unmarshal([]byte(cached), &places); err == nil {
			return places, nil
		}
	}

	var all []domain.Place
	pageToken := ""
	for page := 0; page < 3; page++ {
		if page > 0 {
			timer := time.NewTimer(c.pageDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return all, ctx.Err()
			case <-timer.C:
			}
		}

		q := url.Values{}
		q.Set("location", fmt.Sprintf("%f,%f", lat, lng))
		q.Set("radius", strconv.Itoa(radiusMeters))
		q.Set("key", c.apiKey)
		if placeType != "" {
			q.Set("type", placeType)
		}
		if pageToken != "" {
			q.Set("pagetoken", pageToken)
		}

		var resp placesNearbyResponse
		if err := c.get(ctx, "/place/nearbysearch/json", q, &resp); err != nil {
			return all, err
		}
		for _, r := range resp.Results {
			all = append(all, placeFromResult(r))
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	if b, err := json.Marshal(all); err == nil {
		c.cache.SetTTL(key, string(b), c.placesTTL)
	}
	return all, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return xerr.New(xerr.Fatal, "maps.get", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return xerr.New(xerr.UpstreamUnavailable, "maps.get", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return xerr.New(xerr.UpstreamUnavailable, "maps.get", fmt.Errorf("maps API status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return xerr.New(xerr.ParseFailure, "maps.get", err)
	}
	return nil
}
