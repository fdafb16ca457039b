// Package geo resolves property addresses to coordinates through a
// Nominatim-compatible endpoint. Geocoding is strictly best effort:
// failures are logged and swallowed, a property without coordinates is
// still a valid property.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/atrium-pm/atrium/internal/cache"
	"github.com/atrium-pm/atrium/internal/config"
	"github.com/atrium-pm/atrium/internal/observability/logger"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geocoder resolves free-form addresses. Implementations must treat
// every failure as a soft miss.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Point, bool)
}

// Client geocodes through HTTP and memoizes results in the shared
// cache so the same address is never resolved twice within the TTL.
// With the redis backend the memo is shared across processes.
type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
	cache     cache.Client
	ttl       time.Duration
}

// New returns a client per the geo configuration, or a disabled no-op
// when geocoding is turned off. Results are memoized in c.
func New(cfg *config.Config, c cache.Client) Geocoder {
	if !cfg.Geo.Enabled || cfg.Geo.Endpoint == "" {
		return noop{}
	}
	return &Client{
		endpoint:  cfg.Geo.Endpoint,
		userAgent: cfg.Geo.UserAgent,
		http:      &http.Client{Timeout: 5 * time.Second},
		cache:     c,
		ttl:       cfg.GeoCacheTTL(),
	}
}

type nominatimHit struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (c *Client) Geocode(ctx context.Context, address string) (*Point, bool) {
	if address == "" {
		return nil, false
	}
	if p, ok := c.cached(ctx, address); ok {
		return p, true
	}

	u := fmt.Sprintf("%s/search?%s", c.endpoint, url.Values{
		"q":      {address},
		"format": {"json"},
		"limit":  {"1"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.L().Debug("geocode request failed", zap.Error(err))
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.L().Debug("geocode non-200", logger.Int("status", resp.StatusCode))
		return nil, false
	}

	var hits []nominatimHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil || len(hits) == 0 {
		return nil, false
	}
	lat, err1 := strconv.ParseFloat(hits[0].Lat, 64)
	lng, err2 := strconv.ParseFloat(hits[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return nil, false
	}

	p := Point{Lat: lat, Lng: lng}
	c.memoize(ctx, address, p)
	return &p, true
}

func cacheKey(address string) string { return "geo:" + address }

// cached treats every cache failure as a miss; a broken cache must not
// break geocoding.
func (c *Client) cached(ctx context.Context, address string) (*Point, bool) {
	if c.cache == nil {
		return nil, false
	}
	raw, err := c.cache.Get(ctx, cacheKey(address))
	if err != nil {
		if !cache.IsNotFound(err) {
			logger.L().Debug("geocode cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var p Point
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *Client) memoize(ctx context.Context, address string, p Point) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, cacheKey(address), string(raw), c.ttl); err != nil {
		logger.L().Debug("geocode cache write failed", zap.Error(err))
	}
}

type noop struct{}

func (noop) Geocode(context.Context, string) (*Point, bool) { return nil, false }

var (
	_ Geocoder = (*Client)(nil)
	_ Geocoder = noop{}
)
