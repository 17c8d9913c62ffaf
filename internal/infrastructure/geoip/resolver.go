package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keygate-io/keygate/internal/shared/config"
	"github.com/keygate-io/keygate/internal/shared/logger"
)

const (
	countryKeyPrefix = "geoip:country:"
	// Maximum response body size for the geolocation API (16KB)
	maxResponseSize = 16 << 10
)

// lookupResponse represents the geolocation API response
type lookupResponse struct {
	IP      string `json:"ip"`
	Country string `json:"country"`
}

// HTTPResolver resolves caller IPs to ISO country codes via an external
// geolocation API, caching results in redis. Lookup errors propagate to the
// caller; the verification pipeline fails closed on them.
type HTTPResolver struct {
	endpoint   string
	httpClient *http.Client
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     logger.Interface
}

// NewHTTPResolver creates a new geolocation resolver. cache may be nil, in
// which case every lookup hits the API.
func NewHTTPResolver(cfg *config.GeoIPConfig, cache *redis.Client, logger logger.Interface) *HTTPResolver {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &HTTPResolver{
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		cacheTTL:   ttl,
		logger:     logger,
	}
}

// Country resolves an IP to its ISO country code.
func (r *HTTPResolver) Country(ctx context.Context, ip string) (string, error) {
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, countryKeyPrefix+ip).Result()
		if err == nil && cached != "" {
			return cached, nil
		}
		if err != nil && err != redis.Nil {
			// A degraded cache must not break lookups
			r.logger.Warnw("geoip cache read failed", "error", err, "ip", ip)
		}
	}

	country, err := r.fetch(ctx, ip)
	if err != nil {
		return "", err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, countryKeyPrefix+ip, country, r.cacheTTL).Err(); err != nil {
			r.logger.Warnw("geoip cache write failed", "error", err, "ip", ip)
		}
	}
	return country, nil
}

func (r *HTTPResolver) fetch(ctx context.Context, ip string) (string, error) {
	lookupURL := fmt.Sprintf("%s/%s", r.endpoint, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch geolocation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var data lookupResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&data); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if data.Country == "" {
		return "", fmt.Errorf("no country in geolocation response for %s", ip)
	}
	return data.Country, nil
}
