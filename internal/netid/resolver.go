// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package netid

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/fieldpulse/internal/breaker"
	"github.com/tomtom215/fieldpulse/internal/cache"
	"github.com/tomtom215/fieldpulse/internal/config"
	"github.com/tomtom215/fieldpulse/internal/metrics"
	"github.com/tomtom215/fieldpulse/internal/models"
)

const (
	opPublicAddress = "public_address"
	opLocation      = "location"

	maxResponseBytes = 64 << 10
	ipAPIFields      = "status,message,country,regionName,city,lat,lon,timezone,isp,query"
)

// ipAPIResponse is the ip-api.com JSON payload.
type ipAPIResponse struct {
	Status     string  `json:"status"` // "success" or "fail"
	Message    string  `json:"message"`
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Timezone   string  `json:"timezone"`
	ISP        string  `json:"isp"`
	Query      string  `json:"query"`
}

// Resolver performs public address and network location lookups.
type Resolver struct {
	enabled     bool
	client      *http.Client
	publicIPURL string
	geoURL      string
	limiter     *rate.Limiter
	breaker     *breaker.Breaker[[]byte]
	cache       *cache.LRU[models.Location]
	// publicAddr holds this process's own address under publicAddrKey.
	publicAddr *cache.LRU[string]
}

const publicAddrKey = "self"

// New creates a resolver from cfg.
func New(cfg config.ResolverConfig) *Resolver {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 45
	}

	return &Resolver{
		enabled:     cfg.Enabled,
		client:      &http.Client{Timeout: timeout},
		publicIPURL: cfg.PublicIPURL,
		geoURL:      strings.TrimRight(cfg.GeoURL, "/"),
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		breaker:     breaker.New[[]byte]("netid-resolver", breaker.Settings{MinRequests: 5, FailureRatio: 0.6, OpenTimeout: time.Minute}),
		cache:       cache.NewLRU[models.Location](cfg.CacheSize, cfg.CacheTTL),
		publicAddr:  cache.NewLRU[string](1, cfg.CacheTTL),
	}
}

// ResolvePublicAddress asks the configured echo service for this
// process's public address. A successful answer is cached for CacheTTL.
func (r *Resolver) ResolvePublicAddress(ctx context.Context) (string, error) {
	if !r.enabled || r.publicIPURL == "" {
		return "", &Error{Op: opPublicAddress, Err: ErrDisabled}
	}
	if addr, ok := r.publicAddr.Get(publicAddrKey); ok {
		return addr, nil
	}

	start := time.Now()
	body, err := r.get(ctx, r.publicIPURL)
	metrics.ResolverCallDuration.WithLabelValues(opPublicAddress).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", &Error{Op: opPublicAddress, Err: err}
	}

	addr := parsePublicAddress(body)
	if addr == "" {
		return "", &Error{Op: opPublicAddress, Err: ErrNoAddress}
	}
	r.publicAddr.Add(publicAddrKey, addr)
	return addr, nil
}

// parsePublicAddress accepts {"ip": "..."} or a bare address.
func parsePublicAddress(body []byte) string {
	body = bytes.TrimSpace(body)
	var payload struct {
		IP string `json:"ip"`
	}
	if len(body) > 0 && body[0] == '{' {
		if err := json.Unmarshal(body, &payload); err != nil {
			return ""
		}
		body = []byte(payload.IP)
	}
	addr := NormalizeAddress(string(body))
	if !IsValidPublicIP(addr) {
		return ""
	}
	return addr
}

// ResolveLocation maps address to an approximate place.
func (r *Resolver) ResolveLocation(ctx context.Context, address string) (*models.Location, error) {
	if !r.enabled || r.geoURL == "" {
		return nil, &Error{Op: opLocation, Err: ErrDisabled}
	}

	address = NormalizeAddress(address)
	switch {
	case address == "":
		return nil, &Error{Op: opLocation, Err: ErrNoAddress}
	case IsPrivateIP(address):
		return nil, &Error{Op: opLocation, Err: ErrPrivateAddress}
	case !IsValidPublicIP(address):
		return nil, &Error{Op: opLocation, Err: fmt.Errorf("invalid address %q", address)}
	}

	if loc, ok := r.cache.Get(address); ok {
		metrics.ResolverCacheHits.Inc()
		return &loc, nil
	}
	metrics.ResolverCacheMisses.Inc()

	if !r.limiter.Allow() {
		return nil, &Error{Op: opLocation, Err: ErrRateLimited}
	}

	endpoint := fmt.Sprintf("%s/%s?fields=%s", r.geoURL, url.PathEscape(address), ipAPIFields)
	start := time.Now()
	body, err := r.get(ctx, endpoint)
	metrics.ResolverCallDuration.WithLabelValues(opLocation).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, &Error{Op: opLocation, Err: err}
	}

	var result ipAPIResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &Error{Op: opLocation, Err: fmt.Errorf("decode response: %w", err)}
	}
	if result.Status != "success" {
		return nil, &Error{Op: opLocation, Err: fmt.Errorf("lookup failed: %s", result.Message)}
	}

	loc := convertIPAPIResponse(&result)
	r.cache.Add(address, loc)
	return &loc, nil
}

func convertIPAPIResponse(result *ipAPIResponse) models.Location {
	return models.Location{
		Lat:      models.Float(result.Lat),
		Lng:      models.Float(result.Lon),
		City:     result.City,
		Region:   result.RegionName,
		Country:  result.Country,
		Timezone: result.Timezone,
		ISP:      result.ISP,
		Source:   models.LocationSourceNetwork,
	}
}

// get performs one GET through the breaker. Non-2xx is an error.
func (r *Resolver) get(ctx context.Context, endpoint string) ([]byte, error) {
	return r.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := r.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return body, nil
	})
}
