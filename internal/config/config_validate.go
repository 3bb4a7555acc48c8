// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"json": true, "console": true,
}

// validTimeFilters are the values the collection backend accepts for time_filter.
var validTimeFilters = map[string]bool{
	"": true, "today": true, "yesterday": true, "week": true, "month": true, "all": true,
}

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	if err := c.validateCollector(); err != nil {
		return err
	}
	if err := c.validateGeo(); err != nil {
		return err
	}
	if err := c.validateResolver(); err != nil {
		return err
	}
	if err := c.validateOutbox(); err != nil {
		return err
	}
	if err := c.validateDashboard(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCollector() error {
	if c.Collector.BaseURL == "" {
		return fmt.Errorf("COLLECTOR_BASE_URL is required")
	}
	if err := validateHTTPURL("COLLECTOR_BASE_URL", c.Collector.BaseURL); err != nil {
		return err
	}
	c.Collector.BaseURL = strings.TrimRight(c.Collector.BaseURL, "/")
	if c.Collector.Timeout <= 0 {
		return fmt.Errorf("COLLECTOR_TIMEOUT must be positive")
	}
	if c.Collector.BreakerFailureRatio <= 0 || c.Collector.BreakerFailureRatio > 1 {
		return fmt.Errorf("COLLECTOR_BREAKER_FAILURE_RATIO must be in (0, 1], got %v", c.Collector.BreakerFailureRatio)
	}
	return nil
}

func (c *Config) validateGeo() error {
	if c.Geo.PositionTimeout <= 0 || c.Geo.WatchTimeout <= 0 {
		return fmt.Errorf("GEO_POSITION_TIMEOUT and GEO_WATCH_TIMEOUT must be positive")
	}
	if c.Geo.IdleTTL < time.Minute {
		return fmt.Errorf("GEO_IDLE_TTL must be at least 1m, got %v", c.Geo.IdleTTL)
	}
	if c.Geo.SweepInterval <= 0 {
		return fmt.Errorf("GEO_SWEEP_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) validateResolver() error {
	if !c.Resolver.Enabled {
		return nil
	}
	if err := validateHTTPURL("RESOLVER_PUBLIC_IP_URL", c.Resolver.PublicIPURL); err != nil {
		return err
	}
	if err := validateHTTPURL("RESOLVER_GEO_URL", c.Resolver.GeoURL); err != nil {
		return err
	}
	if c.Resolver.RatePerMinute <= 0 {
		return fmt.Errorf("RESOLVER_RATE_PER_MINUTE must be positive")
	}
	if c.Resolver.CacheSize <= 0 {
		return fmt.Errorf("RESOLVER_CACHE_SIZE must be positive")
	}
	return nil
}

func (c *Config) validateOutbox() error {
	if !c.Outbox.Enabled {
		return nil
	}
	if c.Outbox.Path == "" {
		return fmt.Errorf("OUTBOX_PATH is required when the outbox is enabled")
	}
	if c.Outbox.MaxRetries < 1 {
		return fmt.Errorf("OUTBOX_MAX_RETRIES must be at least 1")
	}
	if c.Outbox.BackoffBase <= 0 || c.Outbox.BackoffMax < c.Outbox.BackoffBase {
		return fmt.Errorf("OUTBOX_BACKOFF_BASE must be positive and not exceed OUTBOX_BACKOFF_MAX")
	}
	if c.Outbox.RetryInterval <= 0 {
		return fmt.Errorf("OUTBOX_RETRY_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) validateDashboard() error {
	if c.Dashboard.RefreshInterval < time.Second {
		return fmt.Errorf("DASHBOARD_REFRESH_INTERVAL must be at least 1s")
	}
	if c.Dashboard.FetchLimit <= 0 || c.Dashboard.DisplayLimit <= 0 {
		return fmt.Errorf("DASHBOARD_FETCH_LIMIT and DASHBOARD_DISPLAY_LIMIT must be positive")
	}
	if !validTimeFilters[c.Dashboard.TimeFilter] {
		return fmt.Errorf("DASHBOARD_TIME_FILTER %q is not supported", c.Dashboard.TimeFilter)
	}
	if c.Dashboard.Timezone != "" {
		if _, err := time.LoadLocation(c.Dashboard.Timezone); err != nil {
			return fmt.Errorf("DASHBOARD_TIMEZONE: %w", err)
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret != "" && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters when set")
	}
	if !c.Security.RateLimitDisabled && (c.Security.RateLimitReqs <= 0 || c.Security.RateLimitWindow <= 0) {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive unless rate limiting is disabled")
	}
	for _, p := range c.Security.TrustedProxies {
		if !validProxyEntry(p) {
			return fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP address or CIDR range", p)
		}
	}
	return nil
}

func validProxyEntry(entry string) bool {
	if net.ParseIP(entry) != nil {
		return true
	}
	_, _, err := net.ParseCIDR(entry)
	return err == nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func validateHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", name, raw)
	}
	return nil
}
