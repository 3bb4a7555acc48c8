// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

// Package config loads FieldPulse configuration from struct defaults, an
// optional YAML file and environment variables (in that order of
// precedence, lowest first) using koanf.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Collector CollectorConfig `koanf:"collector"`
	Geo       GeoConfig       `koanf:"geo"`
	Resolver  ResolverConfig  `koanf:"resolver"`
	Outbox    OutboxConfig    `koanf:"outbox"`
	Dashboard DashboardConfig `koanf:"dashboard"`
	Bus       BusConfig       `koanf:"bus"`
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// CollectorConfig points at the activity collection backend.
type CollectorConfig struct {
	// BaseURL is the backend host, e.g. https://crm.example.com/api.
	BaseURL string `koanf:"base_url"`

	// Token is the service credential used by the dashboard refresher for
	// bulk reads. Recorded events are sent with the end user's own token.
	Token string `koanf:"token"`

	Timeout time.Duration `koanf:"timeout"`

	// Circuit breaker: trip after BreakerMinRequests with a failure
	// ratio of at least BreakerFailureRatio, stay open for BreakerOpenTimeout.
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio"`
	BreakerOpenTimeout  time.Duration `koanf:"breaker_open_timeout"`
}

// GeoConfig controls the per-session geolocation trackers.
type GeoConfig struct {
	PositionTimeout time.Duration `koanf:"position_timeout"`
	WatchTimeout    time.Duration `koanf:"watch_timeout"`
	// IdleTTL evicts trackers of sessions that stopped reporting.
	IdleTTL       time.Duration `koanf:"idle_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// ResolverConfig controls public address and network geolocation lookups.
type ResolverConfig struct {
	Enabled       bool          `koanf:"enabled"`
	PublicIPURL   string        `koanf:"public_ip_url"`
	GeoURL        string        `koanf:"geo_url"`
	Timeout       time.Duration `koanf:"timeout"`
	CacheTTL      time.Duration `koanf:"cache_ttl"`
	CacheSize     int           `koanf:"cache_size"`
	RatePerMinute int           `koanf:"rate_per_minute"`
}

// OutboxConfig controls the optional local delivery buffer.
type OutboxConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Path          string        `koanf:"path"`
	RetryInterval time.Duration `koanf:"retry_interval"`
	MaxRetries    int           `koanf:"max_retries"`
	BackoffBase   time.Duration `koanf:"backoff_base"`
	BackoffMax    time.Duration `koanf:"backoff_max"`
	BatchSize     int           `koanf:"batch_size"`
	SyncWrites    bool          `koanf:"sync_writes"`
}

// DashboardConfig controls the snapshot refresher.
type DashboardConfig struct {
	RefreshInterval time.Duration `koanf:"refresh_interval"`
	FetchLimit      int           `koanf:"fetch_limit"`
	DisplayLimit    int           `koanf:"display_limit"`
	TimeFilter      string        `koanf:"time_filter"`
	DemoFallback    bool          `koanf:"demo_fallback"`
	// Timezone names the IANA zone used for hour-of-day buckets.
	// Empty means the process local zone.
	Timezone string `koanf:"timezone"`
}

// BusConfig controls event fan-out.
type BusConfig struct {
	// NATSURL enables publishing recorded events to NATS when set.
	NATSURL string `koanf:"nats_url"`
	Subject string `koanf:"subject"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig controls inbound request handling.
type SecurityConfig struct {
	// JWTSecret, when set, makes the gateway verify HS256 bearer tokens
	// before trusting their identity claims.
	JWTSecret         string        `koanf:"jwt_secret"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	// TrustedProxies are addresses or CIDR ranges whose X-Forwarded-For
	// and X-Real-IP headers are believed. Empty trusts no peer.
	TrustedProxies []string `koanf:"trusted_proxies"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}
