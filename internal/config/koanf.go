// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/fieldpulse/config.yaml",
	"/etc/fieldpulse/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Collector: CollectorConfig{
			BaseURL:             "",
			Timeout:             10 * time.Second,
			BreakerMinRequests:  5,
			BreakerFailureRatio: 0.6,
			BreakerOpenTimeout:  30 * time.Second,
		},
		Geo: GeoConfig{
			PositionTimeout: 15 * time.Second,
			WatchTimeout:    30 * time.Second,
			IdleTTL:         30 * time.Minute,
			SweepInterval:   time.Minute,
		},
		Resolver: ResolverConfig{
			Enabled:       true,
			PublicIPURL:   "https://api.ipify.org?format=json",
			GeoURL:        "http://ip-api.com/json/",
			Timeout:       5 * time.Second,
			CacheTTL:      6 * time.Hour,
			CacheSize:     4096,
			RatePerMinute: 45, // ip-api.com free tier
		},
		Outbox: OutboxConfig{
			Enabled:       false,
			Path:          "/data/outbox",
			RetryInterval: 30 * time.Second,
			MaxRetries:    10,
			BackoffBase:   5 * time.Second,
			BackoffMax:    5 * time.Minute,
			BatchSize:     100,
			SyncWrites:    true,
		},
		Dashboard: DashboardConfig{
			RefreshInterval: time.Minute,
			FetchLimit:      1000,
			DisplayLimit:    20,
			TimeFilter:      "today",
			DemoFallback:    true,
		},
		Bus: BusConfig{
			Subject: "fieldpulse.activity.recorded",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8088,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{},
			TrustedProxies:  []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the config file and the
// environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths lists keys that may arrive as comma-separated env strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf keys.
// Variables not listed are ignored.
var envMappings = map[string]string{
	"collector_base_url":              "collector.base_url",
	"api_base_url":                    "collector.base_url",
	"collector_token":                 "collector.token",
	"collector_timeout":               "collector.timeout",
	"collector_breaker_min_requests":  "collector.breaker_min_requests",
	"collector_breaker_failure_ratio": "collector.breaker_failure_ratio",
	"collector_breaker_open_timeout":  "collector.breaker_open_timeout",

	"geo_position_timeout": "geo.position_timeout",
	"geo_watch_timeout":    "geo.watch_timeout",
	"geo_idle_ttl":         "geo.idle_ttl",
	"geo_sweep_interval":   "geo.sweep_interval",

	"resolver_enabled":         "resolver.enabled",
	"resolver_public_ip_url":   "resolver.public_ip_url",
	"resolver_geo_url":         "resolver.geo_url",
	"resolver_timeout":         "resolver.timeout",
	"resolver_cache_ttl":       "resolver.cache_ttl",
	"resolver_cache_size":      "resolver.cache_size",
	"resolver_rate_per_minute": "resolver.rate_per_minute",

	"outbox_enabled":        "outbox.enabled",
	"outbox_path":           "outbox.path",
	"outbox_retry_interval": "outbox.retry_interval",
	"outbox_max_retries":    "outbox.max_retries",
	"outbox_backoff_base":   "outbox.backoff_base",
	"outbox_backoff_max":    "outbox.backoff_max",
	"outbox_batch_size":     "outbox.batch_size",
	"outbox_sync_writes":    "outbox.sync_writes",

	"dashboard_refresh_interval": "dashboard.refresh_interval",
	"dashboard_fetch_limit":      "dashboard.fetch_limit",
	"dashboard_display_limit":    "dashboard.display_limit",
	"dashboard_time_filter":      "dashboard.time_filter",
	"dashboard_demo_fallback":    "dashboard.demo_fallback",
	"dashboard_timezone":         "dashboard.timezone",

	"nats_url":     "bus.nats_url",
	"nats_subject": "bus.subject",

	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"jwt_secret":          "security.jwt_secret",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",
	"trusted_proxies":     "security.trusted_proxies",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc returns "" for unknown variables so koanf skips them.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
