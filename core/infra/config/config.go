package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	defaultHTTPAddr     = ":8080"
	defaultMetricsAddr  = ":9090"
	defaultRedisURL     = "redis://localhost:6379"
	defaultRegion       = "us-east-1"
	defaultZoneID       = "use1-az4"
	defaultLimitsConfig = "config/limits.yaml"
	defaultTenantStore  = "memory"

	envHTTPAddr    = "GATEWAY_HTTP_ADDR"
	envMetricsAddr = "GATEWAY_METRICS_ADDR"
	envRedisURL    = "REDIS_URL"
	envNATSURL     = "NATS_URL"
	envRegion      = "KV_REGION"
	envZoneID      = "KV_ZONE_ID"
	envLimitsPath  = "LIMITS_CONFIG_PATH"
	envTenantStore = "TENANT_STORE"
	envEnvironment = "KEYVALUE_ENV"
	envAdminAPIKey = "ADMIN_API_KEY"
)

// Config holds runtime configuration for the gateway.
type Config struct {
	HTTPAddr    string
	MetricsAddr string
	RedisURL    string
	// NatsURL is optional; an empty value runs the gateway without the
	// lifecycle event bus.
	NatsURL     string
	Region      string
	ZoneID      string
	LimitsPath  string
	TenantStore string
	Environment string
}

// Load returns configuration using environment variables with sane defaults.
func Load() *Config {
	httpAddr := os.Getenv(envHTTPAddr)
	if httpAddr == "" {
		httpAddr = defaultHTTPAddr
	}

	metricsAddr := os.Getenv(envMetricsAddr)
	if metricsAddr == "" {
		metricsAddr = defaultMetricsAddr
	}

	redisURL := os.Getenv(envRedisURL)
	if redisURL == "" {
		redisURL = defaultRedisURL
	}

	region := os.Getenv(envRegion)
	if region == "" {
		region = defaultRegion
	}
	zoneID := os.Getenv(envZoneID)
	if zoneID == "" {
		zoneID = defaultZoneID
	}

	limitsPath := os.Getenv(envLimitsPath)
	if limitsPath == "" {
		limitsPath = defaultLimitsConfig
	}

	tenantStore := strings.ToLower(strings.TrimSpace(os.Getenv(envTenantStore)))
	if tenantStore == "" {
		tenantStore = defaultTenantStore
	}

	return &Config{
		HTTPAddr:    httpAddr,
		MetricsAddr: metricsAddr,
		RedisURL:    redisURL,
		NatsURL:     strings.TrimSpace(os.Getenv(envNATSURL)),
		Region:      region,
		ZoneID:      zoneID,
		LimitsPath:  limitsPath,
		TenantStore: tenantStore,
		Environment: strings.ToLower(strings.TrimSpace(os.Getenv(envEnvironment))),
	}
}

// AdminAPIKeys returns the accepted admin keys from the environment. The
// variable holds one key or a comma-separated list during rotation. Empty
// means the admin API is disabled.
func AdminAPIKeys() []string {
	raw := strings.TrimSpace(os.Getenv(envAdminAPIKey))
	if raw == "" {
		return nil
	}
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Validate fails fast on settings a production deployment cannot run
// without. Development deployments fall back to defaults instead.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}
	switch c.TenantStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown tenant store %q", c.TenantStore)
	}
	if c.Environment != "production" {
		return nil
	}
	var missing []string
	if os.Getenv(envRedisURL) == "" {
		missing = append(missing, envRedisURL)
	}
	if os.Getenv(envAdminAPIKey) == "" {
		missing = append(missing, envAdminAPIKey)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
