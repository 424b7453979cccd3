package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		envHTTPAddr, envMetricsAddr, envRedisURL, envNATSURL,
		envRegion, envZoneID, envLimitsPath, envTenantStore,
		envEnvironment, envAdminAPIKey,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	if cfg.HTTPAddr != defaultHTTPAddr {
		t.Fatalf("unexpected http addr: %s", cfg.HTTPAddr)
	}
	if cfg.RedisURL != defaultRedisURL {
		t.Fatalf("unexpected redis url: %s", cfg.RedisURL)
	}
	if cfg.NatsURL != "" {
		t.Fatalf("nats should default to disabled, got %s", cfg.NatsURL)
	}
	if cfg.TenantStore != "memory" {
		t.Fatalf("unexpected tenant store: %s", cfg.TenantStore)
	}
	if cfg.ZoneID != defaultZoneID {
		t.Fatalf("unexpected zone: %s", cfg.ZoneID)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(envHTTPAddr, ":7070")
	t.Setenv(envTenantStore, "Redis")
	t.Setenv(envZoneID, "use2-az1")
	cfg := Load()
	if cfg.HTTPAddr != ":7070" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTPAddr)
	}
	if cfg.TenantStore != "redis" {
		t.Fatalf("tenant store not normalized: %s", cfg.TenantStore)
	}
	if cfg.ZoneID != "use2-az1" {
		t.Fatalf("unexpected zone: %s", cfg.ZoneID)
	}
}

func TestValidateProductionRequiresSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv(envEnvironment, "production")
	cfg := Load()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing-variable error in production")
	}

	t.Setenv(envRedisURL, "redis://redis:6379")
	t.Setenv(envAdminAPIKey, "k")
	cfg = Load()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRejectsUnknownTenantStore(t *testing.T) {
	clearEnv(t)
	t.Setenv(envTenantStore, "postgres")
	if err := Load().Validate(); err == nil {
		t.Fatalf("expected unknown tenant store error")
	}
}

func TestParseLimits(t *testing.T) {
	limits, err := ParseLimits([]byte("max_key_length: 64\nmax_object_size: 2048\n"))
	if err != nil {
		t.Fatalf("parse limits: %v", err)
	}
	if limits.MaxKeyLength != 64 || limits.MaxObjectSize != 2048 {
		t.Fatalf("unexpected limits: %+v", limits)
	}
}

func TestParseLimitsDefaults(t *testing.T) {
	limits, err := ParseLimits(nil)
	if err != nil {
		t.Fatalf("parse limits: %v", err)
	}
	if limits != DefaultLimits() {
		t.Fatalf("unexpected limits: %+v", limits)
	}

	partial, err := ParseLimits([]byte("max_key_length: 10\n"))
	if err != nil {
		t.Fatalf("parse partial limits: %v", err)
	}
	if partial.MaxKeyLength != 10 || partial.MaxObjectSize != DefaultMaxObjectSize {
		t.Fatalf("unexpected partial limits: %+v", partial)
	}
}

func TestParseLimitsRejectsUnknownField(t *testing.T) {
	if _, err := ParseLimits([]byte("max_keys: 10\n")); err == nil {
		t.Fatalf("expected schema rejection")
	}
	if _, err := ParseLimits([]byte("max_key_length: -1\n")); err == nil {
		t.Fatalf("expected schema rejection for negative limit")
	}
}

func TestLoadLimitsMissingFile(t *testing.T) {
	limits, err := LoadLimits(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load limits: %v", err)
	}
	if limits != DefaultLimits() {
		t.Fatalf("unexpected limits: %+v", limits)
	}
}

func TestLoadLimitsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limits.yaml")
	if err := os.WriteFile(path, []byte("max_object_size: 512\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	limits, err := LoadLimits(path)
	if err != nil {
		t.Fatalf("load limits: %v", err)
	}
	if limits.MaxObjectSize != 512 {
		t.Fatalf("unexpected limits: %+v", limits)
	}
}

func TestBucketName(t *testing.T) {
	got := BucketName("t-123", "use1-az4")
	if got != "keyvalue-t-123--use1-az4" {
		t.Fatalf("unexpected bucket name: %s", got)
	}
}
