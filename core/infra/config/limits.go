package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxKeyLength bounds logical key length in UTF-8 bytes.
	DefaultMaxKeyLength = 1024
	// DefaultMaxObjectSize bounds stored values at 10 MiB.
	DefaultMaxObjectSize = 10 * 1024 * 1024

	bucketPrefix = "keyvalue"
)

// Limits holds the per-request size bounds enforced by the gateway.
type Limits struct {
	MaxKeyLength  int   `yaml:"max_key_length"`
	MaxObjectSize int64 `yaml:"max_object_size"`
}

// DefaultLimits returns the built-in bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxKeyLength:  DefaultMaxKeyLength,
		MaxObjectSize: DefaultMaxObjectSize,
	}
}

// ParseLimits parses a limits document, validating it against the embedded
// schema first. Fields left unset keep their defaults.
func ParseLimits(data []byte) (Limits, error) {
	limits := DefaultLimits()
	if len(data) == 0 {
		return limits, nil
	}
	if err := validateConfigSchema("limits", limitsSchemaFile, data); err != nil {
		return Limits{}, err
	}
	if err := yaml.Unmarshal(data, &limits); err != nil {
		return Limits{}, fmt.Errorf("parse limits config: %w", err)
	}
	if limits.MaxKeyLength <= 0 {
		limits.MaxKeyLength = DefaultMaxKeyLength
	}
	if limits.MaxObjectSize <= 0 {
		limits.MaxObjectSize = DefaultMaxObjectSize
	}
	return limits, nil
}

// LoadLimits reads the limits file at path. A missing file yields defaults;
// a malformed one is an error.
func LoadLimits(path string) (Limits, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultLimits(), nil
		}
		return Limits{}, fmt.Errorf("read limits config: %w", err)
	}
	return ParseLimits(data)
}

// BucketName derives a tenant's storage namespace from its ID and zone.
// The mapping is deterministic so the namespace is recomputable during
// disaster recovery.
func BucketName(tenantID, zoneID string) string {
	return bucketPrefix + "-" + tenantID + "--" + zoneID
}
