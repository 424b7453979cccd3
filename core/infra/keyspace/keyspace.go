// Package keyspace derives physical storage keys and credential material
// from logical tenant keys.
package keyspace

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashPrefix returns the first two hex characters of the SHA-256 of key.
// The prefix spreads keys uniformly across 256 buckets so no single
// storage shard becomes hot.
func HashPrefix(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:1])
}

// PhysicalKey maps a logical key to its sharded storage path,
// h/<prefix>/<key>. Every character of the logical key is preserved,
// including path separators, so the mapping is recomputable from the key.
func PhysicalKey(key string) string {
	return "h/" + HashPrefix(key) + "/" + key
}

// LoggingHash returns a short one-way digest of key for log and metric
// records. Raw keys must never reach logs; this is the only key form
// observability code may carry.
func LoggingHash(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:4])
}

// GenerateToken returns a 64-hex-character API token drawn from the
// system CSPRNG. Tokens are not derivable from tenant IDs or timestamps.
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
