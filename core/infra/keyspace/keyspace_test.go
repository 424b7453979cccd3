package keyspace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPrefixDeterministic(t *testing.T) {
	a := HashPrefix("user:profile:123")
	b := HashPrefix("user:profile:123")
	assert.Equal(t, a, b)
	assert.Len(t, a, 2)
	assert.Regexp(t, "^[0-9a-f]{2}$", a)
}

func TestHashPrefixSpreads(t *testing.T) {
	seen := map[string]bool{}
	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	for _, k := range keys {
		seen[HashPrefix(k)] = true
	}
	// ten short keys should not all land in one bucket
	assert.Greater(t, len(seen), 1)
}

func TestPhysicalKeyLayout(t *testing.T) {
	key := "config/app/settings.json"
	pk := PhysicalKey(key)
	require.True(t, strings.HasPrefix(pk, "h/"))
	assert.Equal(t, "h/"+HashPrefix(key)+"/"+key, pk)
	// path separators in the logical key survive intact
	assert.True(t, strings.HasSuffix(pk, key))
}

func TestLoggingHashShape(t *testing.T) {
	h := LoggingHash("secret-key-name")
	assert.Len(t, h, 8)
	assert.Regexp(t, "^[0-9a-f]{8}$", h)
	assert.Equal(t, h, LoggingHash("secret-key-name"))
	assert.NotEqual(t, h, LoggingHash("other-key"))
	assert.NotContains(t, h, "secret")
}

func TestGenerateToken(t *testing.T) {
	tok, err := GenerateToken()
	require.NoError(t, err)
	assert.Len(t, tok, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", tok)

	other, err := GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)
}
