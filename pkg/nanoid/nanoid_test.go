package nanoid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratorLengths(t *testing.T) {
	assert.Len(t, Must(), 16)
	assert.Len(t, String(), 16)
	assert.Len(t, String(8), 8)
	assert.Len(t, Token(), 32)
	assert.Len(t, Token(12), 12)
}

func TestGeneratorAlphabets(t *testing.T) {
	lower := Lower(64)
	assert.Equal(t, strings.ToLower(lower), lower)

	upper := Upper(64)
	assert.Equal(t, strings.ToUpper(upper), upper)

	for _, r := range Number(64) {
		assert.True(t, r >= '0' && r <= '9', "unexpected rune %q", r)
	}
}

func TestTokenUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok := Token()
		assert.False(t, seen[tok], "duplicate token %s", tok)
		seen[tok] = true
	}
}
