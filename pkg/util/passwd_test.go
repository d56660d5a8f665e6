package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptAndComparePassword(t *testing.T) {
	hash := EncryptPassword("s3cret-pass")
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, ComparePassword(hash, "s3cret-pass"))
	assert.False(t, ComparePassword(hash, "wrong-pass"))
	assert.False(t, ComparePassword("not-a-hash", "s3cret-pass"))
}
