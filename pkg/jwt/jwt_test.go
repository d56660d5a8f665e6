package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndDecodeAccessToken(t *testing.T) {
	jtm := NewTokenManager("test-secret")

	tokenStr, err := jtm.GenerateAccessToken("jti-1", map[string]any{
		"user_id": "user-1",
		"email":   "user@example.com",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)

	claims, err := jtm.DecodeToken(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, "jti-1", claims["jti"])
	assert.Equal(t, "access", claims["sub"])
	assert.Equal(t, "user-1", GetUserIDFromToken(claims))
	assert.Equal(t, "user@example.com", GetEmailFromToken(claims))
}

func TestDecodeTokenWrongKey(t *testing.T) {
	tokenStr, err := NewTokenManager("key-a").GenerateAccessToken("jti-1", nil)
	require.NoError(t, err)

	_, err = NewTokenManager("key-b").DecodeToken(tokenStr)
	assert.Error(t, err)
}

func TestGenerateTokenWithoutKey(t *testing.T) {
	_, err := NewTokenManager("").GenerateAccessToken("jti-1", nil)
	assert.ErrorIs(t, err, ErrNeedTokenProvider)
}

func TestGetTokenExpiryTime(t *testing.T) {
	jtm := NewTokenManager("test-secret")

	tokenStr, err := jtm.GenerateAccessTokenWithExpiry("jti-1", nil, time.Hour)
	require.NoError(t, err)

	exp, err := jtm.GetTokenExpiryTime(tokenStr)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)
}

func TestMissingPayloadClaims(t *testing.T) {
	assert.Empty(t, GetUserIDFromToken(map[string]any{}))
	assert.Empty(t, GetEmailFromToken(map[string]any{"payload": "not-a-map"}))
}
