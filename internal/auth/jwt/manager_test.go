package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(accessExpiry time.Duration) *Manager {
	return NewManager("test-secret-key-32-chars-long-minimum!!", "nordmail", accessExpiry, 24*time.Hour)
}

func TestManager_GenerateAndValidate(t *testing.T) {
	m := newTestManager(15 * time.Minute)

	pair, err := m.GenerateTokenPair("admin")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	claims, err := m.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "nordmail", claims.Issuer)
}

func TestManager_RejectsInvalidToken(t *testing.T) {
	m := newTestManager(15 * time.Minute)

	_, err := m.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// 不同密钥签发的令牌
	other := NewManager("another-secret-key-32-chars-long-min!!!", "nordmail", time.Minute, time.Hour)
	pair, err := other.GenerateTokenPair("admin")
	require.NoError(t, err)
	_, err = m.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_ExpiredToken(t *testing.T) {
	m := newTestManager(-time.Minute)

	pair, err := m.GenerateTokenPair("admin")
	require.NoError(t, err)

	_, err = m.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestManager_RefreshAccessToken(t *testing.T) {
	m := newTestManager(15 * time.Minute)

	pair, err := m.GenerateTokenPair("admin")
	require.NoError(t, err)

	access, err := m.RefreshAccessToken(pair.RefreshToken)
	require.NoError(t, err)

	claims, err := m.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
}
